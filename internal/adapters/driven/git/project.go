package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/custodia-labs/reposync/internal/core/ports/driven"
)

const (
	// originRemote names the upstream remote in both the store and the tree.
	originRemote = "origin"

	// alternatesFile links a working tree's object database to the store.
	alternatesFile = "objects/info/alternates"

	preciousSection = "extensions"
	preciousKey     = "preciousObjects"
)

var (
	// ErrDiverged indicates the local branch has commits the remote lacks.
	ErrDiverged = errors.New("local branch has diverged from remote")

	// ErrDirtyWorktree indicates uncommitted changes block a checkout.
	ErrDirtyWorktree = errors.New("working tree has uncommitted changes")
)

// Ensure Project implements the interface.
var _ driven.Project = (*Project)(nil)

// Project is one manifest project backed by a bare object store and a
// working tree that borrows its objects.
type Project struct {
	root              string
	name              string
	relpath           string
	url               string
	revision          string
	objdir            string
	currentBranchOnly bool
	gitWorktrees      bool
	alternates        bool
}

// RelPath returns the path relative to the workspace root.
func (p *Project) RelPath() string { return p.relpath }

// Name returns the remote project name.
func (p *Project) Name() string { return p.name }

// ObjDir returns the object store path relative to the workspace root.
func (p *Project) ObjDir() string { return p.objdir }

// Worktree returns the absolute working tree path.
func (p *Project) Worktree() string {
	return filepath.Join(p.root, filepath.FromSlash(p.relpath))
}

// URL returns the upstream fetch URL.
func (p *Project) URL() string { return p.url }

// Revision returns the manifest revision.
func (p *Project) Revision() string { return p.revision }

// Exists reports whether the working tree has been initialised.
func (p *Project) Exists() bool {
	_, err := os.Stat(filepath.Join(p.Worktree(), gogit.GitDirName))
	return err == nil
}

// UseGitWorktrees reports per-project isolated worktree storage. Trees are
// always linked through alternates, so this is never set.
func (p *Project) UseGitWorktrees() bool { return p.gitWorktrees }

// UseAlternates reports whether the object store itself borrows from an
// external alternate.
func (p *Project) UseAlternates() bool { return p.alternates }

func (p *Project) objdirPath() string {
	return filepath.Join(p.root, filepath.FromSlash(p.objdir))
}

// SyncNetworkHalf fetches the upstream into the shared object store.
func (p *Project) SyncNetworkHalf(ctx context.Context, opts driven.NetworkHalfOptions) error {
	repo, err := openStore(p.objdirPath())
	if err != nil {
		return fmt.Errorf("open object store: %w", err)
	}

	if err := ensureRemote(repo, originRemote, p.url, p.fetchSpecs(opts.CurrentBranchOnly || p.currentBranchOnly)); err != nil {
		return err
	}

	if err := setPreciousObjects(repo, opts.PreciousObjects); err != nil {
		return err
	}

	tags := gogit.NoTags
	if opts.Tags {
		tags = gogit.AllTags
	}

	err = repo.FetchContext(ctx, &gogit.FetchOptions{
		RemoteName: originRemote,
		RefSpecs:   p.fetchSpecs(opts.CurrentBranchOnly || p.currentBranchOnly),
		Tags:       tags,
		Prune:      opts.Prune,
		Force:      opts.ForceSync,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return fmt.Errorf("fetch %s: %w", p.url, err)
	}
	return nil
}

func (p *Project) fetchSpecs(currentOnly bool) []config.RefSpec {
	if currentOnly && !plumbing.IsHash(p.revision) {
		branch := strings.TrimPrefix(p.revision, "refs/heads/")
		return []config.RefSpec{config.RefSpec(fmt.Sprintf("+refs/heads/%s:refs/remotes/%s/%s", branch, originRemote, branch))}
	}
	return []config.RefSpec{config.RefSpec(fmt.Sprintf("+refs/heads/*:refs/remotes/%s/*", originRemote))}
}

// openStore opens the bare store at dir, creating it when missing.
func openStore(dir string) (*gogit.Repository, error) {
	storage := filesystem.NewStorage(osfs.New(dir), cache.NewObjectLRUDefault())
	repo, err := gogit.Open(storage, nil)
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return gogit.Init(storage, nil)
	}
	return repo, err
}

// ensureRemote creates the remote or repoints it when the URL changed.
func ensureRemote(repo *gogit.Repository, name, url string, specs []config.RefSpec) error {
	remote, err := repo.Remote(name)
	switch {
	case errors.Is(err, gogit.ErrRemoteNotFound):
	case err != nil:
		return fmt.Errorf("read remote %s: %w", name, err)
	default:
		cfg := remote.Config()
		if len(cfg.URLs) == 1 && cfg.URLs[0] == url && sameSpecs(cfg.Fetch, specs) {
			return nil
		}
		if err := repo.DeleteRemote(name); err != nil {
			return fmt.Errorf("replace remote %s: %w", name, err)
		}
	}

	if _, err := repo.CreateRemote(&config.RemoteConfig{Name: name, URLs: []string{url}, Fetch: specs}); err != nil {
		return fmt.Errorf("create remote %s: %w", name, err)
	}
	return nil
}

func sameSpecs(a, b []config.RefSpec) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// setPreciousObjects marks or unmarks the store as holding objects that
// other trees depend on, so maintenance must not prune them.
func setPreciousObjects(repo *gogit.Repository, precious bool) error {
	cfg, err := repo.Config()
	if err != nil {
		return fmt.Errorf("read store config: %w", err)
	}

	section := cfg.Raw.Section(preciousSection)
	current := section.Option(preciousKey) == "true"
	if current == precious {
		return nil
	}
	if precious {
		section.SetOption(preciousKey, "true")
	} else {
		section.RemoveOption(preciousKey)
	}

	if err := repo.Storer.SetConfig(cfg); err != nil {
		return fmt.Errorf("write store config: %w", err)
	}
	return nil
}

// SyncLocalHalf links the working tree to the store, refreshes its
// remote-tracking refs and checks out the manifest revision.
func (p *Project) SyncLocalHalf(ctx context.Context, opts driven.LocalHalfOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	store, err := openStore(p.objdirPath())
	if err != nil {
		return fmt.Errorf("open object store: %w", err)
	}

	tree, err := p.openTree()
	if err != nil {
		return fmt.Errorf("open working tree: %w", err)
	}

	if err := copyRemoteRefs(store, tree); err != nil {
		return err
	}

	target, isBranch, err := resolveRevision(tree, p.revision)
	if err != nil {
		return err
	}
	if !isBranch {
		opts.DetachHead = true
	}

	return checkout(tree, p.revision, target, opts)
}

// openTree opens the working tree repository, initialising it and its
// alternates link on first use.
func (p *Project) openTree() (*gogit.Repository, error) {
	wt := osfs.New(p.Worktree())
	dot, err := wt.Chroot(gogit.GitDirName)
	if err != nil {
		return nil, err
	}

	storage := filesystem.NewStorageWithOptions(dot, cache.NewObjectLRUDefault(), filesystem.Options{
		AlternatesFS: osfs.New(string(filepath.Separator)),
	})

	repo, err := gogit.Open(storage, wt)
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, gogit.ErrRepositoryNotExists) {
		return nil, err
	}

	repo, err = gogit.Init(storage, wt)
	if err != nil {
		return nil, err
	}
	if err := linkAlternates(dot, p.objdirPath()); err != nil {
		return nil, err
	}
	return repo, nil
}

func linkAlternates(dot billy.Filesystem, objdir string) error {
	line := filepath.Join(objdir, "objects") + "\n"
	if err := util.WriteFile(dot, alternatesFile, []byte(line), 0o644); err != nil {
		return fmt.Errorf("link object store: %w", err)
	}
	return nil
}

// copyRemoteRefs mirrors the store's remote-tracking refs and tags into the
// tree, dropping tracking refs the store no longer has.
func copyRemoteRefs(store, tree *gogit.Repository) error {
	prefix := "refs/remotes/" + originRemote + "/"
	wanted := make(map[plumbing.ReferenceName]bool)

	refs, err := store.References()
	if err != nil {
		return fmt.Errorf("list store refs: %w", err)
	}
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name()
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		if !strings.HasPrefix(name.String(), prefix) && !name.IsTag() {
			return nil
		}
		wanted[name] = true
		return tree.Storer.SetReference(ref)
	})
	if err != nil {
		return fmt.Errorf("copy refs: %w", err)
	}

	existing, err := tree.References()
	if err != nil {
		return fmt.Errorf("list tree refs: %w", err)
	}
	var stale []plumbing.ReferenceName
	_ = existing.ForEach(func(ref *plumbing.Reference) error {
		if strings.HasPrefix(ref.Name().String(), prefix) && !wanted[ref.Name()] {
			stale = append(stale, ref.Name())
		}
		return nil
	})
	for _, name := range stale {
		if err := tree.Storer.RemoveReference(name); err != nil {
			return fmt.Errorf("prune ref %s: %w", name, err)
		}
	}
	return nil
}

// resolveRevision maps a manifest revision to a commit hash, trying the
// remote-tracking branch, then tags, then a literal ref or hash. The flag
// reports whether the revision named a branch.
func resolveRevision(repo *gogit.Repository, revision string) (plumbing.Hash, bool, error) {
	if plumbing.IsHash(revision) {
		return plumbing.NewHash(revision), false, nil
	}

	branch := strings.TrimPrefix(revision, "refs/heads/")
	if ref, err := repo.Reference(plumbing.NewRemoteReferenceName(originRemote, branch), true); err == nil {
		return ref.Hash(), true, nil
	}

	for _, name := range []plumbing.ReferenceName{
		plumbing.NewTagReferenceName(strings.TrimPrefix(revision, "refs/tags/")),
		plumbing.ReferenceName(revision),
	} {
		if ref, err := repo.Reference(name, true); err == nil {
			return peel(repo, ref.Hash()), false, nil
		}
	}
	return plumbing.ZeroHash, false, fmt.Errorf("revision %q not found", revision)
}

// peel follows annotated tags to the commit they point at.
func peel(repo *gogit.Repository, h plumbing.Hash) plumbing.Hash {
	tag, err := repo.TagObject(h)
	if err != nil {
		return h
	}
	commit, err := tag.Commit()
	if err != nil {
		return h
	}
	return commit.Hash
}

func checkout(repo *gogit.Repository, revision string, target plumbing.Hash, opts driven.LocalHalfOptions) error {
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}

	head, headErr := repo.Head()
	fresh := errors.Is(headErr, plumbing.ErrReferenceNotFound)
	if headErr != nil && !fresh {
		return fmt.Errorf("read HEAD: %w", headErr)
	}

	if !fresh && !opts.ForceCheckout {
		status, err := wt.Status()
		if err != nil {
			return fmt.Errorf("worktree status: %w", err)
		}
		if hasTrackedChanges(status) {
			return ErrDirtyWorktree
		}
	}

	if opts.DetachHead {
		if !fresh && head.Hash() == target && !head.Name().IsBranch() {
			return nil
		}
		return wt.Checkout(&gogit.CheckoutOptions{Hash: target, Force: true})
	}

	branch := plumbing.NewBranchReferenceName(strings.TrimPrefix(revision, "refs/heads/"))
	local, err := repo.Reference(branch, true)
	switch {
	case errors.Is(err, plumbing.ErrReferenceNotFound):
	case err != nil:
		return fmt.Errorf("read %s: %w", branch, err)
	case local.Hash() == target:
	default:
		ff, err := isAncestor(repo, local.Hash(), target)
		if err != nil {
			return err
		}
		if !ff && !opts.ForceSync {
			return fmt.Errorf("%s: %w", branch.Short(), ErrDiverged)
		}
	}

	if err := repo.Storer.SetReference(plumbing.NewHashReference(branch, target)); err != nil {
		return fmt.Errorf("update %s: %w", branch, err)
	}
	return wt.Checkout(&gogit.CheckoutOptions{Branch: branch, Force: true})
}

// hasTrackedChanges ignores untracked files such as build output.
func hasTrackedChanges(status gogit.Status) bool {
	for _, fs := range status {
		if fs.Worktree == gogit.Untracked && fs.Staging == gogit.Untracked {
			continue
		}
		if fs.Worktree != gogit.Unmodified || fs.Staging != gogit.Unmodified {
			return true
		}
	}
	return false
}

func isAncestor(repo *gogit.Repository, from, to plumbing.Hash) (bool, error) {
	a, err := repo.CommitObject(from)
	if err != nil {
		return false, fmt.Errorf("read commit %s: %w", from, err)
	}
	b, err := repo.CommitObject(to)
	if err != nil {
		return false, fmt.Errorf("read commit %s: %w", to, err)
	}
	return a.IsAncestor(b)
}
