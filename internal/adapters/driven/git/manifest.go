package git

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/custodia-labs/reposync/internal/core/domain"
	"github.com/custodia-labs/reposync/internal/core/ports/driven"
	"github.com/custodia-labs/reposync/internal/logger"
)

// ManifestFile is the manifest location relative to the workspace root.
const ManifestFile = ".repo/manifest.xml"

// Ensure ManifestLoader implements the interface.
var _ driven.ManifestLoader = (*ManifestLoader)(nil)

// manifestXML mirrors the subset of the manifest format that sync needs.
type manifestXML struct {
	XMLName  xml.Name     `xml:"manifest"`
	Remotes  []remoteXML  `xml:"remote"`
	Default  *defaultXML  `xml:"default"`
	Projects []projectXML `xml:"project"`
	Removes  []removeXML  `xml:"remove-project"`
}

type remoteXML struct {
	Name     string `xml:"name,attr"`
	Fetch    string `xml:"fetch,attr"`
	Revision string `xml:"revision,attr"`
}

type defaultXML struct {
	Remote   string `xml:"remote,attr"`
	Revision string `xml:"revision,attr"`
	SyncJ    string `xml:"sync-j,attr"`
	SyncC    string `xml:"sync-c,attr"`
}

type projectXML struct {
	Name     string `xml:"name,attr"`
	Path     string `xml:"path,attr"`
	Remote   string `xml:"remote,attr"`
	Revision string `xml:"revision,attr"`
	SyncC    string `xml:"sync-c,attr"`
}

type removeXML struct {
	Name string `xml:"name,attr"`
}

// LoaderOptions configures the bookkeeping project.
type LoaderOptions struct {
	// SelfPath is the relative path of the bookkeeping project.
	SelfPath string

	// SelfURL is its remote. Empty means no bookkeeping project.
	SelfURL string

	// SelfRevision is the branch it tracks.
	SelfRevision string
}

// ManifestLoader reads <root>/.repo/manifest.xml.
type ManifestLoader struct {
	root string
	opts LoaderOptions
}

// NewManifestLoader creates a loader for the workspace at root.
func NewManifestLoader(root string, opts LoaderOptions) *ManifestLoader {
	if opts.SelfPath == "" {
		opts.SelfPath = domain.DefaultSelfProject
	}
	if opts.SelfRevision == "" {
		opts.SelfRevision = domain.DefaultSelfRevision
	}
	return &ManifestLoader{root: root, opts: opts}
}

// Path returns the manifest file path.
func (l *ManifestLoader) Path() string {
	return filepath.Join(l.root, filepath.FromSlash(ManifestFile))
}

// Load parses the manifest and builds its projects.
func (l *ManifestLoader) Load(ctx context.Context) (*driven.Manifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(l.Path())
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	manifest, err := ParseManifest(l.root, data)
	if err != nil {
		return nil, err
	}

	if l.opts.SelfURL != "" {
		self := NewSelfProject(l.root, l.opts.SelfPath, l.opts.SelfURL, l.opts.SelfRevision)
		logger.Debug("self project %s: %s at %s", self.RelPath(), self.URL(), self.Revision())
		manifest.Self = self
	}
	return manifest, nil
}

// ParseManifest builds projects rooted at root from manifest XML.
func ParseManifest(root string, data []byte) (*driven.Manifest, error) {
	var doc manifestXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrManifestInvalid, err)
	}

	remotes := make(map[string]remoteXML, len(doc.Remotes))
	for _, r := range doc.Remotes {
		if r.Name == "" {
			return nil, fmt.Errorf("%w: remote without name", domain.ErrManifestInvalid)
		}
		if _, dup := remotes[r.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate remote %q", domain.ErrManifestInvalid, r.Name)
		}
		remotes[r.Name] = r
	}

	var def defaultXML
	if doc.Default != nil {
		def = *doc.Default
	}

	manifest := &driven.Manifest{}
	if def.SyncJ != "" {
		n, err := strconv.Atoi(def.SyncJ)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: sync-j %q", domain.ErrManifestInvalid, def.SyncJ)
		}
		manifest.DefaultJobs = n
	}

	removed := make(map[string]bool, len(doc.Removes))
	for _, r := range doc.Removes {
		removed[r.Name] = true
	}

	seen := make(map[string]bool, len(doc.Projects))
	for _, px := range doc.Projects {
		if removed[px.Name] {
			continue
		}
		p, err := buildProject(root, px, def, remotes)
		if err != nil {
			return nil, err
		}
		if seen[p.RelPath()] {
			return nil, fmt.Errorf("%w: duplicate path %q", domain.ErrManifestInvalid, p.RelPath())
		}
		seen[p.RelPath()] = true
		logger.Debug("manifest project %s: %s at %s", p.RelPath(), p.URL(), p.Revision())
		manifest.Projects = append(manifest.Projects, p)
	}

	return manifest, nil
}

func buildProject(root string, px projectXML, def defaultXML, remotes map[string]remoteXML) (*Project, error) {
	if px.Name == "" {
		return nil, fmt.Errorf("%w: project without name", domain.ErrManifestInvalid)
	}

	relpath := px.Path
	if relpath == "" {
		relpath = px.Name
	}
	relpath, err := cleanRelPath(relpath)
	if err != nil {
		return nil, err
	}

	remoteName := firstNonEmpty(px.Remote, def.Remote)
	remote, ok := remotes[remoteName]
	if !ok {
		return nil, fmt.Errorf("%w: project %q uses unknown remote %q", domain.ErrManifestInvalid, px.Name, remoteName)
	}

	revision := firstNonEmpty(px.Revision, remote.Revision, def.Revision)
	if revision == "" {
		return nil, fmt.Errorf("%w: project %q has no revision", domain.ErrManifestInvalid, px.Name)
	}

	return &Project{
		root:              root,
		name:              px.Name,
		relpath:           relpath,
		url:               remoteURL(root, remote.Fetch, px.Name),
		revision:          revision,
		objdir:            path.Join(".repo", "project-objects", px.Name+".git"),
		currentBranchOnly: isTrue(firstNonEmpty(px.SyncC, def.SyncC)),
	}, nil
}

// cleanRelPath rejects paths that escape the workspace.
func cleanRelPath(p string) (string, error) {
	clean := path.Clean(filepath.ToSlash(p))
	if path.IsAbs(clean) || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: path %q escapes the workspace", domain.ErrManifestInvalid, p)
	}
	if clean == ".repo" || strings.HasPrefix(clean, ".repo/") {
		return "", fmt.Errorf("%w: path %q is reserved", domain.ErrManifestInvalid, p)
	}
	return clean, nil
}

// remoteURL joins a remote fetch base and a project name. Relative local
// bases resolve against the workspace root.
func remoteURL(root, fetch, name string) string {
	base := strings.TrimSuffix(fetch, "/")
	if !strings.Contains(base, "://") && !strings.Contains(base, ":") && !filepath.IsAbs(base) {
		base = filepath.Join(root, filepath.FromSlash(base))
	}
	return base + "/" + name
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func isTrue(v string) bool {
	switch strings.ToLower(v) {
	case "true", "yes", "1":
		return true
	}
	return false
}
