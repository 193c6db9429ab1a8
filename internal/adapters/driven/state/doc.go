// Package state persists per-project fetch and checkout times in
// .repo/.repo_localsyncstate.json under the workspace root.
//
// The file is read once when the state is opened and written back by Save.
// All paths go through a billy.Filesystem rooted at the workspace, so tests
// run against memfs.
package state
