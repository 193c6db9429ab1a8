// Package git provides the manifest loader and project implementation
// backed by go-git.
//
// Each project name owns one bare object store under
// .repo/project-objects/<name>.git. The network half fetches into that
// store; the local half links a working tree to it through an alternates
// file, copies the remote-tracking refs and checks out the manifest
// revision. Projects sharing a name share the store and are therefore
// storage siblings.
//
// # Architectural Position
//
// This is a driven adapter implementing driven.ManifestLoader and
// driven.Project.
package git
