// Package file provides the TOML-backed configuration of a workspace.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage in .repo/reposync.toml
//   - LoadSyncSettings: maps the [sync] table onto domain.SyncSettings
package file
