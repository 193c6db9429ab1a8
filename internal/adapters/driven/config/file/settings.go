package file

import (
	"time"

	"github.com/custodia-labs/reposync/internal/core/domain"
	"github.com/custodia-labs/reposync/internal/core/ports/driven"
)

// Configuration keys of the [sync] table.
const (
	KeyJobs          = "sync.jobs"
	KeyLocalJobs     = "sync.local_jobs"
	KeyFDReserve     = "sync.fd_reserve"
	KeyFDPerJob      = "sync.fd_per_job"
	KeyStallInterval = "sync.stall_interval"
	KeyFailFast      = "sync.fail_fast"
	KeySelfProject   = "sync.self_project"
	KeySelfURL       = "sync.self_url"
	KeySelfRevision  = "sync.self_revision"
	KeyHistoryKeep   = "sync.history_keep"
)

// LoadSyncSettings reads the scheduler settings from the store. Keys that are
// absent or invalid keep their defaults.
func LoadSyncSettings(store driven.ConfigStore) domain.SyncSettings {
	settings := domain.DefaultSyncSettings()
	if store == nil {
		return settings
	}

	if v := store.GetInt(KeyJobs); v > 0 {
		settings.Jobs = v
	}
	if v := store.GetInt(KeyLocalJobs); v > 0 {
		settings.Tuning.LocalJobs = v
	}
	if v := store.GetInt(KeyFDReserve); v > 0 {
		settings.Tuning.FDReserve = v
	}
	if v := store.GetInt(KeyFDPerJob); v > 0 {
		settings.Tuning.FDPerJob = v
	}
	if raw, ok := store.Get(KeyStallInterval); ok {
		// "0s" disables stall detection.
		if v := store.GetDuration(KeyStallInterval); v > 0 || isZeroDuration(raw) {
			settings.StallInterval = v
		}
	}
	settings.FailFast = store.GetBool(KeyFailFast)
	if v := store.GetString(KeySelfProject); v != "" {
		settings.SelfProject = v
	}
	settings.SelfURL = store.GetString(KeySelfURL)
	if v := store.GetString(KeySelfRevision); v != "" {
		settings.SelfRevision = v
	}
	if v := store.GetInt(KeyHistoryKeep); v > 0 {
		settings.HistoryKeep = v
	}

	return settings
}

func isZeroDuration(raw any) bool {
	switch v := raw.(type) {
	case string:
		d, err := time.ParseDuration(v)
		return err == nil && d == 0
	case int64:
		return v == 0
	case int:
		return v == 0
	}
	return false
}
