package domain

import "time"

// SyncStateVersion is the schema version written to the local sync state file.
const SyncStateVersion = 1

// SyncStateEntry tracks the last sync progress of one project.
// A zero time means the event was never recorded.
type SyncStateEntry struct {
	// LastFetch is when the network half last succeeded.
	LastFetch time.Time

	// LastCheckout is when the local half last succeeded.
	LastCheckout time.Time
}

// HasFetch reports whether a fetch time was recorded.
func (e SyncStateEntry) HasFetch() bool {
	return !e.LastFetch.IsZero()
}

// HasCheckout reports whether a checkout time was recorded.
func (e SyncStateEntry) HasCheckout() bool {
	return !e.LastCheckout.IsZero()
}

// CheckoutBehind reports whether the checkout is absent or older than fetch.
func (e SyncStateEntry) CheckoutBehind(fetch time.Time) bool {
	return !e.HasCheckout() || e.LastCheckout.Before(fetch)
}

// IsPartiallySynced reports whether entries describe an interrupted run: the
// most recent fetch across tracked projects is newer than some project's
// checkout. The bookkeeping project at selfPath is ignored because it is
// fetched without ever being checked out.
func IsPartiallySynced(entries map[string]SyncStateEntry, selfPath string) bool {
	var latest time.Time
	for path, e := range entries {
		if path == selfPath {
			continue
		}
		if e.LastFetch.After(latest) {
			latest = e.LastFetch
		}
	}
	if latest.IsZero() {
		return false
	}
	for path, e := range entries {
		if path == selfPath {
			continue
		}
		if e.CheckoutBehind(latest) {
			return true
		}
	}
	return false
}
