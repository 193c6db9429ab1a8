package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSyncOutcome_Failed(t *testing.T) {
	tests := []struct {
		name    string
		outcome SyncOutcome
		want    bool
	}{
		{"both succeeded", SyncOutcome{FetchSuccess: true, CheckoutSuccess: true}, false},
		{"fetch failed", SyncOutcome{FetchError: errors.New("x")}, true},
		{"checkout failed", SyncOutcome{FetchSuccess: true, CheckoutError: errors.New("x")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.outcome.Failed())
		})
	}
}

func TestSyncRun_Success(t *testing.T) {
	run := &SyncRun{}
	assert.True(t, run.Success())

	run.Errors = []string{"fetch foo: boom"}
	assert.False(t, run.Success())

	run = &SyncRun{Aborted: true}
	assert.False(t, run.Success())
}

func TestSyncRun_Duration(t *testing.T) {
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	run := &SyncRun{StartedAt: start}
	assert.Equal(t, time.Duration(0), run.Duration())

	run.EndedAt = start.Add(90 * time.Second)
	assert.Equal(t, 90*time.Second, run.Duration())
}

func TestSyncStateEntry_CheckoutBehind(t *testing.T) {
	fetch := time.Unix(10, 0)

	assert.True(t, SyncStateEntry{}.CheckoutBehind(fetch))
	assert.True(t, SyncStateEntry{LastCheckout: time.Unix(5, 0)}.CheckoutBehind(fetch))
	assert.False(t, SyncStateEntry{LastCheckout: time.Unix(10, 0)}.CheckoutBehind(fetch))
	assert.False(t, SyncStateEntry{LastCheckout: time.Unix(11, 0)}.CheckoutBehind(fetch))
}

func TestSyncStateEntry_Has(t *testing.T) {
	entry := SyncStateEntry{LastFetch: time.Unix(5, 0)}
	assert.True(t, entry.HasFetch())
	assert.False(t, entry.HasCheckout())
}

func TestIsPartiallySynced(t *testing.T) {
	t1, t2, t3 := time.Unix(1, 0), time.Unix(2, 0), time.Unix(3, 0)

	tests := []struct {
		name    string
		entries map[string]SyncStateEntry
		want    bool
	}{
		{"nothing tracked", nil, false},
		{"fully synced", map[string]SyncStateEntry{
			"a": {LastFetch: t1, LastCheckout: t2},
			"b": {LastFetch: t1, LastCheckout: t2},
		}, false},
		{"checkout missing", map[string]SyncStateEntry{
			"a": {LastFetch: t1, LastCheckout: t2},
			"b": {LastFetch: t1},
		}, true},
		{"checkout older than latest fetch", map[string]SyncStateEntry{
			"a": {LastFetch: t3, LastCheckout: t3},
			"b": {LastFetch: t1, LastCheckout: t2},
		}, true},
		{"only checkouts recorded", map[string]SyncStateEntry{
			"a": {LastCheckout: t1},
		}, false},
		{"bookkeeping project ignored", map[string]SyncStateEntry{
			"a":          {LastFetch: t1, LastCheckout: t2},
			".repo/repo": {LastFetch: t3},
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPartiallySynced(tt.entries, ".repo/repo"))
		})
	}
}

func TestProgressEvent_Fraction(t *testing.T) {
	assert.Equal(t, 1.0, ProgressEvent{}.Fraction())
	assert.Equal(t, 0.25, ProgressEvent{Done: 1, Total: 4}.Fraction())
	assert.Equal(t, 1.0, ProgressEvent{Done: 4, Total: 4}.Fraction())
}
