package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPorts_Validate(t *testing.T) {
	assert.NoError(t, (&Ports{Sync: &MockSyncOrchestrator{}}).Validate())
	assert.ErrorIs(t, (&Ports{}).Validate(), ErrMissingSyncOrchestrator)

	var nilPorts *Ports
	assert.ErrorIs(t, nilPorts.Validate(), ErrMissingSyncOrchestrator)
}
