package system

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceProbe(t *testing.T) {
	probe := NewResourceProbe()

	assert.Equal(t, runtime.NumCPU(), probe.CPUCount())

	limit, err := probe.OpenFileLimit()
	require.NoError(t, err)
	if runtime.GOOS != "windows" && limit != 0 {
		assert.Greater(t, limit, uint64(3))
	}
}
