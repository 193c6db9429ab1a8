package domain

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrSyncFailFast", ErrSyncFailFast},
		{"ErrUnsupportedStateVersion", ErrUnsupportedStateVersion},
		{"ErrManifestInvalid", ErrManifestInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestProjectError_Unwrap(t *testing.T) {
	cause := errors.New("remote hung up")
	err := &ProjectError{RelPath: "platform/build", Phase: PhaseFetch, Err: cause}

	assert.Equal(t, "fetch platform/build: remote hung up", err.Error())
	assert.ErrorIs(t, err, cause)

	var pe *ProjectError
	wrapped := fmt.Errorf("sync: %w", err)
	require.ErrorAs(t, wrapped, &pe)
	assert.Equal(t, PhaseFetch, pe.Phase)
}

func TestSyncFailFastError_Is(t *testing.T) {
	err := &SyncFailFastError{Batch: 0, Failed: []string{"a", "b"}}

	assert.ErrorIs(t, err, ErrSyncFailFast)
	assert.Contains(t, err.Error(), "batch 0")
	assert.Contains(t, err.Error(), "a, b")
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestErrorList_AppendSkipsNil(t *testing.T) {
	var list ErrorList
	list.Append(nil, errors.New("one"), nil)

	assert.Equal(t, 1, list.Len())
	assert.EqualError(t, list.Errors()[0], "one")
}

func TestErrorList_EmptyErrIsNil(t *testing.T) {
	var list ErrorList
	assert.Zero(t, list.Len())
	assert.Empty(t, list.Errors())
}

func TestErrorList_ConcurrentAppend(t *testing.T) {
	var list ErrorList
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			list.Append(fmt.Errorf("err %d", i))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, list.Len())
}

func TestErrorList_ErrorsIsCopy(t *testing.T) {
	var list ErrorList
	list.Append(errors.New("one"))
	errs := list.Errors()
	errs[0] = nil

	assert.Error(t, list.Errors()[0])
}
