//go:build unix

package system

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func openFileLimit() (uint64, error) {
	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlim); err != nil {
		return 0, fmt.Errorf("getrlimit: %w", err)
	}
	// RLIM_INFINITY comes back as a huge value, which job resolution
	// treats as unlimited.
	return uint64(rlim.Cur), nil //nolint:unconvert // int64 on some platforms
}
