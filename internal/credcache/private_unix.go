//go:build !windows

package credcache

import (
	"os"
	"syscall"
)

// private reports whether info describes a file owned by the current user
// that no one else can read or write.
func private(info os.FileInfo) bool {
	if info.Mode().Perm()&0077 != 0 {
		return false
	}
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return false
	}
	return int(st.Uid) == os.Getuid()
}
