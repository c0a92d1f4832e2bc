//go:build windows

package credcache

import "os"

// Windows reports synthetic permission bits; the temp directory is per user.
func private(os.FileInfo) bool { return true }
