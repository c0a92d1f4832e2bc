//go:build !(linux || darwin || freebsd || openbsd || netbsd)

package secrets

func lockMemory(b []byte) error   { return nil }
func unlockMemory(b []byte) error { return nil }
