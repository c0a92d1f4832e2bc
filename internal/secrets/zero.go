package secrets

// Zero overwrites b with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// LockMemory asks the OS to keep b out of swap. It is best effort; callers
// should log the error and carry on.
func LockMemory(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return lockMemory(b)
}

// UnlockMemory releases a LockMemory pin.
func UnlockMemory(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return unlockMemory(b)
}
