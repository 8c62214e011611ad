//go:build windows

package segment

// syncDirectory is a no-op on windows, which does not support flushing directories.
func syncDirectory(_ string) error {
	return nil
}
