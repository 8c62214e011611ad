//go:build !linux

package segment

// adviseSequential is a no-op on platforms without posix_fadvise.
func adviseSequential(_ File) {}
