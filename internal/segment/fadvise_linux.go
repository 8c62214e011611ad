//go:build linux

package segment

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential tells the kernel that the file is about to be read from start to end. This is only a hint, so
// errors are ignored.
func adviseSequential(file File) {
	osFile, ok := file.(*os.File)
	if !ok {
		return
	}
	_ = unix.Fadvise(int(osFile.Fd()), 0, 0, unix.FADV_SEQUENTIAL) //nolint:gosec // file descriptors fit into int
}
