package commitlog

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// LockFileName is the name of the lock file inside the commit log directory.
const LockFileName = "LOCK"

// ErrLocked is returned by Open when another process holds the lock of the directory.
var ErrLocked = errors.New("commit log directory is locked by another process")

func lockFileContent(instanceID uuid.UUID) []byte {
	return []byte(fmt.Sprintf("instance=%s\npid=%d\n", instanceID, os.Getpid()))
}
