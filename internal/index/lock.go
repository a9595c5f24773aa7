package index

import (
	"fmt"
	"os"
	"path/filepath"
)

type snapshotLock struct {
	file *os.File
}

func acquireSnapshotLock(dir string) (*snapshotLock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	lockPath := filepath.Join(dir, "snapshot.lock")
	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot lock: %w", err)
	}

	if err := lockFileExclusiveNonBlocking(lockFile); err != nil {
		lockFile.Close()
		if isWouldBlockError(err) {
			return nil, ErrSnapshotLocked
		}
		return nil, fmt.Errorf("failed to acquire snapshot lock: %w", err)
	}

	return &snapshotLock{file: lockFile}, nil
}

func (l *snapshotLock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := unlockFile(l.file)
	closeErr := l.file.Close()
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}
