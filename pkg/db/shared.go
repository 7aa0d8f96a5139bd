package db

import "sync"

var (
	sharedMu   sync.Mutex
	shared     *Store
	sharedPath string
)

// Shared returns the process-wide Store, opening the database at path on the
// first call. Later calls return the same Store and ignore path; use
// SharedPath to see which database won.
func Shared(path string, busyTimeoutMS int) (*Store, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared != nil {
		return shared, nil
	}
	s, err := Open(path, busyTimeoutMS)
	if err != nil {
		return nil, err
	}
	shared = s
	sharedPath = path
	return shared, nil
}

// SharedPath returns the path the shared Store was opened with, or "" if it is not open.
func SharedPath() string {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	return sharedPath
}

// CloseShared closes the shared Store. The next Shared call opens a new one.
func CloseShared() error {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared == nil {
		return nil
	}
	err := shared.Close()
	shared = nil
	sharedPath = ""
	return err
}
