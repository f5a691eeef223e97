package repository

import "github.com/spf13/afero"

// FileSystemRepository is the file system the provisioner, the run reports
// and the overlay inspector work against. Production uses the OS; tests may swap in memory.
type FileSystemRepository interface {
	afero.Fs
}

// NewOSFileSystem returns the real file system.
func NewOSFileSystem() FileSystemRepository {
	return afero.NewOsFs()
}
