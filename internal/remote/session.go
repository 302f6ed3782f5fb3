// Package remote defines the file-transfer session abstraction and its
// SFTP implementation.
package remote

import (
	"io"
	"os"
)

// ExecResult holds the captured outcome of a remote command.
// A nonzero ExitStatus is data, not an error: transport failures are
// reported through the error return of Exec instead.
type ExecResult struct {
	Stdout     []byte
	Stderr     []byte
	ExitStatus int
}

// Session is the interface for operations against one established
// file-transfer connection. Implementations are not safe for concurrent
// use; callers needing parallelism must open independent sessions.
type Session interface {
	// Write creates or truncates the file at path and streams r into it,
	// returning the number of bytes written.
	Write(path string, r io.Reader) (int64, error)
	// Read streams the file at path into w, returning the number of bytes read.
	Read(path string, w io.Writer) (int64, error)
	// Stat returns file info for path. A missing path yields an error
	// satisfying errors.Is(err, fs.ErrNotExist).
	Stat(path string) (os.FileInfo, error)
	// Rename moves oldpath to newpath, replacing an existing newpath where
	// the transport supports it.
	Rename(oldpath, newpath string) error
	// Remove deletes the file at path.
	Remove(path string) error
	// ReadDir returns the entry names of the directory at path.
	ReadDir(path string) ([]string, error)
	// Check asks the server for a native digest of the file at path using
	// the named algorithm, returning lowercase hex. Transports without the
	// extension return an error wrapping apperr.ErrCheckUnsupported.
	Check(algo, path string) (string, error)
	// Exec runs command on the remote host and captures its output.
	Exec(command string) (ExecResult, error)
	// Close releases the session and its underlying connection.
	Close() error
}
