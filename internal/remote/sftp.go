package remote

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/wtnb75/sftpovw/internal/apperr"
)

const posixRenameExt = "posix-rename@openssh.com"

// SFTPSession implements Session over an SFTP subsystem channel, with
// command execution on the underlying SSH connection.
type SFTPSession struct {
	conn *ssh.Client
	sftp *sftp.Client
	log  *slog.Logger
}

// NewSFTP opens the SFTP subsystem on an established SSH connection.
// The returned session owns the connection and closes it with Close.
func NewSFTP(conn *ssh.Client, logger *slog.Logger) (*SFTPSession, error) {
	client, err := sftp.NewClient(conn)
	if err != nil {
		return nil, fmt.Errorf("remote: open sftp subsystem: %w", err)
	}
	return &SFTPSession{conn: conn, sftp: client, log: logger}, nil
}

func (s *SFTPSession) Write(path string, r io.Reader) (int64, error) {
	f, err := s.sftp.Create(path)
	if err != nil {
		return 0, fmt.Errorf("remote: create %s: %w", path, err)
	}
	n, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		return n, fmt.Errorf("remote: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return n, fmt.Errorf("remote: close %s: %w", path, err)
	}
	return n, nil
}

func (s *SFTPSession) Read(path string, w io.Writer) (int64, error) {
	f, err := s.sftp.Open(path)
	if err != nil {
		return 0, fmt.Errorf("remote: open %s: %w", path, err)
	}
	defer f.Close()
	n, err := io.Copy(w, f)
	if err != nil {
		return n, fmt.Errorf("remote: read %s: %w", path, err)
	}
	return n, nil
}

func (s *SFTPSession) Stat(path string) (os.FileInfo, error) {
	fi, err := s.sftp.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("remote: stat %s: %w", path, err)
	}
	return fi, nil
}

// Rename moves oldpath onto newpath. Servers offering the POSIX rename
// extension replace an existing newpath atomically; plain SFTP rename
// refuses to overwrite.
func (s *SFTPSession) Rename(oldpath, newpath string) error {
	var err error
	if _, ok := s.sftp.HasExtension(posixRenameExt); ok {
		err = s.sftp.PosixRename(oldpath, newpath)
	} else {
		err = s.sftp.Rename(oldpath, newpath)
	}
	if err != nil {
		return fmt.Errorf("remote: rename %s -> %s: %w", oldpath, newpath, err)
	}
	return nil
}

func (s *SFTPSession) Remove(path string) error {
	if err := s.sftp.Remove(path); err != nil {
		return fmt.Errorf("remote: remove %s: %w", path, err)
	}
	return nil
}

func (s *SFTPSession) ReadDir(path string) ([]string, error) {
	infos, err := s.sftp.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("remote: readdir %s: %w", path, err)
	}
	names := make([]string, 0, len(infos))
	for _, fi := range infos {
		names = append(names, fi.Name())
	}
	return names, nil
}

// Check reports the check-file extension as unsupported: the sftp client
// cannot issue the request even when the server advertises it.
func (s *SFTPSession) Check(algo, path string) (string, error) {
	if _, ok := s.sftp.HasExtension("check-file"); ok {
		s.log.Debug("remote: server advertises check-file, client cannot issue it",
			slog.String("path", path), slog.String("algo", algo))
	}
	return "", fmt.Errorf("remote: check %s: %w", path, apperr.ErrCheckUnsupported)
}

func (s *SFTPSession) Exec(command string) (ExecResult, error) {
	sess, err := s.conn.NewSession()
	if err != nil {
		return ExecResult{}, fmt.Errorf("remote: open exec session: %w", err)
	}
	defer sess.Close()

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr

	err = sess.Run(command)
	res := ExecResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			res.ExitStatus = exitErr.ExitStatus()
			return res, nil
		}
		return res, fmt.Errorf("remote: exec: %w", err)
	}
	return res, nil
}

func (s *SFTPSession) Close() error {
	if err := errors.Join(s.sftp.Close(), s.conn.Close()); err != nil {
		return fmt.Errorf("remote: close: %w", err)
	}
	return nil
}
