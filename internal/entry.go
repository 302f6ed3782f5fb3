// Package internal wires configuration, logging, session establishment,
// and the copy and verification components behind one function per CLI
// command.
package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/wtnb75/sftpovw/internal/digest"
	"github.com/wtnb75/sftpovw/internal/remote"
	"github.com/wtnb75/sftpovw/internal/safecopy"
	"github.com/wtnb75/sftpovw/internal/sshconn"
)

// DialFunc opens a transfer session for a target.
type DialFunc func(ctx context.Context, target sshconn.Target, logger *slog.Logger) (remote.Session, error)

func newApplication(opts ...Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		app.config = NewDefaultConfig()
	}
	if err := app.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if app.logger == nil {
		app.logger = NewLogger(app.config.Log, false, false)
	}
	if app.out == nil {
		app.out = os.Stdout
	}
	if app.dial == nil {
		app.dial = func(ctx context.Context, t sshconn.Target, logger *slog.Logger) (remote.Session, error) {
			return sshconn.Dial(ctx, t, logger)
		}
	}
	return app, nil
}

// openSession dials the configured host. The caller closes the session on
// all exit paths.
func (a *application) openSession(ctx context.Context) (remote.Session, error) {
	if a.config.SSH.Host == "" {
		return nil, fmt.Errorf("host is required: set --host or ssh.host in the config")
	}
	return a.dial(ctx, a.config.SSH.Target(), a.logger)
}

// Put copies the local file onto the remote path using the configured
// replacement level. With verify, the remote and local digests are
// cross-checked after the copy.
func Put(ctx context.Context, remotePath, localPath string, verify bool, opts ...Option) error {
	a, err := newApplication(opts...)
	if err != nil {
		return err
	}
	level, err := safecopy.ParseLevel(a.config.Copy.Level)
	if err != nil {
		return err
	}
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", localPath, err)
	}

	sess, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	n, err := safecopy.New(sess, a.logger).Put(f, remotePath, fi.Size(), level)
	if err != nil {
		return err
	}
	if n != fi.Size() {
		return fmt.Errorf("put %s: wrote %d of %d bytes", remotePath, n, fi.Size())
	}
	if verify {
		return a.verify(sess, remotePath, localPath)
	}
	return nil
}

// Get copies the remote path to the local path using the configured
// replacement level. With verify, the digests are cross-checked after the
// copy.
func Get(ctx context.Context, remotePath, localPath string, verify bool, opts ...Option) error {
	a, err := newApplication(opts...)
	if err != nil {
		return err
	}
	level, err := safecopy.ParseLevel(a.config.Copy.Level)
	if err != nil {
		return err
	}

	sess, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	if _, err := safecopy.New(sess, a.logger).Get(remotePath, localPath, level); err != nil {
		return err
	}
	if verify {
		return a.verify(sess, remotePath, localPath)
	}
	return nil
}

// Checksum digests the given paths and prints a path→digest JSON object.
// In local mode the paths are local files and no session is dialed.
func Checksum(ctx context.Context, paths []string, local bool, opts ...Option) error {
	a, err := newApplication(opts...)
	if err != nil {
		return err
	}
	algo, err := digest.ParseAlgo(a.config.Digest.Algorithm)
	if err != nil {
		return err
	}

	var sums map[string]string
	if local {
		sums, err = digest.Local(algo, paths)
	} else {
		sess, serr := a.openSession(ctx)
		if serr != nil {
			return serr
		}
		defer sess.Close()
		sums, err = digest.NewVerifier(sess, algo, a.logger).Digest(paths)
	}
	if err != nil {
		return err
	}
	return a.printJSON(sums)
}

// ListTmp prints leftover temporaries next to the remote target as a JSON
// array.
func ListTmp(ctx context.Context, target string, opts ...Option) error {
	a, err := newApplication(opts...)
	if err != nil {
		return err
	}
	sess, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	temps, err := safecopy.New(sess, a.logger).ListTmp(target)
	if err != nil {
		return err
	}
	return a.printJSON(nonNil(temps))
}

// Sweep deletes leftover temporaries next to the remote target and prints
// the removed paths as a JSON array.
func Sweep(ctx context.Context, target string, opts ...Option) error {
	a, err := newApplication(opts...)
	if err != nil {
		return err
	}
	sess, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	removed, err := safecopy.New(sess, a.logger).Sweep(target)
	if err != nil {
		return err
	}
	return a.printJSON(nonNil(removed))
}

// verify cross-checks the remote and local digest of one transferred file
// using the configured algorithm.
func (a *application) verify(sess remote.Session, remotePath, localPath string) error {
	algo, err := digest.ParseAlgo(a.config.Digest.Algorithm)
	if err != nil {
		return err
	}
	remoteSums, err := digest.NewVerifier(sess, algo, a.logger).Digest([]string{remotePath})
	if err != nil {
		return err
	}
	localSums, err := digest.Local(algo, []string{localPath})
	if err != nil {
		return err
	}
	want, ok := remoteSums[remotePath]
	if !ok {
		return fmt.Errorf("verify %s: no remote digest", remotePath)
	}
	if got := localSums[localPath]; got != want {
		return fmt.Errorf("verify %s: digest mismatch: remote %s, local %s", remotePath, want, got)
	}
	a.logger.Info("verify ok",
		slog.String("path", remotePath),
		slog.String("algo", string(algo)),
		slog.String("digest", want))
	return nil
}

func (a *application) printJSON(v any) error {
	if err := json.NewEncoder(a.out).Encode(v); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
