// Package safecopy implements staged replacement of files over a transfer
// session: five put protocols and five get protocols, each a different
// sequencing of write, rename, and delete around the destination.
//
// A failed step is never retried; it leaves the documented intermediate
// state for its level, and a leftover temporary at worst. Leftovers are
// discoverable with ListTmp and reclaimable with Sweep.
package safecopy

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/wtnb75/sftpovw/internal/remote"
	"github.com/wtnb75/sftpovw/internal/tmpname"
)

// Copier runs the replacement protocols over one session. Like the session
// itself it is not safe for concurrent use; open independent sessions for
// parallel transfers.
type Copier struct {
	sess remote.Session
	log  *slog.Logger
}

// New returns a Copier over sess, logging through logger.
func New(sess remote.Session, logger *slog.Logger) *Copier {
	return &Copier{sess: sess, log: logger}
}

// Put copies r to the remote path dst using the given level and returns
// the number of bytes written. size is the caller's size hint, carried for
// diagnostics only; the returned count is authoritative. Level, elapsed
// time, and byte count are logged whether the operation succeeds or fails.
func (c *Copier) Put(r io.Reader, dst string, size int64, level Level) (int64, error) {
	start := time.Now()
	n, err := c.put(r, dst, level)
	elapsed := time.Since(start)
	if err != nil {
		c.log.Error("put failed",
			slog.String("path", dst),
			slog.String("level", level.String()),
			slog.Int64("bytes", n),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()))
		return n, err
	}
	c.log.Info("put done",
		slog.String("path", dst),
		slog.String("level", level.String()),
		slog.Int64("bytes", n),
		slog.Int64("size_hint", size),
		slog.Duration("elapsed", elapsed))
	return n, nil
}

// Get copies the remote path src to the local path dst using the given
// level and returns the number of bytes read.
func (c *Copier) Get(src, dst string, level Level) (int64, error) {
	start := time.Now()
	n, err := c.get(src, dst, level)
	elapsed := time.Since(start)
	if err != nil {
		c.log.Error("get failed",
			slog.String("from", src),
			slog.String("to", dst),
			slog.String("level", level.String()),
			slog.Int64("bytes", n),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()))
		return n, err
	}
	c.log.Info("get done",
		slog.String("from", src),
		slog.String("to", dst),
		slog.String("level", level.String()),
		slog.Int64("bytes", n),
		slog.Duration("elapsed", elapsed))
	return n, nil
}

func (c *Copier) put(r io.Reader, dst string, level Level) (int64, error) {
	switch level {
	case LevelOverwrite:
		return c.putOverwrite(r, dst)
	case LevelDelete:
		return c.putDelete(r, dst)
	case LevelBackup:
		return c.putBackup(r, dst)
	case LevelStage:
		return c.putStage(r, dst)
	case LevelStageBackup:
		return c.putStageBackup(r, dst)
	default:
		return 0, fmt.Errorf("safecopy: unknown level %d", int(level))
	}
}

func (c *Copier) get(src, dst string, level Level) (int64, error) {
	switch level {
	case LevelOverwrite:
		return c.getOverwrite(src, dst)
	case LevelDelete:
		return c.getDelete(src, dst)
	case LevelBackup:
		return c.getBackup(src, dst)
	case LevelStage:
		return c.getStage(src, dst)
	case LevelStageBackup:
		return c.getStageBackup(src, dst)
	default:
		return 0, fmt.Errorf("safecopy: unknown level %d", int(level))
	}
}

// Exists reports whether the remote path exists.
func (c *Copier) Exists(path string) (bool, error) {
	_, err := c.sess.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("safecopy: stat %s: %w", path, err)
	}
	return true, nil
}

// IsDir reports whether the remote path names a directory. A missing path
// reports false rather than an error; callers that must distinguish use
// Exists first.
func (c *Copier) IsDir(path string) (bool, error) {
	fi, err := c.sess.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("safecopy: stat %s: %w", path, err)
	}
	return fi.IsDir(), nil
}

// ListTmp returns leftover temporaries next to the remote target path.
func (c *Copier) ListTmp(target string) ([]string, error) {
	return tmpname.List(c.sess, target)
}

// Sweep removes leftover temporaries next to the remote target path and
// returns the paths removed. The naming heuristic can match unrelated
// same-shape names, so sweep belongs in directories this tool owns. On a
// removal failure the paths removed so far accompany the error.
func (c *Copier) Sweep(target string) ([]string, error) {
	temps, err := tmpname.List(c.sess, target)
	if err != nil {
		return nil, err
	}
	removed := make([]string, 0, len(temps))
	for _, p := range temps {
		if err := c.sess.Remove(p); err != nil {
			return removed, fmt.Errorf("safecopy: sweep %s: %w", p, err)
		}
		c.log.Info("swept", slog.String("path", p))
		removed = append(removed, p)
	}
	return removed, nil
}

func localExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("safecopy: stat local %s: %w", path, err)
	}
	return true, nil
}
