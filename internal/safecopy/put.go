package safecopy

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/wtnb75/sftpovw/internal/tmpname"
)

func (c *Copier) putOverwrite(r io.Reader, dst string) (int64, error) {
	c.log.Debug("put", slog.String("path", dst))
	n, err := c.sess.Write(dst, r)
	if err != nil {
		return n, fmt.Errorf("safecopy: write: %w", err)
	}
	return n, nil
}

func (c *Copier) putDelete(r io.Reader, dst string) (int64, error) {
	exists, err := c.Exists(dst)
	if err != nil {
		return 0, err
	}
	if exists {
		c.log.Debug("remove", slog.String("path", dst))
		if err := c.sess.Remove(dst); err != nil {
			return 0, fmt.Errorf("safecopy: remove old: %w", err)
		}
	}
	c.log.Debug("put", slog.String("path", dst))
	n, err := c.sess.Write(dst, r)
	if err != nil {
		return n, fmt.Errorf("safecopy: write: %w", err)
	}
	return n, nil
}

func (c *Copier) putBackup(r io.Reader, dst string) (int64, error) {
	tmp, err := tmpname.New(c.sess, dst)
	if err != nil {
		return 0, err
	}
	exists, err := c.Exists(dst)
	if err != nil {
		return 0, err
	}
	if exists {
		c.log.Debug("rename", slog.String("from", dst), slog.String("to", tmp))
		if err := c.sess.Rename(dst, tmp); err != nil {
			return 0, fmt.Errorf("safecopy: backup rename: %w", err)
		}
	}
	c.log.Debug("put", slog.String("path", dst))
	n, err := c.sess.Write(dst, r)
	if err != nil {
		return n, fmt.Errorf("safecopy: write: %w", err)
	}
	if exists {
		c.log.Debug("remove", slog.String("path", tmp))
		if err := c.sess.Remove(tmp); err != nil {
			return n, fmt.Errorf("safecopy: drop backup: %w", err)
		}
	}
	return n, nil
}

func (c *Copier) putStage(r io.Reader, dst string) (int64, error) {
	tmp, err := tmpname.New(c.sess, dst)
	if err != nil {
		return 0, err
	}
	c.log.Debug("put", slog.String("path", tmp))
	n, err := c.sess.Write(tmp, r)
	if err != nil {
		return n, fmt.Errorf("safecopy: stage write: %w", err)
	}
	c.log.Debug("rename", slog.String("from", tmp), slog.String("to", dst))
	if err := c.sess.Rename(tmp, dst); err != nil {
		return n, fmt.Errorf("safecopy: promote rename: %w", err)
	}
	return n, nil
}

func (c *Copier) putStageBackup(r io.Reader, dst string) (int64, error) {
	tmp1, err := tmpname.New(c.sess, dst)
	if err != nil {
		return 0, err
	}
	tmp2, err := tmpname.New(c.sess, dst)
	if err != nil {
		return 0, err
	}
	c.log.Debug("put", slog.String("path", tmp1))
	n, err := c.sess.Write(tmp1, r)
	if err != nil {
		return n, fmt.Errorf("safecopy: stage write: %w", err)
	}
	// The old destination is checked only now, with the new content fully
	// staged.
	exists, err := c.Exists(dst)
	if err != nil {
		return n, err
	}
	if exists {
		c.log.Debug("rename", slog.String("from", dst), slog.String("to", tmp2))
		if err := c.sess.Rename(dst, tmp2); err != nil {
			return n, fmt.Errorf("safecopy: backup rename: %w", err)
		}
	}
	c.log.Debug("rename", slog.String("from", tmp1), slog.String("to", dst))
	if err := c.sess.Rename(tmp1, dst); err != nil {
		return n, fmt.Errorf("safecopy: promote rename: %w", err)
	}
	if exists {
		c.log.Debug("remove", slog.String("path", tmp2))
		if err := c.sess.Remove(tmp2); err != nil {
			return n, fmt.Errorf("safecopy: drop backup: %w", err)
		}
	}
	return n, nil
}
