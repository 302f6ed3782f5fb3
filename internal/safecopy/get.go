package safecopy

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/wtnb75/sftpovw/internal/tmpname"
)

func (c *Copier) getOverwrite(src, dst string) (int64, error) {
	c.log.Debug("get", slog.String("from", src), slog.String("to", dst))
	return c.readInto(src, dst, false)
}

func (c *Copier) getDelete(src, dst string) (int64, error) {
	exists, err := localExists(dst)
	if err != nil {
		return 0, err
	}
	if exists {
		c.log.Debug("remove local", slog.String("path", dst))
		if err := os.Remove(dst); err != nil {
			return 0, fmt.Errorf("safecopy: remove old: %w", err)
		}
	}
	c.log.Debug("get", slog.String("from", src), slog.String("to", dst))
	return c.readInto(src, dst, false)
}

func (c *Copier) getBackup(src, dst string) (int64, error) {
	tmp, err := tmpname.NewLocal(dst)
	if err != nil {
		return 0, err
	}
	exists, err := localExists(dst)
	if err != nil {
		return 0, err
	}
	if exists {
		c.log.Debug("rename local", slog.String("from", dst), slog.String("to", tmp))
		if err := os.Rename(dst, tmp); err != nil {
			return 0, fmt.Errorf("safecopy: backup rename: %w", err)
		}
	}
	c.log.Debug("get", slog.String("from", src), slog.String("to", dst))
	n, err := c.readInto(src, dst, false)
	if err != nil {
		return n, err
	}
	if exists {
		c.log.Debug("remove local", slog.String("path", tmp))
		if err := os.Remove(tmp); err != nil {
			return n, fmt.Errorf("safecopy: drop backup: %w", err)
		}
	}
	return n, nil
}

func (c *Copier) getStage(src, dst string) (int64, error) {
	tmp, err := tmpname.NewLocal(dst)
	if err != nil {
		return 0, err
	}
	c.log.Debug("get", slog.String("from", src), slog.String("to", tmp))
	n, err := c.readInto(src, tmp, true)
	if err != nil {
		return n, err
	}
	c.log.Debug("rename local", slog.String("from", tmp), slog.String("to", dst))
	if err := os.Rename(tmp, dst); err != nil {
		return n, fmt.Errorf("safecopy: promote rename: %w", err)
	}
	return n, nil
}

func (c *Copier) getStageBackup(src, dst string) (int64, error) {
	tmp1, err := tmpname.NewLocal(dst)
	if err != nil {
		return 0, err
	}
	tmp2, err := tmpname.NewLocal(dst)
	if err != nil {
		return 0, err
	}
	c.log.Debug("get", slog.String("from", src), slog.String("to", tmp1))
	n, err := c.readInto(src, tmp1, true)
	if err != nil {
		return n, err
	}
	// The old destination is checked only now, with the new content fully
	// staged.
	exists, err := localExists(dst)
	if err != nil {
		return n, err
	}
	if exists {
		c.log.Debug("rename local", slog.String("from", dst), slog.String("to", tmp2))
		if err := os.Rename(dst, tmp2); err != nil {
			return n, fmt.Errorf("safecopy: backup rename: %w", err)
		}
	}
	c.log.Debug("rename local", slog.String("from", tmp1), slog.String("to", dst))
	if err := os.Rename(tmp1, dst); err != nil {
		return n, fmt.Errorf("safecopy: promote rename: %w", err)
	}
	if exists {
		c.log.Debug("remove local", slog.String("path", tmp2))
		if err := os.Remove(tmp2); err != nil {
			return n, fmt.Errorf("safecopy: drop backup: %w", err)
		}
	}
	return n, nil
}

// readInto streams the remote src into the local file at dst, creating or
// truncating it. Staged variants fsync before the final rename.
func (c *Copier) readInto(src, dst string, sync bool) (int64, error) {
	f, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("safecopy: create local: %w", err)
	}
	n, err := c.sess.Read(src, f)
	if err != nil {
		f.Close()
		return n, fmt.Errorf("safecopy: read: %w", err)
	}
	if sync {
		if err := f.Sync(); err != nil {
			f.Close()
			return n, fmt.Errorf("safecopy: fsync: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		return n, fmt.Errorf("safecopy: close local: %w", err)
	}
	return n, nil
}
