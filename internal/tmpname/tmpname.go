// Package tmpname generates collision-free temporary names next to a target
// path and enumerates leftover temporaries matching the naming scheme.
//
// A temporary name is the target path plus "." plus 20 random hex
// characters. The fixed suffix width is what makes leftover discovery
// possible without persistent bookkeeping.
package tmpname

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/wtnb75/sftpovw/internal/apperr"
)

const (
	suffixBytes = 10
	suffixLen   = 2 * suffixBytes
	maxAttempts = 10
)

// Dir is the directory view naming needs: existence checks and entry
// listing. remote.Session satisfies it; Local adapts the host filesystem.
type Dir interface {
	Stat(name string) (os.FileInfo, error)
	ReadDir(name string) ([]string, error)
}

type localDir struct{}

func (localDir) Stat(name string) (os.FileInfo, error) { return os.Stat(name) }

func (localDir) ReadDir(name string) ([]string, error) {
	entries, err := os.ReadDir(name)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// Local is the local-filesystem Dir.
var Local Dir = localDir{}

// New returns a temporary name for target, verified absent through d at
// generation time. target must name a file, not a directory. Each attempt
// costs one Stat; after 10 colliding attempts it fails with
// apperr.ErrTmpExhausted rather than returning a name already in use.
func New(d Dir, target string) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		name := target + "." + randomSuffix()
		_, err := d.Stat(name)
		if errors.Is(err, fs.ErrNotExist) {
			return name, nil
		}
		if err != nil {
			return "", fmt.Errorf("tmpname: probe %s: %w", name, err)
		}
	}
	return "", fmt.Errorf("tmpname: %s: %w", target, apperr.ErrTmpExhausted)
}

// NewLocal is New against the local filesystem.
func NewLocal(target string) (string, error) {
	return New(Local, target)
}

// List returns the full paths of entries in target's directory whose name
// has the length of a generated candidate and starts with target's base
// name plus ".". The heuristic is intentionally approximate: an unrelated
// name of the same shape matches too. Remote flavor, slash-separated paths.
func List(d Dir, target string) ([]string, error) {
	dir, base := path.Split(target)
	return matchTemps(d, path.Clean(dir), base, path.Join)
}

// ListLocal is List against the local filesystem, following host OS path
// rules.
func ListLocal(target string) ([]string, error) {
	dir, base := filepath.Split(target)
	return matchTemps(Local, filepath.Clean(dir), base, filepath.Join)
}

func matchTemps(d Dir, dir, base string, join func(...string) string) ([]string, error) {
	names, err := d.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("tmpname: list %s: %w", dir, err)
	}
	want := len(base) + 1 + suffixLen
	prefix := base + "."
	var res []string
	for _, name := range names {
		if len(name) == want && strings.HasPrefix(name, prefix) {
			res = append(res, join(dir, name))
		}
	}
	return res, nil
}

func randomSuffix() string {
	buf := make([]byte, suffixBytes)
	rand.Read(buf) // never errors, per crypto/rand
	return hex.EncodeToString(buf)
}
