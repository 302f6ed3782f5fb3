package tmpname

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/wtnb75/sftpovw/internal/apperr"
	"github.com/wtnb75/sftpovw/internal/remote/remotetest"
)

func TestNewLocal(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	name, err := NewLocal(target)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	if name == target {
		t.Error("temp name equals the target")
	}
	if filepath.Dir(name) != dir {
		t.Errorf("temp name left the directory: %q", name)
	}
	if !strings.HasPrefix(filepath.Base(name), "data.bin.") {
		t.Errorf("name = %q, want prefix %q", filepath.Base(name), "data.bin.")
	}
	if got, want := len(filepath.Base(name)), len("data.bin")+1+suffixLen; got != want {
		t.Errorf("name length = %d, want %d", got, want)
	}
	if _, err := os.Stat(name); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temp name already present: stat err = %v", err)
	}
}

func TestNewLocal_SequentialCallsDiffer(t *testing.T) {
	target := filepath.Join(t.TempDir(), "data.bin")
	a, err := NewLocal(target)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	b, err := NewLocal(target)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	if a == b {
		t.Errorf("two sequential names are identical: %q", a)
	}
}

// alwaysPresent reports every probed name as existing.
type alwaysPresent struct {
	dir   string
	stats int
}

func (d *alwaysPresent) Stat(string) (os.FileInfo, error) {
	d.stats++
	return os.Stat(d.dir)
}

func (d *alwaysPresent) ReadDir(string) ([]string, error) { return nil, nil }

func TestNew_Exhausted(t *testing.T) {
	d := &alwaysPresent{dir: t.TempDir()}
	_, err := New(d, "crowded/file")
	if !errors.Is(err, apperr.ErrTmpExhausted) {
		t.Fatalf("err = %v, want ErrTmpExhausted", err)
	}
	if d.stats != maxAttempts {
		t.Errorf("stats = %d, want %d", d.stats, maxAttempts)
	}
}

// brokenDir fails every stat with a non-not-exist error.
type brokenDir struct{}

func (brokenDir) Stat(string) (os.FileInfo, error) { return nil, fmt.Errorf("connection reset") }
func (brokenDir) ReadDir(string) ([]string, error) { return nil, fmt.Errorf("connection reset") }

func TestNew_StatErrorAborts(t *testing.T) {
	_, err := New(brokenDir{}, "some/file")
	if err == nil {
		t.Fatal("expected error from a broken existence check")
	}
	if errors.Is(err, apperr.ErrTmpExhausted) {
		t.Errorf("a broken stat must not report exhaustion: %v", err)
	}
}

func TestList(t *testing.T) {
	suffix := strings.Repeat("0f", suffixBytes)
	fake := remotetest.NewFake()
	fake.Files = map[string][]byte{
		"dir/data.bin":                          []byte("target"),
		"dir/data.bin." + suffix:                []byte("leftover"),
		"dir/data.bin." + suffix[:suffixLen-2]:  []byte("too short"),
		"dir/data.bin." + suffix + "00":         []byte("too long"),
		"dir/other.bin." + suffix[:suffixLen-1]: []byte("same length wrong prefix"),
		"dir/data.bin2":                         []byte("unrelated"),
	}

	got, err := List(fake, "dir/data.bin")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"dir/data.bin." + suffix}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List = %v, want %v", got, want)
	}
}

func TestListLocal(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "data.bin")
	leftover, err := NewLocal(target)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	for _, p := range []string{target, leftover, target + ".short", target + "x"} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := ListLocal(target)
	if err != nil {
		t.Fatalf("ListLocal: %v", err)
	}
	if len(got) != 1 || got[0] != leftover {
		t.Errorf("ListLocal = %v, want [%s]", got, leftover)
	}
}

func TestListLocal_NoMatches(t *testing.T) {
	target := filepath.Join(t.TempDir(), "data.bin")
	got, err := ListLocal(target)
	if err != nil {
		t.Fatalf("ListLocal: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ListLocal = %v, want empty", got)
	}
}
