package digest

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/wtnb75/sftpovw/internal/apperr"
	"github.com/wtnb75/sftpovw/internal/remote"
	"github.com/wtnb75/sftpovw/internal/remote/remotetest"
	"github.com/wtnb75/sftpovw/internal/testutil"
)

func newVerifier(fake *remotetest.Fake) *Verifier {
	return NewVerifier(fake, SHA1, testutil.DiscardLogger())
}

func TestDigestNative(t *testing.T) {
	fake := remotetest.NewFake()
	fake.Files["a"] = []byte("hello world")
	fake.Files["b"] = []byte("other")
	fake.CheckFunc = func(algo, path string) (string, error) {
		if algo != "sha1" {
			t.Errorf("algo = %q, want sha1", algo)
		}
		// Uppercase exercises normalization.
		return strings.ToUpper(Sum(SHA1, fake.Files[path])), nil
	}

	got, err := newVerifier(fake).Digest([]string{"a", "b"})
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got["a"] != "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed" {
		t.Errorf("digest a = %q", got["a"])
	}
	if got["b"] != Sum(SHA1, []byte("other")) {
		t.Errorf("digest b = %q", got["b"])
	}
}

func TestDigestFallsBackWhenUnsupported(t *testing.T) {
	fake := remotetest.NewFake() // CheckFunc nil: extension unsupported
	var command string
	fake.ExecFunc = func(cmd string) (remote.ExecResult, error) {
		command = cmd
		out := Sum(SHA1, []byte("A")) + "  a\n" +
			Sum(SHA1, []byte("B")) + "  dir/my file\n"
		return remote.ExecResult{Stdout: []byte(out)}, nil
	}

	got, err := newVerifier(fake).Digest([]string{"a", "dir/my file"})
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if command != "sha1sum a 'dir/my file'" {
		t.Errorf("command = %q", command)
	}
	if got["a"] != Sum(SHA1, []byte("A")) || got["dir/my file"] != Sum(SHA1, []byte("B")) {
		t.Errorf("result = %v", got)
	}
}

func TestDigestNativeErrorIsNotFallback(t *testing.T) {
	fake := remotetest.NewFake()
	fake.CheckFunc = func(_, path string) (string, error) {
		return "", &fs.PathError{Op: "check", Path: path, Err: fs.ErrNotExist}
	}

	_, err := newVerifier(fake).Digest([]string{"missing"})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("err = %v, want not-exist to surface", err)
	}
	for _, op := range fake.Ops {
		if strings.HasPrefix(op, "exec ") {
			t.Errorf("a missing file must not trigger the command fallback: %v", fake.Ops)
		}
	}
}

func TestByCommandNotFound(t *testing.T) {
	fake := remotetest.NewFake()
	fake.ExecFunc = func(string) (remote.ExecResult, error) {
		return remote.ExecResult{Stderr: []byte("sh: sha1sum: not found"), ExitStatus: 127}, nil
	}

	_, err := newVerifier(fake).ByCommand([]string{"a"})
	if !errors.Is(err, apperr.ErrCommandNotFound) {
		t.Fatalf("err = %v, want ErrCommandNotFound", err)
	}
}

func TestByCommandPartialResult(t *testing.T) {
	fake := remotetest.NewFake()
	fake.ExecFunc = func(string) (remote.ExecResult, error) {
		return remote.ExecResult{
			Stdout:     []byte(Sum(SHA1, []byte("A")) + "  a\n"),
			Stderr:     []byte("sha1sum: missing: No such file or directory"),
			ExitStatus: 1,
		}, nil
	}

	got, err := newVerifier(fake).ByCommand([]string{"a", "missing"})
	if err != nil {
		t.Fatalf("ByCommand: %v", err)
	}
	if len(got) != 1 || got["a"] != Sum(SHA1, []byte("A")) {
		t.Errorf("result = %v, want digest for a only", got)
	}
	if _, ok := got["missing"]; ok {
		t.Error("missing path must not appear in the result")
	}
}

func TestByCommandEmptyFailure(t *testing.T) {
	fake := remotetest.NewFake()
	fake.ExecFunc = func(string) (remote.ExecResult, error) {
		return remote.ExecResult{Stderr: []byte("disk on fire"), ExitStatus: 2}, nil
	}

	_, err := newVerifier(fake).ByCommand([]string{"a"})
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("err = %v, want *CommandError", err)
	}
	if cmdErr.Status != 2 {
		t.Errorf("Status = %d, want 2", cmdErr.Status)
	}
	if !strings.Contains(cmdErr.Stderr, "disk on fire") {
		t.Errorf("Stderr = %q", cmdErr.Stderr)
	}
}

func TestByCommandBinaryModeMarker(t *testing.T) {
	fake := remotetest.NewFake()
	fake.ExecFunc = func(string) (remote.ExecResult, error) {
		return remote.ExecResult{Stdout: []byte(Sum(SHA1, []byte("A")) + " *a\n")}, nil
	}

	got, err := newVerifier(fake).ByCommand([]string{"a"})
	if err != nil {
		t.Fatalf("ByCommand: %v", err)
	}
	if got["a"] != Sum(SHA1, []byte("A")) {
		t.Errorf("result = %v, want the binary-mode marker stripped", got)
	}
}

func TestByCommandDropsUnrequestedLines(t *testing.T) {
	fake := remotetest.NewFake()
	fake.ExecFunc = func(string) (remote.ExecResult, error) {
		out := Sum(SHA1, []byte("A")) + "  a\n" +
			Sum(SHA1, []byte("X")) + "  /etc/unrequested\n"
		return remote.ExecResult{Stdout: []byte(out)}, nil
	}

	got, err := newVerifier(fake).ByCommand([]string{"a"})
	if err != nil {
		t.Fatalf("ByCommand: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("result = %v, want only the requested path", got)
	}
}
