// Package digest computes content digests of remote paths over a transfer
// session, preferring the protocol-native file-check extension and falling
// back to a remote `<algo>sum` command, plus the local-filesystem mirror.
package digest

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/wtnb75/sftpovw/internal/apperr"
	"github.com/wtnb75/sftpovw/internal/remote"
)

// Verifier computes digests of remote paths over one session. The
// algorithm is fixed at construction so native and command-fallback
// results stay comparable.
type Verifier struct {
	sess remote.Session
	algo Algo
	log  *slog.Logger
}

// NewVerifier returns a Verifier computing algo digests over sess.
func NewVerifier(sess remote.Session, algo Algo, logger *slog.Logger) *Verifier {
	return &Verifier{sess: sess, algo: algo, log: logger}
}

// CommandError reports a digest command that failed without producing any
// usable output.
type CommandError struct {
	Command string
	Status  int
	Stderr  string
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("digest: %s exited %d with no parseable output", e.Command, e.Status)
	}
	return fmt.Sprintf("digest: %s exited %d with no parseable output: %s", e.Command, e.Status, e.Stderr)
}

// Digest returns path → lowercase hex digest for the requested paths. It
// asks the session for a native digest per path; if any path reports the
// extension unsupported, the whole batch is recomputed through ByCommand —
// partial extension support is not modeled. Any other error (a missing
// file, a transport failure) surfaces as that error, not as a fallback.
func (v *Verifier) Digest(paths []string) (map[string]string, error) {
	v.log.Debug("digest by protocol", slog.Int("paths", len(paths)))
	res := make(map[string]string, len(paths))
	for _, p := range paths {
		sum, err := v.sess.Check(string(v.algo), p)
		if errors.Is(err, apperr.ErrCheckUnsupported) {
			v.log.Debug("digest extension unsupported, using command fallback")
			return v.ByCommand(paths)
		}
		if err != nil {
			return nil, fmt.Errorf("digest: %w", err)
		}
		res[p] = strings.ToLower(sum)
	}
	return res, nil
}

// ByCommand computes the batch with a single remote `<algo>sum`
// invocation and parses its `<digest><whitespace><path>` output lines.
// Exit status 127 means the utility is missing. Status 1 marks files the
// utility could not read; the digests it did produce are returned. Any
// other failure is fatal only when nothing was parsed at all; otherwise it
// is logged and the partial result returned — callers check completeness
// themselves.
func (v *Verifier) ByCommand(paths []string) (map[string]string, error) {
	args := make([]string, 0, len(paths)+1)
	args = append(args, v.algo.Command())
	args = append(args, paths...)
	cmd := shellquote.Join(args...)
	v.log.Debug("digest by command", slog.String("command", cmd))

	out, err := v.sess.Exec(cmd)
	if err != nil {
		return nil, fmt.Errorf("digest: %w", err)
	}
	res := v.parseSums(out.Stdout, paths)
	switch {
	case out.ExitStatus == 127:
		return nil, fmt.Errorf("digest: %s: %w", v.algo.Command(), apperr.ErrCommandNotFound)
	case out.ExitStatus != 0 && len(res) == 0:
		return nil, &CommandError{
			Command: v.algo.Command(),
			Status:  out.ExitStatus,
			Stderr:  strings.TrimSpace(string(out.Stderr)),
		}
	case out.ExitStatus != 0:
		v.log.Warn("digest command reported failures",
			slog.Int("status", out.ExitStatus),
			slog.String("stderr", strings.TrimSpace(string(out.Stderr))))
	}
	if len(res) < len(paths) {
		var missing []string
		for _, p := range paths {
			if _, ok := res[p]; !ok {
				missing = append(missing, p)
			}
		}
		v.log.Warn("digest result incomplete",
			slog.Int("requested", len(paths)),
			slog.Int("resolved", len(res)),
			slog.String("missing", strings.Join(missing, ", ")))
	}
	return res, nil
}

// parseSums keeps only lines for requested paths. The path keeps any inner
// whitespace; the digest is lowercased.
func (v *Verifier) parseSums(stdout []byte, requested []string) map[string]string {
	want := make(map[string]bool, len(requested))
	for _, p := range requested {
		want[p] = true
	}
	res := make(map[string]string)
	sc := bufio.NewScanner(bytes.NewReader(stdout))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		i := strings.IndexAny(line, " \t")
		if i < 0 {
			continue
		}
		sum := strings.ToLower(line[:i])
		path := strings.TrimLeft(line[i:], " \t")
		// coreutils prefixes the path with "*" in binary mode; strip it
		// unless the requested path itself starts with one. Escape-mode
		// lines (leading "\", for paths containing newlines or
		// backslashes) are not decoded and fall out as unrequested.
		if !want[path] {
			path = strings.TrimPrefix(path, "*")
		}
		if !want[path] {
			v.log.Debug("dropping digest line for unrequested path", slog.String("path", path))
			continue
		}
		res[path] = sum
	}
	return res
}
