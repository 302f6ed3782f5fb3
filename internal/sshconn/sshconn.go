// Package sshconn establishes SSH connections and SFTP sessions from a
// host alias, honoring OpenSSH client configuration, identity files, and
// the SSH agent.
package sshconn

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"os/user"
	"strconv"

	"github.com/kevinburke/ssh_config"
	"github.com/mitchellh/go-homedir"
	sshagent "github.com/xanzy/ssh-agent"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/wtnb75/sftpovw/internal/remote"
)

const (
	defaultConfigFile     = "~/.ssh/config"
	defaultKnownHostsFile = "~/.ssh/known_hosts"
	defaultPort           = 22
)

// Target describes where and how to connect. Host is an alias or address;
// zero values of the other fields defer to the OpenSSH client
// configuration, then to defaults (port 22, current OS user).
type Target struct {
	Host           string
	Port           int
	User           string
	IdentityFile   string
	ConfigFile     string // OpenSSH client config, default ~/.ssh/config
	KnownHostsFile string // default ~/.ssh/known_hosts
}

type endpoint struct {
	hostname   string
	port       int
	user       string
	identities []string
}

// Dial connects to the target and opens an SFTP session on the
// connection. ctx bounds connection setup only; the returned session is
// closed by the caller.
func Dial(ctx context.Context, t Target, logger *slog.Logger) (*remote.SFTPSession, error) {
	if t.Host == "" {
		return nil, fmt.Errorf("sshconn: host is required")
	}
	ep, err := t.resolve(logger)
	if err != nil {
		return nil, err
	}
	methods := authMethods(ep, logger)
	if len(methods) == 0 {
		return nil, fmt.Errorf("sshconn: no usable authentication for %s", t.Host)
	}
	hostKeys, err := hostKeyCallback(t.KnownHostsFile, logger)
	if err != nil {
		return nil, err
	}

	cfg := &ssh.ClientConfig{
		User:            ep.user,
		Auth:            methods,
		HostKeyCallback: hostKeys,
	}
	addr := net.JoinHostPort(ep.hostname, strconv.Itoa(ep.port))
	logger.Info("connecting",
		slog.String("host", t.Host),
		slog.String("addr", addr),
		slog.String("user", ep.user))

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("sshconn: dial %s: %w", addr, err)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("sshconn: handshake %s: %w", addr, err)
	}
	sess, err := remote.NewSFTP(ssh.NewClient(c, chans, reqs), logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	return sess, nil
}

// resolve merges the target with the OpenSSH client configuration for its
// alias. Explicit Target fields win over the file, the file wins over
// defaults. A missing config file skips resolution.
func (t Target) resolve(logger *slog.Logger) (endpoint, error) {
	ep := endpoint{hostname: t.Host, port: t.Port, user: t.User}

	cfgPath := t.ConfigFile
	if cfgPath == "" {
		cfgPath = defaultConfigFile
	}
	path, err := homedir.Expand(cfgPath)
	if err != nil {
		return ep, fmt.Errorf("sshconn: expand %s: %w", cfgPath, err)
	}

	var cfg *ssh_config.Config
	fp, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Debug("ssh config not found, skipping", slog.String("path", path))
	case err != nil:
		return ep, fmt.Errorf("sshconn: open ssh config: %w", err)
	default:
		cfg, err = ssh_config.Decode(fp)
		fp.Close()
		if err != nil {
			return ep, fmt.Errorf("sshconn: parse ssh config %s: %w", path, err)
		}
	}

	get := func(key string) string {
		if cfg == nil {
			return ""
		}
		val, err := cfg.Get(t.Host, key)
		if err != nil {
			return ""
		}
		return val
	}

	if hn := get("HostName"); hn != "" {
		ep.hostname = hn
	}
	if ep.port == 0 {
		if p := get("Port"); p != "" {
			n, err := strconv.Atoi(p)
			if err != nil {
				return ep, fmt.Errorf("sshconn: bad Port %q in ssh config: %w", p, err)
			}
			ep.port = n
		}
	}
	if ep.port == 0 {
		ep.port = defaultPort
	}
	if ep.user == "" {
		ep.user = get("User")
	}
	if ep.user == "" {
		u, err := user.Current()
		if err != nil {
			return ep, fmt.Errorf("sshconn: current user: %w", err)
		}
		ep.user = u.Username
	}

	// Identity candidates in priority order: the explicit file, the
	// config's, then the usual defaults. Only existing files are kept.
	var candidates []string
	if t.IdentityFile != "" {
		candidates = append(candidates, t.IdentityFile)
	}
	if cfg != nil {
		if ids, err := cfg.GetAll(t.Host, "IdentityFile"); err == nil {
			candidates = append(candidates, ids...)
		}
	}
	candidates = append(candidates, "~/.ssh/id_ed25519", "~/.ssh/id_rsa")
	seen := map[string]bool{}
	for _, cand := range candidates {
		p, err := homedir.Expand(cand)
		if err != nil || seen[p] {
			continue
		}
		seen[p] = true
		if _, err := os.Stat(p); err == nil {
			ep.identities = append(ep.identities, p)
		}
	}
	return ep, nil
}

// authMethods assembles agent and identity-file authentication. Unreadable
// or encrypted keys are skipped with a warning.
func authMethods(ep endpoint, logger *slog.Logger) []ssh.AuthMethod {
	var methods []ssh.AuthMethod
	if ag, _, err := sshagent.New(); err == nil {
		methods = append(methods, ssh.PublicKeysCallback(ag.Signers))
	} else {
		logger.Debug("ssh agent unavailable", slog.String("error", err.Error()))
	}
	var signers []ssh.Signer
	for _, p := range ep.identities {
		key, err := os.ReadFile(p)
		if err != nil {
			logger.Warn("skipping identity file",
				slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			logger.Warn("skipping identity file",
				slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		signers = append(signers, signer)
	}
	if len(signers) > 0 {
		methods = append(methods, ssh.PublicKeys(signers...))
	}
	return methods
}

// hostKeyCallback verifies against the known-hosts file. An unknown host
// is accepted with a warning; a key mismatch is fatal. A missing file
// degrades to warn-and-accept for every host.
func hostKeyCallback(file string, logger *slog.Logger) (ssh.HostKeyCallback, error) {
	if file == "" {
		file = defaultKnownHostsFile
	}
	path, err := homedir.Expand(file)
	if err != nil {
		return nil, fmt.Errorf("sshconn: expand %s: %w", file, err)
	}
	warn := func(hostname string, key ssh.PublicKey) {
		logger.Warn("unknown host key, continuing",
			slog.String("host", hostname),
			slog.String("fingerprint", ssh.FingerprintSHA256(key)))
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		logger.Debug("known_hosts not found", slog.String("path", path))
		return func(hostname string, _ net.Addr, key ssh.PublicKey) error {
			warn(hostname, key)
			return nil
		}, nil
	}
	check, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("sshconn: load known_hosts %s: %w", path, err)
	}
	return func(hostname string, addr net.Addr, key ssh.PublicKey) error {
		err := check(hostname, addr, key)
		if err == nil {
			return nil
		}
		var keyErr *knownhosts.KeyError
		if errors.As(err, &keyErr) && len(keyErr.Want) == 0 {
			warn(hostname, key)
			return nil
		}
		return fmt.Errorf("sshconn: host key verification %s: %w", hostname, err)
	}, nil
}
