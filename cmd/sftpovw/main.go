package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/wtnb75/sftpovw/internal"
	pkgconfig "github.com/wtnb75/sftpovw/pkg/config"
)

const defaultConfigFile = "config/config.yaml"

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to config file",
			Value:   defaultConfigFile,
			Sources: cli.EnvVars("SFTPOVW_CONFIG"),
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
		&cli.BoolFlag{
			Name:  "quiet",
			Usage: "Log warnings and errors only",
		},
	}
}

func connFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "host",
			Usage: "Remote host alias or address",
		},
		&cli.IntFlag{
			Name:        "port",
			Usage:       "Remote port",
			DefaultText: "from ssh config, else 22",
		},
		&cli.StringFlag{
			Name:  "user",
			Usage: "Remote user",
		},
		&cli.StringFlag{
			Name:    "identity-file",
			Aliases: []string{"i"},
			Usage:   "SSH private key file",
		},
		&cli.StringFlag{
			Name:        "ssh-config",
			Usage:       "OpenSSH client config file",
			DefaultText: "~/.ssh/config",
		},
		&cli.StringFlag{
			Name:        "known-hosts",
			Usage:       "Known hosts file",
			DefaultText: "~/.ssh/known_hosts",
		},
	}
}

func copyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "level",
			Aliases:     []string{"l"},
			Usage:       "Replacement safety level (0..4)",
			DefaultText: "from config (3)",
		},
		&cli.BoolFlag{
			Name:  "verify",
			Usage: "Cross-check remote and local digests after the copy",
		},
	}
}

func joinFlags(groups ...[]cli.Flag) []cli.Flag {
	var flags []cli.Flag
	for _, g := range groups {
		flags = append(flags, g...)
	}
	return flags
}

// setup loads the config file, applies flag overrides, and builds the
// logger. A missing default config file falls back to built-in defaults; an
// explicitly named file must exist.
func setup(cmd *cli.Command) (*internal.Config, *slog.Logger, error) {
	cfg := internal.NewDefaultConfig()
	err := pkgconfig.Load(cmd.String("config"), cfg)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && !cmd.IsSet("config"):
	default:
		return nil, nil, err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	logger := internal.NewLogger(cfg.Log, cmd.Bool("verbose"), cmd.Bool("quiet"))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// applyFlags overrides file values with explicitly set flags. Flags a
// command does not define are simply never set.
func applyFlags(cmd *cli.Command, cfg *internal.Config) {
	if cmd.IsSet("host") {
		cfg.SSH.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.SSH.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("user") {
		cfg.SSH.User = cmd.String("user")
	}
	if cmd.IsSet("identity-file") {
		cfg.SSH.IdentityFile = cmd.String("identity-file")
	}
	if cmd.IsSet("ssh-config") {
		cfg.SSH.ConfigFile = cmd.String("ssh-config")
	}
	if cmd.IsSet("known-hosts") {
		cfg.SSH.KnownHosts = cmd.String("known-hosts")
	}
	if cmd.IsSet("level") {
		cfg.Copy.Level = int(cmd.Int("level"))
	}
	if cmd.IsSet("algo") {
		cfg.Digest.Algorithm = cmd.String("algo")
	}
}

func remoteLocalArgs(cmd *cli.Command) (string, string, error) {
	if cmd.Args().Len() != 2 {
		return "", "", fmt.Errorf("%s: expected REMOTE LOCAL arguments", cmd.Name)
	}
	return cmd.Args().Get(0), cmd.Args().Get(1), nil
}

func putCommand() *cli.Command {
	return &cli.Command{
		Name:      "put",
		Usage:     "Copy a local file onto a remote path",
		ArgsUsage: "REMOTE LOCAL",
		Flags:     joinFlags(commonFlags(), connFlags(), copyFlags()),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			remotePath, localPath, err := remoteLocalArgs(cmd)
			if err != nil {
				return err
			}
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			return internal.Put(ctx, remotePath, localPath, cmd.Bool("verify"),
				internal.WithConfig(cfg), internal.WithLogger(logger))
		},
	}
}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Copy a remote path to a local file",
		ArgsUsage: "REMOTE LOCAL",
		Flags:     joinFlags(commonFlags(), connFlags(), copyFlags()),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			remotePath, localPath, err := remoteLocalArgs(cmd)
			if err != nil {
				return err
			}
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			return internal.Get(ctx, remotePath, localPath, cmd.Bool("verify"),
				internal.WithConfig(cfg), internal.WithLogger(logger))
		},
	}
}

func checksumCommand() *cli.Command {
	return &cli.Command{
		Name:      "checksum",
		Usage:     "Print digests of remote (or local) paths as JSON",
		ArgsUsage: "PATH...",
		Flags: joinFlags(commonFlags(), connFlags(), []cli.Flag{
			&cli.StringFlag{
				Name:        "algo",
				Usage:       "Digest algorithm (md5, sha1, sha224, sha256, sha384, sha512)",
				DefaultText: "from config (sha1)",
			},
			&cli.BoolFlag{
				Name:  "local",
				Usage: "Digest local files without opening a session",
			},
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return fmt.Errorf("checksum: expected at least one PATH argument")
			}
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			return internal.Checksum(ctx, cmd.Args().Slice(), cmd.Bool("local"),
				internal.WithConfig(cfg), internal.WithLogger(logger))
		},
	}
}

func listtmpCommand() *cli.Command {
	return &cli.Command{
		Name:      "listtmp",
		Usage:     "List leftover temporaries next to a remote target as JSON",
		ArgsUsage: "REMOTE",
		Flags:     joinFlags(commonFlags(), connFlags()),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("listtmp: expected REMOTE argument")
			}
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			return internal.ListTmp(ctx, cmd.Args().Get(0),
				internal.WithConfig(cfg), internal.WithLogger(logger))
		},
	}
}

func sweepCommand() *cli.Command {
	return &cli.Command{
		Name:      "sweep",
		Usage:     "Delete leftover temporaries next to a remote target",
		ArgsUsage: "REMOTE",
		Flags:     joinFlags(commonFlags(), connFlags()),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("sweep: expected REMOTE argument")
			}
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			return internal.Sweep(ctx, cmd.Args().Get(0),
				internal.WithConfig(cfg), internal.WithLogger(logger))
		},
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "sftpovw",
		Usage: "Overwrite files over SFTP with staged, crash-consistent replacement",
		Commands: []*cli.Command{
			putCommand(),
			getCommand(),
			checksumCommand(),
			listtmpCommand(),
			sweepCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
