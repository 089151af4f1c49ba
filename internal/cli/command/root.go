// Package command defines the rawhttpd command line.
//
// It uses urfave/cli/v2. Every command that needs configuration loads it
// the same way: defaults, then the YAML file, then RAWHTTPD_* environment
// variables, then command-line flags.
package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/rawhttpd/internal/cli/output"
	"github.com/yndnr/rawhttpd/internal/infra/buildinfo"
	"github.com/yndnr/rawhttpd/internal/infra/confloader"
	"github.com/yndnr/rawhttpd/internal/server/config"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    buildinfo.Name,
		Usage:   "HTTP/1.1 server with a user API, sessions and static files",
		Version: buildinfo.Version,
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			ServeCommand(),
			ConfigCommand(),
			UserCommand(),
			VersionCommand(),
		},
	}
}

// globalFlags returns the flags available to every command.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the YAML configuration file",
			EnvVars: []string{"RAWHTTPD_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "data-dir",
			Usage: "User database directory (overrides storage.data_dir)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   string(output.FormatTable),
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
	}
}

// flagOverrides maps command-line flags onto configuration keys.
var flagOverrides = map[string]string{
	"data-dir":    "storage.data_dir",
	"addr":        "server.http.addr",
	"static-root": "static.root",
}

// newLoader builds the configuration loader for c.
func newLoader(c *cli.Context) *confloader.Loader {
	overrides := make(map[string]any)
	for flag, key := range flagOverrides {
		if c.IsSet(flag) {
			overrides[key] = c.String(flag)
		}
	}

	opts := []confloader.Option{confloader.WithOverrides(overrides)}
	if path := c.String("config"); path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	return confloader.NewLoader(opts...)
}

// loadConfig loads and verifies the server configuration for c.
func loadConfig(c *cli.Context) (*config.ServerConfig, *confloader.Loader, error) {
	loader := newLoader(c)
	cfg := config.Default()
	if err := loader.Load(cfg); err != nil {
		return nil, nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, loader, nil
}

// formatter returns the formatter selected by the global flags.
func formatter(c *cli.Context) (output.Formatter, error) {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return nil, err
	}
	return output.NewFormatter(format, c.Bool("wide")), nil
}
