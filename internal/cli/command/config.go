package command

import (
	"fmt"

	"github.com/knadh/koanf/maps"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/rawhttpd/internal/cli/output"
	"github.com/yndnr/rawhttpd/internal/infra/confloader"
	"github.com/yndnr/rawhttpd/internal/server/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the merged configuration with secrets masked",
				Action: configShow,
			},
			{
				Name:   "check",
				Usage:  "Load and verify the configuration",
				Action: configCheck,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}
	f, err := formatter(c)
	if err != nil {
		return err
	}

	values := confloader.Values(config.Sanitize(cfg))
	if _, ok := f.(*output.TableFormatter); ok {
		return f.Format(c.App.Writer, values)
	}
	return f.Format(c.App.Writer, maps.Unflatten(values, "."))
}

func configCheck(c *cli.Context) error {
	_, loader, err := loadConfig(c)
	if err != nil {
		return err
	}
	source := loader.FilePath()
	if source == "" {
		source = "defaults and environment"
	}
	fmt.Fprintf(c.App.Writer, "configuration OK (%s)\n", source)
	return nil
}
