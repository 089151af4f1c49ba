package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/rawhttpd/internal/cli/output"
	"github.com/yndnr/rawhttpd/internal/infra/buildinfo"
)

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Show build information",
		Action: versionAction,
	}
}

func versionAction(c *cli.Context) error {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}
	if format == output.FormatTable {
		_, err := fmt.Fprintln(c.App.Writer, buildinfo.String())
		return err
	}
	return output.NewFormatter(format, false).Format(c.App.Writer, buildinfo.Get())
}
