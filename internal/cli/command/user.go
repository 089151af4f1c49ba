package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/rawhttpd/internal/core/service"
	"github.com/yndnr/rawhttpd/internal/storage"
	"github.com/yndnr/rawhttpd/internal/telemetry/logger"
)

// UserCommand returns the user subcommand group. It opens the database
// directly, so it cannot run while a server holds the same data directory.
func UserCommand() *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Offline user administration",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List registered users",
				Action: userList,
			},
			{
				Name:  "add",
				Usage: "Register a user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Required: true},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{
						Name:     "password",
						Usage:    "Password; prefer RAWHTTPD_USER_PASSWORD over the flag",
						EnvVars:  []string{"RAWHTTPD_USER_PASSWORD"},
						Required: true,
					},
				},
				Action: userAdd,
			},
		},
	}
}

// withUsers opens the configured database for the duration of fn.
func withUsers(c *cli.Context, fn func(*service.UserService) error) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, err := openStorage(cfg, logger.Discard())
	if err != nil {
		return err
	}
	defer engine.Close()

	return fn(service.NewUserService(storage.NewUserRepository(engine), service.WithLogger(logger.Discard())))
}

func userList(c *cli.Context) error {
	f, err := formatter(c)
	if err != nil {
		return err
	}
	return withUsers(c, func(users *service.UserService) error {
		list, err := users.List(c.Context)
		if err != nil {
			return err
		}
		return f.Format(c.App.Writer, list)
	})
}

func userAdd(c *cli.Context) error {
	f, err := formatter(c)
	if err != nil {
		return err
	}
	return withUsers(c, func(users *service.UserService) error {
		user, err := users.Register(c.Context, &service.RegisterRequest{
			Username: c.String("username"),
			Email:    c.String("email"),
			Password: c.String("password"),
		})
		if err != nil {
			return err
		}
		return f.Format(c.App.Writer, user)
	})
}
