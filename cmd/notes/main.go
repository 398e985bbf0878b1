package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "notes",
		Usage: "Command-line client for a notely server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "Server base URL",
				Value:   "http://localhost:8080",
				Sources: cli.EnvVars("NOTELY_SERVER"),
			},
			&cli.StringFlag{
				Name:        "session",
				Usage:       "Path to the session file",
				DefaultText: "<user config dir>/notely/session.json",
				Sources:     cli.EnvVars("NOTELY_SESSION_FILE"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log debug output to stderr",
			},
		},
		Commands: []*cli.Command{
			signUpCommand(),
			signInCommand(),
			signOutCommand(),
			whoAmICommand(),
			listCommand(),
			newCommand(),
			showCommand(),
			editCommand(),
			tagCommand(),
			favCommand(),
			publicCommand(),
			rmCommand(),
			summarizeCommand(),
			publicNotesCommand(),
			profileCommand(),
			watchCommand(),
			importCommand(),
			exportCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("notes error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
