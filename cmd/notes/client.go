package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/starford/notely/internal/gateway"
	"github.com/starford/notely/internal/pages"
	"github.com/starford/notely/internal/session"
	"github.com/starford/notely/internal/termui"
)

var errNotSignedIn = errors.New("not signed in: run `notes signin` first")

// client is what every command works with.
type client struct {
	deps   pages.Deps
	gw     *gateway.Client
	store  *session.Store
	out    *termui.Printer
	logger *slog.Logger
}

func newClient(cmd *cli.Command) (*client, error) {
	level := slog.LevelWarn
	if cmd.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	path := cmd.String("session")
	if path == "" {
		p, err := session.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	store := session.NewStore(path)

	var opts []gateway.Option
	sess, err := store.Load()
	if err != nil {
		return nil, err
	}
	if sess != nil {
		opts = append(opts, gateway.WithToken(sess.AccessToken))
	}
	gw := gateway.New(cmd.String("server"), opts...)
	out := termui.New(os.Stdout)

	return &client{
		deps: pages.Deps{
			Gateway:  gw,
			Sessions: store,
			Notifier: out,
			Logger:   logger,
		},
		gw:     gw,
		store:  store,
		out:    out,
		logger: logger,
	}, nil
}

// dashboard opens the dashboard or fails when there is no session.
func (c *client) dashboard() (*pages.Dashboard, error) {
	dash, redirect := pages.OpenDashboard(c.deps)
	if redirect != "" {
		return nil, errNotSignedIn
	}
	return dash, nil
}

// noteArg returns the first positional argument as a note id.
func noteArg(cmd *cli.Command) (string, error) {
	id := cmd.Args().First()
	if id == "" {
		return "", fmt.Errorf("%s: note id is required", cmd.Name)
	}
	return id, nil
}
