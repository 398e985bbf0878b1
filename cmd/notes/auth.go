package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/starford/notely/internal/models"
	"github.com/starford/notely/internal/pages"
)

func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "email",
			Aliases:  []string{"e"},
			Usage:    "Account email",
			Required: true,
			Sources:  cli.EnvVars("NOTELY_EMAIL"),
		},
		&cli.StringFlag{
			Name:     "password",
			Aliases:  []string{"p"},
			Usage:    "Account password",
			Required: true,
			Sources:  cli.EnvVars("NOTELY_PASSWORD"),
		},
	}
}

func signUpCommand() *cli.Command {
	return &cli.Command{
		Name:  "signup",
		Usage: "Create an account and sign in",
		Flags: credentialFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			if _, err := pages.SignUp(ctx, c.deps, cmd.String("email"), cmd.String("password")); err != nil {
				return fmt.Errorf("sign up: %w", err)
			}
			c.out.Line("Signed up as %s", cmd.String("email"))
			return nil
		},
	}
}

func signInCommand() *cli.Command {
	return &cli.Command{
		Name:  "signin",
		Usage: "Sign in and store the session",
		Flags: credentialFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			if _, err := pages.SignIn(ctx, c.deps, cmd.String("email"), cmd.String("password")); err != nil {
				return fmt.Errorf("sign in: %w", err)
			}
			c.out.Line("Signed in as %s", cmd.String("email"))
			return nil
		},
	}
}

func signOutCommand() *cli.Command {
	return &cli.Command{
		Name:  "signout",
		Usage: "End the session",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			pages.SignOut(ctx, c.deps)
			c.out.Line("Signed out")
			return nil
		},
	}
}

func whoAmICommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the signed-in user",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			if pages.Landing(c.deps) != pages.RouteDashboard {
				return errNotSignedIn
			}
			u, err := c.gw.User(ctx)
			if err != nil {
				return err
			}
			c.out.Line("%s (%s)", u.Email, u.ID)
			return nil
		},
	}
}

func profileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Show the profile, or set the full name with --name",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "New full name"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			p, redirect := pages.OpenProfile(ctx, c.deps)
			if redirect != "" {
				return errNotSignedIn
			}
			if cmd.IsSet("name") {
				p.SetFullName(cmd.String("name"))
				if !p.Save(ctx) {
					return fmt.Errorf("profile not saved")
				}
			}
			c.out.Profile(p.Initials(), p.Email(), p.FullName())
			return nil
		},
	}
}

// sessionUser returns the stored user for commands that only need it for
// display.
func sessionUser(c *client) (models.User, error) {
	sess, err := c.store.Load()
	if err != nil {
		return models.User{}, err
	}
	if sess == nil {
		return models.User{}, errNotSignedIn
	}
	return sess.User, nil
}
