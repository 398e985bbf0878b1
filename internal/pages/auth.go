package pages

import (
	"context"
	"fmt"
	"log/slog"
)

// SignIn authenticates, stores the session and returns the dashboard route.
func SignIn(ctx context.Context, d Deps, email, password string) (string, error) {
	sess, err := d.Gateway.SignIn(ctx, email, password)
	if err != nil {
		return RouteAuth, err
	}
	if err := d.Sessions.Save(sess); err != nil {
		return RouteAuth, fmt.Errorf("pages: save session: %w", err)
	}
	d.logger().Info("signed in", slog.String("email", sess.User.Email))
	return RouteDashboard, nil
}

// SignUp creates the account and signs in with the same credentials.
func SignUp(ctx context.Context, d Deps, email, password string) (string, error) {
	if _, err := d.Gateway.SignUp(ctx, email, password); err != nil {
		return RouteAuth, err
	}
	return SignIn(ctx, d, email, password)
}

// SignOut ends the session and returns the landing route. The local
// session is cleared even when the server call fails.
func SignOut(ctx context.Context, d Deps) string {
	if err := d.Gateway.SignOut(ctx); err != nil {
		d.logger().Warn("pages: sign out failed", slog.String("error", err.Error()))
	}
	if err := d.Sessions.Clear(); err != nil {
		d.logger().Warn("pages: clear session failed", slog.String("error", err.Error()))
	}
	return RouteLanding
}
