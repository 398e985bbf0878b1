package internal

import "io"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	mcpUser string
	logOut  io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithMCPUser makes RunMCP act on behalf of the user with this email.
func WithMCPUser(email string) Option {
	return func(a *application) {
		a.mcpUser = email
	}
}

// WithLogOutput redirects the JSON log. MCP mode needs stdout for the
// protocol and logs to stderr.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOut = w
	}
}
