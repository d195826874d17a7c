package command

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tenantgate/internal/cli/connection"
	"github.com/yndnr/tenantgate/internal/cli/output"
	"github.com/yndnr/tenantgate/internal/infra/buildinfo"
	"github.com/yndnr/tenantgate/internal/infra/tlsroots"
	"github.com/yndnr/tenantgate/internal/server/config"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "tenantgate-cli",
		Usage:   "tenantgate administration tool",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			APIKeyCommand(),
			MembershipCommand(),
			WhoamiCommand(),
			HealthCommand(),
		},
		Before: func(c *cli.Context) error {
			_, err := output.ParseFormat(c.String("output"))
			return err
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "tenantgate server address (e.g., localhost:5080)",
			EnvVars: []string{"TENANTGATE_SERVER"},
			Value:   "localhost:5080",
		},
		&cli.StringFlag{
			Name:    "token",
			Usage:   "Bearer token sent as Authorization",
			EnvVars: []string{"TENANTGATE_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "api-key",
			Aliases: []string{"K"},
			Usage:   "API key sent as X-API-Key",
			EnvVars: []string{"TENANTGATE_API_KEY"},
		},
		&cli.StringFlag{
			Name:  "ca-cert",
			Usage: "PEM file with CA certificates trusted for https",
		},
		&cli.BoolFlag{
			Name:  "insecure",
			Usage: "Skip TLS certificate verification",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Request timeout",
			Value: connection.DefaultTimeout,
		},
		&cli.StringFlag{
			Name:    "data-dir",
			Aliases: []string{"d"},
			Usage:   "Server data directory for admin commands",
			EnvVars: []string{"TENANTGATE_DATA_DIR"},
			Value:   config.DefaultDataDir,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Server   string
	Token    string
	APIKey   string
	CACert   string
	Insecure bool
	Timeout  time.Duration

	DataDir string

	Output string
	Wide   bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Server:   c.String("server"),
		Token:    c.String("token"),
		APIKey:   c.String("api-key"),
		CACert:   c.String("ca-cert"),
		Insecure: c.Bool("insecure"),
		Timeout:  c.Duration("timeout"),
		DataDir:  c.String("data-dir"),
		Output:   c.String("output"),
		Wide:     c.Bool("wide"),
	}
}

// newClient builds an HTTP client for the server named by the global flags.
// tenant is sent as X-Tenant-Id when non-empty.
func newClient(c *cli.Context, tenant string) (*connection.HTTPClient, error) {
	flags := ParseGlobalFlags(c)

	opts := connection.Options{
		Credentials: connection.Credentials{
			Token:  flags.Token,
			APIKey: flags.APIKey,
			Tenant: tenant,
		},
		Timeout:   flags.Timeout,
		UserAgent: "tenantgate-cli/" + buildinfo.Version,
	}
	if flags.CACert != "" || flags.Insecure {
		tlsCfg, err := tlsroots.ClientConfig(flags.CACert, flags.Insecure)
		if err != nil {
			return nil, err
		}
		opts.TLS = tlsCfg
	}
	return connection.NewHTTPClient(flags.Server, opts), nil
}

// commandContext bounds one command by the --timeout flag.
func commandContext(c *cli.Context) (context.Context, context.CancelFunc) {
	timeout := c.Duration("timeout")
	if timeout <= 0 {
		timeout = connection.DefaultTimeout
	}
	return context.WithTimeout(c.Context, timeout)
}

// render writes data to the app writer in the selected format.
func render(c *cli.Context, data any) error {
	flags := ParseGlobalFlags(c)
	format, err := output.ParseFormat(flags.Output)
	if err != nil {
		return err
	}
	return output.NewFormatter(format, flags.Wide).Format(c.App.Writer, data)
}

// isTable reports whether output goes to a human rather than a parser.
func isTable(c *cli.Context) bool {
	format, _ := output.ParseFormat(c.String("output"))
	return format == output.FormatTable
}

// millisTime formats a Unix millisecond timestamp, or "" for zero.
func millisTime(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
