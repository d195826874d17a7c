package command

import (
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tenantgate/internal/cli/connection"
)

// WhoamiCommand shows the principal and tenant the gateway establishes for
// the configured credentials.
func WhoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the caller identity the gateway resolves",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "tenant",
				Aliases: []string{"t"},
				Usage:   "Tenant ID sent as X-Tenant-Id",
				EnvVars: []string{"TENANTGATE_TENANT"},
			},
		},
		Action: whoami,
	}
}

// callerContext mirrors the body of GET /api/v1/context.
type callerContext struct {
	UserID      string   `json:"user_id" yaml:"user_id"`
	Email       string   `json:"email,omitempty" yaml:"email,omitempty"`
	TenantID    string   `json:"tenant_id" yaml:"tenant_id"`
	Authorities []string `json:"authorities" yaml:"authorities"`
	Credential  string   `json:"credential" yaml:"credential"`
	KeyID       string   `json:"key_id,omitempty" yaml:"key_id,omitempty"`
}

func whoami(c *cli.Context) error {
	client, err := newClient(c, c.String("tenant"))
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(c)
	defer cancel()

	resp, err := client.Get(ctx, "/api/v1/context")
	if err != nil {
		return err
	}

	var result callerContext
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}
	return render(c, result)
}

// HealthCommand probes /health, or /ready with --ready.
func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check server liveness or readiness",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "ready",
				Usage: "Check readiness (store reachability) instead of liveness",
			},
		},
		Action: health,
	}
}

type healthStatus struct {
	Status  string `json:"status" yaml:"status"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	Time    string `json:"time" yaml:"time"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

func health(c *cli.Context) error {
	client, err := newClient(c, "")
	if err != nil {
		return err
	}

	path := "/health"
	if c.Bool("ready") {
		path = "/ready"
	}

	ctx, cancel := commandContext(c)
	defer cancel()

	resp, err := client.Get(ctx, path)
	if err != nil {
		return err
	}

	var result healthStatus
	parseErr := connection.ParseResponse(resp, &result)

	var apiErr *connection.APIError
	if parseErr != nil && !(errors.As(parseErr, &apiErr) && result.Status != "") {
		return parseErr
	}
	if err := render(c, result); err != nil {
		return err
	}
	if parseErr != nil {
		return cli.Exit("server is "+result.Status, 1)
	}
	return nil
}
