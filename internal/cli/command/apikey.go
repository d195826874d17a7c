package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tenantgate/internal/cli/output"
	"github.com/yndnr/tenantgate/internal/core/domain"
	"github.com/yndnr/tenantgate/internal/core/service"
)

// APIKeyCommand returns the apikey subcommand group.
func APIKeyCommand() *cli.Command {
	return &cli.Command{
		Name:    "apikey",
		Aliases: []string{"key"},
		Usage:   "Manage tenant API keys",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a new API key for a tenant",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "tenant",
						Aliases:  []string{"t"},
						Usage:    "Owning tenant ID (UUID)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Usage:    "Key name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "scope",
						Usage: "Space or comma separated scope entries",
					},
					&cli.DurationFlag{
						Name:  "ttl",
						Usage: "Lifetime of the key; 0 never expires",
					},
				},
				Action: apikeyCreate,
			},
			{
				Name:  "list",
				Usage: "List API keys",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "tenant",
						Aliases: []string{"t"},
						Usage:   "Only keys of this tenant",
					},
				},
				Action: apikeyList,
			},
			{
				Name:      "get",
				Usage:     "Show one API key",
				ArgsUsage: "KEY_ID",
				Action:    apikeyGet,
			},
			{
				Name:      "disable",
				Usage:     "Disable an API key",
				ArgsUsage: "KEY_ID",
				Action:    apikeySetActive(false),
			},
			{
				Name:      "enable",
				Usage:     "Enable an API key",
				ArgsUsage: "KEY_ID",
				Action:    apikeySetActive(true),
			},
		},
	}
}

// apiKeyView is the displayed form of a record. The secret hash is never
// shown.
type apiKeyView struct {
	KeyID      string `json:"key_id" yaml:"key_id"`
	TenantID   string `json:"tenant_id" yaml:"tenant_id"`
	Name       string `json:"name" yaml:"name"`
	Scope      string `json:"scope,omitempty" yaml:"scope,omitempty"`
	Active     bool   `json:"active" yaml:"active"`
	ExpiresAt  string `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	LastUsedAt string `json:"last_used_at,omitempty" yaml:"last_used_at,omitempty"`
	CreatedAt  string `json:"created_at" yaml:"created_at"`
}

func newAPIKeyView(rec *domain.APIKeyRecord) apiKeyView {
	return apiKeyView{
		KeyID:      rec.KeyID,
		TenantID:   rec.TenantID.String(),
		Name:       rec.Name,
		Scope:      rec.Scope,
		Active:     rec.Active,
		ExpiresAt:  millisTime(rec.ExpiresAt),
		LastUsedAt: millisTime(rec.LastUsedAt),
		CreatedAt:  millisTime(rec.CreatedAt),
	}
}

type apiKeyList []apiKeyView

func (l apiKeyList) Table(wide bool) *output.Table {
	t := &output.Table{Headers: []string{"KEY ID", "TENANT", "NAME", "ACTIVE", "EXPIRES"}}
	if wide {
		t.Headers = append(t.Headers, "SCOPE", "LAST USED", "CREATED")
	}
	for _, k := range l {
		row := []string{k.KeyID, k.TenantID, output.Cell(k.Name), output.Cell(k.Active), output.Cell(k.ExpiresAt)}
		if wide {
			row = append(row, output.Cell(k.Scope), output.Cell(k.LastUsedAt), output.Cell(k.CreatedAt))
		}
		t.AddRow(row...)
	}
	return t
}

// createdKey is shown once, right after creation.
type createdKey struct {
	KeyID     string `json:"key_id" yaml:"key_id"`
	TenantID  string `json:"tenant_id" yaml:"tenant_id"`
	Name      string `json:"name" yaml:"name"`
	Scope     string `json:"scope,omitempty" yaml:"scope,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	APIKey    string `json:"api_key" yaml:"api_key"`
}

func apikeyCreate(c *cli.Context) error {
	req := &service.CreateAPIKeyRequest{
		TenantID: c.String("tenant"),
		Name:     c.String("name"),
		Scope:    c.String("scope"),
		TTL:      c.Duration("ttl"),
	}

	return withStore(c, func(s *adminStore) error {
		ctx, cancel := commandContext(c)
		defer cancel()

		resp, err := s.keys.Create(ctx, req)
		if err != nil {
			return err
		}

		rec := resp.Record
		if err := render(c, createdKey{
			KeyID:     rec.KeyID,
			TenantID:  rec.TenantID.String(),
			Name:      rec.Name,
			Scope:     rec.Scope,
			ExpiresAt: millisTime(rec.ExpiresAt),
			APIKey:    resp.PlainKey,
		}); err != nil {
			return err
		}
		if isTable(c) {
			fmt.Fprintln(c.App.ErrWriter, "\nSave this API key now. It cannot be retrieved later.")
		}
		return nil
	})
}

func apikeyList(c *cli.Context) error {
	return withStore(c, func(s *adminStore) error {
		ctx, cancel := commandContext(c)
		defer cancel()

		recs, err := s.keys.List(ctx, c.String("tenant"))
		if err != nil {
			return err
		}

		list := make(apiKeyList, 0, len(recs))
		for _, rec := range recs {
			list = append(list, newAPIKeyView(rec))
		}
		if err := render(c, list); err != nil {
			return err
		}
		if isTable(c) {
			fmt.Fprintf(c.App.Writer, "\nTotal: %d keys\n", len(list))
		}
		return nil
	})
}

func apikeyGet(c *cli.Context) error {
	keyID := c.Args().First()
	if keyID == "" {
		return fmt.Errorf("key ID required")
	}

	return withStore(c, func(s *adminStore) error {
		ctx, cancel := commandContext(c)
		defer cancel()

		rec, err := s.keys.Get(ctx, keyID)
		if err != nil {
			return err
		}
		return render(c, newAPIKeyView(rec))
	})
}

func apikeySetActive(active bool) cli.ActionFunc {
	verb := "disabled"
	if active {
		verb = "enabled"
	}

	return func(c *cli.Context) error {
		keyID := c.Args().First()
		if keyID == "" {
			return fmt.Errorf("key ID required")
		}

		return withStore(c, func(s *adminStore) error {
			ctx, cancel := commandContext(c)
			defer cancel()

			rec, err := s.keys.SetActive(ctx, keyID, active)
			if err != nil {
				return err
			}
			if isTable(c) {
				fmt.Fprintf(c.App.Writer, "API key %s %s.\n", rec.KeyID, verb)
				return nil
			}
			return render(c, newAPIKeyView(rec))
		})
	}
}
