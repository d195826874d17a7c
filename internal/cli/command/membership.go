package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tenantgate/internal/cli/output"
	"github.com/yndnr/tenantgate/internal/core/domain"
)

// MembershipCommand returns the membership subcommand group.
func MembershipCommand() *cli.Command {
	tenantFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:     "tenant",
			Aliases:  []string{"t"},
			Usage:    "Tenant ID (UUID)",
			Required: true,
		}
	}

	return &cli.Command{
		Name:    "membership",
		Aliases: []string{"member"},
		Usage:   "Manage user to tenant memberships",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Grant a user access to a tenant",
				ArgsUsage: "USER_ID",
				Flags:     []cli.Flag{tenantFlag()},
				Action:    membershipAdd,
			},
			{
				Name:      "remove",
				Usage:     "Revoke a user's access to a tenant",
				ArgsUsage: "USER_ID",
				Flags:     []cli.Flag{tenantFlag()},
				Action:    membershipRemove,
			},
			{
				Name:  "list",
				Usage: "List memberships of a user or of a tenant",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "user",
						Aliases: []string{"u"},
						Usage:   "User ID (token subject)",
					},
					&cli.StringFlag{
						Name:    "tenant",
						Aliases: []string{"t"},
						Usage:   "Tenant ID (UUID)",
					},
				},
				Action: membershipList,
			},
		},
	}
}

type membershipView struct {
	UserID    string `json:"user_id" yaml:"user_id"`
	TenantID  string `json:"tenant_id" yaml:"tenant_id"`
	CreatedAt string `json:"created_at" yaml:"created_at"`
}

func newMembershipView(m *domain.Membership) membershipView {
	return membershipView{
		UserID:    m.UserID,
		TenantID:  m.TenantID.String(),
		CreatedAt: millisTime(m.CreatedAt),
	}
}

type membershipViewList []membershipView

func (l membershipViewList) Table(bool) *output.Table {
	t := &output.Table{Headers: []string{"USER ID", "TENANT", "CREATED"}}
	for _, m := range l {
		t.AddRow(m.UserID, m.TenantID, output.Cell(m.CreatedAt))
	}
	return t
}

func membershipAdd(c *cli.Context) error {
	userID := c.Args().First()
	if userID == "" {
		return fmt.Errorf("user ID required")
	}

	return withStore(c, func(s *adminStore) error {
		ctx, cancel := commandContext(c)
		defer cancel()

		m, err := s.members.Add(ctx, userID, c.String("tenant"))
		if err != nil {
			return err
		}
		if isTable(c) {
			fmt.Fprintf(c.App.Writer, "User %s added to tenant %s.\n", m.UserID, m.TenantID)
			return nil
		}
		return render(c, newMembershipView(m))
	})
}

func membershipRemove(c *cli.Context) error {
	userID := c.Args().First()
	if userID == "" {
		return fmt.Errorf("user ID required")
	}

	return withStore(c, func(s *adminStore) error {
		ctx, cancel := commandContext(c)
		defer cancel()

		if err := s.members.Remove(ctx, userID, c.String("tenant")); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "User %s removed from tenant %s.\n", userID, c.String("tenant"))
		return nil
	})
}

func membershipList(c *cli.Context) error {
	return withStore(c, func(s *adminStore) error {
		ctx, cancel := commandContext(c)
		defer cancel()

		ms, err := s.members.List(ctx, c.String("user"), c.String("tenant"))
		if err != nil {
			return err
		}

		list := make(membershipViewList, 0, len(ms))
		for _, m := range ms {
			list = append(list, newMembershipView(m))
		}
		return render(c, list)
	})
}
