package command

import (
	"strings"
	"testing"
)

func TestMembership_AddListRemove(t *testing.T) {
	dir := t.TempDir()

	out := mustRun(t, "--data-dir", dir, "membership", "add", "--tenant", tenantAcme, "alice")
	if !strings.Contains(out, "alice") {
		t.Errorf("add output = %q", out)
	}
	mustRun(t, "--data-dir", dir, "membership", "add", "--tenant", tenantGlobex, "alice")
	mustRun(t, "--data-dir", dir, "membership", "add", "--tenant", tenantAcme, "bob")

	byUser := decode[[]membershipView](t, mustRun(t, "--data-dir", dir, "-o", "json", "membership", "list", "--user", "alice"))
	if len(byUser) != 2 {
		t.Errorf("list --user alice = %+v, want 2 memberships", byUser)
	}

	byTenant := decode[[]membershipView](t, mustRun(t, "--data-dir", dir, "-o", "json", "membership", "list", "--tenant", tenantAcme))
	if len(byTenant) != 2 {
		t.Errorf("list --tenant acme = %+v, want 2 memberships", byTenant)
	}

	mustRun(t, "--data-dir", dir, "membership", "remove", "--tenant", tenantAcme, "alice")
	byUser = decode[[]membershipView](t, mustRun(t, "--data-dir", dir, "-o", "json", "membership", "list", "--user", "alice"))
	if len(byUser) != 1 || byUser[0].TenantID != tenantGlobex {
		t.Errorf("after remove = %+v, want only globex", byUser)
	}
}

func TestMembership_Errors(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, "--data-dir", dir, "membership", "add", "--tenant", tenantAcme, "alice")

	tests := []struct {
		name string
		args []string
	}{
		{"duplicate", []string{"membership", "add", "--tenant", tenantAcme, "alice"}},
		{"missing user", []string{"membership", "add", "--tenant", tenantAcme}},
		{"missing tenant", []string{"membership", "add", "alice"}},
		{"malformed tenant", []string{"membership", "add", "--tenant", "acme", "alice"}},
		{"remove unknown", []string{"membership", "remove", "--tenant", tenantGlobex, "alice"}},
		{"list without filter", []string{"membership", "list"}},
		{"list with both filters", []string{"membership", "list", "--user", "alice", "--tenant", tenantAcme}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, append([]string{"--data-dir", dir}, tt.args...)...); err == nil {
				t.Error("run() should fail")
			}
		})
	}
}

func TestMembership_TableOutput(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, "--data-dir", dir, "membership", "add", "--tenant", tenantAcme, "alice")

	out := mustRun(t, "--data-dir", dir, "membership", "list", "--tenant", tenantAcme)
	for _, want := range []string{"USER ID", "TENANT", "alice", tenantAcme} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}
