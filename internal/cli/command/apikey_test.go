package command

import (
	"strings"
	"testing"

	"github.com/yndnr/tenantgate/internal/core/domain"
)

func createKey(t *testing.T, dataDir, tenant, name string, extra ...string) createdKey {
	t.Helper()
	args := []string{"--data-dir", dataDir, "-o", "json", "apikey", "create", "--tenant", tenant, "--name", name}
	args = append(args, extra...)
	return decode[createdKey](t, mustRun(t, args...))
}

func TestAPIKey_Create(t *testing.T) {
	dir := t.TempDir()
	key := createKey(t, dir, tenantAcme, "ci", "--scope", "read write", "--ttl", "24h")

	if !strings.HasPrefix(key.KeyID, domain.APIKeyIDPrefix) {
		t.Errorf("KeyID = %q, want %s prefix", key.KeyID, domain.APIKeyIDPrefix)
	}
	if !strings.HasPrefix(key.APIKey, domain.APIKeySecretPrefix) {
		t.Errorf("APIKey = %q, want %s prefix", key.APIKey, domain.APIKeySecretPrefix)
	}
	if key.TenantID != tenantAcme {
		t.Errorf("TenantID = %q, want %q", key.TenantID, tenantAcme)
	}
	if key.ExpiresAt == "" {
		t.Error("ExpiresAt should be set with --ttl")
	}

	got := decode[apiKeyView](t, mustRun(t, "--data-dir", dir, "-o", "json", "apikey", "get", key.KeyID))
	if !got.Active || got.Name != "ci" || got.Scope != "read write" {
		t.Errorf("get = %+v", got)
	}
}

func TestAPIKey_CreateErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		args []string
	}{
		{"missing tenant", []string{"apikey", "create", "--name", "ci"}},
		{"missing name", []string{"apikey", "create", "--tenant", tenantAcme}},
		{"malformed tenant", []string{"apikey", "create", "--tenant", "acme", "--name", "ci"}},
		{"negative ttl", []string{"apikey", "create", "--tenant", tenantAcme, "--name", "ci", "--ttl", "-1h"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, append([]string{"--data-dir", dir}, tt.args...)...); err == nil {
				t.Error("run() should fail")
			}
		})
	}
}

func TestAPIKey_List(t *testing.T) {
	dir := t.TempDir()
	a := createKey(t, dir, tenantAcme, "acme-ci")
	createKey(t, dir, tenantGlobex, "globex-ci")

	all := decode[[]apiKeyView](t, mustRun(t, "--data-dir", dir, "-o", "json", "apikey", "list"))
	if len(all) != 2 {
		t.Fatalf("list = %d keys, want 2", len(all))
	}

	acme := decode[[]apiKeyView](t, mustRun(t, "--data-dir", dir, "-o", "json", "apikey", "list", "--tenant", tenantAcme))
	if len(acme) != 1 || acme[0].KeyID != a.KeyID {
		t.Errorf("list --tenant = %+v, want only %s", acme, a.KeyID)
	}

	table := mustRun(t, "--data-dir", dir, "apikey", "list")
	for _, want := range []string{"KEY ID", a.KeyID, "acme-ci", "Total: 2 keys"} {
		if !strings.Contains(table, want) {
			t.Errorf("table output missing %q:\n%s", want, table)
		}
	}
	if strings.Contains(table, "secret") || strings.Contains(table, domain.APIKeySecretPrefix) {
		t.Errorf("list must not show secrets:\n%s", table)
	}
}

func TestAPIKey_DisableEnable(t *testing.T) {
	dir := t.TempDir()
	key := createKey(t, dir, tenantAcme, "ci")

	out := mustRun(t, "--data-dir", dir, "apikey", "disable", key.KeyID)
	if !strings.Contains(out, "disabled") {
		t.Errorf("disable output = %q", out)
	}
	got := decode[apiKeyView](t, mustRun(t, "--data-dir", dir, "-o", "json", "apikey", "get", key.KeyID))
	if got.Active {
		t.Error("key should be inactive after disable")
	}

	got = decode[apiKeyView](t, mustRun(t, "--data-dir", dir, "-o", "json", "apikey", "enable", key.KeyID))
	if !got.Active {
		t.Error("key should be active after enable")
	}
}

func TestAPIKey_UnknownKey(t *testing.T) {
	dir := t.TempDir()
	tests := [][]string{
		{"apikey", "get", "tgak-01hzzzzzzzzzzzzzzzzzzzzzzz"},
		{"apikey", "disable", "tgak-01hzzzzzzzzzzzzzzzzzzzzzzz"},
		{"apikey", "get", "not-a-key-id"},
		{"apikey", "get"},
	}
	for _, args := range tests {
		if _, err := run(t, append([]string{"--data-dir", dir}, args...)...); err == nil {
			t.Errorf("run(%v) should fail", args)
		}
	}
}

func TestAPIKey_YAMLOutput(t *testing.T) {
	dir := t.TempDir()
	key := createKey(t, dir, tenantAcme, "ci")

	out := mustRun(t, "--data-dir", dir, "-o", "yaml", "apikey", "get", key.KeyID)
	for _, want := range []string{"key_id: " + key.KeyID, "tenant_id: " + tenantAcme, "active: true"} {
		if !strings.Contains(out, want) {
			t.Errorf("yaml output missing %q:\n%s", want, out)
		}
	}
}
