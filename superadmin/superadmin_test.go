package superadmin

import (
	"strings"
	"testing"
)

func TestDatabaseNameFor(t *testing.T) {
	id := "a1b2c3d4-0000-0000-0000-000000000000"

	got := databaseNameFor("Sharp Cuts & Co.", id)
	if got != "trimly_sharp_cuts_co_a1b2c3d4" {
		t.Fatalf("databaseNameFor = %q", got)
	}

	// names that sanitize to nothing still produce a usable name
	got = databaseNameFor("!!!", id)
	if got != "trimly_tenant_a1b2c3d4" {
		t.Fatalf("databaseNameFor = %q", got)
	}

	// long names are truncated but keep the id suffix
	got = databaseNameFor(strings.Repeat("verylongname", 10), id)
	if !strings.HasSuffix(got, "_a1b2c3d4") {
		t.Fatalf("missing id suffix: %q", got)
	}
	if len(got) > len("trimly_")+24+len("_a1b2c3d4") {
		t.Fatalf("name too long: %q", got)
	}

	// two tenants with the same display name stay distinct
	other := databaseNameFor("Sharp Cuts & Co.", "ffffffff-1111-2222-3333-444444444444")
	if other == databaseNameFor("Sharp Cuts & Co.", id) {
		t.Fatal("ids must keep equal names apart")
	}
}
