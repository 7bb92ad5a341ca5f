package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pawansangari/dataconnect-apps/internal/config"
)

func TestRootRegistersApps(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"tasks", "npi", "hets", "migrations"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("subcommand %s not registered: %v", name, err)
		}
	}
}

func TestPrintMigrationsUsesSchemaName(t *testing.T) {
	var buf bytes.Buffer
	db := config.DatabaseConfig{User: "a1b2-c3d4"}
	if err := printMigrations(&buf, "hets", db); err != nil {
		t.Fatalf("print migrations: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, `CREATE SCHEMA IF NOT EXISTS "my_app_schema_a1b2c3d4";`) {
		t.Fatalf("unexpected first statement: %.80s", out)
	}
	if !strings.Contains(out, "hets_providers") {
		t.Fatalf("provider table missing from output")
	}

	if err := printMigrations(&buf, "tasks", db); err == nil {
		t.Fatal("expected an error for an app without migrations")
	}
}

func TestMigrationsCommandRejectsUnknownApp(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"migrations", "tasks"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	if err := root.Execute(); err == nil {
		t.Fatal("expected an error for an invalid argument")
	}
}
