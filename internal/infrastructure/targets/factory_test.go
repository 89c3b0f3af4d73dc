package targets_test

import (
	"errors"
	"testing"

	"github.com/relialab/healthprobe/internal/core/domain/target"
	"github.com/relialab/healthprobe/internal/infrastructure/targets"
)

func TestCreateServiceTarget(t *testing.T) {
	f := targets.NewFactory()

	tgt, err := f.Create(target.KindService, "https://api.example.com/status", target.RegisterOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tgt.Kind() != target.KindService {
		t.Fatalf("expected service target, got %s", tgt.Kind())
	}
	if tgt.Identifier() != "https://api.example.com/status" {
		t.Fatalf("unexpected identifier %q", tgt.Identifier())
	}
}

func TestCreateServiceTargetRejectsNonHTTP(t *testing.T) {
	f := targets.NewFactory()
	if _, err := f.Create(target.KindService, "ftp://example.com", target.RegisterOptions{}); err == nil {
		t.Fatal("expected error for non-http scheme")
	}
}

func TestCreateDatabaseTarget(t *testing.T) {
	f := targets.NewFactory()

	tgt, err := f.Create(target.KindDatabase, "postgres://user:pw@localhost:5432/health_db", target.RegisterOptions{Query: "SELECT 1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dbTarget, ok := tgt.(target.Database)
	if !ok {
		t.Fatalf("expected target.Database, got %T", tgt)
	}
	if dbTarget.OverrideQuery != "SELECT 1" {
		t.Fatalf("expected override query to be carried, got %q", dbTarget.OverrideQuery)
	}
	if dbTarget.Identifier() != "health_db@localhost:5432" {
		t.Fatalf("unexpected identifier %q", dbTarget.Identifier())
	}
}

func TestCreateUnknownKind(t *testing.T) {
	f := targets.NewFactory()
	_, err := f.Create(target.Kind("carrier-pigeon"), "coop-1", target.RegisterOptions{})
	if !errors.Is(err, target.ErrUnsupportedKind) {
		t.Fatalf("expected ErrUnsupportedKind, got %v", err)
	}
}
