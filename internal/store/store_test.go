package store

import (
	"context"
	"testing"

	"github.com/amishk599/stackradar/internal/migrations"
)

func TestFingerprint(t *testing.T) {
	a := Fingerprint("Marketing Ops Manager", "Acme")
	if got := Fingerprint("  marketing ops manager", "ACME "); got != a {
		t.Errorf("fingerprint differs by case/whitespace: %s vs %s", got, a)
	}
	if got := Fingerprint("Marketing Ops Manager", "Acme Inc"); got == a {
		t.Error("different companies share a fingerprint")
	}
	// The separator keeps "ab"+"c" apart from "a"+"bc".
	if Fingerprint("ab", "c") == Fingerprint("a", "bc") {
		t.Error("fingerprint is ambiguous across the title/company boundary")
	}
	if len(a) != 32 {
		t.Errorf("len = %d, want 32 hex chars", len(a))
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, "nop", "")
	if err != nil {
		t.Fatalf("Open nop: %v", err)
	}
	if _, ok := s.(*NopStore); !ok {
		t.Errorf("Open nop returned %T", s)
	}

	s, err = Open(ctx, "sqlite", t.TempDir()+"/open.db")
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*SQLiteStore); !ok {
		t.Errorf("Open sqlite returned %T", s)
	}

	if _, err := Open(ctx, "oracle", ""); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestOpenDB_SQLite(t *testing.T) {
	ctx := context.Background()

	db, dialect, err := OpenDB(ctx, "sqlite", t.TempDir()+"/raw.db")
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	defer db.Close()
	if dialect != migrations.SQLite {
		t.Errorf("dialect = %q, want %q", dialect, migrations.SQLite)
	}
	if err := migrations.Command(ctx, db, dialect, "up"); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	if _, _, err := OpenDB(ctx, "oracle", ""); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestNopStore(t *testing.T) {
	ctx := context.Background()
	s := NewNopStore()

	exists, err := s.ExistsURL(ctx, "https://a.example/1")
	if err != nil || exists {
		t.Errorf("ExistsURL = %v, %v", exists, err)
	}
	id, err := s.InsertPosting(ctx, samplePosting("https://a.example/1", testNow))
	if err != nil || id != 0 {
		t.Errorf("InsertPosting = %d, %v", id, err)
	}
	list, err := s.ListActivePostings(ctx)
	if err != nil || len(list) != 0 {
		t.Errorf("ListActivePostings = %v, %v", list, err)
	}
}
