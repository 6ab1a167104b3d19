package database

import "testing"

func TestConnectionRoundTrip(t *testing.T) {
	db, err := NewConnection("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("NewConnection: %v", err)
	}
	defer db.Close()

	if err := db.TestConnection(); err != nil {
		t.Fatalf("TestConnection on a live connection: %v", err)
	}
}

func TestConnectionAfterClose(t *testing.T) {
	db, err := NewConnection("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("NewConnection: %v", err)
	}
	db.Close()

	if err := db.TestConnection(); err == nil {
		t.Fatal("TestConnection succeeded on a closed connection")
	}
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	db, err := NewConnection("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("NewConnection: %v", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(); err != nil {
		t.Fatalf("first EnsureSchema: %v", err)
	}
	if err := db.EnsureSchema(); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}
}
