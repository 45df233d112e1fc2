package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/DeusData/cypher-builder/internal/connection"
	"github.com/DeusData/cypher-builder/internal/schema"
)

func TestOpenMemory(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	s.Close()
}

func TestOpenPathUnknownDriver(t *testing.T) {
	if _, err := OpenPath(filepath.Join(t.TempDir(), "x.db"), "postgres"); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestOpenPathPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := OpenPath(path, DriverPure)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	if _, err := s.SaveConnection(connection.Default()); err != nil {
		t.Fatalf("SaveConnection: %v", err)
	}
	s.Close()

	s, err = OpenPath(path, "")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	all, err := s.ListConnections()
	if err != nil {
		t.Fatalf("ListConnections: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 connection, got %d", len(all))
	}
}

func TestConnectionCRUD(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	c := connection.Default()
	c.Password = "secret"
	key, err := s.SaveConnection(c)
	if err != nil {
		t.Fatalf("SaveConnection: %v", err)
	}
	if key != "neo4j@localhost:7687/neo4j" {
		t.Errorf("unexpected key %q", key)
	}

	got, err := s.GetConnection(key)
	if err != nil {
		t.Fatalf("GetConnection: %v", err)
	}
	if got.Connection.Password != "" {
		t.Error("password must not be stored")
	}
	if got.Connection.Host != "localhost" || got.Connection.Port != 7687 {
		t.Errorf("unexpected connection %+v", got.Connection)
	}

	other := connection.Default()
	other.Name = "aura"
	other.Host = "abc.databases.neo4j.io"
	if _, err := s.SaveConnection(other); err != nil {
		t.Fatalf("SaveConnection: %v", err)
	}
	last, err := s.LastConnection()
	if err != nil {
		t.Fatalf("LastConnection: %v", err)
	}
	if last.Key != "aura" {
		t.Errorf("expected aura to be most recent, got %s", last.Key)
	}

	if err := s.DeleteConnection("aura"); err != nil {
		t.Fatalf("DeleteConnection: %v", err)
	}
	if _, err := s.GetConnection("aura"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveConnectionValidates(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	c := connection.Default()
	c.Protocol = "http"
	if _, err := s.SaveConnection(c); !errors.Is(err, connection.ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestSchemaSnapshot(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	key, err := s.SaveConnection(connection.Default())
	if err != nil {
		t.Fatalf("SaveConnection: %v", err)
	}
	if _, err := s.LoadSchema(key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before save, got %v", err)
	}

	sc := schema.Build(
		[]string{"Person"}, []string{"KNOWS"},
		[]schema.NodeSample{{Label: "Person", Properties: map[string]any{"name": "Ada", "born": 1815}}},
		nil,
		[]schema.Cardinality{{Start: "Person", Type: "KNOWS", End: "Person"}},
		nil,
	)
	if err := s.SaveSchema(key, sc); err != nil {
		t.Fatalf("SaveSchema: %v", err)
	}
	snap, err := s.LoadSchema(key)
	if err != nil {
		t.Fatalf("LoadSchema: %v", err)
	}
	if got := snap.Schema.Labels(); len(got) != 1 || got[0] != "Person" {
		t.Errorf("unexpected labels %v", got)
	}
	props := snap.Schema.NodeProperties("Person")
	if len(props) != 2 || props[0].Key != "born" || props[0].Type != schema.TypeInteger {
		t.Errorf("unexpected properties %+v", props)
	}
	if snap.SampledAt == "" {
		t.Error("expected sampled_at")
	}

	if err := s.DeleteConnection(key); err != nil {
		t.Fatalf("DeleteConnection: %v", err)
	}
	if _, err := s.LoadSchema(key); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected cascade delete, got %v", err)
	}
}

func TestSaveSchemaRequiresConnection(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	if err := s.SaveSchema("missing", schema.Empty()); err == nil {
		t.Error("expected foreign key error")
	}
}

func TestWithTransactionRollback(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	boom := errors.New("boom")
	err = s.WithTransaction(func(tx *Store) error {
		if _, err := tx.SaveConnection(connection.Default()); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	all, err := s.ListConnections()
	if err != nil {
		t.Fatalf("ListConnections: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("expected rollback, got %d rows", len(all))
	}
}
