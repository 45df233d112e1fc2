package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DeusData/cypher-builder/internal/schema"
)

// SchemaSnapshot is the last sampled schema of a connection.
type SchemaSnapshot struct {
	Connection string
	Schema     *schema.Schema
	SampledAt  string
}

// SaveSchema stores sc as the snapshot of the connection with key. The
// connection must have been saved first.
func (s *Store) SaveSchema(key string, sc *schema.Schema) error {
	body, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	sum := sc.Summarize()
	_, err = s.q.Exec(`
		INSERT INTO schemas (connection, body, labels, relationships, sampled_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(connection) DO UPDATE SET
			body=excluded.body, labels=excluded.labels,
			relationships=excluded.relationships, sampled_at=excluded.sampled_at`,
		key, string(body), sum.Labels, sum.Relationships, Now())
	if err != nil {
		return fmt.Errorf("save schema: %w", err)
	}
	return nil
}

// LoadSchema returns the snapshot of the connection with key.
func (s *Store) LoadSchema(key string) (*SchemaSnapshot, error) {
	var body string
	snap := SchemaSnapshot{Connection: key}
	err := s.q.QueryRow("SELECT body, sampled_at FROM schemas WHERE connection=?", key).
		Scan(&body, &snap.SampledAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("schema %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	sc, err := schema.Parse([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("schema %q: %w", key, err)
	}
	snap.Schema = sc
	return &snap, nil
}
