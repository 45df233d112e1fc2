package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/DeusData/cypher-builder/internal/connection"
)

// ErrNotFound is returned when a cached row does not exist.
var ErrNotFound = errors.New("not found")

// SavedConnection is a cached descriptor. The password is never stored.
type SavedConnection struct {
	Key        string                `json:"key"`
	Connection connection.Connection `json:"connection"`
	UsedAt     string                `json:"used_at"`
}

// SaveConnection stores c under c.Key() and marks it as most recently used.
func (s *Store) SaveConnection(c connection.Connection) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	key := c.Key()
	_, err := s.q.Exec(`
		INSERT INTO connections (key, name, protocol, host, port, database, user, used_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			name=excluded.name, protocol=excluded.protocol, host=excluded.host,
			port=excluded.port, database=excluded.database, user=excluded.user,
			used_at=excluded.used_at`,
		key, c.Name, c.Protocol, c.Host, c.Port, c.Database, c.User, Now())
	if err != nil {
		return "", fmt.Errorf("save connection: %w", err)
	}
	return key, nil
}

// GetConnection returns the cached descriptor for key.
func (s *Store) GetConnection(key string) (*SavedConnection, error) {
	row := s.q.QueryRow(`
		SELECT key, name, protocol, host, port, database, user, used_at
		FROM connections WHERE key=?`, key)
	sc, err := scanConnection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("connection %q: %w", key, ErrNotFound)
	}
	return sc, err
}

// ListConnections returns the cached descriptors, most recently used first.
func (s *Store) ListConnections() ([]*SavedConnection, error) {
	rows, err := s.q.Query(`
		SELECT key, name, protocol, host, port, database, user, used_at
		FROM connections ORDER BY used_at DESC, key`)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	defer rows.Close()
	var result []*SavedConnection
	for rows.Next() {
		sc, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, sc)
	}
	return result, rows.Err()
}

// LastConnection returns the most recently used descriptor.
func (s *Store) LastConnection() (*SavedConnection, error) {
	all, err := s.ListConnections()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("last connection: %w", ErrNotFound)
	}
	return all[0], nil
}

// DeleteConnection removes a descriptor and its cached schema (CASCADE).
func (s *Store) DeleteConnection(key string) error {
	_, err := s.q.Exec("DELETE FROM connections WHERE key=?", key)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanConnection(r scanner) (*SavedConnection, error) {
	var sc SavedConnection
	c := &sc.Connection
	if err := r.Scan(&sc.Key, &c.Name, &c.Protocol, &c.Host, &c.Port, &c.Database, &c.User, &sc.UsedAt); err != nil {
		return nil, err
	}
	return &sc, nil
}
