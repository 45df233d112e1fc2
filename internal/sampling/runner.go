// Package sampling infers a schema from a live graph database and runs
// rendered queries against it.
package sampling

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/DeusData/cypher-builder/internal/connection"
)

// Runner executes one query and buffers its records. Implementations must
// not write to the database.
type Runner interface {
	Run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error)
}

// Neo4jRunner is a Runner over the official driver. Queries are routed to
// readers.
type Neo4jRunner struct {
	driver   neo4j.DriverWithContext
	database string
}

// Open creates a driver for c and verifies connectivity.
func Open(ctx context.Context, c connection.Connection) (*Neo4jRunner, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	driver, err := neo4j.NewDriverWithContext(c.Address(), neo4j.BasicAuth(c.User, c.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("connect %s: %w", c.Address(), err)
	}
	return &Neo4jRunner{driver: driver, database: c.Database}, nil
}

func (r *Neo4jRunner) Run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	res, err := neo4j.ExecuteQuery(ctx, r.driver, query, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(r.database),
		neo4j.ExecuteQueryWithReadersRouting(),
	)
	if err != nil {
		return nil, fmt.Errorf("neo4j query: %w", err)
	}
	return res, nil
}

// Close releases the driver.
func (r *Neo4jRunner) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

// Result is a query result with driver values converted to plain values.
type Result struct {
	Keys    []string         `json:"keys"`
	Rows    []map[string]any `json:"rows"`
	Elapsed time.Duration    `json:"elapsed_ns"`
}

// RunQuery executes text and converts every record. Queries are not
// validated beforehand; database errors are returned as is.
func RunQuery(ctx context.Context, r Runner, text string) (*Result, error) {
	start := time.Now()
	res, err := r.Run(ctx, text, nil)
	if err != nil {
		return nil, err
	}
	out := &Result{Keys: res.Keys, Rows: make([]map[string]any, 0, len(res.Records))}
	for _, rec := range res.Records {
		row := make(map[string]any, len(rec.Keys))
		for i, k := range rec.Keys {
			if i < len(rec.Values) {
				row[k] = ConvertValue(rec.Values[i])
			}
		}
		out.Rows = append(out.Rows, row)
	}
	out.Elapsed = time.Since(start)
	return out, nil
}

// ConvertValue maps driver values to JSON-friendly values: temporal values
// become ISO-8601 strings, graph entities become maps, and lists and maps
// are converted recursively.
func ConvertValue(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case neo4j.Date:
		return x.String()
	case neo4j.LocalTime:
		return x.String()
	case neo4j.LocalDateTime:
		return x.String()
	case neo4j.Time:
		return x.String()
	case neo4j.Duration:
		return x.String()
	case neo4j.Node:
		return map[string]any{
			"elementId":  x.ElementId,
			"labels":     x.Labels,
			"properties": convertMap(x.Props),
		}
	case neo4j.Relationship:
		return map[string]any{
			"elementId":      x.ElementId,
			"type":           x.Type,
			"startElementId": x.StartElementId,
			"endElementId":   x.EndElementId,
			"properties":     convertMap(x.Props),
		}
	case neo4j.Path:
		nodes := make([]any, len(x.Nodes))
		for i, n := range x.Nodes {
			nodes[i] = ConvertValue(n)
		}
		rels := make([]any, len(x.Relationships))
		for i, r := range x.Relationships {
			rels[i] = ConvertValue(r)
		}
		return map[string]any{"nodes": nodes, "relationships": rels}
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = ConvertValue(item)
		}
		return out
	case map[string]any:
		return convertMap(x)
	}
	return v
}

func convertMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = ConvertValue(v)
	}
	return out
}
