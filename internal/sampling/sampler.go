package sampling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/saulfrancisco-ruizacevedo/gocypher"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"

	"github.com/DeusData/cypher-builder/internal/metrics"
	"github.com/DeusData/cypher-builder/internal/schema"
)

// ErrCircuitOpen is returned while the breaker rejects calls after
// repeated database failures.
var ErrCircuitOpen = errors.New("sampling circuit open")

// Steps reported through Progress.
const (
	StepLabels = iota + 1
	StepRelTypes
	StepIndexes
	StepNodeProperties
	StepRelProperties
	StepCardinalities
)

var stepMessages = map[int]string{
	StepLabels:         "Collecting node labels...",
	StepRelTypes:       "Collecting relationship types...",
	StepIndexes:        "Collecting indexes...",
	StepNodeProperties: "Collecting node properties...",
	StepRelProperties:  "Collecting relationship properties...",
	StepCardinalities:  "Collecting schema & building templates...",
}

const (
	labelsQuery   = "CALL db.labels() YIELD label RETURN label"
	relTypesQuery = "CALL db.relationshipTypes() YIELD relationshipType RETURN relationshipType"
	indexesQuery  = "SHOW INDEXES YIELD entityType, labelsOrTypes, properties WHERE properties IS NOT NULL " +
		"RETURN entityType, labelsOrTypes, properties"
)

// Progress receives the step number and a human readable message.
type Progress func(step int, message string)

// Options tunes a Sampler.
type Options struct {
	// Timeout bounds a whole Sample call. Zero disables it.
	Timeout time.Duration
	// Parallel caps concurrent per-label and per-type queries.
	Parallel int
	// MaxFailures consecutive failures open the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open.
	OpenTimeout time.Duration
}

// DefaultOptions returns a 30s timeout, 4 parallel queries and a breaker
// that opens after 3 failures for 30s.
func DefaultOptions() Options {
	return Options{Timeout: 30 * time.Second, Parallel: 4, MaxFailures: 3, OpenTimeout: 30 * time.Second}
}

// Sampler collects the parts of a schema with one sampled record per label
// and relationship type.
type Sampler struct {
	runner   Runner
	opts     Options
	breaker  *gobreaker.CircuitBreaker
	Progress Progress
	Metrics  *metrics.Collector
}

// NewSampler wraps r in a circuit breaker.
func NewSampler(r Runner, opts Options) *Sampler {
	if opts.Parallel <= 0 {
		opts.Parallel = 1
	}
	maxFailures := opts.MaxFailures
	if maxFailures == 0 {
		maxFailures = 3
	}
	s := &Sampler{runner: r, opts: opts}
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "sampling",
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("sampling.breaker", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return s
}

func (s *Sampler) progress(step int) {
	slog.Debug("sampling.step", "step", step, "msg", stepMessages[step])
	if s.Progress != nil {
		s.Progress(step, stepMessages[step])
	}
}

func (s *Sampler) run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	v, err := s.breaker.Execute(func() (any, error) {
		return s.runner.Run(ctx, query, params)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	if err != nil {
		return nil, err
	}
	res, _ := v.(*neo4j.EagerResult)
	if res == nil {
		res = &neo4j.EagerResult{}
	}
	return res, nil
}

// Sample runs the six sampling steps and builds the schema. Any failure
// aborts the run and returns the error; no partial schema is returned.
func (s *Sampler) Sample(ctx context.Context) (sc *schema.Schema, err error) {
	start := time.Now()
	defer func() {
		s.Metrics.SamplingDone(time.Since(start), err)
		if err != nil {
			slog.Warn("sampling.failed", "err", err)
		}
	}()
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	s.progress(StepLabels)
	labels, err := s.column(ctx, labelsQuery, "label")
	if err != nil {
		return nil, fmt.Errorf("labels: %w", err)
	}

	s.progress(StepRelTypes)
	relTypes, err := s.column(ctx, relTypesQuery, "relationshipType")
	if err != nil {
		return nil, fmt.Errorf("relationship types: %w", err)
	}

	s.progress(StepIndexes)
	indexes, err := s.indexes(ctx)
	if err != nil {
		return nil, fmt.Errorf("indexes: %w", err)
	}

	s.progress(StepNodeProperties)
	nodes := make([]schema.NodeSample, len(labels))
	if err := s.each(ctx, labels, func(ctx context.Context, i int, label string) error {
		q, err := nodePropertiesQuery(label)
		if err != nil {
			return err
		}
		props, err := s.properties(ctx, q)
		nodes[i] = schema.NodeSample{Label: label, Properties: props}
		return err
	}); err != nil {
		return nil, fmt.Errorf("node properties: %w", err)
	}

	s.progress(StepRelProperties)
	rels := make([]schema.RelSample, len(relTypes))
	if err := s.each(ctx, relTypes, func(ctx context.Context, i int, relType string) error {
		q, err := relPropertiesQuery(relType)
		if err != nil {
			return err
		}
		props, err := s.properties(ctx, q)
		rels[i] = schema.RelSample{Type: relType, Properties: props}
		return err
	}); err != nil {
		return nil, fmt.Errorf("relationship properties: %w", err)
	}

	s.progress(StepCardinalities)
	perType := make([][]schema.Cardinality, len(relTypes))
	if err := s.each(ctx, relTypes, func(ctx context.Context, i int, relType string) error {
		cards, err := s.cardinalities(ctx, relType)
		perType[i] = cards
		return err
	}); err != nil {
		return nil, fmt.Errorf("cardinalities: %w", err)
	}
	var cards []schema.Cardinality
	for _, c := range perType {
		cards = append(cards, c...)
	}

	sc = schema.Build(labels, relTypes, nodes, rels, cards, indexes)
	sum := sc.Summarize()
	slog.Info("sampling.done", "labels", sum.Labels, "relationships", sum.Relationships,
		"properties", sum.Properties, "indexed", sum.Indexed, "elapsed", time.Since(start))
	return sc, nil
}

// each runs fn for every name with at most Parallel calls in flight.
func (s *Sampler) each(ctx context.Context, names []string, fn func(ctx context.Context, i int, name string) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Parallel)
	for i, name := range names {
		g.Go(func() error {
			return fn(gctx, i, name)
		})
	}
	return g.Wait()
}

// column returns the string values of key over all records.
func (s *Sampler) column(ctx context.Context, query, key string) ([]string, error) {
	res, err := s.run(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(res.Records))
	for _, rec := range res.Records {
		v, _ := rec.Get(key)
		if str, ok := v.(string); ok {
			out = append(out, str)
		}
	}
	return out, nil
}

func (s *Sampler) indexes(ctx context.Context) ([]schema.Index, error) {
	res, err := s.run(ctx, indexesQuery, nil)
	if err != nil {
		return nil, err
	}
	out := make([]schema.Index, 0, len(res.Records))
	for _, rec := range res.Records {
		entity, _ := rec.Get("entityType")
		names, _ := rec.Get("labelsOrTypes")
		props, _ := rec.Get("properties")
		e, _ := entity.(string)
		out = append(out, schema.Index{
			EntityType:    e,
			LabelsOrTypes: stringList(names),
			Properties:    stringList(props),
		})
	}
	return out, nil
}

// properties returns the converted "properties" map of the first record.
func (s *Sampler) properties(ctx context.Context, query string) (map[string]any, error) {
	res, err := s.run(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	if len(res.Records) == 0 {
		return nil, nil
	}
	v, _ := res.Records[0].Get("properties")
	m, _ := ConvertValue(v).(map[string]any)
	return m, nil
}

// cardinalities unwinds the start and end labels of one sampled
// relationship of relType.
func (s *Sampler) cardinalities(ctx context.Context, relType string) ([]schema.Cardinality, error) {
	q, err := cardinalityQuery(relType)
	if err != nil {
		return nil, err
	}
	res, err := s.run(ctx, q, nil)
	if err != nil {
		return nil, err
	}
	var out []schema.Cardinality
	for _, rec := range res.Records {
		start, _ := rec.Get("start")
		end, _ := rec.Get("end")
		for _, a := range stringList(start) {
			for _, b := range stringList(end) {
				out = append(out, schema.Cardinality{Start: a, Type: relType, End: b})
			}
		}
	}
	return out, nil
}

func nodePropertiesQuery(label string) (string, error) {
	q, _, err := gocypher.NewQueryBuilder().
		Match(gocypher.N("n", label)).
		Return("properties(n) AS properties").
		Build()
	if err != nil {
		return "", err
	}
	return q + " LIMIT 1", nil
}

func relPropertiesQuery(relType string) (string, error) {
	q, _, err := gocypher.NewQueryBuilder().
		Match(gocypher.N("a", ""), gocypher.R("r", relType).To(), gocypher.N("b", "")).
		Return("properties(r) AS properties").
		Build()
	if err != nil {
		return "", err
	}
	return q + " LIMIT 1", nil
}

func cardinalityQuery(relType string) (string, error) {
	q, _, err := gocypher.NewQueryBuilder().
		Match(gocypher.N("a", ""), gocypher.R("r", relType).To(), gocypher.N("b", "")).
		Return("labels(a) AS start", "labels(b) AS end").
		Build()
	if err != nil {
		return "", err
	}
	return q + " LIMIT 1", nil
}

// stringList converts a driver list to a string slice, skipping non-strings.
func stringList(v any) []string {
	switch x := v.(type) {
	case []string:
		return x
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
