package session

import (
	"encoding/binary"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/DeusData/cypher-builder/internal/block"
	"github.com/DeusData/cypher-builder/internal/builder"
	"github.com/DeusData/cypher-builder/internal/metrics"
	"github.com/DeusData/cypher-builder/internal/schema"
	"github.com/DeusData/cypher-builder/internal/variables"
)

// Pipeline steps, as reported to metrics.
const (
	StepVariables = "variables"
	StepWizard    = "wizard"
)

// Pipeline re-derives the generated palettes after a mutation. Each step
// runs only when the fingerprint of its input changed since the last run.
type Pipeline struct {
	Metrics *metrics.Collector

	primed bool
	vars   uint64
	wizard uint64
}

// Outcome reports which steps ran.
type Outcome struct {
	Variables bool
	Wizard    bool
	Caption   string
}

// Invalidate forces every step on the next run. Used after a schema change.
func (p *Pipeline) Invalidate() {
	p.primed = false
}

// Run executes the pipeline against st.
func (p *Pipeline) Run(st *builder.State, s *schema.Schema, lim builder.Limits) Outcome {
	var out Outcome
	vars := variables.Extract(st.QueryRows(), st.Elements)

	vh := hashVariables(vars)
	if !p.primed || vh != p.vars {
		p.vars = vh
		st.RefreshVariables(vars, s, lim)
		st.RefreshNodesRelationships(vars, s, lim)
		out.Variables = true
	}
	p.Metrics.Recompute(StepVariables, out.Variables)

	_, tail := builder.Classify(st.QueryRows(), st.Elements)
	wh := hashWizard(vh, tail.Clause, st.TrailingRow())
	if !p.primed || wh != p.wizard {
		p.wizard = wh
		st.UpdateWizard(vars, s, lim)
		out.Wizard = true
	}
	p.Metrics.Recompute(StepWizard, out.Wizard)

	p.primed = true
	out.Caption = st.Caption
	return out
}

// hashVariables fingerprints a variable list. Separators keep distinct
// lists from colliding on concatenation.
func hashVariables(vars []variables.Variable) uint64 {
	h := xxh3.New()
	for _, v := range vars {
		h.WriteString(v.Text)
		h.WriteString("\x00")
		h.WriteString(strings.Join(v.Classes, "\x01"))
		h.WriteString("\x00")
		h.WriteString(strings.Join(v.Types, "\x01"))
		h.WriteString("\x02")
	}
	return h.Sum64()
}

// hashWizard fingerprints the wizard inputs: the variables, the last
// clause and the kinds and texts of the trailing row.
func hashWizard(vars uint64, clause string, row []*block.Element) uint64 {
	h := xxh3.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], vars)
	h.Write(buf[:])
	h.WriteString(clause)
	h.WriteString("\x00")
	for _, e := range row {
		if e == nil {
			continue
		}
		h.WriteString(string(e.Kind))
		for _, t := range e.Text {
			h.WriteString("\x01")
			h.WriteString(t)
		}
		h.WriteString("\x02")
	}
	return h.Sum64()
}
