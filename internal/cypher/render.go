// Package cypher renders query rows of blocks into Cypher text and splits
// rendered text into highlight spans.
package cypher

import (
	"strings"

	"github.com/DeusData/cypher-builder/internal/block"
)

// normalizations are applied in order to the joined text. Each rule only
// sees the output of the rules before it, so entries must not be reordered:
// the relationship rules run before the node-node rule so a pattern such as
// "(a) -[r]- (b) (c)" only gains a comma between (b) and (c).
var normalizations = []struct{ from, to string }{
	{") -[", ")-["},
	{") <-[", ")<-["},
	{"]-> (", "]->("},
	{"]- (", "]-("},
	{") (", "), ("},
}

// projections are the clauses whose value blocks are comma separated.
var projections = map[string]bool{
	"RETURN":   true,
	"WITH":     true,
	"ORDER BY": true,
}

// Render serializes containers[skip:] into query text, one line per
// container. Trailing blanks of each line and trailing empty lines are
// dropped. Unknown element ids are skipped.
func Render(containers [][]string, els block.Elements, skip int) string {
	if skip < 0 {
		skip = 0
	}
	if skip > len(containers) {
		skip = len(containers)
	}
	rows := containers[skip:]

	var sb strings.Builder
	lastClause := ""
	for r, row := range rows {
		present := make([]*block.Element, 0, len(row))
		for _, id := range row {
			if e := els[id]; e != nil {
				present = append(present, e)
			}
		}
		for i, e := range present {
			if e.Kind == block.KindClause {
				lastClause = e.Slot(0)
			}
			writeElement(&sb, e)

			var next block.Kind
			if i+1 < len(present) {
				next = present[i+1].Kind
			}
			if projections[lastClause] && next.IsValue() && !separator(e.Kind) {
				sb.WriteByte(',')
			}
			if e.Kind != block.KindOperator && next != block.KindOperator {
				sb.WriteByte(' ')
			}
		}
		if r < len(rows)-1 {
			sb.WriteByte('\n')
		}
	}

	text := sb.String()
	for _, n := range normalizations {
		text = strings.ReplaceAll(text, n.from, n.to)
	}
	return trim(text)
}

func separator(k block.Kind) bool {
	return k == block.KindClause || k == block.KindOperator || k == block.KindBracket
}

func writeElement(sb *strings.Builder, e *block.Element) {
	sb.WriteString(e.Rendered())
}

func trim(text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
