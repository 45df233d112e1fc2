package block

// Direction of a relationship pattern.
type Direction int

const (
	Undirected Direction = iota
	Outgoing
	Incoming
)

func (els Elements) insert(kind Kind, text ...string) string {
	id := NewID()
	els[id] = &Element{Kind: kind, Text: text}
	return id
}

// InsertNode adds a node pattern "(alias:label)".
func InsertNode(els Elements, alias, label string) string {
	return els.insert(KindNode, "(", alias, ":", label, ")")
}

// InsertRelationship adds a relationship pattern "-[alias:type]-" with the
// given direction applied to the arrow slots.
func InsertRelationship(els Elements, alias, relType string, dir Direction) string {
	text := []string{"-", "[", alias, ":", relType, "]", "-"}
	switch dir {
	case Incoming:
		text[RelDirectionIn] = "<-"
	case Outgoing:
		text[RelDirectionOut] = "->"
	}
	return els.insert(KindRelationship, text...)
}

// InsertComparison adds "left op right". The operator is padded with single
// spaces, so "=" becomes " = ".
func InsertComparison(els Elements, left, right, op string) string {
	return els.insert(KindComparison, left, " "+op+" ", right)
}

// InsertStringComparison adds a string comparison. op is stored verbatim
// (" CONTAINS ", " STARTS WITH ", ...); empty defaults to CONTAINS.
func InsertStringComparison(els Elements, left, right, op string) string {
	if op == "" {
		op = " CONTAINS "
	}
	return els.insert(KindStringComparison, left, op, right)
}

// InsertNullComparison adds "value IS NULL".
func InsertNullComparison(els Elements, value string) string {
	return els.insert(KindNullComparison, value, " IS NULL ")
}

// InsertVariable adds a free variable or literal.
func InsertVariable(els Elements, text string) string {
	return els.insert(KindVariable, text)
}

// InsertTransformer adds a prefixed value such as "AS x" or "LIMIT 1000".
// An empty prefix defaults to "AS ".
func InsertTransformer(els Elements, prefix, value string) string {
	if prefix == "" {
		prefix = "AS "
	}
	return els.insert(KindTransformer, prefix, value)
}

// InsertFunction adds "name(param)".
func InsertFunction(els Elements, name, param string) string {
	return els.insert(KindFunction, name, "(", param, ")")
}

// InsertClause adds a clause keyword block.
func InsertClause(els Elements, name string) string {
	return els.insert(KindClause, name)
}

// InsertOperator adds an operator block.
func InsertOperator(els Elements, name string) string {
	return els.insert(KindOperator, name)
}

// InsertBracket adds a bracket block.
func InsertBracket(els Elements, name string) string {
	return els.insert(KindBracket, name)
}

// InsertWords adds one single-slot block of the given kind per word and
// returns their identifiers in order.
func InsertWords(els Elements, kind Kind, words ...string) []string {
	ids := make([]string, 0, len(words))
	for _, w := range words {
		ids = append(ids, els.insert(kind, w))
	}
	return ids
}
