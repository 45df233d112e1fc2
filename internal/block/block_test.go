package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentsCoverEveryKind(t *testing.T) {
	for _, k := range Kinds {
		assert.NotEmpty(t, Components(k), "kind %s", k)
		assert.True(t, k.Valid())
	}
	assert.Nil(t, Components("BOGUS"))
	assert.False(t, Kind("BOGUS").Valid())
}

func TestFactorySlotCountsMatchRegistry(t *testing.T) {
	els := Elements{}
	ids := []string{
		InsertNode(els, "n", "Person"),
		InsertRelationship(els, "r", "ACTED_IN", Outgoing),
		InsertComparison(els, "n.age", "30", ">"),
		InsertStringComparison(els, "n.name", `"Tom"`, ""),
		InsertNullComparison(els, "n.born"),
		InsertVariable(els, "n"),
		InsertTransformer(els, "LIMIT ", "10"),
		InsertFunction(els, "COLLECT", "n"),
		InsertClause(els, "MATCH"),
		InsertOperator(els, " AND "),
		InsertBracket(els, "("),
	}
	require.Len(t, els, len(ids))
	for _, id := range ids {
		e := els[id]
		assert.Len(t, e.Text, len(Components(e.Kind)), "kind %s", e.Kind)
	}
}

func TestInsertRelationshipDirection(t *testing.T) {
	els := Elements{}
	in := els[InsertRelationship(els, "r", "KNOWS", Incoming)]
	out := els[InsertRelationship(els, "", "", Outgoing)]
	none := els[InsertRelationship(els, "", "", Undirected)]

	assert.Equal(t, "<-[r:KNOWS]-", in.Content())
	assert.Equal(t, "-[:]->", out.Content())
	assert.Equal(t, "-[:]-", none.Content())
}

func TestInsertComparisonPadsOperator(t *testing.T) {
	els := Elements{}
	e := els[InsertComparison(els, "n.age", "30", "<>")]
	assert.Equal(t, []string{"n.age", " <> ", "30"}, e.Text)
}

func TestSetSlot(t *testing.T) {
	els := Elements{}
	rel := els[InsertRelationship(els, "r", "KNOWS", Undirected)]

	assert.True(t, rel.SetSlot(RelDirectionOut, "->"))
	assert.False(t, rel.SetSlot(RelDirectionOut, "=>"), "option rejects undeclared value")
	assert.False(t, rel.SetSlot(1, "{"), "fixed slot is immutable")
	assert.True(t, rel.SetSlot(RelType, "LIKES"))
	assert.False(t, rel.SetSlot(99, "x"))
	assert.Equal(t, "-[r:LIKES]->", rel.Content())

	clause := els[InsertClause(els, "MATCH")]
	assert.False(t, clause.SetSlot(0, "RETURN"))
}

func TestEmitsDependency(t *testing.T) {
	comps := Components(KindNode)
	assert.False(t, comps[2].Emits([]string{"(", "n", ":", "", ")"}))
	assert.True(t, comps[2].Emits([]string{"(", "n", ":", "Person", ")"}))
	assert.True(t, comps[1].Emits([]string{"(", "", ":", "", ")"}))
}

func TestRenderedSuppressesDependents(t *testing.T) {
	els := Elements{}
	generic := els[InsertNode(els, "n", "")]
	assert.Equal(t, "(n:)", generic.Content())
	assert.Equal(t, "(n)", generic.Rendered())

	person := els[InsertNode(els, "p", "Person")]
	assert.Equal(t, "(p:Person)", person.Rendered())
	assert.Equal(t, "MATCH", els[InsertClause(els, "MATCH")].Rendered())
	assert.Equal(t, "", (*Element)(nil).Rendered())
}

func TestCloneIsDeep(t *testing.T) {
	els := Elements{}
	id := InsertVariable(els, "n")
	els[id].Animated = true

	c := els.Clone()
	c[id].Text[0] = "m"
	assert.Equal(t, "n", els[id].Text[0])
	assert.True(t, c[id].Animated)
	assert.False(t, els[id].Clone().Animated)
}

func TestNewIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for range 1000 {
		id := NewID()
		require.False(t, seen[id])
		seen[id] = true
	}
}
