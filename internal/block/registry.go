// Package block defines the draggable query blocks: the closed set of block
// kinds, the component layout of each kind and the factory that creates
// block instances.
package block

// Kind identifies the shape of a block.
type Kind string

const (
	KindClause           Kind = "CLAUSE"
	KindOperator         Kind = "OPERATOR"
	KindBracket          Kind = "BRACKET"
	KindNode             Kind = "NODE"
	KindRelationship     Kind = "RELATIONSHIP"
	KindComparison       Kind = "COMPARISON"
	KindStringComparison Kind = "STRING_COMPARISON"
	KindNullComparison   Kind = "NULL_COMPARISON"
	KindFunction         Kind = "FUNCTION"
	KindTransformer      Kind = "TRANSFORMER"
	KindVariable         Kind = "VARIABLE"
)

// Kinds lists every block kind in registry order.
var Kinds = []Kind{
	KindClause, KindOperator, KindBracket, KindNode, KindRelationship,
	KindComparison, KindStringComparison, KindNullComparison,
	KindFunction, KindTransformer, KindVariable,
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return Components(k) != nil
}

// IsValue reports whether blocks of this kind carry a value that is
// comma separated inside projections.
func (k Kind) IsValue() bool {
	switch k {
	case KindVariable, KindComparison, KindStringComparison, KindNullComparison, KindFunction:
		return true
	}
	return false
}

// IsComparison reports whether the kind filters on a value.
func (k Kind) IsComparison() bool {
	return k == KindComparison || k == KindStringComparison || k == KindNullComparison
}

// ComponentType describes how a slot's text is produced.
type ComponentType string

const (
	// Fixed text never changes after creation. Named fixed components take
	// the identifier given at creation (clause and operator names).
	Fixed ComponentType = "fixed"
	// Option is a choice among a short list of literal values.
	Option ComponentType = "option"
	// Select is free text that pickers may fill from variables or the schema.
	Select ComponentType = "select"
)

// Class is the structural role of a slot, used by variable inference.
type Class string

const (
	ClassNone     Class = ""
	ClassVariable Class = "variable"
	ClassLabel    Class = "label"
	ClassRelType  Class = "reltype"
)

// NoDependency marks a component that is always emitted.
const NoDependency = -1

// Component is one slot of a block.
type Component struct {
	Type    ComponentType `json:"type"`
	Text    string        `json:"text,omitempty"`
	ID      string        `json:"id,omitempty"`
	Class   Class         `json:"class,omitempty"`
	Named   bool          `json:"named,omitempty"`
	Options []string      `json:"options,omitempty"`
	// DependsOn is the slot index whose text must be non-empty for this
	// component to be emitted, or NoDependency.
	DependsOn int `json:"dependson"`
}

// Emits reports whether the component's text is rendered given the slot
// texts of its block.
func (c Component) Emits(text []string) bool {
	if c.DependsOn == NoDependency {
		return true
	}
	if c.DependsOn >= len(text) {
		return true
	}
	return text[c.DependsOn] != ""
}

// Accepts reports whether value may be written into this component.
func (c Component) Accepts(value string) bool {
	switch c.Type {
	case Select:
		return true
	case Option:
		for _, o := range c.Options {
			if o == value {
				return true
			}
		}
	}
	return false
}

func name() Component {
	return Component{Type: Fixed, Named: true, DependsOn: NoDependency}
}

func fixed(text string) Component {
	return Component{Type: Fixed, Text: text, DependsOn: NoDependency}
}

func fixedOn(text string, slot int) Component {
	return Component{Type: Fixed, Text: text, DependsOn: slot}
}

func selectSlot(id string, class Class) Component {
	return Component{Type: Select, ID: id, Class: class, DependsOn: NoDependency}
}

func option(text string, options ...string) Component {
	return Component{Type: Option, Text: text, Options: options, DependsOn: NoDependency}
}

var (
	namedComponents = []Component{name()}

	nodeComponents = []Component{
		fixed("("),
		selectSlot("alias", ClassVariable),
		fixedOn(":", 3),
		selectSlot("label", ClassLabel),
		fixed(")"),
	}

	relationshipComponents = []Component{
		option("-", "-", "<-"),
		fixed("["),
		selectSlot("alias", ClassVariable),
		fixedOn(":", 4),
		selectSlot("type", ClassRelType),
		fixed("]"),
		option("-", "-", "->"),
	}

	comparisonComponents = []Component{
		selectSlot("var1", ClassVariable),
		option(" = ", " < ", " <= ", " = ", " >= ", " > ", " <> "),
		selectSlot("var2", ClassVariable),
	}

	stringComparisonComponents = []Component{
		selectSlot("var1", ClassVariable),
		option(" CONTAINS ", " CONTAINS ", " STARTS WITH ", " ENDS WITH ", " =~ "),
		selectSlot("var2", ClassVariable),
	}

	nullComparisonComponents = []Component{
		selectSlot("var", ClassVariable),
		option(" IS NULL ", " IS NULL ", " IS NOT NULL "),
	}

	functionComponents = []Component{
		{Type: Fixed, ID: "name", Named: true, DependsOn: NoDependency},
		fixed("("),
		selectSlot("param", ClassVariable),
		fixed(")"),
	}

	transformerComponents = []Component{
		{Type: Fixed, Text: "AS ", Named: true, DependsOn: NoDependency},
		selectSlot("param", ClassVariable),
	}

	variableComponents = []Component{
		selectSlot("variable", ClassVariable),
	}
)

// Components returns the ordered slot layout of a kind, or nil for an
// unknown kind. The returned slice is shared and must not be modified.
func Components(k Kind) []Component {
	switch k {
	case KindClause, KindOperator, KindBracket:
		return namedComponents
	case KindNode:
		return nodeComponents
	case KindRelationship:
		return relationshipComponents
	case KindComparison:
		return comparisonComponents
	case KindStringComparison:
		return stringComparisonComponents
	case KindNullComparison:
		return nullComparisonComponents
	case KindFunction:
		return functionComponents
	case KindTransformer:
		return transformerComponents
	case KindVariable:
		return variableComponents
	}
	return nil
}

// Slot indexes used outside this package.
const (
	NodeAlias = 1
	NodeLabel = 3

	RelDirectionIn  = 0
	RelAlias        = 2
	RelType         = 4
	RelDirectionOut = 6
)
