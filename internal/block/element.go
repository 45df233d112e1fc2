package block

import (
	"slices"

	"github.com/google/uuid"
)

// Element is one draggable block instance.
type Element struct {
	Kind Kind     `json:"type"`
	Text []string `json:"text"`

	// Presentation only.
	Animated        bool    `json:"animated,omitempty"`
	AnimationDeltaX float64 `json:"animationDeltaX,omitempty"`
	AnimationDeltaY float64 `json:"animationDeltaY,omitempty"`
}

// Clone returns a deep copy without animation state.
func (e *Element) Clone() *Element {
	if e == nil {
		return nil
	}
	return &Element{Kind: e.Kind, Text: slices.Clone(e.Text)}
}

// Slot returns the text at index i, or "" when out of range.
func (e *Element) Slot(i int) string {
	if e == nil || i < 0 || i >= len(e.Text) {
		return ""
	}
	return e.Text[i]
}

// Content joins the element's slot texts with no dependency suppression.
func (e *Element) Content() string {
	if e == nil {
		return ""
	}
	n := 0
	for _, t := range e.Text {
		n += len(t)
	}
	b := make([]byte, 0, n)
	for _, t := range e.Text {
		b = append(b, t...)
	}
	return string(b)
}

// Rendered joins the slot texts that the kind's components emit, dropping
// slots whose dependency slot is empty. "(n:)" renders as "(n)".
func (e *Element) Rendered() string {
	if e == nil {
		return ""
	}
	comps := Components(e.Kind)
	var b []byte
	for i, t := range e.Text {
		if i < len(comps) && !comps[i].Emits(e.Text) {
			continue
		}
		b = append(b, t...)
	}
	return string(b)
}

// SetSlot writes value into slot i when the kind's component at that index
// accepts it. Fixed slots never change.
func (e *Element) SetSlot(i int, value string) bool {
	if e == nil {
		return false
	}
	comps := Components(e.Kind)
	if i < 0 || i >= len(comps) || i >= len(e.Text) {
		return false
	}
	if !comps[i].Accepts(value) {
		return false
	}
	e.Text[i] = value
	return true
}

// Elements is the element map keyed by identifier.
type Elements map[string]*Element

// Clone deep-copies the map.
func (els Elements) Clone() Elements {
	out := make(Elements, len(els))
	for id, e := range els {
		c := e.Clone()
		c.Animated = e.Animated
		c.AnimationDeltaX = e.AnimationDeltaX
		c.AnimationDeltaY = e.AnimationDeltaY
		out[id] = c
	}
	return out
}

// NewID returns a fresh element identifier.
func NewID() string {
	return uuid.NewString()
}
