package builder

import "fmt"

// EventType names a builder mutation.
type EventType string

const (
	EventSelect    EventType = "select"
	EventDragStart EventType = "drag_start"
	EventDragOver  EventType = "drag_over"
	EventDragEnd   EventType = "drag_end"
	EventDelete    EventType = "delete"
	EventSetSlot   EventType = "set_slot"
	EventReset     EventType = "reset"
)

// Event is the transport form of a mutation.
type Event struct {
	Type EventType `json:"type" validate:"required,oneof=select drag_start drag_over drag_end delete set_slot reset"`
	ID   string    `json:"id,omitempty"`

	// Drop target.
	Over      string  `json:"over,omitempty"`
	Container int     `json:"container,omitempty"`
	After     bool    `json:"after,omitempty"`
	X         float64 `json:"x,omitempty"`

	// Select geometry.
	Origin Rect   `json:"origin"`
	Target Target `json:"target"`

	// Slot edit.
	Slot  int    `json:"slot,omitempty"`
	Value string `json:"value,omitempty"`
}

// HasTarget reports whether the event names a drop target.
func (ev Event) HasTarget() bool {
	return ev.Over != "" || ev.Container > 0
}

func (ev Event) over() Over {
	return Over{Item: ev.Over, Row: ev.Container, Below: ev.After}
}

// Result reports the outcome of an applied event.
type Result struct {
	Applied bool   `json:"applied"`
	ID      string `json:"id,omitempty"`
}

// Apply runs ev against st in place. deleteX is the pointer threshold for
// drag-to-delete. Unknown event types return an error; every other failure
// is a no-op with Applied=false.
func (st *State) Apply(ev Event, deleteX float64) (Result, error) {
	switch ev.Type {
	case EventSelect:
		id, ok := st.Select(ev.ID, ev.Origin, ev.Target)
		return Result{Applied: ok, ID: id}, nil
	case EventDragStart:
		return Result{Applied: st.DragStart(ev.ID), ID: ev.ID}, nil
	case EventDragOver:
		return Result{Applied: st.DragOver(ev.ID, ev.over()), ID: ev.ID}, nil
	case EventDragEnd:
		var o *Over
		if ev.HasTarget() {
			v := ev.over()
			o = &v
		}
		return Result{Applied: st.DragEnd(ev.ID, o, ev.X, deleteX), ID: ev.ID}, nil
	case EventDelete:
		return Result{Applied: st.Delete(ev.ID), ID: ev.ID}, nil
	case EventSetSlot:
		return Result{Applied: st.SetSlot(ev.ID, ev.Slot, ev.Value), ID: ev.ID}, nil
	case EventReset:
		st.Reset()
		return Result{Applied: true}, nil
	}
	return Result{}, fmt.Errorf("unknown event type %q", ev.Type)
}

// Apply is the snapshot form of State.Apply: st is left untouched.
func Apply(st *State, ev Event, deleteX float64) (*State, Result, error) {
	next := st.Clone()
	res, err := next.Apply(ev, deleteX)
	if err != nil {
		return st, res, err
	}
	return next, res, nil
}
