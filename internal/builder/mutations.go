package builder

import (
	"slices"

	"github.com/DeusData/cypher-builder/internal/block"
)

// Rect is a screen rectangle reported by the rendering layer.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Right() float64  { return r.Left + r.Width }
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Target describes where a selected block will land on screen.
type Target struct {
	// Last is the rect of the last block in the open row, nil when the row
	// is empty or not rendered.
	Last *Rect `json:"last,omitempty"`
	// Row is the rect of the open row container.
	Row Rect `json:"row"`
}

// Animation geometry, in pixels.
const (
	blockGap      = 10
	rowAnchorX    = 24
	rowAnchorY    = 49
	firstRowShift = 54
)

// Over identifies the drop target of a drag.
type Over struct {
	// Item is the id of the hovered block.
	Item string `json:"item,omitempty"`
	// Row is the 1-based query row when hovering a row's empty area.
	Row int `json:"row,omitempty"`
	// Below is set when the pointer is under the last item of the row.
	Below bool `json:"below,omitempty"`
}

func (st *State) overContainer(o Over) int {
	if o.Row > 0 {
		c := PaletteCount + o.Row - 1
		if c >= len(st.Containers) {
			return -1
		}
		return c
	}
	if o.Item == "" {
		return -1
	}
	return st.Find(o.Item)
}

// Select clones a block into the open query row. Clauses start a new row
// when the open row already has content. It returns the clone's id, or
// false when id is unknown or already in the query zone.
func (st *State) Select(id string, origin Rect, target Target) (string, bool) {
	src := st.Elements[id]
	if src == nil {
		return "", false
	}
	if c := st.Find(id); c >= PaletteCount {
		return "", false
	}
	st.maintain()

	open := st.OpenRow()
	row := st.Containers[open]

	var tx, ty float64
	if target.Last != nil && len(row) > 0 && src.Kind != block.KindClause {
		tx = blockGap + target.Last.Right() + origin.Width/2
		ty = (target.Last.Top + target.Last.Bottom()) / 2
	} else {
		tx = target.Row.Left + origin.Width/2 + rowAnchorX
		ty = (target.Row.Top+target.Row.Bottom()+blockGap)/2 + rowAnchorY
		if open == PaletteCount && len(row) == 0 {
			ty -= firstRowShift
		}
	}

	nid := block.NewID()
	clone := src.Clone()
	clone.Animated = true
	clone.AnimationDeltaX = origin.Left + origin.Width/2 - tx
	clone.AnimationDeltaY = origin.Top + origin.Height/2 - ty
	st.Elements[nid] = clone

	if src.Kind == block.KindClause && len(row) > 0 {
		if open+1 < len(st.Containers) {
			st.Containers[open+1] = append(st.Containers[open+1], nid)
		} else {
			st.Containers = append(st.Containers, []string{nid})
		}
	} else {
		st.Containers[open] = append(row, nid)
	}
	st.maintain()
	st.Active = nid
	return nid, true
}

// ReleaseAnimation clears the animation state of id. It tolerates ids that
// were deleted or replaced since the animation started.
func (st *State) ReleaseAnimation(id string) bool {
	if st.Active == id {
		st.Active = ""
	}
	e := st.Elements[id]
	if e == nil || !e.Animated {
		return false
	}
	e.Animated = false
	e.AnimationDeltaX = 0
	e.AnimationDeltaY = 0
	return true
}

// DragStart marks id as the dragged block. A block dragged out of a palette
// leaves a fresh copy behind in its slot.
func (st *State) DragStart(id string) bool {
	src := st.Elements[id]
	c := st.Find(id)
	if src == nil || c < 0 {
		return false
	}
	if IsPalette(c) {
		i := slices.Index(st.Containers[c], id)
		nid := block.NewID()
		st.Elements[nid] = src.Clone()
		st.Containers[c][i] = nid
		if st.fresh == nil {
			st.fresh = map[string]bool{}
		}
		st.fresh[id] = true
	}
	st.Active = id
	return true
}

// DragOver moves the dragged block into the hovered query row. Moves into
// palettes are ignored. Reordering inside the same row is left to DragEnd
// unless the block was just dragged out of a palette.
func (st *State) DragOver(active string, over Over) bool {
	if active == "" || st.Elements[active] == nil {
		return false
	}
	from := st.Find(active)
	to := st.overContainer(over)
	if to < 0 || IsPalette(from) {
		return false
	}

	if from == to {
		if !st.fresh[active] || over.Item == active {
			return false
		}
		row := st.Containers[to]
		oldIdx := slices.Index(row, active)
		newIdx := slices.Index(row, over.Item)
		if newIdx < 0 {
			newIdx = len(row) - 1
		}
		if oldIdx == newIdx {
			return false
		}
		st.Containers[to] = arrayMove(row, oldIdx, newIdx)
		return true
	}

	if IsPalette(to) {
		return false
	}

	target := st.Containers[to]
	idx := slices.Index(target, over.Item)
	switch {
	case over.Item == "" || idx < 0:
		idx = len(target)
	case over.Below && idx == len(target)-1:
		idx++
	}

	if from >= 0 {
		st.Containers[from] = slices.DeleteFunc(slices.Clone(st.Containers[from]), func(s string) bool { return s == active })
	}
	st.Containers[to] = slices.Insert(slices.Clone(target), idx, active)
	st.maintain()
	return true
}

// DragEnd finishes a drag. Dropping left of deleteX onto a palette deletes
// the block; a target that no longer resolves aborts the drop; dropping inside its own query row commits the
// reorder. A block dragged out of a palette that never reached a query row
// is discarded.
func (st *State) DragEnd(active string, over *Over, pointerX, deleteX float64) bool {
	defer func() {
		st.Active = ""
		delete(st.fresh, active)
		if active != "" && st.Find(active) < 0 {
			delete(st.Elements, active)
		}
	}()
	if active == "" || st.Elements[active] == nil || over == nil {
		return false
	}
	from := st.Find(active)
	to := st.overContainer(*over)

	if to < 0 {
		return false
	}
	if pointerX < deleteX && IsPalette(to) {
		st.removeID(active)
		st.maintain()
		return true
	}
	if from < PaletteCount || from != to {
		return false
	}

	row := st.Containers[from]
	oldIdx := slices.Index(row, active)
	newIdx := slices.Index(row, over.Item)
	if newIdx < 0 {
		newIdx = len(row) - 1
	}
	if oldIdx == newIdx {
		return false
	}
	st.Containers[from] = arrayMove(row, oldIdx, newIdx)
	return true
}

// Delete removes a query block and its definition. Palette blocks cannot
// be deleted.
func (st *State) Delete(id string) bool {
	if st.Elements[id] == nil {
		return false
	}
	if IsPalette(st.Find(id)) {
		return false
	}
	st.removeID(id)
	st.maintain()
	return true
}

func (st *State) removeID(id string) {
	for i, c := range st.Containers {
		if slices.Contains(c, id) {
			st.Containers[i] = slices.DeleteFunc(slices.Clone(c), func(s string) bool { return s == id })
		}
	}
	delete(st.Elements, id)
	if st.Active == id {
		st.Active = ""
	}
}

// SetSlot edits one text slot of a query block. Palette blocks are
// read-only.
func (st *State) SetSlot(id string, slot int, value string) bool {
	if IsPalette(st.Find(id)) {
		return false
	}
	return st.Elements[id].SetSlot(slot, value)
}

// Reset clears the query zone back to a single empty row. Palettes are
// untouched.
func (st *State) Reset() {
	st.clearQuery()
	st.maintain()
}

// maintain restores the container invariants: ids are unique across all
// containers, palettes exist, empty query rows are removed and exactly one
// empty row trails the query zone.
func (st *State) maintain() {
	seen := make(map[string]bool)
	for i, c := range st.Containers {
		out := c[:0:0]
		for _, id := range c {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
		st.Containers[i] = out
	}
	for len(st.Containers) < PaletteCount {
		st.Containers = append(st.Containers, []string{})
	}

	rows := st.Containers[PaletteCount:]
	kept := st.Containers[:PaletteCount:PaletteCount]
	for _, r := range rows {
		if len(r) > 0 {
			kept = append(kept, r)
		}
	}
	st.Containers = append(kept, []string{})
}

// arrayMove returns a copy of s with the item at from moved to to.
func arrayMove(s []string, from, to int) []string {
	out := slices.Clone(s)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) {
		return out
	}
	item := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, item)
}
