package draft

// history is a linear undo/redo stack of full state snapshots. index points at
// the snapshot matching the live state.
type history struct {
	entries []State
	index   int
}

func (h *history) reset(s State) {
	h.entries = []State{s.Clone()}
	h.index = 0
}

// push drops every snapshot after the cursor and appends s.
func (h *history) push(s State) {
	h.entries = append(h.entries[:h.index+1], s.Clone())
	h.index = len(h.entries) - 1
}

func (h *history) canUndo() bool {
	return h.index > 0
}

func (h *history) canRedo() bool {
	return h.index < len(h.entries)-1
}

func (h *history) undo() (State, bool) {
	if !h.canUndo() {
		return State{}, false
	}
	h.index--
	return h.entries[h.index].Clone(), true
}

func (h *history) redo() (State, bool) {
	if !h.canRedo() {
		return State{}, false
	}
	h.index++
	return h.entries[h.index].Clone(), true
}

func (h *history) len() int {
	return len(h.entries)
}

// rebase rewrites every snapshot onto the ids of a partial save so undo and
// redo keep working after a failed save. live replaces the current entry.
func (h *history) rebase(res SaveResult, live State) {
	for i := range h.entries {
		h.entries[i].adopt(res, false)
	}
	h.entries[h.index] = live.Clone()
}
