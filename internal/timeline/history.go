package timeline

// History keeps timeline snapshots for undo/redo. Snapshots are immutable so
// the stacks hold them directly. History itself is a value: Apply, Undo and
// Redo return a new History.
type History struct {
	past    []Timeline
	present Timeline
	future  []Timeline
	limit   int
}

// NewHistory starts a history at tl keeping at most limit undo steps
// (0 means unlimited)
func NewHistory(tl Timeline, limit int) History {
	return History{present: tl, limit: limit}
}

func (h History) Present() Timeline { return h.present }

func (h History) CanUndo() bool { return len(h.past) > 0 }

func (h History) CanRedo() bool { return len(h.future) > 0 }

// Apply runs edit on the present snapshot. Edits that change nothing (the
// no-op policy of RemoveClip/SplitClip) are not recorded.
func (h History) Apply(edit func(Timeline) Timeline) History {
	next := edit(h.present)
	if next.Equal(h.present) {
		return h
	}

	past := appendShared(h.past, h.present)
	if h.limit > 0 && len(past) > h.limit {
		past = past[len(past)-h.limit:]
	}
	return History{past: past, present: next, limit: h.limit}
}

func (h History) Undo() History {
	if len(h.past) == 0 {
		return h
	}
	n := len(h.past) - 1
	return History{
		past:    h.past[:n:n],
		present: h.past[n],
		future:  appendShared(h.future, h.present),
		limit:   h.limit,
	}
}

func (h History) Redo() History {
	if len(h.future) == 0 {
		return h
	}
	n := len(h.future) - 1
	return History{
		past:    appendShared(h.past, h.present),
		present: h.future[n],
		future:  h.future[:n:n],
		limit:   h.limit,
	}
}
