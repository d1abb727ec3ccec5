// Package journal keeps the undo/redo history of curator decisions.
//
// Each step is a Batch of snapshots taken before a decision was applied.
// Undo restores a batch and moves the state it replaced onto the redo
// stack; Redo is the mirror. Recording a new batch clears redo. The
// history is unbounded.
//
// A Journal is not safe for concurrent use. It belongs to the goroutine
// that owns the records it describes.
package journal

// Entry is the snapshot of one record.
type Entry[T any] struct {
	Path     string
	Snapshot T
}

// Batch is one atomic step. A bulk decision over many records is a single
// batch and undoes in a single step.
type Batch[T any] []Entry[T]

// Paths returns the paths in the batch, in order.
func (b Batch[T]) Paths() []string {
	paths := make([]string, len(b))
	for i, e := range b {
		paths[i] = e.Path
	}
	return paths
}

// State is the record set a journal restores into.
type State[T any] interface {
	// Current returns the present value of path, false when the record no
	// longer exists.
	Current(path string) (T, bool)
	// Restore replaces the value of path.
	Restore(path string, value T)
}

// Journal is a linear undo/redo history.
type Journal[T any] struct {
	undo []Batch[T]
	redo []Batch[T]
}

// New returns an empty journal.
func New[T any]() *Journal[T] {
	return &Journal[T]{}
}

// Record pushes batch onto the undo stack and invalidates redo. An empty
// batch is ignored.
func (j *Journal[T]) Record(batch Batch[T]) {
	if len(batch) == 0 {
		return
	}
	j.undo = append(j.undo, append(Batch[T](nil), batch...))
	clear(j.redo)
	j.redo = j.redo[:0]
}

// Undo restores the most recent batch into state and returns the paths it
// restored. Records missing from state are skipped. Undo panics when there
// is nothing to undo; callers check CanUndo.
func (j *Journal[T]) Undo(state State[T]) []string {
	if len(j.undo) == 0 {
		panic("journal: undo on empty history")
	}
	batch := j.undo[len(j.undo)-1]
	j.undo[len(j.undo)-1] = nil
	j.undo = j.undo[:len(j.undo)-1]

	inverse, restored := apply(batch, state)
	if len(inverse) > 0 {
		j.redo = append(j.redo, inverse)
	}
	return restored
}

// Redo re-applies the most recently undone batch. It panics when there is
// nothing to redo; callers check CanRedo.
func (j *Journal[T]) Redo(state State[T]) []string {
	if len(j.redo) == 0 {
		panic("journal: redo on empty history")
	}
	batch := j.redo[len(j.redo)-1]
	j.redo[len(j.redo)-1] = nil
	j.redo = j.redo[:len(j.redo)-1]

	inverse, restored := apply(batch, state)
	if len(inverse) > 0 {
		j.undo = append(j.undo, inverse)
	}
	return restored
}

// apply restores every entry of batch that still exists in state and
// returns the snapshots it replaced.
func apply[T any](batch Batch[T], state State[T]) (Batch[T], []string) {
	inverse := make(Batch[T], 0, len(batch))
	restored := make([]string, 0, len(batch))
	for _, e := range batch {
		current, ok := state.Current(e.Path)
		if !ok {
			continue
		}
		inverse = append(inverse, Entry[T]{Path: e.Path, Snapshot: current})
		state.Restore(e.Path, e.Snapshot)
		restored = append(restored, e.Path)
	}
	return inverse, restored
}

// CanUndo reports whether Undo has a batch to restore.
func (j *Journal[T]) CanUndo() bool { return len(j.undo) > 0 }

// CanRedo reports whether Redo has a batch to restore.
func (j *Journal[T]) CanRedo() bool { return len(j.redo) > 0 }

// UndoDepth returns the number of undoable batches.
func (j *Journal[T]) UndoDepth() int { return len(j.undo) }

// RedoDepth returns the number of redoable batches.
func (j *Journal[T]) RedoDepth() int { return len(j.redo) }

// Clear drops both stacks.
func (j *Journal[T]) Clear() {
	j.undo = nil
	j.redo = nil
}
