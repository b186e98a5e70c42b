// Package editor holds the per-cell editing sessions of the console grids:
// a click-to-edit text editor and a catalog backed chip selector.
package editor

import (
	"sync"

	"github.com/tripleh1701-dev/ppp-fe-sub014/datatable"
)

// Move is the navigation requested by the key that ended an edit.
type Move int

const (
	MoveNone Move = iota
	MoveNext
	MovePrev
)

// Result describes how an edit ended.
type Result struct {
	Committed bool
	Cancelled bool
	Move      Move
	Value     string
}

// TextEditor is a click-to-edit session on one cell. It is safe for
// concurrent use.
type TextEditor struct {
	mu       sync.Mutex
	active   bool
	original string
	draft    string
	onCommit func(value string) error
}

// NewTextEditor returns an inactive editor calling onCommit once for every
// changed value.
func NewTextEditor(onCommit func(value string) error) *TextEditor {
	return &TextEditor{onCommit: onCommit}
}

// Begin starts editing value.
func (e *TextEditor) Begin(value string) {
	e.mu.Lock()
	e.active = true
	e.original = value
	e.draft = value
	e.mu.Unlock()
}

// Input replaces the draft.
func (e *TextEditor) Input(draft string) {
	e.mu.Lock()
	if e.active {
		e.draft = draft
	}
	e.mu.Unlock()
}

// Active reports whether an edit is in progress.
func (e *TextEditor) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Draft returns the current draft.
func (e *TextEditor) Draft() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

// Key handles a key press. Enter commits, Escape discards the draft, Tab
// and Shift+Tab commit and ask to move to the next or previous cell. Other
// keys are ignored.
func (e *TextEditor) Key(key string) (Result, error) {
	switch key {
	case datatable.KeyEnter, datatable.KeyBlur:
		return e.finish(MoveNone)
	case datatable.KeyTab:
		return e.finish(MoveNext)
	case datatable.KeyShiftTab:
		return e.finish(MovePrev)
	case datatable.KeyEscape:
		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.active {
			return Result{}, nil
		}
		e.active = false
		e.draft = e.original
		return Result{Cancelled: true, Value: e.original}, nil
	}
	return Result{}, nil
}

// Blur commits like Enter.
func (e *TextEditor) Blur() (Result, error) {
	return e.finish(MoveNone)
}

// finish ends the edit. An unchanged draft closes the editor without a
// commit. A failed commit keeps the editor open with its draft.
func (e *TextEditor) finish(move Move) (Result, error) {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return Result{}, nil
	}
	value := e.draft
	if value == e.original {
		e.active = false
		e.mu.Unlock()
		return Result{Move: move, Value: value}, nil
	}
	// closed before the callback so a re-entrant blur cannot commit twice
	e.active = false
	original := e.original
	e.mu.Unlock()

	if e.onCommit != nil {
		if err := e.onCommit(value); err != nil {
			e.mu.Lock()
			e.active = true
			e.original = original
			e.draft = value
			e.mu.Unlock()
			return Result{Value: value}, err
		}
	}

	e.mu.Lock()
	e.original = value
	e.mu.Unlock()
	return Result{Committed: true, Move: move, Value: value}, nil
}
