package editor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tripleh1701-dev/ppp-fe-sub014/datatable"
)

func TestTextEditorCommitsOnlyChanges(t *testing.T) {
	var commits []string
	ed := NewTextEditor(func(v string) error {
		commits = append(commits, v)
		return nil
	})

	ed.Begin("Bob")
	assert.True(t, ed.Active())
	res, err := ed.Key(datatable.KeyEnter)
	require.NoError(t, err)
	assert.False(t, res.Committed)
	assert.False(t, ed.Active())
	assert.Empty(t, commits)

	ed.Begin("Bob")
	ed.Input("Robert")
	res, err = ed.Key(datatable.KeyEnter)
	require.NoError(t, err)
	assert.Equal(t, Result{Committed: true, Value: "Robert"}, res)
	assert.Equal(t, []string{"Robert"}, commits)

	res, err = ed.Blur()
	require.NoError(t, err)
	assert.Equal(t, Result{}, res, "blur after commit is a no-op")
	assert.Len(t, commits, 1)
}

func TestTextEditorEscapeDiscards(t *testing.T) {
	called := false
	ed := NewTextEditor(func(string) error {
		called = true
		return nil
	})
	ed.Begin("a")
	ed.Input("b")
	res, err := ed.Key(datatable.KeyEscape)
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.Equal(t, "a", res.Value)
	assert.Equal(t, "a", ed.Draft())
	assert.False(t, called)
}

func TestTextEditorTabMoves(t *testing.T) {
	ed := NewTextEditor(nil)
	ed.Begin("x")
	ed.Input("y")
	res, err := ed.Key(datatable.KeyTab)
	require.NoError(t, err)
	assert.True(t, res.Committed)
	assert.Equal(t, MoveNext, res.Move)

	ed.Begin("y")
	res, err = ed.Key(datatable.KeyShiftTab)
	require.NoError(t, err)
	assert.False(t, res.Committed)
	assert.Equal(t, MovePrev, res.Move)

	ed.Begin("y")
	res, err = ed.Key("a")
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.True(t, ed.Active())
}

func TestTextEditorFailedCommitStaysOpen(t *testing.T) {
	ed := NewTextEditor(func(string) error { return errors.New("rejected") })
	ed.Begin("1")
	ed.Input("2")
	res, err := ed.Blur()
	require.Error(t, err)
	assert.False(t, res.Committed)
	assert.True(t, ed.Active())
	assert.Equal(t, "2", ed.Draft())
}
