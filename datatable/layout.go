package datatable

import "strings"

const (
	expandTrack  = "40px"
	actionsTrack = "120px"
)

// GridTemplate builds the grid-template-columns value for the visible
// columns with an optional leading expansion track and trailing actions
// track.
func GridTemplate[T any](cols []Column[T], expandable, actions bool) string {
	tracks := make([]string, 0, len(cols)+2)
	if expandable {
		tracks = append(tracks, expandTrack)
	}
	for i := range cols {
		tracks = append(tracks, cols[i].width())
	}
	if actions {
		tracks = append(tracks, actionsTrack)
	}
	return strings.Join(tracks, " ")
}

// GridTemplate returns the template for a computed view.
func (v View[T]) GridTemplate() string {
	return GridTemplate(v.Columns, v.Expandable || v.Selectable || v.ReorderEnabled, v.Actions)
}
