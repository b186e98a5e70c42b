package datatable

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"maragu.dev/gomponents"
	"maragu.dev/gomponents/html"
)

// Segment is a run of text that either matches the highlight query or not.
type Segment struct {
	Text  string
	Match bool
}

// Segments splits text around occurrences of query under Unicode case
// folding, the same matching Search uses. A query of "ss" marks the "ß" of
// "Straße".
func Segments(text, query string) []Segment {
	query = strings.TrimSpace(query)
	if query == "" || text == "" {
		return []Segment{{Text: text}}
	}
	folder := cases.Fold()
	needle := folder.String(query)

	var out []Segment
	last := 0
	for i := 0; i < len(text); {
		if end := foldedMatch(folder, text, i, needle); end > i {
			if i > last {
				out = append(out, Segment{Text: text[last:i]})
			}
			out = append(out, Segment{Text: text[i:end], Match: true})
			last, i = end, end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	if last < len(text) {
		out = append(out, Segment{Text: text[last:]})
	}
	return out
}

// foldedMatch returns the end of the shortest run of text starting at i
// that folds to needle, or -1.
func foldedMatch(folder cases.Caser, text string, i int, needle string) int {
	for j := i; j < len(text); {
		_, size := utf8.DecodeRuneInString(text[j:])
		j += size
		folded := folder.String(text[i:j])
		if folded == needle {
			return j
		}
		if !strings.HasPrefix(needle, folded) {
			return -1
		}
	}
	return -1
}

// Highlight renders text with every match of query wrapped in <mark>. All
// segments are emitted as escaped text.
func Highlight(text, query string) gomponents.Node {
	segments := Segments(text, query)
	nodes := make([]gomponents.Node, 0, len(segments))
	for _, seg := range segments {
		if seg.Match {
			nodes = append(nodes, html.Mark(gomponents.Text(seg.Text)))
		} else {
			nodes = append(nodes, gomponents.Text(seg.Text))
		}
	}
	return gomponents.Group(nodes)
}
