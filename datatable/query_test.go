package datatable

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func peopleColumns() []Column[Record] {
	return []Column[Record]{
		{Key: "id", Label: "ID", Sortable: true, Type: TypeNumber},
		{Key: "name", Label: "Name", Sortable: true, Filterable: true, Searchable: true},
		{Key: "email", Label: "Email", Filterable: true, Searchable: true, Type: TypeEmail},
		{Key: "role", Label: "Role", Sortable: true, Filterable: true},
	}
}

func people() []Record {
	return []Record{
		{"id": 1, "name": "Bob", "email": "bob@example.com", "role": "admin"},
		{"id": 2, "name": "Amy", "email": "amy@corp.io", "role": "dev"},
		{"id": 3, "name": "Carl", "email": "carl@example.com", "role": "dev"},
		{"id": 4, "name": "Dana", "email": "dana@corp.io", "role": "admin"},
		{"id": 5, "name": "Émile", "email": "emile@corp.io", "role": "ops"},
	}
}

func names(rows []Record) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = Stringify(r["name"])
	}
	return out
}

func TestExampleScenario(t *testing.T) {
	rows := []Record{{"id": 1, "name": "Bob"}, {"id": 2, "name": "Amy"}}
	cols := []Column[Record]{{Key: "id"}, {Key: "name", Sortable: true, Searchable: true, Filterable: true}}

	sorted := Sort(rows, cols, &SortSpec{Key: "name", Direction: Asc})
	assert.Equal(t, []string{"Amy", "Bob"}, names(sorted))

	searched := Search(rows, cols, "am")
	require.Len(t, searched, 1)
	assert.Equal(t, 2, searched[0]["id"])

	filtered := Filter(rows, cols, map[string]string{"name": "am"})
	assert.Equal(t, searched, filtered)
}

func TestSearchMatchesSearchableColumnsOnly(t *testing.T) {
	cols := peopleColumns()
	rows := people()

	for _, query := range []string{"corp", "EXAMPLE", "a", "ém", "zzz"} {
		got := Search(rows, cols, query)

		var want []Record
		for _, r := range rows {
			for _, key := range []string{"name", "email"} {
				if strings.Contains(strings.ToLower(Stringify(r[key])), strings.ToLower(query)) {
					want = append(want, r)
					break
				}
			}
		}
		assert.Equal(t, len(want), len(got), "query %q", query)
		assert.Equal(t, names(want), names(got), "query %q", query)
	}

	assert.Empty(t, Search(rows, cols, "admin"), "role is not searchable")
}

func TestSearchBlankQueryKeepsAll(t *testing.T) {
	rows := people()
	assert.Equal(t, rows, Search(rows, peopleColumns(), ""))
	assert.Equal(t, rows, Search(rows, peopleColumns(), "   \t"))
}

func TestSearchIncludesHiddenColumns(t *testing.T) {
	tbl := newPeopleTable(t, func(o *Options[Record]) { o.PageSize = 0 })
	_, err := tbl.ToggleColumn("email")
	require.NoError(t, err)

	tbl.SetSearch("corp")
	assert.Equal(t, []string{"Amy", "Dana", "Émile"}, names(tbl.View().Data()))
}

func TestSearchUnicodeFolding(t *testing.T) {
	got := Search(people(), peopleColumns(), "ÉMILE")
	assert.Equal(t, []string{"Émile"}, names(got))
}

func TestFilterComposition(t *testing.T) {
	cols := peopleColumns()
	rows := people()

	both := Filter(rows, cols, map[string]string{"role": "dev", "email": "corp"})
	stepwise := Filter(Filter(rows, cols, map[string]string{"role": "dev"}), cols, map[string]string{"email": "corp"})
	reversed := Filter(Filter(rows, cols, map[string]string{"email": "corp"}), cols, map[string]string{"role": "dev"})

	assert.Equal(t, []string{"Amy"}, names(both))
	assert.Equal(t, both, stepwise)
	assert.Equal(t, both, reversed)
}

func TestFilterIgnoresBlankAndUnknown(t *testing.T) {
	rows := people()
	got := Filter(rows, peopleColumns(), map[string]string{"role": "  ", "missing": "x"})
	assert.Equal(t, rows, got)
}

func TestSortStable(t *testing.T) {
	cols := peopleColumns()
	rows := people()

	asc := Sort(rows, cols, &SortSpec{Key: "role", Direction: Asc})
	assert.Equal(t, []string{"Bob", "Dana", "Amy", "Carl", "Émile"}, names(asc))

	desc := Sort(rows, cols, &SortSpec{Key: "role", Direction: Desc})
	assert.Equal(t, []string{"Émile", "Amy", "Carl", "Bob", "Dana"}, names(desc))

	assert.Equal(t, []string{"Bob", "Amy", "Carl", "Dana", "Émile"}, names(rows), "input untouched")
}

func TestSortNilSpecKeepsOrder(t *testing.T) {
	rows := people()
	assert.Equal(t, rows, Sort(rows, peopleColumns(), nil))
	assert.Equal(t, rows, Sort(rows, peopleColumns(), &SortSpec{Key: "nope", Direction: Asc}))
}

func TestIdleStagesReturnInput(t *testing.T) {
	rows := people()
	cols := peopleColumns()
	assert.Same(t, &rows[0], &Search(rows, cols, "  ")[0])
	assert.Same(t, &rows[0], &Filter(rows, cols, map[string]string{"role": " "})[0])
	assert.Same(t, &rows[0], &Sort(rows, cols, nil)[0])
	page := Paginate(rows, 2, 2)
	assert.Same(t, &rows[2], &page.Rows[0], "a page is a subslice of its input")
}

func TestSortNumericStrings(t *testing.T) {
	rows := []Record{{"id": "a", "n": "10"}, {"id": "b", "n": "9"}, {"id": "c", "n": 100}, {"id": "d"}}

	asNumber := Sort(rows, []Column[Record]{{Key: "n", Type: TypeNumber}}, &SortSpec{Key: "n", Direction: Asc})
	assert.Equal(t, []any{"d", "b", "a", "c"}, ids(asNumber))

	// Text columns compare strings lexicographically, so "10" sorts before "9".
	// Numbers rank before strings.
	asText := Sort(rows, []Column[Record]{{Key: "n", Type: TypeText}}, &SortSpec{Key: "n", Direction: Asc})
	assert.Equal(t, []any{"d", "c", "a", "b"}, ids(asText))
}

func ids(rows []Record) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r["id"]
	}
	return out
}

func TestCompareHeterogeneous(t *testing.T) {
	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	ordered := []any{nil, false, true, -1, 2.5, int64(3), now, "a", "b", struct{}{}}
	for i := 0; i < len(ordered)-1; i++ {
		assert.Equal(t, -1, Compare(ordered[i], ordered[i+1], TypeText), "%v < %v", ordered[i], ordered[i+1])
		assert.Equal(t, 1, Compare(ordered[i+1], ordered[i], TypeText))
	}
	assert.Equal(t, 0, Compare(nil, nil, TypeText))
	assert.Equal(t, 0, Compare(2, 2.0, TypeNumber))
	assert.Equal(t, -1, Compare("2024-01-01", "2024-01-02", TypeDate))
	assert.Equal(t, 0, Compare("", nil, TypeNumber), "blank numbers rank as nil")
}

func TestPaginationCoverage(t *testing.T) {
	rows := make([]Record, 23)
	for i := range rows {
		rows[i] = Record{"id": i}
	}

	for _, size := range []int{1, 5, 7, 10, 23, 50} {
		first := Paginate(rows, 1, size)
		var all []Record
		for p := 1; p <= first.MaxPage; p++ {
			page := Paginate(rows, p, size)
			assert.Equal(t, p, page.Number)
			all = append(all, page.Rows...)
			if p == first.MaxPage {
				want := len(rows) % size
				if want == 0 {
					want = size
				}
				if size > len(rows) {
					want = len(rows)
				}
				assert.Len(t, page.Rows, want, "last page size %d", size)
			}
		}
		assert.Equal(t, rows, all, "size %d", size)
	}
}

func TestPaginationClamps(t *testing.T) {
	rows := []Record{{"id": 1}, {"id": 2}, {"id": 3}}

	page := Paginate(rows, 9, 2)
	assert.Equal(t, 2, page.Number)
	assert.Equal(t, 2, page.MaxPage)
	assert.Len(t, page.Rows, 1)

	page = Paginate(rows, -3, 2)
	assert.Equal(t, 1, page.Number)

	empty := Paginate([]Record{}, 4, 10)
	assert.Equal(t, 1, empty.Number)
	assert.Equal(t, 1, empty.MaxPage)
	assert.Empty(t, empty.Rows)

	all := Paginate(rows, 3, 0)
	assert.Equal(t, rows, all.Rows)
	assert.Equal(t, 1, all.Number)
}

func TestMissingKeyReadsEmpty(t *testing.T) {
	rows := []Record{{"id": 1, "name": "Bob"}, {"id": 2}}
	cols := peopleColumns()

	assert.NotPanics(t, func() {
		assert.Len(t, Search(rows, cols, "bob"), 1)
		assert.Len(t, Filter(rows, cols, map[string]string{"email": "x"}), 0)
		assert.Len(t, Sort(rows, cols, &SortSpec{Key: "name", Direction: Asc}), 2)
	})
}

type pipelineRow struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Status  string
	private string
}

func TestStructRows(t *testing.T) {
	rows := []pipelineRow{{ID: 2, Name: "deploy", Status: "green"}, {ID: 1, Name: "build", Status: "red", private: "x"}}
	cols := []Column[pipelineRow]{
		{Key: "id", Sortable: true, Type: TypeNumber},
		{Key: "name", Searchable: true},
		{Key: "status", Filterable: true},
		{Key: "private", Searchable: true},
	}

	sorted := Sort(rows, cols, &SortSpec{Key: "id", Direction: Asc})
	assert.Equal(t, "build", sorted[0].Name)
	assert.Len(t, Filter(rows, cols, map[string]string{"status": "GREEN"}), 1)
	assert.Empty(t, Search(rows, cols, "x"), "unexported fields read as empty")
	assert.Equal(t, "2", KeyField[pipelineRow]("ID")(rows[0]))
}
