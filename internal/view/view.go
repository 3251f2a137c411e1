// Package view implements DataView: a derived, cheap-to-mutate projection
// over a DataTable (row order, column order/visibility/pinning, filter,
// sort, column-name search) that never copies cell data — only _seq and
// column-index vectors.
package view

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/gridwalk-cli/gridwalk"
	"github.com/gridwalk-cli/gridwalk/internal/queryengine"
	"github.com/gridwalk-cli/gridwalk/internal/table"
)

// FilterMode distinguishes the row-filter algorithms a DataView supports.
type FilterMode string

const (
	FilterSubstring FilterMode = "substring"
	FilterFuzzy     FilterMode = "fuzzy"
	FilterRegex     FilterMode = "regex"
)

// Filter is the currently active row filter, if any.
type Filter struct {
	Pattern         string
	Mode            FilterMode
	CaseInsensitive bool
}

// Sort is the currently active column sort, if any.
type Sort struct {
	Column    int
	Ascending bool
}

// ColumnMatch is one hit of a column-name search.
type ColumnMatch struct {
	Index int
	Name  string
}

// ColumnSearch is the currently active column-name search state, if any.
type ColumnSearch struct {
	Pattern string
	Matches []ColumnMatch
	Current int
}

// DataView is the single source of truth for "what is logically displayed":
// row order after filter/sort, column order/visibility/pinning, and active
// filter/sort/column-search state.
type DataView struct {
	source *table.DataTable

	visibleRows []int64
	baseRows    []int64

	visibleColumns []int
	baseColumns    []int
	pinnedColumns  []int

	filter       *Filter
	sort         *Sort
	columnSearch *ColumnSearch
}

// NewIdentityView builds a DataView over every row and column of t, in
// source order, with nothing filtered, sorted, hidden, or pinned.
func NewIdentityView(t *table.DataTable) *DataView {
	rows := make([]int64, t.RowCount())
	for i := range rows {
		rows[i] = int64(i)
	}
	cols := make([]int, t.ColumnCount())
	for i := range cols {
		cols[i] = i
	}
	return &DataView{
		source:         t,
		visibleRows:    rows,
		baseRows:       append([]int64(nil), rows...),
		visibleColumns: cols,
		baseColumns:    append([]int(nil), cols...),
	}
}

// NewFromQueryResult builds a DataView directly from a QueryEngine
// evaluation: the result is stored as both visible_rows and base_rows.
func NewFromQueryResult(t *table.DataTable, result queryengine.Result) *DataView {
	cols := append([]int(nil), result.Columns...)
	return &DataView{
		source:         t,
		visibleRows:    append([]int64(nil), result.Seqs...),
		baseRows:       append([]int64(nil), result.Seqs...),
		visibleColumns: cols,
		baseColumns:    append([]int(nil), cols...),
	}
}

// Source returns the underlying DataTable.
func (v *DataView) Source() *table.DataTable { return v.source }

// VisibleRows returns the current logical row order.
func (v *DataView) VisibleRows() []int64 { return v.visibleRows }

// BaseRows returns the post-sort/pre-filter row order.
func (v *DataView) BaseRows() []int64 { return v.baseRows }

// VisibleColumns returns the non-pinned display column order.
func (v *DataView) VisibleColumns() []int { return v.visibleColumns }

// PinnedColumns returns the left-anchored pinned column order.
func (v *DataView) PinnedColumns() []int { return v.pinnedColumns }

// Filter returns the active row filter, or nil.
func (v *DataView) Filter() *Filter { return v.filter }

// Sort returns the active sort, or nil.
func (v *DataView) Sort() *Sort { return v.sort }

// ColumnSearch returns the active column-name search, or nil.
func (v *DataView) ColumnSearch() *ColumnSearch { return v.columnSearch }

// RowCount returns the number of logically visible rows.
func (v *DataView) RowCount() int { return len(v.visibleRows) }

// displayColumns returns pinned columns followed by visible columns, the
// fixed display order used by column_names, get_row, and column search.
func (v *DataView) displayColumns() []int {
	out := make([]int, 0, len(v.pinnedColumns)+len(v.visibleColumns))
	out = append(out, v.pinnedColumns...)
	out = append(out, v.visibleColumns...)
	return out
}

// DisplayColumns exposes pinned-then-visible column order for
// internal/viewport, which needs to reason about the pinned/unpinned
// boundary when computing widths and horizontal crosshair movement.
func (v *DataView) DisplayColumns() []int { return v.displayColumns() }

// PinnedCount returns how many of DisplayColumns' leading entries are pinned.
func (v *DataView) PinnedCount() int { return len(v.pinnedColumns) }

// ColumnNames returns column names in display order (pinned first, then visible).
func (v *DataView) ColumnNames() []string {
	cols := v.source.Columns()
	disp := v.displayColumns()
	names := make([]string, len(disp))
	for i, idx := range disp {
		names[i] = cols[idx].Name
	}
	return names
}

// GetRow materializes the row at the given display index (an index into
// visible_rows), with values reordered to display column order.
func (v *DataView) GetRow(ctx context.Context, displayIndex int) (gridwalk.Row, error) {
	if displayIndex < 0 || displayIndex >= len(v.visibleRows) {
		return gridwalk.Row{}, gridwalk.NewRuntimeError("row_out_of_range",
			fmt.Sprintf("row index %d out of range [0,%d)", displayIndex, len(v.visibleRows)))
	}
	seq := v.visibleRows[displayIndex]
	rows, err := v.source.FetchRows(ctx, []int64{seq})
	if err != nil {
		return gridwalk.Row{}, err
	}
	if len(rows) == 0 {
		return gridwalk.Row{}, gridwalk.NewRuntimeError("row_not_found", fmt.Sprintf("no row with seq %d", seq))
	}
	full := rows[0]
	disp := v.displayColumns()
	values := make([]gridwalk.Value, len(disp))
	for i, idx := range disp {
		values[i] = full.Values[idx]
	}
	return gridwalk.Row{Seq: full.Seq, Values: values}, nil
}

// rowText materializes base_rows and concatenates each row's display-column
// cell strings, for use by the text, fuzzy and regex filters.
func (v *DataView) rowText(ctx context.Context) ([]int64, []string, error) {
	rows, err := v.source.FetchRows(ctx, v.baseRows)
	if err != nil {
		return nil, nil, err
	}
	byseq := make(map[int64]gridwalk.Row, len(rows))
	for _, r := range rows {
		byseq[r.Seq] = r
	}
	disp := v.displayColumns()
	seqs := make([]int64, 0, len(v.baseRows))
	texts := make([]string, 0, len(v.baseRows))
	for _, seq := range v.baseRows {
		row, ok := byseq[seq]
		if !ok {
			continue
		}
		var sb strings.Builder
		for _, idx := range disp {
			sb.WriteString(row.Values[idx].String())
			sb.WriteByte(' ')
		}
		seqs = append(seqs, seq)
		texts = append(texts, sb.String())
	}
	return seqs, texts, nil
}

// ApplyTextFilter filters visible_rows to the subset of base_rows whose
// concatenated display-cell text contains pattern, preserving base_rows order.
func (v *DataView) ApplyTextFilter(ctx context.Context, pattern string, caseInsensitive bool) error {
	seqs, texts, err := v.rowText(ctx)
	if err != nil {
		return err
	}
	needle := pattern
	if caseInsensitive {
		needle = strings.ToLower(needle)
	}
	var kept []int64
	for i, text := range texts {
		haystack := text
		if caseInsensitive {
			haystack = strings.ToLower(haystack)
		}
		if strings.Contains(haystack, needle) {
			kept = append(kept, seqs[i])
		}
	}
	v.visibleRows = kept
	v.filter = &Filter{Pattern: pattern, Mode: FilterSubstring, CaseInsensitive: caseInsensitive}
	return nil
}

// ApplyFuzzyFilter fuzzy-matches base_rows against pattern and sets
// visible_rows to the matches, ordered by descending match score (ties
// broken by base_rows order). A
// leading `'` forces exact-substring mode instead, for literal matching. An
// empty pattern leaves visible_rows unchanged.
func (v *DataView) ApplyFuzzyFilter(ctx context.Context, pattern string, caseInsensitive bool) error {
	if pattern == "" {
		return nil
	}
	if strings.HasPrefix(pattern, "'") {
		if err := v.ApplyTextFilter(ctx, pattern[1:], caseInsensitive); err != nil {
			return err
		}
		return nil
	}

	seqs, texts, err := v.rowText(ctx)
	if err != nil {
		return err
	}
	type scored struct {
		seq   int64
		score int
		order int
	}
	var matches []scored
	for i, text := range texts {
		ok, score := fuzzyScore(text, pattern, caseInsensitive)
		if ok {
			matches = append(matches, scored{seq: seqs[i], score: score, order: i})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })

	kept := make([]int64, len(matches))
	for i, m := range matches {
		kept[i] = m.seq
	}
	v.visibleRows = kept
	v.filter = &Filter{Pattern: pattern, Mode: FilterFuzzy, CaseInsensitive: caseInsensitive}
	return nil
}

// ApplyRegexFilter filters visible_rows to the subset of base_rows whose
// concatenated display-cell text matches the regular expression pattern,
// preserving base_rows order. An empty pattern leaves visible_rows
// unchanged; an invalid pattern reports a query error rather than matching
// nothing, so the caller can surface it on the status line.
func (v *DataView) ApplyRegexFilter(ctx context.Context, pattern string, caseInsensitive bool) error {
	if pattern == "" {
		return nil
	}
	expr := pattern
	if caseInsensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return gridwalk.NewQueryError("invalid_regex", fmt.Sprintf("invalid regular expression %q", pattern)).WithCause(err)
	}

	seqs, texts, err := v.rowText(ctx)
	if err != nil {
		return err
	}
	var kept []int64
	for i, text := range texts {
		if re.MatchString(text) {
			kept = append(kept, seqs[i])
		}
	}
	v.visibleRows = kept
	v.filter = &Filter{Pattern: pattern, Mode: FilterRegex, CaseInsensitive: caseInsensitive}
	return nil
}

// ClearFilter restores visible_rows to base_rows and clears the active filter.
func (v *DataView) ClearFilter() {
	v.visibleRows = append([]int64(nil), v.baseRows...)
	v.filter = nil
}

// ApplySort stable-sorts visible_rows by the typed comparator for col, then
// rewrites base_rows to match so a later filter-clear preserves the sort.
func (v *DataView) ApplySort(ctx context.Context, col int, ascending bool) error {
	if col < 0 || col >= v.source.ColumnCount() {
		return gridwalk.NewRuntimeError("column_out_of_range", fmt.Sprintf("column index %d out of range", col))
	}
	rows, err := v.source.FetchRows(ctx, v.visibleRows)
	if err != nil {
		return err
	}
	byseq := make(map[int64]gridwalk.Value, len(rows))
	for _, r := range rows {
		byseq[r.Seq] = r.Values[col]
	}
	ordered := append([]int64(nil), v.visibleRows...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := byseq[ordered[i]], byseq[ordered[j]]
		cmp := gridwalk.Compare(a, b)
		if !a.Valid || !b.Valid {
			// Nulls sort last ascending, first descending.
			if a.Valid != b.Valid {
				if ascending {
					return a.Valid
				}
				return b.Valid
			}
			return false
		}
		if ascending {
			return cmp < 0
		}
		return cmp > 0
	})
	v.visibleRows = ordered
	v.baseRows = append([]int64(nil), ordered...)
	v.sort = &Sort{Column: col, Ascending: ascending}
	return nil
}

// ClearSort restores insertion (load) order and reapplies the active filter,
// if any, against that restored order.
func (v *DataView) ClearSort(ctx context.Context) error {
	identity := make([]int64, v.source.RowCount())
	for i := range identity {
		identity[i] = int64(i)
	}
	v.baseRows = identity
	v.sort = nil
	if v.filter == nil {
		v.visibleRows = append([]int64(nil), identity...)
		return nil
	}
	f := *v.filter
	switch f.Mode {
	case FilterFuzzy:
		return v.ApplyFuzzyFilter(ctx, f.Pattern, f.CaseInsensitive)
	case FilterRegex:
		return v.ApplyRegexFilter(ctx, f.Pattern, f.CaseInsensitive)
	default:
		return v.ApplyTextFilter(ctx, f.Pattern, f.CaseInsensitive)
	}
}

func removeInt(xs []int, v int) []int {
	out := xs[:0]
	for _, x := range xs {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

// HideColumn removes a column from visible_columns (it remains in base_columns).
func (v *DataView) HideColumn(index int) {
	v.visibleColumns = removeInt(append([]int(nil), v.visibleColumns...), index)
}

// UnhideAll restores visible_columns to base_columns, minus any columns
// currently pinned (pinned ∩ visible = ∅ is an invariant at all times).
func (v *DataView) UnhideAll() {
	restored := make([]int, 0, len(v.baseColumns))
	for _, idx := range v.baseColumns {
		if !containsInt(v.pinnedColumns, idx) {
			restored = append(restored, idx)
		}
	}
	v.visibleColumns = restored
}

// MoveColumnLeft swaps a visible column with its left neighbour, wrapping
// around from the first position to the last.
func (v *DataView) MoveColumnLeft(index int) {
	v.moveColumn(index, -1)
}

// MoveColumnRight swaps a visible column with its right neighbour, wrapping
// around from the last position to the first.
func (v *DataView) MoveColumnRight(index int) {
	v.moveColumn(index, 1)
}

func (v *DataView) moveColumn(index, delta int) {
	pos := -1
	for i, idx := range v.visibleColumns {
		if idx == index {
			pos = i
			break
		}
	}
	if pos < 0 || len(v.visibleColumns) < 2 {
		return
	}
	n := len(v.visibleColumns)
	target := ((pos+delta)%n + n) % n
	v.visibleColumns[pos], v.visibleColumns[target] = v.visibleColumns[target], v.visibleColumns[pos]
}

// PinColumn moves a column from visible_columns to the end of pinned_columns.
func (v *DataView) PinColumn(index int) {
	if containsInt(v.pinnedColumns, index) {
		return
	}
	v.visibleColumns = removeInt(append([]int(nil), v.visibleColumns...), index)
	v.pinnedColumns = append(v.pinnedColumns, index)
}

// UnpinColumn moves a column from pinned_columns back to the end of visible_columns.
func (v *DataView) UnpinColumn(index int) {
	if !containsInt(v.pinnedColumns, index) {
		return
	}
	v.pinnedColumns = removeInt(append([]int(nil), v.pinnedColumns...), index)
	v.visibleColumns = append(v.visibleColumns, index)
}

// ClearPins moves every pinned column back to the end of visible_columns.
func (v *DataView) ClearPins() {
	v.visibleColumns = append(v.visibleColumns, v.pinnedColumns...)
	v.pinnedColumns = nil
}

// SearchColumns populates column_search.matches with every pinned or visible
// column whose name contains pattern (case-insensitive); current resets to 0.
// An empty pattern clears the search. Pinned columns are listed before
// non-pinned visible columns, matching their display order.
func (v *DataView) SearchColumns(pattern string) {
	if pattern == "" {
		v.columnSearch = nil
		return
	}
	needle := strings.ToLower(pattern)
	cols := v.source.Columns()
	var matches []ColumnMatch
	for _, idx := range v.displayColumns() {
		if strings.Contains(strings.ToLower(cols[idx].Name), needle) {
			matches = append(matches, ColumnMatch{Index: idx, Name: cols[idx].Name})
		}
	}
	v.columnSearch = &ColumnSearch{Pattern: pattern, Matches: matches, Current: 0}
}

// NextColumnMatch advances column_search.current, wrapping around.
func (v *DataView) NextColumnMatch() {
	if v.columnSearch == nil || len(v.columnSearch.Matches) == 0 {
		return
	}
	v.columnSearch.Current = (v.columnSearch.Current + 1) % len(v.columnSearch.Matches)
}

// PrevColumnMatch retreats column_search.current, wrapping around.
func (v *DataView) PrevColumnMatch() {
	if v.columnSearch == nil || len(v.columnSearch.Matches) == 0 {
		return
	}
	n := len(v.columnSearch.Matches)
	v.columnSearch.Current = (v.columnSearch.Current - 1 + n) % n
}
