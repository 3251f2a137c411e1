package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gridwalk-cli/gridwalk"
	"github.com/gridwalk-cli/gridwalk/internal/state"
	"github.com/gridwalk-cli/gridwalk/internal/view"
	"github.com/gridwalk-cli/gridwalk/internal/viewport"
)

// Target is the surface ActionDispatcher needs from the active Buffer. It is
// defined here, not in internal/buffer, so this package compiles standalone;
// Buffer satisfies it.
type Target interface {
	View() *view.DataView
	Viewport() *viewport.Manager
	State() *state.Manager

	LineNumbers() bool
	SetLineNumbers(bool)

	InputText() string
	SetInputText(string)

	ExecuteQuery(ctx context.Context, text string) error
	Export(ctx context.Context, kind gridwalk.ExportKind, path string) (string, error)
}

// Buffers is the surface ActionDispatcher needs from BufferManager.
type Buffers interface {
	Active() Target
	Next()
	Prev()
	Goto(n int) bool
	Open(ctx context.Context, path string) error
	Close() (quit bool)
}

// Status is the one status-line message produced by the most recent Dispatch.
type Status struct {
	Message string
	IsError bool
}

// Dispatcher serialises Actions and is the only mutator of DataView, Buffer,
// ViewportManager, and StateManager: every keyboard-triggered change in the
// engine passes through Dispatch.
type Dispatcher struct {
	buffers Buffers
	status  Status
	quit    bool
}

// New builds a Dispatcher over the given BufferManager.
func New(buffers Buffers) *Dispatcher {
	return &Dispatcher{buffers: buffers}
}

// Status returns the status-line message left by the most recent Dispatch.
func (d *Dispatcher) Status() Status { return d.status }

// ShouldQuit reports whether a Quit or a last-buffer CloseBuffer was dispatched.
func (d *Dispatcher) ShouldQuit() bool { return d.quit }

// Dispatch applies one Action. Any failure surfaces as a status message
// rather than a panic and, since every mutation below validates before
// mutating, leaves state exactly as it was before the call: a failed Action
// is a no-op.
func (d *Dispatcher) Dispatch(ctx context.Context, a gridwalk.Action) {
	t := d.buffers.Active()
	if t == nil {
		return
	}
	d.status = Status{}
	if err := d.apply(ctx, t, a); err != nil {
		d.setError(err)
	}
}

func (d *Dispatcher) setError(err error) {
	if ge, ok := err.(*gridwalk.GridError); ok {
		d.status = Status{Message: ge.UserMessage(), IsError: true}
		return
	}
	d.status = Status{Message: err.Error(), IsError: true}
}

func (d *Dispatcher) apply(ctx context.Context, t Target, a gridwalk.Action) error {
	switch a.Kind {
	case gridwalk.ActionMoveCursor:
		t.Viewport().MoveCrosshair(a.Axis, a.Delta, a.Count)
	case gridwalk.ActionPageMove:
		t.Viewport().PageMove(a.Delta, a.Count)
	case gridwalk.ActionJumpTo:
		return d.jumpTo(t, a)
	case gridwalk.ActionToggleLineNumbers:
		t.SetLineNumbers(!t.LineNumbers())
	case gridwalk.ActionToggleCompact:
		t.Viewport().SetCompact(!t.Viewport().Compact())
	case gridwalk.ActionToggleCursorLock:
		t.Viewport().ToggleCursorLock()
	case gridwalk.ActionToggleViewportLock:
		t.Viewport().ToggleViewportLock()
	case gridwalk.ActionToggleSelectionMode:
		d.toggleSelection(t)
	case gridwalk.ActionPinColumn:
		t.View().PinColumn(currentColumn(t))
		t.Viewport().Invalidate()
	case gridwalk.ActionUnpinAll:
		t.View().ClearPins()
		t.Viewport().Invalidate()
	case gridwalk.ActionHideColumn:
		t.View().HideColumn(currentColumn(t))
		t.Viewport().Invalidate()
	case gridwalk.ActionUnhideAll:
		t.View().UnhideAll()
		t.Viewport().Invalidate()
	case gridwalk.ActionMoveColumn:
		if a.MoveDelta < 0 {
			t.View().MoveColumnLeft(currentColumn(t))
		} else {
			t.View().MoveColumnRight(currentColumn(t))
		}
		t.Viewport().Invalidate()
	case gridwalk.ActionSort:
		return d.cycleSort(ctx, t)
	case gridwalk.ActionStartSearch:
		d.startSearch(t, a.SearchMode)
	case gridwalk.ActionSearchInput:
		return d.searchInput(ctx, t, a.Key)
	case gridwalk.ActionSearchAccept:
		return d.searchAccept(ctx, t)
	case gridwalk.ActionSearchCancel:
		return d.searchCancel(ctx, t)
	case gridwalk.ActionNextMatch:
		d.stepMatch(t, 1)
	case gridwalk.ActionPrevMatch:
		d.stepMatch(t, -1)
	case gridwalk.ActionApplyFilter:
		return t.View().ApplyTextFilter(ctx, a.Pattern, true)
	case gridwalk.ActionClearFilter:
		t.View().ClearFilter()
		t.Viewport().Invalidate()
	case gridwalk.ActionExecuteQuery:
		return d.executeQuery(ctx, t)
	case gridwalk.ActionExport:
		return d.export(ctx, t, a)
	case gridwalk.ActionOpenBuffer:
		return d.buffers.Open(ctx, a.Path)
	case gridwalk.ActionCloseBuffer:
		if d.buffers.Close() {
			d.quit = true
		}
	case gridwalk.ActionSwitchBuffer:
		d.switchBuffer(a)
	case gridwalk.ActionShowHelp:
		d.pushAndShow(t, state.HelpState(), "ShowHelp")
	case gridwalk.ActionShowDebug:
		d.pushAndShow(t, state.DebugState(), "ShowDebug")
	case gridwalk.ActionShowPrettyQuery:
		d.pushAndShow(t, state.PrettyQueryState(), "ShowPrettyQuery")
	case gridwalk.ActionQuit:
		d.quit = true
	}
	return nil
}

// currentColumn maps the crosshair's display-column index back to the
// underlying DataTable column index that view mutation methods expect.
func currentColumn(t Target) int {
	_, col := t.Viewport().Crosshair()
	disp := t.View().DisplayColumns()
	if col < 0 || col >= len(disp) {
		return 0
	}
	return disp[col]
}

func (d *Dispatcher) jumpTo(t Target, a gridwalk.Action) error {
	if a.Jump == gridwalk.JumpRow && a.Row < 0 {
		// ':' with no row typed yet: enter interactive digit entry.
		t.State().Push(crosshairSnapshot(t))
		t.State().Transition(state.JumpToRowState(""), "JumpTo:start")
		t.SetInputText("")
		return nil
	}
	t.Viewport().JumpTo(a.Jump, a.Row)
	return nil
}

func crosshairSnapshot(t Target) map[string]any {
	row, col := t.Viewport().Crosshair()
	return map[string]any{"crosshair_row": row, "crosshair_col": col, "input": t.InputText()}
}

func restoreCrosshair(t Target, snapshot map[string]any) {
	row, _ := snapshot["crosshair_row"].(int)
	col, _ := snapshot["crosshair_col"].(int)
	t.Viewport().JumpTo(gridwalk.JumpFirst, 0)
	t.Viewport().JumpTo(gridwalk.JumpColFirst, 0)
	t.Viewport().MoveCrosshair(gridwalk.AxisRow, 1, row)
	t.Viewport().MoveCrosshair(gridwalk.AxisCol, 1, col)
	if input, ok := snapshot["input"].(string); ok {
		t.SetInputText(input)
	}
}

func (d *Dispatcher) toggleSelection(t Target) {
	cur := t.State().Current()
	if cur.Kind != state.KindResults || cur.ResultsSub != state.ResultsSelection {
		t.State().Push(crosshairSnapshot(t))
		t.State().Transition(state.SelectionState(state.SelectionCell), "ToggleSelectionMode")
		return
	}
	next, done := nextSelectionKind(cur.Selection)
	if done {
		if snap, ok := t.State().Pop("ToggleSelectionMode"); ok {
			restoreCrosshair(t, snap)
		}
		return
	}
	t.State().Transition(state.SelectionState(next), "ToggleSelectionMode")
}

func nextSelectionKind(k state.SelectionKind) (state.SelectionKind, bool) {
	switch k {
	case state.SelectionCell:
		return state.SelectionRow, false
	case state.SelectionRow:
		return state.SelectionColumn, false
	case state.SelectionColumn:
		return state.SelectionRange, false
	default:
		return "", true
	}
}

// cycleSort cycles the current column through ascending -> descending -> cleared.
func (d *Dispatcher) cycleSort(ctx context.Context, t Target) error {
	col := currentColumn(t)
	cur := t.View().Sort()
	switch {
	case cur == nil || cur.Column != col:
		if err := t.View().ApplySort(ctx, col, true); err != nil {
			return err
		}
	case cur.Ascending:
		if err := t.View().ApplySort(ctx, col, false); err != nil {
			return err
		}
	default:
		if err := t.View().ClearSort(ctx); err != nil {
			return err
		}
	}
	t.Viewport().Invalidate()
	return nil
}

func (d *Dispatcher) startSearch(t Target, mode gridwalk.SearchKind) {
	t.State().Push(crosshairSnapshot(t))
	t.SetInputText("")
	switch mode {
	case gridwalk.SearchVim:
		t.State().Transition(state.VimSearchTypingState(""), "StartSearch")
	case gridwalk.SearchColumn:
		t.State().Transition(state.ColumnSearchState(""), "StartSearch")
	case gridwalk.SearchFuzzy:
		t.State().Transition(state.FuzzyFilterState(""), "StartSearch")
	case gridwalk.SearchRegex:
		t.State().Transition(state.RegexFilterState(""), "StartSearch")
	}
}

// searchInput appends one rune to the active transient input buffer. Column
// search and fuzzy filter re-evaluate live, on every keystroke; vim search
// only evaluates on SearchAccept (it jumps, it does not filter as you type).
func (d *Dispatcher) searchInput(ctx context.Context, t Target, key rune) error {
	pattern := t.InputText() + string(key)
	t.SetInputText(pattern)
	cur := t.State().Current()
	switch cur.ResultsSub {
	case state.ResultsVimSearch:
		t.State().Transition(state.VimSearchTypingState(pattern), "SearchInput")
	case state.ResultsColumnSearch:
		t.View().SearchColumns(pattern)
		t.State().Transition(state.ColumnSearchState(pattern), "SearchInput")
	case state.ResultsFuzzyFilter:
		if err := t.View().ApplyFuzzyFilter(ctx, pattern, true); err != nil {
			return err
		}
		t.Viewport().Invalidate()
		t.State().Transition(state.FuzzyFilterState(pattern), "SearchInput")
	case state.ResultsRegexFilter:
		if err := t.View().ApplyRegexFilter(ctx, pattern, true); err != nil {
			return err
		}
		t.Viewport().Invalidate()
		t.State().Transition(state.RegexFilterState(pattern), "SearchInput")
	case state.ResultsJumpToRow:
		t.State().Transition(state.JumpToRowState(pattern), "SearchInput")
	}
	return nil
}

func (d *Dispatcher) searchAccept(ctx context.Context, t Target) error {
	cur := t.State().Current()
	switch cur.ResultsSub {
	case state.ResultsVimSearch:
		if err := t.View().ApplyTextFilter(ctx, cur.Pattern, true); err != nil {
			return err
		}
		t.Viewport().Invalidate()
		t.Viewport().JumpTo(gridwalk.JumpFirst, 0)
		total := t.View().RowCount()
		t.State().Transition(state.VimSearchNavigatingState(cur.Pattern, 0, total), "SearchAccept")
	case state.ResultsColumnSearch:
		if snap, ok := t.State().Pop("SearchAccept"); ok {
			_ = snap // crosshair left where it is, not restored; column search never moves it
		}
	case state.ResultsFuzzyFilter:
		if snap, ok := t.State().Pop("SearchAccept"); ok {
			_ = snap // keep the filter applied; discard only the saved crosshair
		}
	case state.ResultsRegexFilter:
		if snap, ok := t.State().Pop("SearchAccept"); ok {
			_ = snap // keep the filter applied; discard only the saved crosshair
		}
	case state.ResultsJumpToRow:
		n, err := strconv.Atoi(cur.Pattern)
		if err != nil {
			return gridwalk.NewRuntimeError("invalid_row", fmt.Sprintf("%q is not a row number", cur.Pattern))
		}
		if snap, ok := t.State().Pop("SearchAccept"); ok {
			_ = snap
		}
		t.Viewport().JumpTo(gridwalk.JumpRow, n-1)
	}
	return nil
}

func (d *Dispatcher) searchCancel(ctx context.Context, t Target) error {
	cur := t.State().Current()
	switch cur.Kind {
	case state.KindHelp, state.KindDebug, state.KindPrettyQuery:
		if snap, ok := t.State().Pop("SearchCancel"); ok {
			restoreCrosshair(t, snap)
		}
		return nil
	}
	switch cur.ResultsSub {
	case state.ResultsVimSearch, state.ResultsFuzzyFilter, state.ResultsRegexFilter:
		t.View().ClearFilter()
		t.Viewport().Invalidate()
	}
	if snap, ok := t.State().Pop("SearchCancel"); ok {
		restoreCrosshair(t, snap)
	}
	return nil
}

// stepMatch advances/retreats among matches. For VimSearch(Navigating) this
// steps the crosshair row within the already-filtered view (the filtered set
// is exactly the match set). For ColumnSearch it delegates to DataView's own
// match cursor.
func (d *Dispatcher) stepMatch(t Target, delta int) {
	cur := t.State().Current()
	switch cur.ResultsSub {
	case state.ResultsVimSearch:
		if cur.VimPhase != state.VimNavigating || cur.MatchTotal == 0 {
			return
		}
		next := ((cur.MatchCurrent+delta)%cur.MatchTotal + cur.MatchTotal) % cur.MatchTotal
		t.Viewport().JumpTo(gridwalk.JumpRow, next)
		t.State().Transition(state.VimSearchNavigatingState(cur.Pattern, next, cur.MatchTotal), "NextMatch")
	case state.ResultsColumnSearch:
		if delta > 0 {
			t.View().NextColumnMatch()
		} else {
			t.View().PrevColumnMatch()
		}
	}
}

func (d *Dispatcher) executeQuery(ctx context.Context, t Target) error {
	text := t.InputText()
	if strings.TrimSpace(text) == "" {
		return gridwalk.NewQueryError("empty_query", "query text is empty")
	}
	if err := t.ExecuteQuery(ctx, text); err != nil {
		return err
	}
	t.State().Transition(state.ResultsNormalState(), "ExecuteQuery")
	return nil
}

func (d *Dispatcher) export(ctx context.Context, t Target, a gridwalk.Action) error {
	path, err := t.Export(ctx, a.Export, a.Path)
	if err != nil {
		return err
	}
	d.status = Status{Message: fmt.Sprintf("exported to %s", path)}
	return nil
}

func (d *Dispatcher) switchBuffer(a gridwalk.Action) {
	switch {
	case a.BufferIndex > 0:
		d.buffers.Goto(a.BufferIndex - 1)
	case a.Delta > 0:
		d.buffers.Next()
	case a.Delta < 0:
		d.buffers.Prev()
	}
}

func (d *Dispatcher) pushAndShow(t Target, s state.State, trigger string) {
	t.State().Push(crosshairSnapshot(t))
	t.State().Transition(s, trigger)
}
