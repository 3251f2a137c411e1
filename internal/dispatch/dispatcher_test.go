package dispatch

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/gridwalk-cli/gridwalk"
	"github.com/gridwalk-cli/gridwalk/internal/state"
	"github.com/gridwalk-cli/gridwalk/internal/table"
	"github.com/gridwalk-cli/gridwalk/internal/view"
	"github.com/gridwalk-cli/gridwalk/internal/viewport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTarget is a single-Buffer stand-in satisfying Target, enough to drive
// ActionDispatcher without the full Buffer implementation.
type fakeTarget struct {
	v           *view.DataView
	vp          *viewport.Manager
	sm          *state.Manager
	lineNumbers bool
	input       string
	queryErr    error
	exportErr   error
}

func (f *fakeTarget) View() *view.DataView           { return f.v }
func (f *fakeTarget) Viewport() *viewport.Manager    { return f.vp }
func (f *fakeTarget) State() *state.Manager          { return f.sm }
func (f *fakeTarget) LineNumbers() bool              { return f.lineNumbers }
func (f *fakeTarget) SetLineNumbers(b bool)          { f.lineNumbers = b }
func (f *fakeTarget) InputText() string              { return f.input }
func (f *fakeTarget) SetInputText(s string)          { f.input = s }
func (f *fakeTarget) ExecuteQuery(ctx context.Context, text string) error {
	if f.queryErr != nil {
		return f.queryErr
	}
	return nil
}
func (f *fakeTarget) Export(ctx context.Context, kind gridwalk.ExportKind, path string) (string, error) {
	if f.exportErr != nil {
		return "", f.exportErr
	}
	return path, nil
}

// fakeBuffers wraps a single fakeTarget; CloseBuffer always reports quit.
type fakeBuffers struct{ t *fakeTarget }

func (b *fakeBuffers) Active() Target                          { return b.t }
func (b *fakeBuffers) Next()                                   {}
func (b *fakeBuffers) Prev()                                   {}
func (b *fakeBuffers) Goto(n int) bool                          { return true }
func (b *fakeBuffers) Open(ctx context.Context, path string) error { return nil }
func (b *fakeBuffers) Close() bool                              { return true }

func newFakeTarget(t *testing.T, rows int) *fakeTarget {
	t.Helper()
	ctx := context.Background()
	cfg := gridwalk.DefaultConfig()
	db, err := sql.Open("duckdb", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	header := []string{"id", "name", "price"}
	data := make([][]string, rows)
	for i := range data {
		data[i] = []string{"1", "row", "1.0"}
	}
	dt, err := table.Load(ctx, db, cfg, header, data)
	require.NoError(t, err)
	v := view.NewIdentityView(dt)
	vp := viewport.New(v, cfg.Viewport)
	vp.SetTerminalSize(14, 80)
	return &fakeTarget{v: v, vp: vp, sm: state.New()}
}

func TestMoveCursorDispatch(t *testing.T) {
	ft := newFakeTarget(t, 10)
	d := New(&fakeBuffers{t: ft})
	d.Dispatch(context.Background(), gridwalk.Action{Kind: gridwalk.ActionMoveCursor, Axis: gridwalk.AxisRow, Delta: 1, Count: 3})
	row, _ := ft.vp.Crosshair()
	assert.Equal(t, 3, row)
	assert.False(t, d.Status().IsError)
}

func TestPinThenUnpinAllRoundTrip(t *testing.T) {
	ft := newFakeTarget(t, 5)
	d := New(&fakeBuffers{t: ft})
	ctx := context.Background()
	d.Dispatch(ctx, gridwalk.Action{Kind: gridwalk.ActionPinColumn})
	assert.Equal(t, []int{0}, ft.v.PinnedColumns())
	d.Dispatch(ctx, gridwalk.Action{Kind: gridwalk.ActionUnpinAll})
	assert.Empty(t, ft.v.PinnedColumns())
}

func TestFailedExecuteQueryOnEmptyTextLeavesStateUnchanged(t *testing.T) {
	ft := newFakeTarget(t, 5)
	ft.sm.Transition(state.CommandNormalState(), "init")
	ft.input = ""
	d := New(&fakeBuffers{t: ft})
	d.Dispatch(context.Background(), gridwalk.Action{Kind: gridwalk.ActionExecuteQuery})
	assert.True(t, d.Status().IsError)
	assert.Equal(t, state.KindCommand, ft.sm.Current().Kind)
}

func TestStartSearchInputCancelRestoresNormal(t *testing.T) {
	ft := newFakeTarget(t, 5)
	d := New(&fakeBuffers{t: ft})
	ctx := context.Background()

	d.Dispatch(ctx, gridwalk.Action{Kind: gridwalk.ActionStartSearch, SearchMode: gridwalk.SearchFuzzy})
	assert.Equal(t, state.ResultsFuzzyFilter, ft.sm.Current().ResultsSub)

	d.Dispatch(ctx, gridwalk.Action{Kind: gridwalk.ActionSearchInput, Key: 'r'})
	d.Dispatch(ctx, gridwalk.Action{Kind: gridwalk.ActionSearchInput, Key: 'o'})
	d.Dispatch(ctx, gridwalk.Action{Kind: gridwalk.ActionSearchInput, Key: 'w'})
	assert.NotNil(t, ft.v.Filter())

	d.Dispatch(ctx, gridwalk.Action{Kind: gridwalk.ActionSearchCancel})
	assert.Equal(t, state.ResultsNormal, ft.sm.Current().ResultsSub)
	assert.Nil(t, ft.v.Filter())
}

func TestVimSearchAcceptThenNextMatchWraps(t *testing.T) {
	ft := newFakeTarget(t, 5)
	d := New(&fakeBuffers{t: ft})
	ctx := context.Background()

	d.Dispatch(ctx, gridwalk.Action{Kind: gridwalk.ActionStartSearch, SearchMode: gridwalk.SearchVim})
	d.Dispatch(ctx, gridwalk.Action{Kind: gridwalk.ActionSearchInput, Key: 'r'})
	d.Dispatch(ctx, gridwalk.Action{Kind: gridwalk.ActionSearchAccept})
	require.Equal(t, state.VimNavigating, ft.sm.Current().VimPhase)
	total := ft.sm.Current().MatchTotal
	require.Equal(t, ft.v.RowCount(), total)

	for i := 0; i < total; i++ {
		d.Dispatch(ctx, gridwalk.Action{Kind: gridwalk.ActionNextMatch})
	}
	assert.Equal(t, 0, ft.sm.Current().MatchCurrent)
}

func TestExportSetsStatusMessage(t *testing.T) {
	ft := newFakeTarget(t, 3)
	d := New(&fakeBuffers{t: ft})
	d.Dispatch(context.Background(), gridwalk.Action{Kind: gridwalk.ActionExport, Export: gridwalk.ExportCSV, Path: "/tmp/out.csv"})
	assert.False(t, d.Status().IsError)
	assert.Contains(t, d.Status().Message, "/tmp/out.csv")
}

func TestRegexFilterDispatchNarrowsRows(t *testing.T) {
	ctx := context.Background()
	cfg := gridwalk.DefaultConfig()
	db, err := sql.Open("duckdb", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	header := []string{"id", "name"}
	rows := [][]string{{"1", "alpha"}, {"2", "beta"}, {"3", "gamma"}}
	dt, err := table.Load(ctx, db, cfg, header, rows)
	require.NoError(t, err)
	v := view.NewIdentityView(dt)
	vp := viewport.New(v, cfg.Viewport)
	vp.SetTerminalSize(14, 80)
	ft := &fakeTarget{v: v, vp: vp, sm: state.New()}
	d := New(&fakeBuffers{t: ft})

	d.Dispatch(ctx, gridwalk.Action{Kind: gridwalk.ActionStartSearch, SearchMode: gridwalk.SearchRegex})
	assert.Equal(t, state.ResultsRegexFilter, ft.sm.Current().ResultsSub)

	for _, r := range "alpha" {
		d.Dispatch(ctx, gridwalk.Action{Kind: gridwalk.ActionSearchInput, Key: r})
	}
	require.False(t, d.Status().IsError)
	require.NotNil(t, ft.v.Filter())
	assert.Equal(t, view.FilterRegex, ft.v.Filter().Mode)
	assert.Equal(t, 1, ft.v.RowCount())

	d.Dispatch(ctx, gridwalk.Action{Kind: gridwalk.ActionSearchCancel})
	assert.Nil(t, ft.v.Filter())
	assert.Equal(t, 3, ft.v.RowCount())
}

func TestRegexFilterDispatchInvalidPatternSetsErrorStatus(t *testing.T) {
	ft := newFakeTarget(t, 3)
	d := New(&fakeBuffers{t: ft})
	ctx := context.Background()

	d.Dispatch(ctx, gridwalk.Action{Kind: gridwalk.ActionStartSearch, SearchMode: gridwalk.SearchRegex})
	d.Dispatch(ctx, gridwalk.Action{Kind: gridwalk.ActionSearchInput, Key: '('})
	assert.True(t, d.Status().IsError)
}

func TestCloseBufferSetsQuit(t *testing.T) {
	ft := newFakeTarget(t, 1)
	d := New(&fakeBuffers{t: ft})
	d.Dispatch(context.Background(), gridwalk.Action{Kind: gridwalk.ActionCloseBuffer})
	assert.True(t, d.ShouldQuit())
}
