package dispatch

import (
	"testing"

	"github.com/gridwalk-cli/gridwalk"
	"github.com/gridwalk-cli/gridwalk/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultsCtx(s state.State, count int) ActionContext {
	return ActionContext{State: s, HasResults: true, CountPrefix: count}
}

func TestCountPrefixAccumulatesAndAppliesToMotion(t *testing.T) {
	ctx := resultsCtx(state.ResultsNormalState(), 0)
	r1 := MapKey(ctx, KeyEvent{Rune: '4'})
	assert.Nil(t, r1.Action)
	assert.Equal(t, 4, r1.NextCountPrefix)

	ctx.CountPrefix = r1.NextCountPrefix
	r2 := MapKey(ctx, KeyEvent{Rune: '2'})
	assert.Nil(t, r2.Action)
	assert.Equal(t, 42, r2.NextCountPrefix)

	ctx.CountPrefix = r2.NextCountPrefix
	r3 := MapKey(ctx, KeyEvent{Rune: 'j'})
	require.NotNil(t, r3.Action)
	assert.Equal(t, gridwalk.ActionMoveCursor, r3.Action.Kind)
	assert.Equal(t, 42, r3.Action.Count)
	assert.Equal(t, 0, r3.NextCountPrefix)
}

func TestBareZeroJumpsColumnFirstNotCountPrefix(t *testing.T) {
	ctx := resultsCtx(state.ResultsNormalState(), 0)
	r := MapKey(ctx, KeyEvent{Rune: '0'})
	require.NotNil(t, r.Action)
	assert.Equal(t, gridwalk.ActionJumpTo, r.Action.Kind)
	assert.Equal(t, gridwalk.JumpColFirst, r.Action.Jump)
}

func TestLeadingNonzeroThenZeroAccumulates(t *testing.T) {
	ctx := resultsCtx(state.ResultsNormalState(), 1)
	r := MapKey(ctx, KeyEvent{Rune: '0'})
	assert.Nil(t, r.Action)
	assert.Equal(t, 10, r.NextCountPrefix)
}

func TestNKeyTogglesLineNumbersWhenSearchNotNavigating(t *testing.T) {
	ctx := resultsCtx(state.ResultsNormalState(), 0)
	r := MapKey(ctx, KeyEvent{Rune: 'N'})
	require.NotNil(t, r.Action)
	assert.Equal(t, gridwalk.ActionToggleLineNumbers, r.Action.Kind)
}

func TestNKeyNavigatesMatchWhenSearchNavigating(t *testing.T) {
	s := state.VimSearchNavigatingState("abc", 0, 3)
	ctx := resultsCtx(s, 0)
	r := MapKey(ctx, KeyEvent{Rune: 'N'})
	require.NotNil(t, r.Action)
	assert.Equal(t, gridwalk.ActionPrevMatch, r.Action.Kind)

	rn := MapKey(ctx, KeyEvent{Rune: 'n'})
	require.NotNil(t, rn.Action)
	assert.Equal(t, gridwalk.ActionNextMatch, rn.Action.Kind)
}

func TestLowercaseNIsNoopWhenNotNavigating(t *testing.T) {
	ctx := resultsCtx(state.ResultsNormalState(), 0)
	r := MapKey(ctx, KeyEvent{Rune: 'n'})
	assert.Nil(t, r.Action)
}

func TestPlainRuneRoutesToSearchInputDuringFuzzyFilter(t *testing.T) {
	ctx := resultsCtx(state.FuzzyFilterState("a"), 0)
	r := MapKey(ctx, KeyEvent{Rune: 'b'})
	require.NotNil(t, r.Action)
	assert.Equal(t, gridwalk.ActionSearchInput, r.Action.Kind)
	assert.Equal(t, 'b', r.Action.Key)
}

func TestCollidingRuneRoutesToSearchInputDuringFuzzyFilter(t *testing.T) {
	ctx := resultsCtx(state.FuzzyFilterState("a"), 0)
	r := MapKey(ctx, KeyEvent{Rune: 'f'})
	require.NotNil(t, r.Action)
	assert.Equal(t, gridwalk.ActionSearchInput, r.Action.Kind)
	assert.Equal(t, 'f', r.Action.Key)
}

func TestCollidingRuneRoutesToSearchInputDuringVimSearchTyping(t *testing.T) {
	ctx := resultsCtx(state.VimSearchTypingState("a"), 0)
	r := MapKey(ctx, KeyEvent{Rune: 's'})
	require.NotNil(t, r.Action)
	assert.Equal(t, gridwalk.ActionSearchInput, r.Action.Kind)
	assert.Equal(t, 's', r.Action.Key)
}

func TestDigitRoutesToSearchInputDuringJumpToRow(t *testing.T) {
	ctx := resultsCtx(state.JumpToRowState("4"), 0)
	r := MapKey(ctx, KeyEvent{Rune: '2'})
	require.NotNil(t, r.Action)
	assert.Equal(t, gridwalk.ActionSearchInput, r.Action.Kind)
	assert.Equal(t, '2', r.Action.Key)
	assert.Equal(t, 0, r.NextCountPrefix)
}

func TestDigitRoutesToSearchInputDuringRegexFilter(t *testing.T) {
	ctx := resultsCtx(state.RegexFilterState("a"), 0)
	r := MapKey(ctx, KeyEvent{Rune: '1'})
	require.NotNil(t, r.Action)
	assert.Equal(t, gridwalk.ActionSearchInput, r.Action.Kind)
	assert.Equal(t, '1', r.Action.Key)
}

func TestUppercaseFStartsRegexFilter(t *testing.T) {
	ctx := resultsCtx(state.ResultsNormalState(), 0)
	r := MapKey(ctx, KeyEvent{Rune: 'F'})
	require.NotNil(t, r.Action)
	assert.Equal(t, gridwalk.ActionStartSearch, r.Action.Kind)
	assert.Equal(t, gridwalk.SearchRegex, r.Action.SearchMode)
}

func TestGlobalHelpKeyWorksFromAnyMode(t *testing.T) {
	ctx := resultsCtx(state.ResultsNormalState(), 0)
	r := MapKey(ctx, KeyEvent{Special: KeyF1})
	require.NotNil(t, r.Action)
	assert.Equal(t, gridwalk.ActionShowHelp, r.Action.Kind)
}

func TestCommandModeEnterExecutesQuery(t *testing.T) {
	ctx := ActionContext{State: state.CommandNormalState()}
	r := MapKey(ctx, KeyEvent{Special: KeyEnter})
	require.NotNil(t, r.Action)
	assert.Equal(t, gridwalk.ActionExecuteQuery, r.Action.Kind)
}
