// Package state implements StateManager: a single hierarchical-enum value
// plus a bounded transition history, from which every mode predicate used
// elsewhere in the engine is derived. Nothing outside this package maintains
// its own "search active" or "mode" flag; the historical N-key bug class
// (stale booleans surviving a mode change) is eliminated by construction.
package state

import (
	"time"

	"go.uber.org/zap"
)

// Kind is the top level of the hierarchical state enum.
type Kind string

const (
	KindCommand     Kind = "command"
	KindResults     Kind = "results"
	KindHelp        Kind = "help"
	KindDebug       Kind = "debug"
	KindPrettyQuery Kind = "pretty_query"
)

// CommandSub enumerates Command's sub-states.
type CommandSub string

const (
	CommandNormal        CommandSub = "normal"
	CommandTabCompletion CommandSub = "tab_completion"
	CommandHistorySearch CommandSub = "history_search"
)

// ResultsSub enumerates Results' sub-states.
type ResultsSub string

const (
	ResultsNormal       ResultsSub = "normal"
	ResultsVimSearch    ResultsSub = "vim_search"
	ResultsColumnSearch ResultsSub = "column_search"
	ResultsFuzzyFilter  ResultsSub = "fuzzy_filter"
	ResultsRegexFilter  ResultsSub = "regex_filter"
	ResultsSelection    ResultsSub = "selection"
	ResultsJumpToRow    ResultsSub = "jump_to_row"
)

// VimSearchPhase enumerates Results(VimSearch)'s two phases.
type VimSearchPhase string

const (
	VimTyping     VimSearchPhase = "typing"
	VimNavigating VimSearchPhase = "navigating"
)

// SelectionKind enumerates Results(Selection)'s cycle of selection shapes.
type SelectionKind string

const (
	SelectionCell   SelectionKind = "cell"
	SelectionRow    SelectionKind = "row"
	SelectionColumn SelectionKind = "column"
	SelectionRange  SelectionKind = "range"
)

// State is the single algebraic value StateManager holds. Only the fields
// relevant to Kind (and ResultsSub, for Results) are populated, the same
// flat-tagged-union approach as gridwalk.Action.
type State struct {
	Kind Kind

	CommandSub     CommandSub
	HistoryPattern string

	ResultsSub   ResultsSub
	Pattern      string // VimSearch/ColumnSearch/FuzzyFilter pattern, or JumpToRow digits
	VimPhase     VimSearchPhase
	MatchCurrent int
	MatchTotal   int
	Selection    SelectionKind
}

func CommandNormalState() State     { return State{Kind: KindCommand, CommandSub: CommandNormal} }
func TabCompletionState() State     { return State{Kind: KindCommand, CommandSub: CommandTabCompletion} }
func HistorySearchState(p string) State {
	return State{Kind: KindCommand, CommandSub: CommandHistorySearch, HistoryPattern: p}
}

func ResultsNormalState() State { return State{Kind: KindResults, ResultsSub: ResultsNormal} }

func VimSearchTypingState(pattern string) State {
	return State{Kind: KindResults, ResultsSub: ResultsVimSearch, VimPhase: VimTyping, Pattern: pattern}
}

func VimSearchNavigatingState(pattern string, current, total int) State {
	return State{
		Kind: KindResults, ResultsSub: ResultsVimSearch, VimPhase: VimNavigating,
		Pattern: pattern, MatchCurrent: current, MatchTotal: total,
	}
}

func ColumnSearchState(pattern string) State {
	return State{Kind: KindResults, ResultsSub: ResultsColumnSearch, Pattern: pattern}
}

func FuzzyFilterState(pattern string) State {
	return State{Kind: KindResults, ResultsSub: ResultsFuzzyFilter, Pattern: pattern}
}

func RegexFilterState(pattern string) State {
	return State{Kind: KindResults, ResultsSub: ResultsRegexFilter, Pattern: pattern}
}

func SelectionState(kind SelectionKind) State {
	return State{Kind: KindResults, ResultsSub: ResultsSelection, Selection: kind}
}

func JumpToRowState(digits string) State {
	return State{Kind: KindResults, ResultsSub: ResultsJumpToRow, Pattern: digits}
}

func HelpState() State        { return State{Kind: KindHelp} }
func DebugState() State       { return State{Kind: KindDebug} }
func PrettyQueryState() State { return State{Kind: KindPrettyQuery} }

// Transition is one recorded history entry.
type Transition struct {
	Timestamp time.Time
	State     State
	Trigger   string
}

const historyCapacity = 100
const stackCapacity = 8

// frame is a pushed state plus whatever crosshair/input-cursor snapshot the
// dispatcher captured at push time, opaque to StateManager itself.
type frame struct {
	state    State
	snapshot map[string]any
}

// Manager owns the single current State, a bounded transition history ring,
// and a bounded stack for nested transient sub-modes (search, filter, help).
type Manager struct {
	current State
	history []Transition
	stack   []frame
	now     func() time.Time
}

// New builds a Manager starting in Results(Normal), the state a freshly
// opened buffer presents.
func New() *Manager {
	return &Manager{current: ResultsNormalState(), now: time.Now}
}

// Current returns the current state.
func (m *Manager) Current() State { return m.current }

// Transition is StateManager's single entry point: it records history, logs
// the transition, and publishes the new state. Callers (ActionDispatcher)
// must perform any downstream coordination — clearing search patterns,
// resetting viewport, choosing key map — before calling Transition, so that
// one Transition call equals one logical step. Transitioning to the state
// that is already current records nothing further, so repeating a call is
// equivalent to making it once.
func (m *Manager) Transition(newState State, triggerTag string) {
	if newState == m.current && len(m.history) > 0 {
		return
	}
	m.current = newState
	m.appendHistory(newState, triggerTag)
	zap.S().Debugw("state transition", "trigger", triggerTag, "kind", newState.Kind, "resultsSub", newState.ResultsSub)
}

func (m *Manager) appendHistory(s State, trigger string) {
	entry := Transition{Timestamp: m.now(), State: s, Trigger: trigger}
	m.history = append(m.history, entry)
	if len(m.history) > historyCapacity {
		m.history = m.history[len(m.history)-historyCapacity:]
	}
}

// History returns the bounded transition ring, oldest first.
func (m *Manager) History() []Transition { return m.history }

// Push saves the current state (plus an opaque snapshot of whatever the
// caller wants restored on Pop, e.g. crosshair/input cursor) before entering
// a transient sub-mode. The stack is bounded to depth 8; a push beyond that
// collapses (drops) the oldest frame rather than growing further.
func (m *Manager) Push(snapshot map[string]any) {
	m.stack = append(m.stack, frame{state: m.current, snapshot: snapshot})
	if len(m.stack) > stackCapacity {
		m.stack = m.stack[len(m.stack)-stackCapacity:]
	}
}

// Pop restores the most recently pushed state and returns its snapshot. It
// is a no-op returning (nil, false) if the stack is empty.
func (m *Manager) Pop(triggerTag string) (map[string]any, bool) {
	if len(m.stack) == 0 {
		return nil, false
	}
	top := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	m.Transition(top.state, triggerTag)
	return top.snapshot, true
}

// IsSearchActive reports whether the current state is any of the four
// Results search/filter sub-modes.
func (m *Manager) IsSearchActive() bool {
	if m.current.Kind != KindResults {
		return false
	}
	switch m.current.ResultsSub {
	case ResultsVimSearch, ResultsColumnSearch, ResultsFuzzyFilter, ResultsRegexFilter:
		return true
	default:
		return false
	}
}

// ActiveSearchPattern returns the pattern of the active search/filter, if any.
func (m *Manager) ActiveSearchPattern() (string, bool) {
	if !m.IsSearchActive() {
		return "", false
	}
	return m.current.Pattern, true
}

// IsResultsMode reports whether the current state is any Results sub-state.
func (m *Manager) IsResultsMode() bool { return m.current.Kind == KindResults }

// ShouldNKeyNavigateSearch is true only in Results(VimSearch(Navigating)).
// This is the single predicate the key mapper consults to decide whether
// `n`/`N` means "next/prev match" or "toggle line numbers" — deriving it
// from one state value is what prevents the N-key bug class described in
// the design notes (a stale boolean surviving a mode change).
func (m *Manager) ShouldNKeyNavigateSearch() bool {
	return m.current.Kind == KindResults &&
		m.current.ResultsSub == ResultsVimSearch &&
		m.current.VimPhase == VimNavigating
}
