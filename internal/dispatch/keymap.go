// Package dispatch implements KeyMapper (a pure function from key events to
// Actions) and ActionDispatcher (the sole mutator of DataView, Buffer,
// ViewportManager, and StateManager). No other code path may apply a
// keyboard-triggered mutation; this is the "Action pattern replaces
// dispersed key handling" design rule.
package dispatch

import (
	"github.com/gridwalk-cli/gridwalk"
	"github.com/gridwalk-cli/gridwalk/internal/state"
)

// SpecialKey enumerates non-character key events.
type SpecialKey string

const (
	KeyNone   SpecialKey = ""
	KeyEnter  SpecialKey = "enter"
	KeyTab    SpecialKey = "tab"
	KeyEsc    SpecialKey = "esc"
	KeyUp     SpecialKey = "up"
	KeyDown   SpecialKey = "down"
	KeyLeft   SpecialKey = "left"
	KeyRight  SpecialKey = "right"
	KeyPgUp   SpecialKey = "pgup"
	KeyPgDn   SpecialKey = "pgdn"
	KeyHome   SpecialKey = "home"
	KeyEnd    SpecialKey = "end"
	KeyF1     SpecialKey = "f1"
	KeyF5     SpecialKey = "f5"
	KeyCtrlR  SpecialKey = "ctrl_r"
	KeyCtrlC  SpecialKey = "ctrl_c"
	KeyCtrlD  SpecialKey = "ctrl_d"
	KeyCtrlX  SpecialKey = "ctrl_x"
	KeyCtrlJ  SpecialKey = "ctrl_j"
)

// KeyEvent is a single keystroke from the terminal I/O layer (an external
// collaborator; this package only consumes already-decoded events).
type KeyEvent struct {
	Rune    rune
	Special SpecialKey
}

// ActionContext is the full input KeyMapper needs beyond the key itself.
// CountPrefix is threaded through by the caller between calls so KeyMapper
// can remain a pure function: same (ctx, key) always yields the same
// MapResult, with no hidden state inside this package.
type ActionContext struct {
	State         state.State
	HasResults    bool
	SelectionMode bool
	CountPrefix   int
}

// MapResult is KeyMapper's output: at most one Action, plus the count
// prefix the caller should carry into the next KeyEvent.
type MapResult struct {
	Action          *gridwalk.Action
	NextCountPrefix int
}

func noAction(nextPrefix int) MapResult { return MapResult{NextCountPrefix: nextPrefix} }

func emit(a gridwalk.Action, consumedPrefix int) MapResult {
	count := consumedPrefix
	if count == 0 {
		count = 1
	}
	a.Count = count
	return MapResult{Action: &a, NextCountPrefix: 0}
}

// MapKey is the pure KeyMapper function: (ActionContext, KeyEvent) -> Action?.
func MapKey(ctx ActionContext, key KeyEvent) MapResult {
	if digit, ok := navigationDigit(ctx, key); ok {
		return noAction(ctx.CountPrefix*10 + digit)
	}

	switch ctx.State.Kind {
	case state.KindCommand:
		return mapCommandKey(ctx, key)
	case state.KindResults:
		return mapResultsKey(ctx, key)
	default: // Help, Debug, PrettyQuery
		return mapGlobalOrDismiss(ctx, key)
	}
}

// navigationDigit recognizes a count-prefix digit: any '1'-'9', or '0' once
// a prefix has already started (vim convention — a bare '0' is the "first
// column" binding, not the start of a count). While a transient text-input
// sub-state is active (vim search typing, column search, fuzzy/regex filter,
// jump-to-row digit entry), digits belong to that input buffer instead, so
// this never fires and mapResultsKey routes them via isSearchInputRune.
func navigationDigit(ctx ActionContext, key KeyEvent) (int, bool) {
	if ctx.State.Kind != state.KindResults || key.Special != KeyNone {
		return 0, false
	}
	if isSearchInputRune(ctx) {
		return 0, false
	}
	if key.Rune < '0' || key.Rune > '9' {
		return 0, false
	}
	if key.Rune == '0' && ctx.CountPrefix == 0 {
		return 0, false
	}
	return int(key.Rune - '0'), true
}

func mapCommandKey(ctx ActionContext, key KeyEvent) MapResult {
	switch key.Special {
	case KeyEnter:
		return emit(gridwalk.Action{Kind: gridwalk.ActionExecuteQuery}, 0)
	case KeyTab:
		return emit(gridwalk.Action{Kind: gridwalk.ActionShowHelp}, 0) // Tab opens help; there is no tab-completion cycle
	case KeyCtrlR:
		return emit(gridwalk.Action{Kind: gridwalk.ActionStartSearch, SearchMode: gridwalk.SearchVim}, 0)
	case KeyUp:
		if !ctx.HasResults {
			return emit(gridwalk.Action{Kind: gridwalk.ActionStartSearch, SearchMode: gridwalk.SearchVim}, 0)
		}
		return emit(gridwalk.Action{Kind: gridwalk.ActionSwitchBuffer, Delta: -1}, 0)
	case KeyDown:
		if !ctx.HasResults {
			return emit(gridwalk.Action{Kind: gridwalk.ActionStartSearch, SearchMode: gridwalk.SearchVim}, 0)
		}
		return emit(gridwalk.Action{Kind: gridwalk.ActionSwitchBuffer, Delta: 1}, 0)
	case KeyEsc:
		return emit(gridwalk.Action{Kind: gridwalk.ActionSearchCancel}, 0)
	case KeyCtrlC, KeyCtrlD:
		return emit(gridwalk.Action{Kind: gridwalk.ActionQuit}, 0)
	default:
		return mapGlobal(ctx, key)
	}
}

func mapResultsKey(ctx ActionContext, key KeyEvent) MapResult {
	if g := mapGlobal(ctx, key); g.Action != nil {
		return g
	}

	if key.Special == KeyNone {
		// A transient text-input sub-mode claims every plain rune before any
		// of it can collide with a navigation/mutation binding below (e.g.
		// typing 'f' or 's' into a fuzzy-filter or vim-search pattern must
		// insert the character, not fire the Fuzzy/Sort binding).
		if isSearchInputRune(ctx) {
			return emit(gridwalk.Action{Kind: gridwalk.ActionSearchInput, Key: key.Rune}, 0)
		}
		switch key.Rune {
		case 'h':
			return emit(gridwalk.Action{Kind: gridwalk.ActionMoveCursor, Axis: gridwalk.AxisCol, Delta: -1}, ctx.CountPrefix)
		case 'l':
			return emit(gridwalk.Action{Kind: gridwalk.ActionMoveCursor, Axis: gridwalk.AxisCol, Delta: 1}, ctx.CountPrefix)
		case 'j':
			return emit(gridwalk.Action{Kind: gridwalk.ActionMoveCursor, Axis: gridwalk.AxisRow, Delta: 1}, ctx.CountPrefix)
		case 'k':
			return emit(gridwalk.Action{Kind: gridwalk.ActionMoveCursor, Axis: gridwalk.AxisRow, Delta: -1}, ctx.CountPrefix)
		case 'g':
			return emit(gridwalk.Action{Kind: gridwalk.ActionJumpTo, Jump: gridwalk.JumpFirst}, 0)
		case 'G':
			return emit(gridwalk.Action{Kind: gridwalk.ActionJumpTo, Jump: gridwalk.JumpLast}, 0)
		case '0':
			return emit(gridwalk.Action{Kind: gridwalk.ActionJumpTo, Jump: gridwalk.JumpColFirst}, 0)
		case '$':
			return emit(gridwalk.Action{Kind: gridwalk.ActionJumpTo, Jump: gridwalk.JumpColLast}, 0)
		case ' ':
			return emit(gridwalk.Action{Kind: gridwalk.ActionToggleViewportLock}, 0)
		case 'x':
			return emit(gridwalk.Action{Kind: gridwalk.ActionToggleCursorLock}, 0)
		case 'p':
			return emit(gridwalk.Action{Kind: gridwalk.ActionPinColumn}, 0)
		case 'P':
			return emit(gridwalk.Action{Kind: gridwalk.ActionUnpinAll}, 0)
		case 'H':
			return emit(gridwalk.Action{Kind: gridwalk.ActionHideColumn}, 0)
		case 'U':
			return emit(gridwalk.Action{Kind: gridwalk.ActionUnhideAll}, 0)
		case 's':
			return emit(gridwalk.Action{Kind: gridwalk.ActionSort}, 0)
		case '/':
			return emit(gridwalk.Action{Kind: gridwalk.ActionStartSearch, SearchMode: gridwalk.SearchVim}, 0)
		case '\\':
			return emit(gridwalk.Action{Kind: gridwalk.ActionStartSearch, SearchMode: gridwalk.SearchColumn}, 0)
		case 'f':
			return emit(gridwalk.Action{Kind: gridwalk.ActionStartSearch, SearchMode: gridwalk.SearchFuzzy}, 0)
		case 'F':
			return emit(gridwalk.Action{Kind: gridwalk.ActionStartSearch, SearchMode: gridwalk.SearchRegex}, 0)
		case 'n':
			if ctx.State.ResultsSub == state.ResultsVimSearch && ctx.State.VimPhase == state.VimNavigating {
				return emit(gridwalk.Action{Kind: gridwalk.ActionNextMatch}, 0)
			}
			return noAction(0)
		case 'N':
			if ctx.State.ResultsSub == state.ResultsVimSearch && ctx.State.VimPhase == state.VimNavigating {
				return emit(gridwalk.Action{Kind: gridwalk.ActionPrevMatch}, 0)
			}
			// Invariant: is_search_active(S)=false implies N toggles line
			// numbers, never PrevMatch — this is the bug class the single
			// StateManager enum exists to prevent.
			return emit(gridwalk.Action{Kind: gridwalk.ActionToggleLineNumbers}, 0)
		case ':':
			return emit(gridwalk.Action{Kind: gridwalk.ActionJumpTo, Jump: gridwalk.JumpRow, Row: -1}, 0)
		case 'v':
			return emit(gridwalk.Action{Kind: gridwalk.ActionToggleSelectionMode}, 0)
		case 'C':
			return emit(gridwalk.Action{Kind: gridwalk.ActionToggleCompact}, 0)
		case 'q':
			return emit(gridwalk.Action{Kind: gridwalk.ActionQuit}, 0)
		}
		return noAction(0)
	}

	switch key.Special {
	case KeyUp:
		return emit(gridwalk.Action{Kind: gridwalk.ActionMoveCursor, Axis: gridwalk.AxisRow, Delta: -1}, ctx.CountPrefix)
	case KeyDown:
		return emit(gridwalk.Action{Kind: gridwalk.ActionMoveCursor, Axis: gridwalk.AxisRow, Delta: 1}, ctx.CountPrefix)
	case KeyLeft:
		return emit(gridwalk.Action{Kind: gridwalk.ActionMoveCursor, Axis: gridwalk.AxisCol, Delta: -1}, ctx.CountPrefix)
	case KeyRight:
		return emit(gridwalk.Action{Kind: gridwalk.ActionMoveCursor, Axis: gridwalk.AxisCol, Delta: 1}, ctx.CountPrefix)
	case KeyPgUp:
		return emit(gridwalk.Action{Kind: gridwalk.ActionPageMove, Delta: -1}, ctx.CountPrefix)
	case KeyPgDn:
		return emit(gridwalk.Action{Kind: gridwalk.ActionPageMove, Delta: 1}, ctx.CountPrefix)
	case KeyHome:
		return emit(gridwalk.Action{Kind: gridwalk.ActionJumpTo, Jump: gridwalk.JumpColFirst}, 0)
	case KeyEnd:
		return emit(gridwalk.Action{Kind: gridwalk.ActionJumpTo, Jump: gridwalk.JumpColLast}, 0)
	case KeyEnter:
		return emit(gridwalk.Action{Kind: gridwalk.ActionSearchAccept}, 0)
	case KeyEsc:
		return emit(gridwalk.Action{Kind: gridwalk.ActionSearchCancel}, 0)
	case KeyCtrlX:
		return emit(gridwalk.Action{Kind: gridwalk.ActionExport, Export: gridwalk.ExportCSV}, 0)
	case KeyCtrlJ:
		return emit(gridwalk.Action{Kind: gridwalk.ActionExport, Export: gridwalk.ExportJSON}, 0)
	default:
		return noAction(0)
	}
}

// isSearchInputRune reports whether a plain character should be routed into
// the active transient input buffer (vim search, column search, fuzzy
// filter, or jump-to-row digit entry) rather than being ignored.
func isSearchInputRune(ctx ActionContext) bool {
	if ctx.State.Kind != state.KindResults {
		return false
	}
	switch ctx.State.ResultsSub {
	case state.ResultsVimSearch:
		return ctx.State.VimPhase == state.VimTyping
	case state.ResultsColumnSearch, state.ResultsFuzzyFilter, state.ResultsRegexFilter, state.ResultsJumpToRow:
		return true
	default:
		return false
	}
}

func mapGlobalOrDismiss(ctx ActionContext, key KeyEvent) MapResult {
	if g := mapGlobal(ctx, key); g.Action != nil {
		return g
	}
	if key.Special == KeyEsc {
		return emit(gridwalk.Action{Kind: gridwalk.ActionSearchCancel}, 0)
	}
	return noAction(0)
}

// mapGlobal handles bindings active regardless of mode.
func mapGlobal(ctx ActionContext, key KeyEvent) MapResult {
	switch key.Special {
	case KeyF1:
		return emit(gridwalk.Action{Kind: gridwalk.ActionShowHelp}, 0)
	case KeyF5:
		return emit(gridwalk.Action{Kind: gridwalk.ActionShowDebug}, 0)
	}
	return noAction(0)
}
