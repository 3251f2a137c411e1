package gridwalk

// Axis distinguishes row vs column cursor movement.
type Axis string

const (
	AxisRow Axis = "row"
	AxisCol Axis = "col"
)

// JumpTarget enumerates the fixed destinations for the JumpTo action.
type JumpTarget string

const (
	JumpFirst   JumpTarget = "first"
	JumpLast    JumpTarget = "last"
	JumpRow     JumpTarget = "row"
	JumpColFirst JumpTarget = "col_first"
	JumpColLast  JumpTarget = "col_last"
)

// SearchKind enumerates the four search/filter sub-modes a StartSearch
// action can enter.
type SearchKind string

const (
	SearchVim    SearchKind = "vim"
	SearchColumn SearchKind = "column"
	SearchFuzzy  SearchKind = "fuzzy"
	SearchRegex  SearchKind = "regex"
)

// ExportKind enumerates the supported export formats.
type ExportKind string

const (
	ExportCSV  ExportKind = "csv"
	ExportJSON ExportKind = "json"
)

// SortCycle enumerates Sort's cycling target: None clears, otherwise sort the
// given column, flipping direction on repeated invocation (asc->desc->none
// is implemented by the dispatcher, not encoded in the action itself).
type SortCycle string

const (
	SortNone    SortCycle = "none"
	SortCurrent SortCycle = "current_column"
)

// ActionKind discriminates the closed set of Actions. Every keyboard-triggered
// mutation goes through one of these; there is no other path that may mutate
// DataView, ViewportManager, or StateManager.
type ActionKind string

const (
	ActionMoveCursor        ActionKind = "MoveCursor"
	ActionPageMove          ActionKind = "PageMove"
	ActionJumpTo            ActionKind = "JumpTo"
	ActionToggleLineNumbers ActionKind = "ToggleLineNumbers"
	ActionToggleCompact     ActionKind = "ToggleCompact"
	ActionToggleCursorLock  ActionKind = "ToggleCursorLock"
	ActionToggleViewportLock ActionKind = "ToggleViewportLock"
	ActionToggleSelectionMode ActionKind = "ToggleSelectionMode"
	ActionPinColumn         ActionKind = "PinColumn"
	ActionUnpinAll          ActionKind = "UnpinAll"
	ActionHideColumn        ActionKind = "HideColumn"
	ActionUnhideAll         ActionKind = "UnhideAll"
	ActionMoveColumn        ActionKind = "MoveColumn"
	ActionSort              ActionKind = "Sort"
	ActionStartSearch       ActionKind = "StartSearch"
	ActionSearchInput       ActionKind = "SearchInput"
	ActionSearchAccept      ActionKind = "SearchAccept"
	ActionSearchCancel      ActionKind = "SearchCancel"
	ActionNextMatch         ActionKind = "NextMatch"
	ActionPrevMatch         ActionKind = "PrevMatch"
	ActionApplyFilter       ActionKind = "ApplyFilter"
	ActionClearFilter       ActionKind = "ClearFilter"
	ActionExecuteQuery      ActionKind = "ExecuteQuery"
	ActionExport            ActionKind = "Export"
	ActionOpenBuffer        ActionKind = "OpenBuffer"
	ActionCloseBuffer       ActionKind = "CloseBuffer"
	ActionSwitchBuffer      ActionKind = "SwitchBuffer"
	ActionShowHelp          ActionKind = "ShowHelp"
	ActionShowDebug         ActionKind = "ShowDebug"
	ActionShowPrettyQuery   ActionKind = "ShowPrettyQuery"
	ActionQuit              ActionKind = "Quit"
)

// Action is the single mutation unit produced by the KeyMapper and consumed
// by the ActionDispatcher. Only the fields relevant to Kind are populated;
// this mirrors a tagged union via a flat, zero-value-safe struct.
type Action struct {
	Kind ActionKind

	Axis  Axis
	Delta int
	Count int

	Jump JumpTarget
	Row  int

	ColumnIndex int
	MoveDelta   int // ±1 for MoveColumn

	SearchMode SearchKind
	Key        rune
	Pattern    string

	Export ExportKind
	Path   string

	BufferIndex int
}
