package domain

// Outbound notifications from the editing surface.
const (
	EventElementCreated      = "slide:element:created"
	EventElementsChanged     = "slide:elements:changed"
	EventSelectionChanged    = "fabric:selection-changed"
	EventFormatChange        = "toolbar:format-change"
	EventBackgroundUpdated   = "activity:background:updated"
	EventAnimationFinished   = "fabric:animation-finished"
	EventHistoryChanged      = "fabric:history-changed"
	EventTextSelectionChange = "fabric:text-selection-changed"
)

// Inbound commands handled by the editor.
const (
	CmdSetBackgroundColor = "fabric:set-background-color"
	CmdSetBackgroundImage = "fabric:set-background-image"
	CmdUpdateDisplayOrder = "fabric:update-display-order"
	CmdPreviewAnimation   = "fabric:preview-animation"
	CmdSetAnimation       = "fabric:set-animation"
	CmdResetAnimation     = "fabric:reset-animation"
	CmdUndo               = "fabric:undo"
	CmdRedo               = "fabric:redo"
)

// Inbound commands handled by the toolbar.
const (
	CmdAddTextbox    = "fabric:add-textbox"
	CmdAddImage      = "fabric:add-image"
	CmdAddRect       = "fabric:add-rect"
	CmdAddCircle     = "fabric:add-circle"
	CmdAddTriangle   = "fabric:add-triangle"
	CmdAddArrow      = "fabric:add-arrow"
	CmdToggleStyle   = "fabric:toggle-style"
	CmdFontSize      = "fabric:font-size"
	CmdFontFamily    = "fabric:font-family"
	CmdChangeAlign   = "fabric:change-align"
	CmdTextTransform = "fabric:text-transform"
	CmdChangeColor   = "fabric:change-color"
	CmdArrange       = "fabric:arrange"
	CmdAlignElement  = "fabric:align-element"
	CmdGroup         = "fabric:group"
	CmdUngroup       = "fabric:ungroup"
	CmdClear         = "fabric:clear"
	CmdDelete        = "fabric:delete"
)

// SelectionChanged is the payload of EventSelectionChanged.
type SelectionChanged struct {
	SlideID       string  `json:"slideId"`
	ObjectID      string  `json:"objectId,omitempty"`
	AnimationName *string `json:"animationName,omitempty"`
}

// FormatState is the payload of EventFormatChange.
type FormatState struct {
	Bold          bool    `json:"bold"`
	Italic        bool    `json:"italic"`
	Underline     bool    `json:"underline"`
	Alignment     string  `json:"alignment"`
	FontFamily    string  `json:"fontFamily,omitempty"`
	FontSize      float64 `json:"fontSize,omitempty"`
	TextTransform string  `json:"textTransform,omitempty"`
}

// TextSelection is the payload of EventTextSelectionChange.
type TextSelection struct {
	ObjectID string `json:"objectId"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Editing  bool   `json:"editing"`
}

// ElementCreated is the payload of EventElementCreated.
type ElementCreated struct {
	SlideID  string       `json:"slideId"`
	ObjectID string       `json:"objectId"`
	Element  SlideElement `json:"element"`
}

// AnimationCommand is the payload of the preview/set/reset animation commands.
type AnimationCommand struct {
	ObjectID  string   `json:"objectId,omitempty"`
	Animation string   `json:"animation,omitempty"`
	Exit      bool     `json:"exit,omitempty"`
	Duration  *float64 `json:"duration,omitempty"`
	Delay     *float64 `json:"delay,omitempty"`
}

// HistoryState is the payload of EventHistoryChanged.
type HistoryState struct {
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
}

// AnimationFinished is the payload of EventAnimationFinished.
type AnimationFinished struct {
	ObjectID  string `json:"objectId"`
	Animation string `json:"animation"`
}

// DisplayOrderUpdate is the payload of CmdUpdateDisplayOrder. Elements are matched
// by slideElementId.
type DisplayOrderUpdate struct {
	SlideID  string         `json:"slideId"`
	Elements []SlideElement `json:"elements"`
}

// ToolbarCommand is the payload shared by the toolbar commands. Each command reads
// the one field it needs.
type ToolbarCommand struct {
	Style     string  `json:"style,omitempty"`     // bold | italic | underline
	Size      float64 `json:"size,omitempty"`      // font size in pixels
	Family    string  `json:"family,omitempty"`    // font family
	Align     string  `json:"align,omitempty"`     // left | center | right | justify
	Transform string  `json:"transform,omitempty"` // none | uppercase | lowercase | capitalize
	Color     string  `json:"color,omitempty"`
	Action    string  `json:"action,omitempty"`    // bringToFront | bringForward | sendBackwards | sendToBack
	AlignType string  `json:"alignType,omitempty"` // center-h | center-v | center-both
	Src       string  `json:"src,omitempty"`
}
