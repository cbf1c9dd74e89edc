package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"unicode"
)

// TextStyle is the complete style of a run. FontSize is in whatever unit the holder uses:
// pixels on a live object, percent of the font reference width inside TextContent.
type TextStyle struct {
	FontFamily string  `json:"fontFamily"`
	FontSize   float64 `json:"fontSize"`
	FontWeight string  `json:"fontWeight"`
	FontStyle  string  `json:"fontStyle"`
	Fill       string  `json:"fill"`
	Underline  bool    `json:"underline"`
}

func (s TextStyle) Bold() bool   { return s.FontWeight == "bold" }
func (s TextStyle) Italic() bool { return s.FontStyle == "italic" }

// StyleOverride holds only the properties that differ from a run default.
type StyleOverride struct {
	FontFamily *string  `json:"fontFamily,omitempty"`
	FontSize   *float64 `json:"fontSize,omitempty"`
	FontWeight *string  `json:"fontWeight,omitempty"`
	FontStyle  *string  `json:"fontStyle,omitempty"`
	Underline  *bool    `json:"underline,omitempty"`
	Fill       *string  `json:"fill,omitempty" validate:"omitempty,hexcolor"`
}

func (o StyleOverride) IsEmpty() bool {
	return o.FontFamily == nil && o.FontSize == nil && o.FontWeight == nil &&
		o.FontStyle == nil && o.Underline == nil && o.Fill == nil
}

// Apply layers o over base.
func (o StyleOverride) Apply(base TextStyle) TextStyle {
	if o.FontFamily != nil {
		base.FontFamily = *o.FontFamily
	}
	if o.FontSize != nil {
		base.FontSize = *o.FontSize
	}
	if o.FontWeight != nil {
		base.FontWeight = *o.FontWeight
	}
	if o.FontStyle != nil {
		base.FontStyle = *o.FontStyle
	}
	if o.Underline != nil {
		base.Underline = *o.Underline
	}
	if o.Fill != nil {
		base.Fill = *o.Fill
	}
	return base
}

// Diff returns the override that turns base into s.
func Diff(base, s TextStyle) StyleOverride {
	var o StyleOverride
	if s.FontFamily != base.FontFamily {
		v := s.FontFamily
		o.FontFamily = &v
	}
	if s.FontSize != base.FontSize {
		v := s.FontSize
		o.FontSize = &v
	}
	if s.FontWeight != base.FontWeight {
		v := s.FontWeight
		o.FontWeight = &v
	}
	if s.FontStyle != base.FontStyle {
		v := s.FontStyle
		o.FontStyle = &v
	}
	if s.Underline != base.Underline {
		v := s.Underline
		o.Underline = &v
	}
	if s.Fill != base.Fill {
		v := s.Fill
		o.Fill = &v
	}
	return o
}

// StyleSegment covers the half-open rune range [Start, End).
type StyleSegment struct {
	Start int           `json:"start"`
	End   int           `json:"end"`
	Style StyleOverride `json:"style"`
}

// TextContent is the JSON document stored in SlideElement.Content for TEXT elements.
type TextContent struct {
	Text          string         `json:"text"`
	FontFamily    string         `json:"fontFamily"`
	FontSize      float64        `json:"fontSize"` // percent of the font reference width
	FontWeight    string         `json:"fontWeight"`
	FontStyle     string         `json:"fontStyle"`
	Fill          string         `json:"fill" validate:"omitempty,hexcolor"`
	TextAlign     string         `json:"textAlign" validate:"omitempty,oneof=left center right justify"`
	Underline     bool           `json:"underline"`
	TextTransform string         `json:"textTransform,omitempty"`
	Styles        []StyleSegment `json:"styles" validate:"dive"`
}

func (c TextContent) Default() TextStyle {
	return TextStyle{
		FontFamily: c.FontFamily,
		FontSize:   c.FontSize,
		FontWeight: c.FontWeight,
		FontStyle:  c.FontStyle,
		Fill:       c.Fill,
		Underline:  c.Underline,
	}
}

// TextRun is a contiguous, uniformly styled slice of the text.
type TextRun struct {
	Start int
	End   int
	Text  string
	Style TextStyle
}

// Runs rebuilds the ordered run list: every serialized segment in order, with the gaps
// between them filled by the default style. Runs exactly cover [0, len(text)).
func (c TextContent) Runs() []TextRun {
	runes := []rune(c.Text)
	n := len(runes)
	def := c.Default()

	segs := make([]StyleSegment, len(c.Styles))
	copy(segs, c.Styles)
	sort.SliceStable(segs, func(i, j int) bool { return segs[i].Start < segs[j].Start })

	var runs []TextRun
	pos := 0
	for _, seg := range segs {
		start, end := max(seg.Start, pos), min(seg.End, n)
		if start >= end {
			continue
		}
		if start > pos {
			runs = append(runs, TextRun{Start: pos, End: start, Text: string(runes[pos:start]), Style: def})
		}
		runs = append(runs, TextRun{Start: start, End: end, Text: string(runes[start:end]), Style: seg.Style.Apply(def)})
		pos = end
	}
	if pos < n {
		runs = append(runs, TextRun{Start: pos, End: n, Text: string(runes[pos:]), Style: def})
	}
	return runs
}

// ParseTextContent decodes a TEXT element's content and checks its segments.
func ParseTextContent(raw string) (TextContent, error) {
	var c TextContent
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return c, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	n := len([]rune(c.Text))
	prev := 0
	for i, s := range c.Styles {
		if s.Start < prev || s.End <= s.Start || s.End > n {
			return c, fmt.Errorf("%w: segment %d [%d,%d) out of order or range", ErrInvalidContent, i, s.Start, s.End)
		}
		prev = s.End
	}
	if err := validate.Struct(c); err != nil {
		return c, fmt.Errorf("%w: %s", ErrInvalidContent, fieldErrors(err))
	}
	return c, nil
}

// Encode returns the JSON form stored in SlideElement.Content.
func (c TextContent) Encode() (string, error) {
	if c.Styles == nil {
		c.Styles = []StyleSegment{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal text content: %w", err)
	}
	return string(data), nil
}

// TransformText applies a whole-text case transform rune by rune, so rune indices
// of the result line up with the input.
func TransformText(text, transform string) string {
	runes := []rune(text)
	for i, r := range runes {
		switch transform {
		case "uppercase":
			runes[i] = unicode.ToUpper(r)
		case "lowercase":
			runes[i] = unicode.ToLower(r)
		case "capitalize":
			if i == 0 || unicode.IsSpace(runes[i-1]) {
				runes[i] = unicode.ToUpper(r)
			}
		}
	}
	return string(runes)
}
