package domain

import (
	"context"
	"time"
)

type ElementType string

const (
	ElementTypeText  ElementType = "TEXT"
	ElementTypeImage ElementType = "IMAGE"
)

// AnimationNone is an explicit "no animation" choice, distinct from an unset field.
const AnimationNone = "none"

// SlideElement is the persisted unit. Geometry is in percent of the reference canvas;
// fontSize values inside Content are in percent of the font reference width.
type SlideElement struct {
	SlideElementID   string      `json:"slideElementId,omitempty"`
	SlideElementType ElementType `json:"slideElementType"`
	PositionX        float64     `json:"positionX"`
	PositionY        float64     `json:"positionY"`
	Width            float64     `json:"width"`
	Height           float64     `json:"height"`
	Rotation         float64     `json:"rotation"`
	LayerOrder       int         `json:"layerOrder"`
	DisplayOrder     int         `json:"displayOrder"`
	Content          *string     `json:"content,omitempty"`   // TEXT only: JSON-encoded TextContent
	SourceURL        *string     `json:"sourceUrl,omitempty"` // IMAGE only

	EntryAnimation         *string  `json:"entryAnimation,omitempty"`
	EntryAnimationDuration *float64 `json:"entryAnimationDuration,omitempty"`
	EntryAnimationDelay    *float64 `json:"entryAnimationDelay,omitempty"`
	ExitAnimation          *string  `json:"exitAnimation,omitempty"`
	ExitAnimationDuration  *float64 `json:"exitAnimationDuration,omitempty"`
	ExitAnimationDelay     *float64 `json:"exitAnimationDelay,omitempty"`

	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Validate checks the content/sourceUrl pairing against the element type and, for
// text, the content document itself.
func (e *SlideElement) Validate() error {
	switch e.SlideElementType {
	case ElementTypeText:
		if e.Content == nil || e.SourceURL != nil {
			return ErrInvalidElement
		}
		if _, err := ParseTextContent(*e.Content); err != nil {
			return err
		}
	case ElementTypeImage:
		if e.SourceURL == nil || *e.SourceURL == "" || e.Content != nil {
			return ErrInvalidElement
		}
	default:
		return ErrUnsupportedElement
	}
	return nil
}

// Merge copies server-assigned fields from res into e. Zero values in res leave e untouched.
func (e *SlideElement) Merge(res *SlideElement) {
	if res == nil {
		return
	}
	if res.SlideElementID != "" {
		e.SlideElementID = res.SlideElementID
	}
	if !res.CreatedAt.IsZero() {
		e.CreatedAt = res.CreatedAt
	}
	if !res.UpdatedAt.IsZero() {
		e.UpdatedAt = res.UpdatedAt
	}
}

// Background is the slide fill: a color, an image drawn with cover fit, or both.
type Background struct {
	Color string `json:"backgroundColor,omitempty" validate:"omitempty,hexcolor"`
	Image string `json:"backgroundImage,omitempty"`
}

// Slide owns an ordered set of elements. Transition fields are carried through untouched.
type Slide struct {
	ID                 string         `json:"slideId"`
	Background         Background     `json:"background"`
	TransitionEffect   string         `json:"transitionEffect,omitempty"`
	TransitionDuration float64        `json:"transitionDuration,omitempty"`
	AutoAdvanceSeconds float64        `json:"autoAdvanceSeconds,omitempty"`
	Elements           []SlideElement `json:"slideElements"`
	CreatedAt          time.Time      `json:"createdAt,omitzero"`
	UpdatedAt          time.Time      `json:"updatedAt,omitzero"`
}

// SlideUpdate is handed to the editor's update callback. Only one field is set per call.
type SlideUpdate struct {
	SlideID    string         `json:"slideId"`
	Elements   []SlideElement `json:"slideElements,omitempty"`
	Background *Background    `json:"background,omitempty"`
}

// ElementAPI is the external slide-element store consumed by the editor.
type ElementAPI interface {
	CreateSlideElement(ctx context.Context, slideID string, payload SlideElement) (*SlideElement, error)
	UpdateSlideElement(ctx context.Context, slideID, elementID string, payload SlideElement) (*SlideElement, error)
	DeleteSlideElement(ctx context.Context, slideID, elementID string) error
}

// SlideStore persists slides and their elements.
type SlideStore interface {
	GetSlide(ctx context.Context, id string) (*Slide, error)
	SaveSlide(ctx context.Context, s *Slide) error
	ListElements(ctx context.Context, slideID string) ([]SlideElement, error)
	ElementAPI
}

func StringPtr(s string) *string { return &s }

func FloatPtr(f float64) *float64 { return &f }

func BoolPtr(b bool) *bool { return &b }
