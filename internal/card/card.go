// Package card defines the Card domain model replicated between devices.
package card

import (
	"time"

	"github.com/google/uuid"
)

// MaxNotesChars is the notes length limit enforced at the editing boundary.
// The merge engine never validates notes; a longer value arriving from a
// remote replica is carried as-is.
const MaxNotesChars = 500

// FontStyle is the typeface variant used when rendering a card.
type FontStyle string

const (
	FontStyleElegant FontStyle = "elegant"
	FontStyleBook    FontStyle = "book"
	FontStyleApple   FontStyle = "apple"
)

// Category tags a card. It influences the default background color at
// creation time only; merge logic treats it as an opaque field.
type Category string

const (
	CategoryIdea          Category = "idea"
	CategoryReadings      Category = "readings"
	CategoryMiscellaneous Category = "miscellaneous"
)

// Card is the unit of replication. All style attributes are opaque to the
// merge engine. UpdatedAt is the single source of truth for conflict
// resolution: every mutation must advance it to the mutation's wall-clock
// time.
type Card struct {
	// ID is a UUID assigned at creation; immutable and never reused.
	ID string `json:"id"`

	// Text is the primary content.
	Text string `json:"text"`

	BackgroundColor string    `json:"backgroundColor"`
	TextColor       string    `json:"textColor"`
	FontStyle       FontStyle `json:"fontStyle"`
	Category        Category  `json:"category"`
	CornerRadius    int       `json:"cornerRadius"`

	// BorderColor is nil when the card has no border.
	BorderColor *string `json:"borderColor"`
	BorderWidth int     `json:"borderWidth"`

	// DPI is the export resolution.
	DPI int `json:"dpi"`

	// CreatedAt is set once at creation and never mutated.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt advances on every field mutation.
	UpdatedAt time.Time `json:"updatedAt"`

	// IsArchived soft-deletes the card. Archived cards keep replicating.
	IsArchived bool       `json:"isArchived"`
	ArchivedAt *time.Time `json:"archivedAt"`

	Notes string `json:"notes"`
}

// Creation defaults.
const (
	DefaultTextColor    = "#000000"
	DefaultCornerRadius = 12
	DefaultDPI          = 300
)

// DefaultBackground returns the background color a category implies at
// creation time.
func DefaultBackground(c Category) string {
	switch c {
	case CategoryReadings:
		return "#E3F2FD"
	case CategoryMiscellaneous:
		return "#F5F5F5"
	default:
		return "#FFF9C4"
	}
}

// ValidCategory reports whether c is one of the known category values.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryIdea, CategoryReadings, CategoryMiscellaneous:
		return true
	}
	return false
}

// ValidFontStyle reports whether f is one of the known font styles.
func ValidFontStyle(f FontStyle) bool {
	switch f {
	case FontStyleElegant, FontStyleBook, FontStyleApple:
		return true
	}
	return false
}

// New creates a card with a fresh UUID, creation-time defaults, and both
// timestamps set to now.
func New(text string, category Category, now time.Time) Card {
	if !ValidCategory(category) {
		category = CategoryIdea
	}
	return Card{
		ID:              uuid.NewString(),
		Text:            text,
		BackgroundColor: DefaultBackground(category),
		TextColor:       DefaultTextColor,
		FontStyle:       FontStyleElegant,
		Category:        category,
		CornerRadius:    DefaultCornerRadius,
		DPI:             DefaultDPI,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Clone returns a deep copy. Pointer fields are duplicated so callers can
// never alias store-owned state.
func (c Card) Clone() Card {
	out := c
	if c.BorderColor != nil {
		v := *c.BorderColor
		out.BorderColor = &v
	}
	if c.ArchivedAt != nil {
		t := *c.ArchivedAt
		out.ArchivedAt = &t
	}
	return out
}

// Equal reports whether two cards are field-for-field identical.
// Timestamps compare by instant, not by location.
func (c Card) Equal(o Card) bool {
	if c.ID != o.ID || c.Text != o.Text ||
		c.BackgroundColor != o.BackgroundColor || c.TextColor != o.TextColor ||
		c.FontStyle != o.FontStyle || c.Category != o.Category ||
		c.CornerRadius != o.CornerRadius || c.BorderWidth != o.BorderWidth ||
		c.DPI != o.DPI || c.IsArchived != o.IsArchived || c.Notes != o.Notes {
		return false
	}
	if !c.CreatedAt.Equal(o.CreatedAt) || !c.UpdatedAt.Equal(o.UpdatedAt) {
		return false
	}
	if (c.BorderColor == nil) != (o.BorderColor == nil) {
		return false
	}
	if c.BorderColor != nil && *c.BorderColor != *o.BorderColor {
		return false
	}
	if (c.ArchivedAt == nil) != (o.ArchivedAt == nil) {
		return false
	}
	if c.ArchivedAt != nil && !c.ArchivedAt.Equal(*o.ArchivedAt) {
		return false
	}
	return true
}
