package domain

import (
	"fmt"
	"strconv"
)

// LineRange is a span of lines within a text source.
type LineRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Location is a weak, best-effort position tag attached to a chunk.
// Loaders populate different fields: the PDF loader sets PageNumber,
// other tooling may set Page, Lines or a raw primitive. Locations are
// normalised for display only and never relied on for identity.
type Location struct {
	// PageNumber is an explicit page number, starting at 1.
	PageNumber *int `json:"pageNumber,omitempty"`

	// Page is an alternative page field some loaders emit.
	Page *int `json:"page,omitempty"`

	// Lines is a line range within the source.
	Lines *LineRange `json:"lines,omitempty"`

	// Raw holds a primitive string or number location as-is.
	Raw any `json:"raw,omitempty"`
}

// IsZero reports whether no location information is present.
func (l Location) IsZero() bool {
	return l.PageNumber == nil && l.Page == nil && l.Lines == nil && l.Raw == nil
}

// Annotation renders the location for citations. The first populated
// field wins: explicit page number, then page, then line range, then a
// raw primitive rendered verbatim. Returns "" when nothing is present.
func (l Location) Annotation() string {
	switch {
	case l.PageNumber != nil:
		return fmt.Sprintf("Page %d", *l.PageNumber)
	case l.Page != nil:
		return fmt.Sprintf("Page %d", *l.Page)
	case l.Lines != nil:
		if l.Lines.From == l.Lines.To {
			return fmt.Sprintf("Line %d", l.Lines.From)
		}
		return fmt.Sprintf("Line %d-%d", l.Lines.From, l.Lines.To)
	case l.Raw != nil:
		return renderRaw(l.Raw)
	default:
		return ""
	}
}

// renderRaw renders a primitive location value verbatim. Numbers that
// round-tripped through JSON arrive as float64 and are rendered without
// a trailing fraction when integral.
func renderRaw(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
