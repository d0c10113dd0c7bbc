package ingestion

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"mangaalert/internal/models"
)

// ParseError marks a candidate field that could not be understood. It is
// fatal to that one candidate only.
type ParseError struct {
	Field string
	Value string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s format for '%s' is not supported", e.Field, e.Value)
}

var trailingNumber = regexp.MustCompile(`(\d+)\s*$`)

// ExtractVolumeNumber returns the trailing digit run of a product title, or
// models.UnknownVolume when the title does not end in digits.
func ExtractVolumeNumber(title string) string {
	m := trailingNumber.FindStringSubmatch(title)
	if m == nil {
		return models.UnknownVolume
	}
	return m[1]
}

// day/month with 4-digit year first, then 2-digit year
var releaseDateLayouts = []string{"2/1/2006", "2/1/06"}

// ParseReleaseDate reads Italian store dates (dd/mm/yyyy or dd/mm/yy) into a
// UTC midnight civil date.
func ParseReleaseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range releaseDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ParseError{Field: "Date", Value: s}
}
