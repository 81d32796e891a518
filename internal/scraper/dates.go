package scraper

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"hotelpriceworker/helpers"
	apperrors "hotelpriceworker/pkg/errors"
)

// Placeholder tokens used in stored template URLs.
const (
	DatesPlaceholder    = "$DATES"
	CheckInPlaceholder  = "$CHECKIN"
	CheckOutPlaceholder = "$CHECKOUT"
)

// Date layouts: the combined query parameter carries DD.MM.YYYY, the split
// checkIn/checkOut parameters carry YYYY-MM-DD, and observations always
// report DD-MM-YYYY.
const (
	siteDateLayout      = "02.01.2006"
	isoDateLayout       = "2006-01-02"
	canonicalDateLayout = "02-01-2006"
)

var (
	combinedDatesPattern = regexp.MustCompile(`(dates=)(\d{2}\.\d{2}\.\d{4}-\d{2}\.\d{2}\.\d{4})`)
	checkInOutPattern    = regexp.MustCompile(`(checkIn=)(\d{4}-\d{2}-\d{2})(&checkOut=)(\d{4}-\d{2}-\d{2})`)
	rangeLiteralPattern  = regexp.MustCompile(`^(\d{2}\.\d{2}\.\d{4})-(\d{2}\.\d{2}\.\d{4})$`)
	isoDatePattern       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Window is one concrete (check-in, check-out) pair used to query a price.
type Window struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// ExpandTemplate replaces the date placeholder in template with the concrete
// window, rendered in the site's native encoding. Templates carrying neither
// placeholder are returned unchanged along with a validation error.
func ExpandTemplate(template string, checkIn, checkOut time.Time) (string, error) {
	if strings.Contains(template, DatesPlaceholder) {
		literal := checkIn.Format(siteDateLayout) + "-" + checkOut.Format(siteDateLayout)
		return strings.Replace(template, DatesPlaceholder, literal, 1), nil
	}
	if strings.Contains(template, CheckInPlaceholder) && strings.Contains(template, CheckOutPlaceholder) {
		expanded := strings.Replace(template, CheckInPlaceholder, checkIn.Format(isoDateLayout), 1)
		return strings.Replace(expanded, CheckOutPlaceholder, checkOut.Format(isoDateLayout), 1), nil
	}
	return template, apperrors.NewValidation("dates", "url template has no date placeholder")
}

// CollapseToTemplate replaces a concrete date-range literal in url with the
// placeholder token, so a raw URL pasted by a user becomes a reusable
// template. Supports the combined dates= parameter and the split
// checkIn=/checkOut= parameters. Non-matching URLs pass through unchanged;
// the operation is idempotent.
func CollapseToTemplate(rawURL string) string {
	// $$ escapes the literal dollar of the placeholder in the replacement
	// template; a bare $DATES would be read as an empty capture reference.
	collapsed := combinedDatesPattern.ReplaceAllString(rawURL, "${1}$$DATES")
	collapsed = checkInOutPattern.ReplaceAllString(collapsed, "${1}$$CHECKIN${3}$$CHECKOUT")
	return collapsed
}

// GenerateWindowPairs produces every stay of exactly stayNights nights whose
// check-in falls within [start, end-stayNights], advancing one day at a
// time, in non-decreasing check-in order. A stay that does not fit the range
// yields an empty sequence.
func GenerateWindowPairs(start, end time.Time, stayNights int) []Window {
	if stayNights <= 0 {
		return nil
	}
	var windows []Window
	last := end.AddDate(0, 0, -stayNights)
	for day := start; !day.After(last); day = day.AddDate(0, 0, 1) {
		windows = append(windows, Window{
			CheckIn:  day,
			CheckOut: day.AddDate(0, 0, stayNights),
		})
	}
	return windows
}

// ValidateRangeLiteral reports whether text is a well-formed
// DD.MM.YYYY-DD.MM.YYYY range whose end date is strictly after its start.
// Used to reject malformed input before any browser work is scheduled.
func ValidateRangeLiteral(text string) bool {
	m := rangeLiteralPattern.FindStringSubmatch(text)
	if m == nil {
		return false
	}
	start, err := time.Parse(siteDateLayout, m[1])
	if err != nil {
		return false
	}
	end, err := time.Parse(siteDateLayout, m[2])
	if err != nil {
		return false
	}
	return end.After(start)
}

// ParseRangeLiteral parses a validated DD.MM.YYYY-DD.MM.YYYY range.
func ParseRangeLiteral(text string) (time.Time, time.Time, error) {
	m := rangeLiteralPattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, time.Time{}, apperrors.NewValidation("dates", "malformed date range literal: "+text)
	}
	start, err := time.Parse(siteDateLayout, m[1])
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.NewValidation("dates", "malformed start date: "+m[1])
	}
	end, err := time.Parse(siteDateLayout, m[2])
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.NewValidation("dates", "malformed end date: "+m[2])
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, apperrors.NewValidation("dates", "end date is not after start date: "+text)
	}
	return start, end, nil
}

// FormatCanonical renders a date in the canonical DD-MM-YYYY observation form.
func FormatCanonical(t time.Time) string {
	return t.Format(canonicalDateLayout)
}

// ParseCanonical parses a canonical DD-MM-YYYY date.
func ParseCanonical(value string) (time.Time, error) {
	t, err := time.Parse(canonicalDateLayout, value)
	if err != nil {
		return time.Time{}, apperrors.NewValidation("dates", "malformed date: "+value)
	}
	return t, nil
}

// DatesFromURL extracts the check-in and check-out dates embedded in a
// listing URL, normalized to DD-MM-YYYY. Both the combined dates= encoding
// and the split checkIn=/checkOut= encoding are recognized; unknown URLs
// yield empty strings.
func DatesFromURL(rawURL string) (checkIn, checkOut string) {
	if strings.Contains(rawURL, "dates=") {
		tail, err := helpers.GetSplitPart(rawURL, "dates=", 1)
		if err != nil {
			return "", ""
		}
		literal, err := helpers.GetSplitPart(tail, "&", 0)
		if err != nil {
			return "", ""
		}
		parts := strings.Split(literal, "-")
		if len(parts) == 2 {
			return strings.ReplaceAll(parts[0], ".", "-"), strings.ReplaceAll(parts[1], ".", "-")
		}
		return "", ""
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", ""
	}
	query := parsed.Query()
	return isoToCanonical(query.Get("checkIn")), isoToCanonical(query.Get("checkOut"))
}

func isoToCanonical(date string) string {
	if !isoDatePattern.MatchString(date) {
		return ""
	}
	parts := strings.Split(date, "-")
	return parts[2] + "-" + parts[1] + "-" + parts[0]
}
