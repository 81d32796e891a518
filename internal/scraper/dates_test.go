package scraper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGenerateWindowPairs(t *testing.T) {
	windows := GenerateWindowPairs(date(2023, 1, 1), date(2023, 1, 10), 2)

	// One window per check-in day; the last check-out lands exactly on the
	// range end, never past it.
	assert.Len(t, windows, 8)
	assert.Equal(t, date(2023, 1, 1), windows[0].CheckIn)
	assert.Equal(t, date(2023, 1, 3), windows[0].CheckOut)
	assert.Equal(t, date(2023, 1, 8), windows[7].CheckIn)
	assert.Equal(t, date(2023, 1, 10), windows[7].CheckOut)

	for i, w := range windows {
		assert.Equal(t, w.CheckIn.AddDate(0, 0, 2), w.CheckOut)
		if i > 0 {
			assert.False(t, w.CheckIn.Before(windows[i-1].CheckIn), "check-ins must be non-decreasing")
		}
	}
}

func TestGenerateWindowPairsStayFillsRange(t *testing.T) {
	// A stay spanning the whole range still yields its single window.
	windows := GenerateWindowPairs(date(2023, 1, 1), date(2023, 1, 10), 9)
	assert.Len(t, windows, 1)
	assert.Equal(t, date(2023, 1, 1), windows[0].CheckIn)
	assert.Equal(t, date(2023, 1, 10), windows[0].CheckOut)
}

func TestGenerateWindowPairsStayTooLong(t *testing.T) {
	assert.Empty(t, GenerateWindowPairs(date(2023, 1, 1), date(2023, 1, 10), 10))
	assert.Empty(t, GenerateWindowPairs(date(2023, 1, 1), date(2023, 1, 10), 30))
	assert.Empty(t, GenerateWindowPairs(date(2023, 1, 1), date(2023, 1, 10), 0))
}

func TestGenerateWindowPairsMonthAndLeapBoundaries(t *testing.T) {
	// February of a leap year into March.
	windows := GenerateWindowPairs(date(2024, 2, 27), date(2024, 3, 2), 2)
	assert.Len(t, windows, 3)
	assert.Equal(t, date(2024, 2, 29), windows[0].CheckOut)
	assert.Equal(t, date(2024, 2, 29), windows[2].CheckIn)
	assert.Equal(t, date(2024, 3, 2), windows[2].CheckOut)
}

func TestValidateRangeLiteral(t *testing.T) {
	assert.True(t, ValidateRangeLiteral("01.06.2025-15.06.2025"))
	assert.False(t, ValidateRangeLiteral("15.06.2025-01.06.2025"), "end before start")
	assert.False(t, ValidateRangeLiteral("01.06.2025-01.06.2025"), "zero-length range")
	assert.False(t, ValidateRangeLiteral("2025-06-01-2025-06-15"), "wrong format")
	assert.False(t, ValidateRangeLiteral("32.13.2025-02.14.2025"), "impossible dates")
	assert.False(t, ValidateRangeLiteral("junk"))
}

func TestParseRangeLiteral(t *testing.T) {
	start, end, err := ParseRangeLiteral("01.06.2025-15.06.2025")
	assert.NoError(t, err)
	assert.Equal(t, date(2025, 6, 1), start)
	assert.Equal(t, date(2025, 6, 15), end)

	_, _, err = ParseRangeLiteral("15.06.2025-01.06.2025")
	assert.Error(t, err)
}

func TestCollapseToTemplateCombinedParam(t *testing.T) {
	raw := "https://ostrovok.ru/hotel/russia/st._petersburg/mid10006831/maximusvertical_aparthotel/?dates=01.12.2025-05.12.2025&guests=2"
	collapsed := CollapseToTemplate(raw)
	assert.Equal(t, "https://ostrovok.ru/hotel/russia/st._petersburg/mid10006831/maximusvertical_aparthotel/?dates=$DATES&guests=2", collapsed)

	// Idempotent.
	assert.Equal(t, collapsed, CollapseToTemplate(collapsed))
}

func TestCollapseToTemplateCheckInOutParams(t *testing.T) {
	raw := "https://www.avito.ru/item/123?checkIn=2025-12-01&checkOut=2025-12-05&guests=2"
	collapsed := CollapseToTemplate(raw)
	assert.Equal(t, "https://www.avito.ru/item/123?checkIn=$CHECKIN&checkOut=$CHECKOUT&guests=2", collapsed)
	assert.Equal(t, collapsed, CollapseToTemplate(collapsed))
}

func TestCollapseToTemplatePassThrough(t *testing.T) {
	raw := "https://example.com/hotel/1?guests=2"
	assert.Equal(t, raw, CollapseToTemplate(raw))
}

func TestExpandCollapseRoundTrip(t *testing.T) {
	template := "https://ostrovok.ru/hotel/x/?dates=$DATES&guests=2"
	expanded, err := ExpandTemplate(template, date(2025, 12, 1), date(2025, 12, 5))
	assert.NoError(t, err)
	assert.Equal(t, "https://ostrovok.ru/hotel/x/?dates=01.12.2025-05.12.2025&guests=2", expanded)
	assert.Equal(t, template, CollapseToTemplate(expanded))

	split := "https://www.avito.ru/item/123?checkIn=$CHECKIN&checkOut=$CHECKOUT"
	expanded, err = ExpandTemplate(split, date(2025, 12, 1), date(2025, 12, 5))
	assert.NoError(t, err)
	assert.Equal(t, "https://www.avito.ru/item/123?checkIn=2025-12-01&checkOut=2025-12-05", expanded)
	assert.Equal(t, split, CollapseToTemplate(expanded))
}

func TestExpandTemplateMissingPlaceholder(t *testing.T) {
	template := "https://example.com/hotel/1?guests=2"
	expanded, err := ExpandTemplate(template, date(2025, 12, 1), date(2025, 12, 5))
	assert.Error(t, err)
	assert.Equal(t, template, expanded, "template must come back unchanged")
}

func TestDatesFromURL(t *testing.T) {
	checkIn, checkOut := DatesFromURL("https://ostrovok.ru/hotel/x/?dates=05.04.2025-07.04.2025&guests=2")
	assert.Equal(t, "05-04-2025", checkIn)
	assert.Equal(t, "07-04-2025", checkOut)

	checkIn, checkOut = DatesFromURL("https://www.avito.ru/item/123?checkIn=2025-04-05&checkOut=2025-04-07")
	assert.Equal(t, "05-04-2025", checkIn)
	assert.Equal(t, "07-04-2025", checkOut)

	checkIn, checkOut = DatesFromURL("https://example.com/hotel/1")
	assert.Equal(t, "", checkIn)
	assert.Equal(t, "", checkOut)
}

func TestFormatCanonical(t *testing.T) {
	assert.Equal(t, "05-04-2025", FormatCanonical(date(2025, 4, 5)))
}
