package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "hotelpriceworker/pkg/errors"
)

// stubSession implements Session over a canned page or error.
type stubSession struct {
	page    Page
	openErr error
	closed  bool
}

var _ Session = (*stubSession)(nil)

func (s *stubSession) Open(url string) (Page, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	return s.page, nil
}

func (s *stubSession) Evaluate(script string, out any) error {
	return apperrors.NewExtraction("stub", "no script engine", nil)
}

func (s *stubSession) Screenshot(path string) error { return nil }

func (s *stubSession) Close() { s.closed = true }

func stubFactory(s *stubSession) SessionFactory {
	return func() Session { return s }
}

const availableListingHTML = `<html>
<head><title>Maximus Vertical Aparthotel in St. Petersburg — 120 reviews</title></head>
<body>
	<h1 class="DesktopHeader_name__abc12">Maximus Vertical Aparthotel</h1>
	<div data-component="RoomCard">
		<h3>Studio</h3>
		<span class="price">4 900 ₽</span>
	</div>
</body></html>`

const unavailableListingHTML = `<html>
<head><title>Wei by Vertical Hotel in St. Petersburg</title></head>
<body>
	<h1 class="DesktopHeader_name__abc12">Wei by Vertical Hotel</h1>
	<div>There are no rooms available for the selected dates</div>
	<div class="recommended"><span class="price">2 100 ₽</span></div>
</body></html>`

func TestExtractHappyPath(t *testing.T) {
	session := &stubSession{page: mustPage(t, availableListingHTML)}
	extractor := NewExtractorWithFactory(stubFactory(session), nil)

	obs := extractor.Extract("https://ostrovok.ru/hotel/russia/st._petersburg/mid1/maximus/?dates=05.04.2025-07.04.2025&guests=2")

	assert.Equal(t, float64(4900), obs.Price)
	assert.Equal(t, "₽", obs.Currency)
	assert.Equal(t, "Maximus Vertical Aparthotel", obs.ListingName)
	assert.Equal(t, "Studio", obs.RoomLabel)
	assert.Equal(t, "05-04-2025", obs.CheckIn)
	assert.Equal(t, "07-04-2025", obs.CheckOut)
	assert.NotZero(t, obs.ObservedAt)
	assert.Contains(t, obs.Notes, "located by")
	assert.True(t, session.closed, "session must be released")
}

func TestExtractUnavailableDates(t *testing.T) {
	// Prices from recommended listings on an unavailable page must never
	// contaminate the result.
	session := &stubSession{page: mustPage(t, unavailableListingHTML)}
	extractor := NewExtractorWithFactory(stubFactory(session), nil)

	obs := extractor.Extract("https://ostrovok.ru/hotel/russia/st._petersburg/mid2/wei/?dates=05.04.2025-07.04.2025")

	assert.Equal(t, float64(0), obs.Price)
	assert.Equal(t, DefaultCurrency, obs.Currency)
	assert.Contains(t, obs.Notes, noteNoRooms)
	assert.Contains(t, obs.Notes, "there are no rooms available for the selected dates",
		"classifier evidence stays in the audit trail")
	assert.Equal(t, "Wei by Vertical Hotel", obs.ListingName)
	assert.True(t, session.closed)
}

func TestExtractPageLoadFailure(t *testing.T) {
	session := &stubSession{openErr: apperrors.NewTimeout("browser", "page load timed out", nil)}
	extractor := NewExtractorWithFactory(stubFactory(session), nil)

	obs := extractor.Extract("https://ostrovok.ru/hotel/russia/st._petersburg/mid3/simple_stunningaparts_apartments/?dates=05.04.2025-07.04.2025")

	assert.Equal(t, float64(0), obs.Price)
	assert.NotEmpty(t, obs.Notes)
	assert.Contains(t, obs.Notes, "error: ")
	assert.Equal(t, "simple stunningaparts apartments", obs.ListingName, "name falls back to the URL path")
	assert.Equal(t, "05-04-2025", obs.CheckIn)
	assert.True(t, session.closed, "session must be released on the error path too")
}

func TestExtractNoPriceFound(t *testing.T) {
	session := &stubSession{page: mustPage(t, `<html>
		<head><title>Quiet Hotel in Moscow</title></head>
		<body><h1>Quiet Hotel</h1><div>prices are rendered later</div></body></html>`)}
	extractor := NewExtractorWithFactory(stubFactory(session), nil)

	obs := extractor.Extract("https://ostrovok.ru/hotel/russia/moscow/mid4/quiet_hotel/")

	assert.Equal(t, float64(0), obs.Price)
	assert.Equal(t, noteNoPriceFound, obs.Notes)
	assert.Equal(t, "Quiet Hotel", obs.ListingName)
	assert.True(t, session.closed)
}

func TestExtractNeverPanics(t *testing.T) {
	extractor := NewExtractorWithFactory(func() Session {
		return &panickySession{}
	}, nil)

	assert.NotPanics(t, func() {
		obs := extractor.Extract("https://ostrovok.ru/hotel/x/?dates=01.01.2025-02.01.2025")
		assert.Equal(t, float64(0), obs.Price)
		assert.Contains(t, obs.Notes, "error: ")
	})
}

type panickySession struct{}

func (p *panickySession) Open(url string) (Page, error)         { panic("browser crashed") }
func (p *panickySession) Evaluate(s string, out any) error      { panic("browser crashed") }
func (p *panickySession) Screenshot(path string) error          { return nil }
func (p *panickySession) Close()                                {}

func TestResolveListingNameFromTitle(t *testing.T) {
	page := mustPage(t, `<html>
		<head><title>Grand Hotel in Kazan — 300 reviews</title></head>
		<body><div>no headings here</div></body></html>`)

	name := resolveListingName(page, "https://ostrovok.ru/hotel/russia/kazan/mid5/grand/")
	assert.Equal(t, "Grand Hotel", name)
}

func TestResolveListingNameTitlePipeSuffix(t *testing.T) {
	page := mustPage(t, `<html>
		<head><title>Квартира на Марата | Авито</title></head>
		<body></body></html>`)

	name := resolveListingName(page, "https://www.avito.ru/item/123")
	assert.Equal(t, "Квартира на Марата", name)
}

func TestNameFromURL(t *testing.T) {
	assert.Equal(t, "apartpage marata",
		nameFromURL("https://ostrovok.ru/hotel/russia/st._petersburg/mid9992800/apartpage_marata/?q=2042"))
	assert.Equal(t, "Unknown Listing", nameFromURL("https://ostrovok.ru"))
}
