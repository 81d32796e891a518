package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"hotelpriceworker/config"
	"hotelpriceworker/internal/scraper"
)

const listingPage = `<html>
<head><title>Maximus Vertical Aparthotel in St. Petersburg — 120 reviews</title></head>
<body>
	<h1 class="DesktopHeader_name__x1y2z">Maximus Vertical Aparthotel</h1>
	<p class="Price_priceTitle__a1b2c">from 4 900 ₽</p>
	<div data-component="RoomCard">
		<h3>Studio</h3>
		<span class="price">5 400 ₽</span>
	</div>
	<div data-component="RoomCard">
		<h3>Superior Studio</h3>
		<span class="price">6 100 ₽</span>
	</div>
</body></html>`

const soldOutPage = `<html>
<head><title>Wei by Vertical Hotel in St. Petersburg</title></head>
<body>
	<h1 class="DesktopHeader_name__x1y2z">Wei by Vertical Hotel</h1>
	<div class="banner">There are no rooms available for the selected dates</div>
</body></html>`

// End-to-end extraction over a real HTTP round trip, without a browser.
func TestExtractOverHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		switch r.URL.Path {
		case "/hotel/russia/st._petersburg/mid1/maximus_vertical/":
			fmt.Fprint(w, listingPage)
		case "/hotel/russia/st._petersburg/mid2/wei_vertical/":
			fmt.Fprint(w, soldOutPage)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cfg := config.LoadConfig()
	cfg.UseBrowser = false
	extractor := scraper.NewExtractor(cfg)

	t.Run("available listing", func(t *testing.T) {
		obs := extractor.Extract(server.URL + "/hotel/russia/st._petersburg/mid1/maximus_vertical/?dates=05.04.2025-07.04.2025&guests=2")

		assert.Equal(t, float64(4900), obs.Price)
		assert.Equal(t, "₽", obs.Currency)
		assert.Equal(t, "Maximus Vertical Aparthotel", obs.ListingName)
		assert.Equal(t, "05-04-2025", obs.CheckIn)
		assert.Equal(t, "07-04-2025", obs.CheckOut)
		assert.Contains(t, obs.Notes, "headline price")
	})

	t.Run("sold out listing", func(t *testing.T) {
		obs := extractor.Extract(server.URL + "/hotel/russia/st._petersburg/mid2/wei_vertical/?dates=05.04.2025-07.04.2025")

		assert.Equal(t, float64(0), obs.Price)
		assert.Equal(t, "Wei by Vertical Hotel", obs.ListingName)
		assert.Contains(t, obs.Notes, "no rooms available for selected dates")
	})

	t.Run("unreachable listing", func(t *testing.T) {
		obs := extractor.Extract(server.URL + "/hotel/missing/?dates=05.04.2025-07.04.2025")

		assert.Equal(t, float64(0), obs.Price)
		assert.Contains(t, obs.Notes, "error: ")
	})
}
