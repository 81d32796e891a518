package scraper

import (
	"strings"

	"hotelpriceworker/logger"
)

// Availability is the classifier verdict for one rendered listing page.
type Availability struct {
	Available bool
	Reason    string
	Evidence  string
}

// Phrases the sites show when the requested window has no rooms. Matched
// case-insensitively against the whole body text.
var noRoomPhrases = []string{
	"there are no rooms available for the selected dates",
	"на выбранные даты нет номеров",
	"no rooms available",
}

// Teaser prefixes marking a "starting from" price. A price behind this
// marker belongs to some other date range and must never be reported for
// the requested one.
var teaserPrefixes = []string{"from", "от "}

// Selectors for the price-title container the teaser marker appears in.
// Partial class matching because class hashes rotate between deployments.
var teaserContainerSelectors = []string{
	"p[class*='Price_priceTitle']",
	"p[class*='priceTitle']",
}

// teaserRecheckScript re-derives the teaser signal in the browser for pages
// where the structural selector no longer matches anything.
const teaserRecheckScript = `
(function() {
	var nodes = document.querySelectorAll("p[class*='riceTitle'], p[class*='rice']");
	for (var i = 0; i < nodes.length; i++) {
		var text = (nodes[i].innerText || "").trim().toLowerCase();
		if (text.indexOf("from") === 0 || text.indexOf("от") === 0) {
			return nodes[i].innerText.trim();
		}
	}
	return "";
})()
`

// AvailabilityClassifier inspects a rendered page for signals that the
// requested dates are unavailable.
type AvailabilityClassifier struct {
	log     *logger.Logger
	signals []availabilitySignal
}

// NewAvailabilityClassifier creates a classifier running the full signal
// set: no-rooms banner, teaser prefix, and the in-browser teaser recheck.
func NewAvailabilityClassifier(log *logger.Logger) *AvailabilityClassifier {
	c := &AvailabilityClassifier{log: log}
	c.signals = []availabilitySignal{
		{name: "no rooms banner", check: c.checkNoRoomsBanner},
		{name: "teaser price prefix", check: c.checkTeaserPrefix},
		{name: "teaser price script recheck", check: c.checkTeaserScript},
	}
	return c
}

// NewBannerOnlyClassifier creates a classifier running only the no-rooms
// banner signal. Used for sites whose headline price legitimately carries a
// "from" qualifier that the locator strips itself.
func NewBannerOnlyClassifier(log *logger.Logger) *AvailabilityClassifier {
	c := &AvailabilityClassifier{log: log}
	c.signals = []availabilitySignal{
		{name: "no rooms banner", check: c.checkNoRoomsBanner},
	}
	return c
}

type availabilitySignal struct {
	name  string
	check func(Page) (bool, string)
}

// Classify runs the signal checks in priority order; the first firing signal
// short-circuits. A failing check never fires and never aborts the page:
// absence of evidence is not evidence of absence.
func (c *AvailabilityClassifier) Classify(page Page) Availability {
	for _, signal := range c.signals {
		fired, evidence := c.runSignal(signal, page)
		if fired {
			if c.log != nil {
				c.log.Debug().
					Str("signal", signal.name).
					Str("evidence", evidence).
					Msg("Listing classified unavailable")
			}
			return Availability{Available: false, Reason: signal.name, Evidence: evidence}
		}
	}

	return Availability{Available: true, Reason: "no unavailability signal fired"}
}

func (c *AvailabilityClassifier) runSignal(signal availabilitySignal, page Page) (fired bool, evidence string) {
	defer func() {
		if r := recover(); r != nil {
			fired = false
			evidence = ""
		}
	}()
	return signal.check(page)
}

func (c *AvailabilityClassifier) checkNoRoomsBanner(page Page) (bool, string) {
	body := strings.ToLower(page.BodyText())
	for _, phrase := range noRoomPhrases {
		if strings.Contains(body, phrase) {
			return true, phrase
		}
	}
	return false, ""
}

func (c *AvailabilityClassifier) checkTeaserPrefix(page Page) (bool, string) {
	for _, selector := range teaserContainerSelectors {
		for _, element := range page.Find(selector) {
			text := element.Text()
			if hasTeaserPrefix(text) {
				return true, text
			}
		}
	}
	return false, ""
}

func (c *AvailabilityClassifier) checkTeaserScript(page Page) (bool, string) {
	var text string
	if err := page.Evaluate(teaserRecheckScript, &text); err != nil {
		// Signal did not fire; the page may have no script engine at all.
		return false, ""
	}
	if text == "" {
		return false, ""
	}
	return true, text
}

func hasTeaserPrefix(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, prefix := range teaserPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
