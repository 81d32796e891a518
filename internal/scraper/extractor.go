package scraper

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"hotelpriceworker/config"
	"hotelpriceworker/logger"
)

// Notes values and prefixes written into observations. Free text for audit
// only, never for programmatic branching.
const (
	noteNoRooms      = "no rooms available for selected dates"
	noteNoPriceFound = "no price found"
	noteErrorPrefix  = "error: "
	noteLocatedBy    = "price located by "
)

var nameSelectors = []string{
	"h1[class*='DesktopHeader_name']",
	"h1",
}

// titleSuffixes are cut from the page title when it is used as the listing
// name.
var titleSuffixes = []string{" in ", " reviews", "|"}

// Extractor turns one listing URL into one PriceObservation. Extract never
// fails: every error becomes a zero-price observation with explanatory
// notes, because it runs inside unattended batch loops where one bad page
// must not abort the run.
type Extractor struct {
	newSession SessionFactory
	log        *logger.Logger
	shotDir    string
}

// NewExtractor wires the extractor from configuration.
func NewExtractor(cfg *config.Config) *Extractor {
	return &Extractor{
		newSession: NewSessionFactory(cfg),
		log:        logger.ForScraper("extractor"),
		shotDir:    cfg.ScreenshotDir,
	}
}

// NewExtractorWithFactory builds an extractor around a custom session
// factory. Used by tests and by callers that manage browsers themselves.
func NewExtractorWithFactory(factory SessionFactory, log *logger.Logger) *Extractor {
	return &Extractor{newSession: factory, log: log}
}

// locatorFor picks the strategy profile from the listing host.
func locatorFor(rawURL string, log *logger.Logger) *Locator {
	if strings.Contains(rawURL, "avito.") {
		return NewAttributeFirstLocator(NewAvailabilityClassifier(log), log)
	}
	return NewStructuredFirstLocator(log)
}

// classifierFor picks the availability signal set for the host. The
// structured-first site prefixes its usable headline price with "from", so
// only the banner signal applies there.
func classifierFor(rawURL string, log *logger.Logger) *AvailabilityClassifier {
	if strings.Contains(rawURL, "avito.") {
		return NewAvailabilityClassifier(log)
	}
	return NewBannerOnlyClassifier(log)
}

// Extract visits the listing URL and assembles the price observation. The
// session is released on every exit path.
func (e *Extractor) Extract(rawURL string) (obs PriceObservation) {
	checkIn, checkOut := DatesFromURL(rawURL)
	obs = PriceObservation{
		ListingURL: rawURL,
		ObservedAt: time.Now().Unix(),
		CheckIn:    checkIn,
		CheckOut:   checkOut,
	}

	session := e.newSession()
	defer session.Close()

	defer func() {
		if r := recover(); r != nil {
			obs.Price = 0
			obs.Currency = ""
			obs.RoomLabel = ""
			obs.Notes = noteErrorPrefix + fmt.Sprint(r)
			if obs.ListingName == "" {
				obs.ListingName = nameFromURL(rawURL)
			}
			if e.log != nil {
				e.log.Error().Str("url", rawURL).Interface("panic", r).Msg("Extraction aborted")
			}
		}
	}()

	page, err := session.Open(rawURL)
	if err != nil {
		obs.Notes = noteErrorPrefix + err.Error()
		obs.ListingName = nameFromURL(rawURL)
		e.saveScreenshot(session)
		if e.log != nil {
			e.log.Warn().Str("url", rawURL).Err(err).Msg("Page load failed")
		}
		return obs
	}

	obs.ListingName = resolveListingName(page, rawURL)

	if verdict := classifierFor(rawURL, e.log).Classify(page); !verdict.Available {
		obs.Price = 0
		obs.Currency = DefaultCurrency
		obs.Notes = unavailableNotes(verdict.Evidence)
		return obs
	}

	candidate := locatorFor(rawURL, e.log).Locate(page)
	if candidate == nil || candidate.Amount <= 0 {
		obs.Price = 0
		obs.Currency = DefaultCurrency
		if candidate != nil && candidate.RawText != "" {
			// The attribute-first gate fired: record its evidence.
			obs.Notes = unavailableNotes(candidate.RawText)
		} else {
			obs.Notes = noteNoPriceFound
		}
		e.saveScreenshot(session)
		if e.log != nil {
			e.log.Warn().Str("url", rawURL).Str("listing", obs.ListingName).Msg("No price found")
		}
		return obs
	}

	obs.Price = candidate.Amount
	obs.Currency = candidate.Currency
	if obs.Currency == "" {
		obs.Currency = DefaultCurrency
	}
	obs.RoomLabel = candidate.RoomLabel
	if obs.RoomLabel == "" {
		obs.RoomLabel = DefaultRoomLabel
	}
	obs.Notes = noteLocatedBy + candidate.Strategy
	return obs
}

// unavailableNotes keeps the classifier's evidence text in the audit trail.
func unavailableNotes(evidence string) string {
	if evidence == "" {
		return noteNoRooms
	}
	return noteNoRooms + " (" + evidence + ")"
}

func (e *Extractor) saveScreenshot(session Session) {
	if e.shotDir == "" {
		return
	}
	path := filepath.Join(e.shotDir, "error_"+time.Now().Format("20060102_150405")+".png")
	if err := session.Screenshot(path); err == nil && e.log != nil {
		e.log.Debug().Str("path", path).Msg("Saved error screenshot")
	}
}

// resolveListingName prefers the page heading, then the title with known
// suffixes stripped, then a synthetic label from the URL path.
func resolveListingName(page Page, rawURL string) string {
	for _, selector := range nameSelectors {
		for _, element := range page.Find(selector) {
			if text := element.Text(); text != "" {
				return text
			}
		}
	}

	if title := page.Title(); title != "" {
		name := title
		for _, suffix := range titleSuffixes {
			if idx := strings.Index(name, suffix); idx > 0 {
				name = name[:idx]
			}
		}
		if name = strings.TrimSpace(name); name != "" {
			return name
		}
	}

	return nameFromURL(rawURL)
}

// nameFromURL derives a readable label from the last meaningful URL path
// segment.
func nameFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "Unknown Listing"
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] == "" {
			continue
		}
		return strings.ReplaceAll(segments[i], "_", " ")
	}
	return "Unknown Listing"
}
