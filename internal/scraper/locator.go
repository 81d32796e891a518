package scraper

import (
	"strconv"
	"strings"

	"hotelpriceworker/logger"
)

// Strategy is one extraction attempt. It returns nil when it finds nothing;
// a candidate with a non-positive amount also counts as nothing.
type Strategy struct {
	Name string
	Run  func(Page) *PriceCandidate
}

// Locator runs an ordered strategy chain; the first strategy yielding a
// strictly positive amount wins. Gate, when set, is consulted before any
// strategy so teaser prices on an unavailable listing are never extracted.
type Locator struct {
	Site       string
	Gate       *AvailabilityClassifier
	Strategies []Strategy
	log        *logger.Logger
}

// Locate runs the chain. It returns a zero-amount candidate carrying the
// gate's evidence when the listing is unavailable, and nil when every
// strategy comes up empty.
func (l *Locator) Locate(page Page) *PriceCandidate {
	if l.Gate != nil {
		if verdict := l.Gate.Classify(page); !verdict.Available {
			return &PriceCandidate{
				Amount:   0,
				RawText:  verdict.Evidence,
				Strategy: "availability gate: " + verdict.Reason,
			}
		}
	}

	for _, strategy := range l.Strategies {
		candidate := l.runStrategy(strategy, page)
		if candidate != nil && candidate.Amount > 0 {
			candidate.Strategy = strategy.Name
			if l.log != nil {
				l.log.Debug().
					Str("strategy", strategy.Name).
					Float64("amount", candidate.Amount).
					Msg("Price located")
			}
			return candidate
		}
	}
	return nil
}

// runStrategy isolates one attempt: a panicking strategy counts as a miss,
// never as a batch failure.
func (l *Locator) runStrategy(strategy Strategy, page Page) (candidate *PriceCandidate) {
	defer func() {
		if r := recover(); r != nil {
			candidate = nil
		}
	}()
	return strategy.Run(page)
}

// keepMinPositive folds candidate prices keeping the lowest strictly
// positive amount. Zero means "unparsed", not "free", and never wins.
func keepMinPositive(best, next *PriceCandidate) *PriceCandidate {
	if next == nil || next.Amount <= 0 {
		return best
	}
	if best == nil || next.Amount < best.Amount {
		return next
	}
	return best
}

// Markers for prepayment and deposit notices whose amounts are not nightly
// rates.
var depositMarkers = []string{"prepayment", "залог", "deposit", "security"}

func isDepositNotice(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range depositMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// ---- structured-first profile (Ostrovok) ----

// Partial class matching throughout: exact class hashes rotate between site
// deployments.
var (
	headlinePriceSelectors = []string{
		"p[class*='Price_priceTitle']",
		"p[class*='priceTitle']",
		"div[class*='Header'] p[class*='price']",
		"div[class*='price'] p",
		"p[class*='Price']",
	}

	roomContainerSelectors = []string{
		"div[data-component='RoomRow']",
		"div[data-component='RoomCard']",
		"div[class*='Room_room']",
		"div[class*='RoomCard']",
		"div[class*='room-card']",
		"div[class*='room-option']",
	}

	roomLabelSelectors = []string{
		"h3",
		"div[class*='title']",
		"div[class*='name']",
		"div[class*='RoomName']",
	}

	roomPriceSelectors = []string{
		"*[class*='Price'] *[class*='price']",
		"*[class*='price']",
		"*[class*='Price']",
		"*[class*='cost']",
		"*[class*='amount']",
	}

	genericPriceSelectors = []string{
		"*[class*='price']",
		"*[class*='Price']",
		"*[class*='cost']",
		"*[class*='amount']",
	}
)

// NewStructuredFirstLocator builds the locator for pages that expose a
// headline price and per-room cards: headline first, then the cheapest room
// card, then a whole-page currency scan.
func NewStructuredFirstLocator(log *logger.Logger) *Locator {
	return &Locator{
		Site: "ostrovok",
		log:  log,
		Strategies: []Strategy{
			{Name: "headline price", Run: locateHeadlinePrice},
			{Name: "room card minimum", Run: locateRoomCardMinimum},
			{Name: "page currency scan", Run: locatePageScanRuble},
		},
	}
}

// locateHeadlinePrice reads the headline price element, stripping the "from"
// qualifier the site prefixes it with.
func locateHeadlinePrice(page Page) *PriceCandidate {
	for _, selector := range headlinePriceSelectors {
		for _, element := range page.Find(selector) {
			text := element.Text()
			if !strings.Contains(text, "₽") {
				continue
			}
			stripped := strings.TrimSpace(strings.Replace(text, "from", "", 1))
			stripped = strings.TrimSpace(strings.TrimPrefix(stripped, "от "))
			amount, currency := ParsePrice(stripped)
			if amount > 0 {
				return &PriceCandidate{
					Amount:    amount,
					Currency:  currency,
					RoomLabel: DefaultRoomLabel,
					RawText:   text,
				}
			}
		}
	}
	return nil
}

// locateRoomCardMinimum enumerates room containers and keeps the cheapest
// per-room price. The minimum, not the first: the page lists several room
// types and higher-ranked elements are sometimes unrelated upsell prices.
func locateRoomCardMinimum(page Page) *PriceCandidate {
	var containers []Element
	for _, selector := range roomContainerSelectors {
		if found := page.Find(selector); len(found) > 0 {
			containers = found
			break
		}
	}
	if len(containers) == 0 {
		return nil
	}

	var best *PriceCandidate
	for _, container := range containers {
		label := roomLabel(container)
		for _, selector := range roomPriceSelectors {
			for _, element := range container.Find(selector) {
				text := element.Text()
				if !strings.Contains(text, "₽") || isDepositNotice(text) {
					continue
				}
				amount, currency := ParsePrice(text)
				best = keepMinPositive(best, &PriceCandidate{
					Amount:    amount,
					Currency:  currency,
					RoomLabel: label,
					RawText:   text,
				})
			}
		}
	}
	return best
}

func roomLabel(container Element) string {
	for _, selector := range roomLabelSelectors {
		for _, element := range container.Find(selector) {
			if text := element.Text(); text != "" {
				return text
			}
		}
	}
	return DefaultRoomLabel
}

// locatePageScanRuble scans the whole page for ruble-bearing text that is
// not a deposit notice and keeps the cheapest parse.
func locatePageScanRuble(page Page) *PriceCandidate {
	var elements []Element
	for _, selector := range genericPriceSelectors {
		for _, element := range page.Find(selector) {
			if text := element.Text(); strings.Contains(text, "₽") && !isDepositNotice(text) {
				elements = append(elements, element)
			}
		}
	}
	if len(elements) == 0 {
		for _, element := range page.FindContaining("*", "₽") {
			if !isDepositNotice(element.Text()) {
				elements = append(elements, element)
			}
		}
	}

	var best *PriceCandidate
	for _, element := range elements {
		text := element.Text()
		amount, currency := ParsePrice(text)
		best = keepMinPositive(best, &PriceCandidate{
			Amount:    amount,
			Currency:  currency,
			RoomLabel: DefaultRoomLabel,
			RawText:   text,
		})
	}
	return best
}

// ---- attribute-first profile (Avito) ----

// The site embeds machine-readable price metadata; the content attribute is
// locale-invariant and preferred over visible text at every level.
var (
	structuredPriceSelectors = []string{
		"[itemprop='price']",
		"[data-price]",
	}

	secondaryPriceSelectors = []string{
		"span.price",
		"div.price",
		".price-value",
	}

	tertiaryPriceSelector = "#price"

	currencyMetaSelector = "[itemprop='priceCurrency']"
)

// currencyCodeSymbols maps structured currency codes to display symbols.
var currencyCodeSymbols = map[string]string{
	"RUB": "₽",
	"RUR": "₽",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

// attributePriceScript replicates the attribute-then-text preference inside
// the browser, for nodes the snapshot query cannot reach.
const attributePriceScript = `
(function() {
	var el = document.querySelector("[itemprop='price'], [data-price], span.price, div.price, .price-value, #price");
	if (!el) return null;
	var value = el.getAttribute('content') || el.getAttribute('data-price') || el.textContent || '';
	var currency = '';
	var curEl = document.querySelector("[itemprop='priceCurrency']");
	if (curEl) currency = curEl.getAttribute('content') || '';
	return {value: value.trim(), currency: currency};
})()
`

// NewAttributeFirstLocator builds the locator for pages with machine-readable
// price metadata. The availability gate runs before any strategy so teaser
// prices on an unavailable listing are never extracted.
func NewAttributeFirstLocator(gate *AvailabilityClassifier, log *logger.Logger) *Locator {
	return &Locator{
		Site: "avito",
		Gate: gate,
		log:  log,
		Strategies: []Strategy{
			{Name: "structured price attribute", Run: locateStructuredAttribute},
			{Name: "structured element text", Run: locateStructuredText},
			{Name: "secondary price selector", Run: locateSecondarySelectors},
			{Name: "tertiary price element", Run: locateTertiaryElement},
			{Name: "script attribute preference", Run: locateViaScript},
			{Name: "currency text scan", Run: locateCurrencyScan},
		},
	}
}

func pageCurrencySymbol(page Page) string {
	for _, element := range page.Find(currencyMetaSelector) {
		if code, ok := element.Attr("content"); ok {
			if symbol, known := currencyCodeSymbols[strings.ToUpper(strings.TrimSpace(code))]; known {
				return symbol
			}
		}
	}
	return DefaultCurrency
}

// elementAttributePrice reads the machine price attributes from one element.
func elementAttributePrice(element Element, page Page) *PriceCandidate {
	for _, attr := range []string{"content", "data-price"} {
		raw, ok := element.Attr(attr)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		raw = strings.TrimSpace(raw)
		if amount, err := strconv.ParseFloat(raw, 64); err == nil && amount > 0 {
			return &PriceCandidate{Amount: amount, Currency: pageCurrencySymbol(page), RawText: raw}
		}
		if amount, currency := ParsePrice(raw); amount > 0 {
			if currency == "" {
				currency = pageCurrencySymbol(page)
			}
			return &PriceCandidate{Amount: amount, Currency: currency, RawText: raw}
		}
	}
	return nil
}

func elementTextPrice(element Element) *PriceCandidate {
	text := element.Text()
	if text == "" || isDepositNotice(text) {
		return nil
	}
	amount, currency := ParsePrice(text)
	if amount <= 0 {
		return nil
	}
	return &PriceCandidate{Amount: amount, Currency: currency, RawText: text}
}

func locateStructuredAttribute(page Page) *PriceCandidate {
	for _, selector := range structuredPriceSelectors {
		for _, element := range page.Find(selector) {
			if candidate := elementAttributePrice(element, page); candidate != nil {
				return candidate
			}
		}
	}
	return nil
}

func locateStructuredText(page Page) *PriceCandidate {
	for _, selector := range structuredPriceSelectors {
		for _, element := range page.Find(selector) {
			if candidate := elementTextPrice(element); candidate != nil {
				if candidate.Currency == "" {
					candidate.Currency = pageCurrencySymbol(page)
				}
				return candidate
			}
		}
	}
	return nil
}

func locateSecondarySelectors(page Page) *PriceCandidate {
	for _, selector := range secondaryPriceSelectors {
		for _, element := range page.Find(selector) {
			if candidate := elementAttributePrice(element, page); candidate != nil {
				return candidate
			}
			if candidate := elementTextPrice(element); candidate != nil {
				return candidate
			}
		}
	}
	return nil
}

func locateTertiaryElement(page Page) *PriceCandidate {
	for _, element := range page.Find(tertiaryPriceSelector) {
		if candidate := elementAttributePrice(element, page); candidate != nil {
			return candidate
		}
		if candidate := elementTextPrice(element); candidate != nil {
			return candidate
		}
	}
	return nil
}

func locateViaScript(page Page) *PriceCandidate {
	var result struct {
		Value    string `json:"value"`
		Currency string `json:"currency"`
	}
	if err := page.Evaluate(attributePriceScript, &result); err != nil {
		return nil
	}
	if result.Value == "" {
		return nil
	}

	amount, currency := ParsePrice(result.Value)
	if amount <= 0 {
		if parsed, err := strconv.ParseFloat(result.Value, 64); err == nil {
			amount = parsed
		}
	}
	if amount <= 0 {
		return nil
	}
	if symbol, known := currencyCodeSymbols[strings.ToUpper(result.Currency)]; known {
		currency = symbol
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return &PriceCandidate{Amount: amount, Currency: currency, RawText: result.Value}
}

// locateCurrencyScan collects every currency-bearing text node that is not a
// deposit notice and keeps the cheapest: the nightly rate sits below totals
// once deposits are filtered out.
func locateCurrencyScan(page Page) *PriceCandidate {
	var best *PriceCandidate
	for _, symbol := range []string{"₽", "$", "€", "£"} {
		for _, element := range page.FindContaining("*", symbol) {
			text := element.Text()
			if isDepositNotice(text) {
				continue
			}
			amount, currency := ParsePrice(text)
			best = keepMinPositive(best, &PriceCandidate{
				Amount:   amount,
				Currency: currency,
				RawText:  text,
			})
		}
	}
	return best
}
