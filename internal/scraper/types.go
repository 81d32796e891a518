package scraper

// Default currency and room label reported when a page yields a price but no
// usable metadata around it.
const (
	DefaultCurrency  = "₽"
	DefaultRoomLabel = "Standard Room"
)

// PriceObservation is a single scraped price measurement for one listing and
// one (check-in, check-out) window. Price 0 means "no usable price found",
// never "free"; Notes explains why. The value is immutable once built; the
// worker only tags GroupLabel before recording.
type PriceObservation struct {
	ListingURL  string  `json:"listing_url"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency,omitempty"`
	ObservedAt  int64   `json:"observed_at"`
	CheckIn     string  `json:"check_in"`
	CheckOut    string  `json:"check_out"`
	ListingName string  `json:"listing_name,omitempty"`
	RoomLabel   string  `json:"room_label,omitempty"`
	Notes       string  `json:"notes,omitempty"`
	GroupLabel  string  `json:"group_label,omitempty"`
}

// PriceCandidate is one possible price found by a locator strategy.
type PriceCandidate struct {
	Amount    float64
	Currency  string
	RoomLabel string
	RawText   string
	Strategy  string
}