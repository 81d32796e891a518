package registry

// Listing is one tracked listing URL inside a group.
type Listing struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// PriceRange is a pending scrape request: every stay window of DaysOfStay
// nights between StartDate and EndDate, for every listing of the group.
// Dates use the dd-mm-yyyy form.
type PriceRange struct {
	CreatedAt  int64  `json:"created_at"`
	GroupName  string `json:"group_name"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	DaysOfStay int    `json:"days_of_stay"`
}

// Registry stores listing groups and their pending price ranges.
type Registry interface {
	// AddListing registers a listing under a group
	AddListing(group string, listing Listing) error

	// Listings returns all listings of a group
	Listings(group string) ([]Listing, error)

	// DeleteListing removes one listing URL from a group
	DeleteListing(group string, url string) error

	// Groups returns all group names that have listings
	Groups() ([]string, error)

	// AddPriceRange registers a pending price range
	AddPriceRange(pr PriceRange) error

	// PendingRanges returns every pending price range across all groups
	PendingRanges() ([]PriceRange, error)

	// DeletePriceRange removes a consumed price range
	DeletePriceRange(pr PriceRange) error

	// Close closes the registry connection
	Close() error
}
