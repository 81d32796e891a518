package worker

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"hotelpriceworker/config"
	"hotelpriceworker/internal/scraper"
	"hotelpriceworker/logger"
	"hotelpriceworker/services/cache"
	"hotelpriceworker/services/jobs"
	"hotelpriceworker/services/publisher"
	"hotelpriceworker/services/registry"
	"hotelpriceworker/services/store"
)

// PublishKey is the stream field observations are published under.
const PublishKey = "b64_observations"

// dequeuePollTimeout bounds each blocking pop so shutdown is responsive.
const dequeuePollTimeout = 5 * time.Second

// Extractor turns one concrete listing URL into one observation.
type Extractor interface {
	Extract(rawURL string) scraper.PriceObservation
}

// URLJob is the payload of a single-URL scrape job.
type URLJob struct {
	URL   string `json:"url"`
	Group string `json:"group"`
}

// Worker consumes scrape jobs and turns them into stored and published
// observations. Extractions run serially with a randomized delay between
// them; the sites rate-limit aggressively.
type Worker struct {
	ctx       context.Context
	queue     jobs.Queue
	registry  registry.Registry
	cache     cache.CacheService
	store     store.Store
	publisher publisher.Publisher
	extractor Extractor
	cfg       *config.Config
	log       *logger.Logger
}

// NewWorker creates a new worker
func NewWorker(
	ctx context.Context,
	queue jobs.Queue,
	reg registry.Registry,
	cacheService cache.CacheService,
	priceStore store.Store,
	pub publisher.Publisher,
	extractor Extractor,
	cfg *config.Config,
) *Worker {
	return &Worker{
		ctx:       ctx,
		queue:     queue,
		registry:  reg,
		cache:     cacheService,
		store:     priceStore,
		publisher: pub,
		extractor: extractor,
		cfg:       cfg,
		log:       logger.ForWorker(),
	}
}

// Start consumes jobs until the context is cancelled.
func (w *Worker) Start() error {
	for {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		default:
		}

		job, err := w.queue.Dequeue(dequeuePollTimeout)
		if err != nil {
			w.log.Error().Err(err).Msg("Failed to dequeue job")
			w.sleep(dequeuePollTimeout)
			continue
		}
		if job == nil {
			continue
		}

		w.process(job)
	}
}

// Schedule moves every pending price range from the registry into the job
// queue. A range is deleted once its job is enqueued so it runs exactly once.
func (w *Worker) Schedule() {
	ranges, err := w.registry.PendingRanges()
	if err != nil {
		w.log.Error().Err(err).Msg("Failed to read pending price ranges")
		return
	}

	for _, pr := range ranges {
		payload, err := json.Marshal(pr)
		if err != nil {
			w.log.Error().Err(err).Str("group", pr.GroupName).Msg("Failed to encode price range")
			continue
		}
		id, err := w.queue.Enqueue(jobs.TaskScrapeRange, payload)
		if err != nil {
			w.log.Error().Err(err).Str("group", pr.GroupName).Msg("Failed to enqueue price range")
			continue
		}
		if err := w.registry.DeletePriceRange(pr); err != nil {
			w.log.Error().Err(err).Str("group", pr.GroupName).Msg("Failed to delete scheduled price range")
		}
		w.log.Info().
			Str("job_id", id).
			Str("group", pr.GroupName).
			Str("start", pr.StartDate).
			Str("end", pr.EndDate).
			Int("days_of_stay", pr.DaysOfStay).
			Msg("Scheduled price range")
	}
}

func (w *Worker) process(job *jobs.Job) {
	start := time.Now()

	switch job.Task {
	case jobs.TaskScrapeRange:
		var pr registry.PriceRange
		if err := json.Unmarshal(job.Payload, &pr); err != nil {
			w.log.Error().Err(err).Str("job_id", job.ID).Msg("Malformed price range payload")
			return
		}
		w.scrapeRange(pr)
	case jobs.TaskScrapeURL:
		var uj URLJob
		if err := json.Unmarshal(job.Payload, &uj); err != nil {
			w.log.Error().Err(err).Str("job_id", job.ID).Msg("Malformed url payload")
			return
		}
		obs := w.extractor.Extract(uj.URL)
		obs.GroupLabel = uj.Group
		w.record(uj.Group, obs)
	default:
		w.log.Warn().Str("job_id", job.ID).Str("task", job.Task).Msg("Unknown task")
		return
	}

	w.log.Info().Str("job_id", job.ID).Dur("elapsed", time.Since(start)).Msg("Job finished")

	if err := w.publisher.TrimStreams(); err != nil {
		w.log.Error().Err(err).Msg("Failed to trim streams")
	}
}

// scrapeRange visits every (listing, stay window) combination of the range.
// Windows already scraped recently are skipped via the block cache.
func (w *Worker) scrapeRange(pr registry.PriceRange) {
	start, err := scraper.ParseCanonical(pr.StartDate)
	if err != nil {
		w.log.Error().Err(err).Str("group", pr.GroupName).Msg("Bad range start date")
		return
	}
	end, err := scraper.ParseCanonical(pr.EndDate)
	if err != nil {
		w.log.Error().Err(err).Str("group", pr.GroupName).Msg("Bad range end date")
		return
	}

	listings, err := w.registry.Listings(pr.GroupName)
	if err != nil {
		w.log.Error().Err(err).Str("group", pr.GroupName).Msg("Failed to read group listings")
		return
	}
	windows := scraper.GenerateWindowPairs(start, end, pr.DaysOfStay)
	if len(listings) == 0 || len(windows) == 0 {
		w.log.Warn().
			Str("group", pr.GroupName).
			Int("listings", len(listings)).
			Int("windows", len(windows)).
			Msg("Nothing to scrape for range")
		return
	}

	for _, listing := range listings {
		for _, window := range windows {
			select {
			case <-w.ctx.Done():
				return
			default:
			}
			w.scrapeWindow(pr.GroupName, listing, window)
			w.sleep(w.scrapeDelay())
		}
	}
}

func (w *Worker) scrapeWindow(group string, listing registry.Listing, window scraper.Window) {
	checkIn := scraper.FormatCanonical(window.CheckIn)
	checkOut := scraper.FormatCanonical(window.CheckOut)

	blockKey := cache.BlockKey(listing.URL, checkIn, checkOut)
	if _, err := w.cache.Get(blockKey); err == nil {
		w.log.Debug().
			Str("url", listing.URL).
			Str("check_in", checkIn).
			Msg("Window recently scraped, skipping")
		return
	}

	// Stored listings are templates; raw URLs pasted with concrete dates are
	// collapsed first so the requested window always wins.
	template := scraper.CollapseToTemplate(listing.URL)
	target, err := scraper.ExpandTemplate(template, window.CheckIn, window.CheckOut)
	if err != nil {
		// Scraping the raw template would query prices for arbitrary dates.
		w.log.Warn().Err(err).Str("url", listing.URL).Msg("Listing URL has no date placeholder, skipping window")
		return
	}

	obs := w.extractor.Extract(target)
	obs.GroupLabel = group
	if obs.ListingName == "Unknown Listing" && listing.Name != "" {
		obs.ListingName = listing.Name
	}

	w.record(group, obs)

	if err := w.cache.Set(blockKey, []byte("1"), w.cfg.ScrapeBlockTime); err != nil {
		w.log.Error().Err(err).Str("key", blockKey).Msg("Failed to set block key")
	}
}

// record persists and publishes one observation. Failures are logged and the
// batch continues; one broken backend must not lose the rest of the run.
func (w *Worker) record(group string, obs scraper.PriceObservation) {
	if err := w.store.Append(w.ctx, group, obs); err != nil {
		w.log.Error().Err(err).Str("url", obs.ListingURL).Msg("Failed to store observation")
	}

	payload, err := json.Marshal(obs)
	if err != nil {
		w.log.Error().Err(err).Str("url", obs.ListingURL).Msg("Failed to encode observation")
		return
	}
	if err := w.publisher.Publish(PublishKey, payload); err != nil {
		w.log.Error().Err(err).Str("url", obs.ListingURL).Msg("Failed to publish observation")
	}

	w.log.Info().
		Str("listing", obs.ListingName).
		Str("check_in", obs.CheckIn).
		Float64("price", obs.Price).
		Str("currency", obs.Currency).
		Msg("Recorded observation")
}

// scrapeDelay draws a uniform delay from the configured range.
func (w *Worker) scrapeDelay() time.Duration {
	if w.cfg.DelayMax <= w.cfg.DelayMin {
		return w.cfg.DelayMin
	}
	return w.cfg.DelayMin + time.Duration(rand.Int63n(int64(w.cfg.DelayMax-w.cfg.DelayMin)))
}

// sleep waits for d or until the context is cancelled.
func (w *Worker) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-w.ctx.Done():
	case <-timer.C:
	}
}
