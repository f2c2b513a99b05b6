package sources

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fenilmodi00/ipo-sync/shared"
)

// Options configures the adapter sets.
type Options struct {
	HTTPTimeout     time.Duration
	PolitenessDelay time.Duration
	RapidAPIKey     string
	ChromeEnabled   bool
}

func (o Options) htmlClientOptions() shared.HTTPClientOptions {
	return shared.HTTPClientOptions{Timeout: o.HTTPTimeout, RetryCount: 2, Accept: shared.AcceptHTML}
}

func (o Options) jsonClientOptions() shared.HTTPClientOptions {
	return shared.HTTPClientOptions{Timeout: o.HTTPTimeout, RetryCount: 2, Accept: shared.AcceptJSON}
}

// WebAdapters returns the scraped sources in overlay order: premium tables,
// then subscription, then the dates calendar. The two chittorgarh pages share
// one politeness limiter.
func WebAdapters(opts Options) []Adapter {
	chittorgarhLimiter := shared.NewHTTPRequestRateLimiter(opts.PolitenessDelay)

	adapters := []Adapter{
		NewIPOWatchAdapter(shared.NewRestyClient(opts.htmlClientOptions()), shared.NewHTTPRequestRateLimiter(opts.PolitenessDelay)),
		NewChittorgarhGMPAdapter(shared.NewRestyClient(opts.htmlClientOptions()), chittorgarhLimiter),
	}

	if opts.ChromeEnabled {
		adapters = append(adapters, NewInvestorGainAdapter(shared.NewHTTPRequestRateLimiter(opts.PolitenessDelay), opts.HTTPTimeout))
	} else {
		logrus.WithField("component", "SourceRegistry").Info("Headless Chrome disabled, skipping investorgain")
	}

	return append(adapters,
		NewSubscriptionAdapter(opts.HTTPTimeout, opts.PolitenessDelay),
		NewDashboardAdapter(shared.NewRestyClient(opts.htmlClientOptions()), chittorgarhLimiter),
	)
}

// APIAdapters returns the JSON sources. Both contribute dates and pricing.
func APIAdapters(opts Options) []Adapter {
	var adapters []Adapter

	if opts.RapidAPIKey != "" {
		adapters = append(adapters, NewRapidAPIAdapter(shared.NewRestyClient(opts.jsonClientOptions()), shared.NewHTTPRequestRateLimiter(opts.PolitenessDelay), opts.RapidAPIKey))
	} else {
		logrus.WithField("component", "SourceRegistry").Warn("RAPIDAPI_KEY is not set, skipping the RapidAPI source")
	}

	return append(adapters, NewNSEAdapter(shared.NewRestyClient(opts.jsonClientOptions()), shared.NewHTTPRequestRateLimiter(opts.PolitenessDelay)))
}

// ShareholderSource returns the shareholder-quota adapter.
func ShareholderSource(opts Options) *ShareholderAdapter {
	return NewShareholderAdapter(shared.NewRestyClient(opts.htmlClientOptions()), shared.NewHTTPRequestRateLimiter(opts.PolitenessDelay))
}
