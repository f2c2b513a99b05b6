package shared

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// BrowserUserAgent is sent by every scraper; the listing sites reject obvious bots.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Accept headers for the two kinds of upstream payloads.
const (
	AcceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	AcceptJSON = "application/json, text/plain, */*"
)

// HTTPClientOptions tunes a client built by NewRestyClient.
type HTTPClientOptions struct {
	Timeout      time.Duration
	RetryCount   int
	Accept       string
	ExtraHeaders map[string]string
}

// NewRestyClient creates a resty client with connection pooling, browser-like
// headers and exponential backoff on network errors and 5xx/429 responses.
func NewRestyClient(opts HTTPClientOptions) *resty.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Accept == "" {
		opts.Accept = AcceptHTML
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: opts.Timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	client := resty.New().
		SetTransport(transport).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(8 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return IsRetryableError(err)
			}
			return resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeaders(map[string]string{
			"User-Agent":      BrowserUserAgent,
			"Accept":          opts.Accept,
			"Accept-Language": "en-US,en;q=0.9",
			"Cache-Control":   "no-cache",
			"Connection":      "keep-alive",
		})

	if len(opts.ExtraHeaders) > 0 {
		client.SetHeaders(opts.ExtraHeaders)
	}

	client.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logrus.WithFields(logrus.Fields{
			"component":   "HTTPClient",
			"url":         resp.Request.URL,
			"status_code": resp.StatusCode(),
			"duration":    resp.Time(),
		}).Debug("HTTP request completed")
		return nil
	})

	return client
}

// SetBrowserLikeHeaders configures HTTP request headers to mimic browser behavior.
// Used where a library owns the request (colly).
func SetBrowserLikeHeaders(header http.Header, acceptHeader string) {
	header.Set("User-Agent", BrowserUserAgent)
	header.Set("Accept", acceptHeader)
	header.Set("Accept-Language", "en-US,en;q=0.9")
	header.Set("Cache-Control", "no-cache")
}
