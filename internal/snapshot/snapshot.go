// Package snapshot captures rendered dashboard pages with a headless browser.
package snapshot

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// DefaultTimeout bounds a whole capture, browser start included.
const DefaultTimeout = 30 * time.Second

// ErrDashboardUnavailable is returned when the page rendered the API connection error.
var ErrDashboardUnavailable = errors.New("dashboard could not reach the API")

// Options configures a capture.
type Options struct {
	Timeout time.Duration
	Width   int
	Height  int
	// Quality is the JPEG quality; 100 captures PNG.
	Quality  int
	User     string
	Password string
	Verbose  bool
}

// DefaultOptions returns a desktop-sized PNG capture.
func DefaultOptions() Options {
	return Options{Timeout: DefaultTimeout, Width: 1440, Height: 900, Quality: 100}
}

// Result is a captured page.
type Result struct {
	URL   string
	Image []byte
	HTML  string
	Page  *PageInfo
}

// Capture renders url in headless Chrome and returns a full-page screenshot and the
// rendered HTML. Requires Chrome/Chromium on the system.
func Capture(ctx context.Context, url string, opts Options) (*Result, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 1440, 900
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 100
	}
	if opts.Verbose {
		log.Printf("[snapshot] Starting headless browser for: %s", url)
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.WindowSize(opts.Width, opts.Height),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, opts.Timeout)
	defer cancel()

	var (
		image []byte
		html  string
	)
	actions := []chromedp.Action{network.Enable()}
	if opts.User != "" {
		token := base64.StdEncoding.EncodeToString([]byte(opts.User + ":" + opts.Password))
		actions = append(actions, network.SetExtraHTTPHeaders(network.Headers{"Authorization": "Basic " + token}))
	}
	actions = append(actions,
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(url),
		chromedp.WaitReady("main"),
		// charts are separate image requests
		chromedp.Sleep(500*time.Millisecond),
		chromedp.FullScreenshot(&image, opts.Quality),
		chromedp.OuterHTML("html", &html),
	)

	if err := chromedp.Run(browserCtx, actions...); err != nil {
		return nil, fmt.Errorf("browser capture failed: %w", err)
	}
	if opts.Verbose {
		log.Printf("[snapshot] Captured %d bytes, HTML %d bytes", len(image), len(html))
	}

	info, err := Inspect(html)
	if err != nil {
		return nil, err
	}
	return &Result{URL: url, Image: image, HTML: html, Page: info}, nil
}

// PageInfo is what a rendered dashboard page reports about itself.
type PageInfo struct {
	Title     string
	ActiveTab string
	Metrics   map[string]string
	Cards     int
	Rows      int
	HasChart  bool
}

// Inspect parses a rendered dashboard page. A page showing the API connection error
// returns ErrDashboardUnavailable.
func Inspect(html string) (*PageInfo, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	if doc.Find("main").Length() == 0 {
		return nil, fmt.Errorf("not a dashboard page: no main element")
	}
	if msg := doc.Find("#unavailable"); msg.Length() > 0 {
		return nil, fmt.Errorf("%w: %s", ErrDashboardUnavailable, cleanWhitespace(msg.Text()))
	}

	info := &PageInfo{
		Title:   strings.TrimSpace(doc.Find("title").Text()),
		Metrics: map[string]string{},
		Cards:   doc.Find(".card").Length(),
		Rows:    doc.Find("#priority-table tbody tr").Length(),
	}
	info.ActiveTab = strings.TrimSpace(doc.Find("nav a.active").Text())
	_, info.HasChart = doc.Find("#shap-chart").Attr("src")

	doc.Find(".metric").Each(func(_ int, s *goquery.Selection) {
		label := cleanWhitespace(s.Find(".label").Text())
		if label != "" {
			info.Metrics[label] = cleanWhitespace(s.Find(".value").Text())
		}
	})
	return info, nil
}

func cleanWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
