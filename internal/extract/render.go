package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxPageBytes     = 4 << 20
)

// Page is a fetched result page.
type Page struct {
	URL    string
	Status int
	HTML   string
}

// Renderer loads a result page and returns its final HTML.
type Renderer interface {
	Render(ctx context.Context, url string) (*Page, error)
}

// BrowserRenderer renders pages in a headless Chromium so client-side
// rendered tables are present in the returned HTML. Every call launches its
// own browser and shuts it down before returning.
type BrowserRenderer struct {
	ExecPath  string
	UserAgent string
	TableWait time.Duration
	Settle    time.Duration
}

// NewBrowserRenderer resolves the Chromium binary (falling back to the
// chromedp default lookup when none is found on PATH).
func NewBrowserRenderer(execPath string, tableWait time.Duration) *BrowserRenderer {
	if execPath == "" {
		for _, candidate := range []string{"chromium", "chromium-browser"} {
			if p, err := exec.LookPath(candidate); err == nil {
				execPath = p
				break
			}
		}
	}
	return &BrowserRenderer{
		ExecPath:  execPath,
		UserAgent: defaultUserAgent,
		TableWait: tableWait,
		Settle:    time.Second,
	}
}

// Render navigates to url and waits for the first table to appear. A page
// without a table is still returned; the caller decides what it means.
func (r *BrowserRenderer) Render(ctx context.Context, url string) (*Page, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(r.UserAgent),
	)
	if r.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	resp, err := chromedp.RunResponse(browserCtx, chromedp.Navigate(url))
	if err != nil {
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}

	page := &Page{URL: url}
	if resp != nil {
		page.Status = int(resp.Status)
	}
	if page.Status == http.StatusNotFound {
		return page, nil
	}

	if r.TableWait > 0 {
		waitCtx, cancelWait := context.WithTimeout(browserCtx, r.TableWait)
		err := chromedp.Run(waitCtx, chromedp.WaitReady("table", chromedp.ByQuery))
		cancelWait()
		if err == nil && r.Settle > 0 {
			if err := chromedp.Run(browserCtx, chromedp.Sleep(r.Settle)); err != nil {
				return nil, fmt.Errorf("settle %s: %w", url, err)
			}
		}
	}

	if err := chromedp.Run(browserCtx, chromedp.OuterHTML("html", &page.HTML, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("read html %s: %w", url, err)
	}
	return page, nil
}

// HTTPRenderer fetches pages with a plain GET. It is enough for servers that
// render the result table server-side.
type HTTPRenderer struct {
	Client    *http.Client
	UserAgent string
}

// NewHTTPRenderer builds a renderer with the given request timeout.
func NewHTTPRenderer(timeout time.Duration) *HTTPRenderer {
	return &HTTPRenderer{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: defaultUserAgent,
	}
}

func (r *HTTPRenderer) Render(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.UserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request result page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("read result page: %w", err)
	}

	return &Page{URL: url, Status: resp.StatusCode, HTML: string(body)}, nil
}
