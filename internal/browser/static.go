package browser

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// StaticLauncher drives pages without a JavaScript engine: plain GET + goquery.
// It serves sites that render results server-side, and adapter tests.
type StaticLauncher struct {
	client    *http.Client
	userAgent string
}

func NewStaticLauncher(client *http.Client, userAgent string) *StaticLauncher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &StaticLauncher{client: client, userAgent: userAgent}
}

func (l *StaticLauncher) Launch(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &staticPage{client: l.client, userAgent: l.userAgent}, nil
}

type staticPage struct {
	client    *http.Client
	userAgent string
	url       *url.URL
	doc       *goquery.Document
}

var errNoDocument = errors.New("no document loaded")

func (p *staticPage) Navigate(ctx context.Context, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return fmt.Errorf("%w: %v", ErrLoadTimeout, err)
		}
		return fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	// Challenge pages come back as 403/503 with a title; keep the body so the title check sees it.
	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusServiceUnavailable {
		return fmt.Errorf("get %s: status %d", rawURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return fmt.Errorf("parse %s: %w", rawURL, err)
	}
	p.doc = doc
	p.url = resp.Request.URL
	return nil
}

func (p *staticPage) WaitReady(ctx context.Context, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.doc == nil {
		return errNoDocument
	}
	return nil
}

func (p *staticPage) Title() (string, error) {
	if p.doc == nil {
		return "", errNoDocument
	}
	return strings.TrimSpace(p.doc.Find("title").First().Text()), nil
}

func (p *staticPage) URL() string {
	if p.url == nil {
		return ""
	}
	return p.url.String()
}

func (p *staticPage) Query(selector string) ([]Element, error) {
	if p.doc == nil {
		return nil, errNoDocument
	}
	return p.wrap(p.doc.Find(selector)), nil
}

func (p *staticPage) Scroll(ctx context.Context, _ string) error {
	return ctx.Err()
}

func (p *staticPage) Close() error {
	p.client.CloseIdleConnections()
	p.doc = nil
	return nil
}

func (p *staticPage) wrap(sel *goquery.Selection) []Element {
	els := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		els = append(els, &staticElement{page: p, sel: s})
	})
	return els
}

type staticElement struct {
	page *staticPage
	sel  *goquery.Selection
}

func (e *staticElement) Query(selector string) ([]Element, error) {
	return e.page.wrap(e.sel.Find(selector)), nil
}

func (e *staticElement) Text() (string, error) {
	return strings.TrimSpace(e.sel.Text()), nil
}

func (e *staticElement) Attr(name string) (string, error) {
	v, _ := e.sel.Attr(name)
	return v, nil
}

// Click follows the element's href, or that of its nearest link ancestor.
func (e *staticElement) Click(ctx context.Context) error {
	href, ok := e.sel.Attr("href")
	if !ok {
		href, ok = e.sel.Closest("a[href]").Attr("href")
	}
	if !ok || href == "" || strings.HasPrefix(href, "#") {
		return ErrNotClickable
	}
	target, err := url.Parse(href)
	if err != nil {
		return fmt.Errorf("parse href %q: %w", href, err)
	}
	if e.page.url != nil {
		target = e.page.url.ResolveReference(target)
	}
	return e.page.Navigate(ctx, target.String())
}
