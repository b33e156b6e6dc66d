package scrape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/rotisserie/eris"

	"github.com/sells-group/seo-dashboard/internal/model"
)

const maxLocalBody = 2 << 20

// StatusError reports a non-2xx answer from the target site itself.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("local: %s returned status %d", e.URL, e.StatusCode)
}

// HTTPStatus returns the target's status code.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// LocalScraper fetches HTML directly, reads SEO metadata from the document
// and extracts the main text with readability. It never produces markdown.
type LocalScraper struct {
	client    *http.Client
	userAgent string
}

// NewLocalScraper creates a LocalScraper. It refuses to connect to
// loopback, private, link-local and unspecified addresses.
func NewLocalScraper(userAgent string, timeout time.Duration) *LocalScraper {
	return newLocalScraper(userAgent, timeout, rejectInternal)
}

func newLocalScraper(userAgent string, timeout time.Duration, control func(string, string, syscall.RawConn) error) *LocalScraper {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &LocalScraper{
		userAgent: userAgent,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
					Control: control,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

// rejectInternal runs after DNS resolution, once per dialed address, so
// redirects and rebinding hostnames are covered too.
func rejectInternal(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return eris.Wrap(err, "local: split dial address")
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return eris.Errorf("local: dial address %q is not an IP", host)
	}
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return eris.Errorf("local: refusing to fetch internal address %s", ip)
	}
	return nil
}

// Name implements Scraper.
func (l *LocalScraper) Name() string { return SourceLocal }

// Supports implements Scraper.
func (l *LocalScraper) Supports(_ string) bool { return true }

// Scrape fetches a URL, rejects interstitials and extracts metadata and text.
func (l *LocalScraper) Scrape(ctx context.Context, targetURL string) (*model.ScrapeResult, error) {
	pageURL, err := url.Parse(targetURL)
	if err != nil {
		return nil, eris.Wrap(err, "local: parse url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "local: create request")
	}
	if l.userAgent != "" {
		req.Header.Set("User-Agent", l.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "local: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLocalBody))
	if err != nil {
		return nil, eris.Wrap(err, "local: read body")
	}

	if bt := DetectBlock(resp.StatusCode, resp.Header, string(body)); bt != BlockNone {
		return nil, eris.Errorf("local: blocked (%s)", bt)
	}
	if resp.StatusCode >= 400 {
		return nil, &StatusError{URL: targetURL, StatusCode: resp.StatusCode}
	}
	if len(bytes.TrimSpace(body)) < 100 {
		return nil, eris.New("local: empty page")
	}
	if body, err = toUTF8(resp.Header.Get("Content-Type"), body); err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "local: parse html")
	}

	meta := PageMetadata(doc)
	meta["statusCode"] = resp.StatusCode
	meta["sourceURL"] = targetURL

	return &model.ScrapeResult{
		Extract:  &model.Extract{Text: mainText(body, pageURL, doc)},
		Metadata: meta,
		Source:   SourceLocal,
	}, nil
}

// PageMetadata reads the SEO-relevant head tags and heading counts from doc.
// Keys follow the names Firecrawl uses so downstream code sees one shape.
func PageMetadata(doc *goquery.Document) map[string]any {
	meta := map[string]any{}
	set := func(key, val string) {
		if val = strings.TrimSpace(val); val != "" {
			meta[key] = val
		}
	}

	set("title", doc.Find("title").First().Text())
	set("language", doc.Find("html").AttrOr("lang", ""))
	set("canonical", doc.Find(`link[rel="canonical"]`).First().AttrOr("href", ""))

	doc.Find("meta[name]").Each(func(_ int, s *goquery.Selection) {
		switch name := strings.ToLower(s.AttrOr("name", "")); name {
		case "description", "keywords", "robots", "viewport", "author":
			if _, seen := meta[name]; !seen {
				set(name, s.AttrOr("content", ""))
			}
		}
	})

	doc.Find(`meta[property^="og:"]`).Each(func(_ int, s *goquery.Selection) {
		key := ogKey(s.AttrOr("property", ""))
		if _, seen := meta[key]; !seen {
			set(key, s.AttrOr("content", ""))
		}
	})

	headings := map[string]any{}
	for _, tag := range []string{"h1", "h2", "h3", "h4", "h5", "h6"} {
		if n := doc.Find(tag).Length(); n > 0 {
			headings[tag] = n
		}
	}
	if len(headings) > 0 {
		meta["headings"] = headings
	}

	return meta
}

// ogKey turns "og:site_name" into "ogSiteName".
func ogKey(property string) string {
	parts := strings.FieldsFunc(strings.TrimPrefix(property, "og:"), func(r rune) bool {
		return r == '_' || r == ':' || r == '-'
	})
	var b strings.Builder
	b.WriteString("og")
	for _, p := range parts {
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// mainText returns the readable article text, falling back to the whole body
// when readability finds nothing.
func mainText(body []byte, pageURL *url.URL, doc *goquery.Document) string {
	parser := readability.NewParser()
	article, err := parser.Parse(bytes.NewReader(body), pageURL)
	if err == nil && strings.TrimSpace(article.Content) != "" {
		if adoc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content)); err == nil {
			if text := normalizeText(adoc.Text()); text != "" {
				return text
			}
		}
	}

	fallback := doc.Find("body").Clone()
	fallback.Find("script,style,noscript,nav,footer,svg").Remove()
	return normalizeText(fallback.Text())
}

// normalizeText collapses runs of spaces within lines and drops blank lines.
func normalizeText(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
