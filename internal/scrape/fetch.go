package scrape

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// page is a fetched HTML document.
type page struct {
	url        string
	statusCode int
	blocked    BlockType
	doc        *goquery.Document
}

// ok reports whether the page has a 2xx status and no anti-bot marker.
func (p *page) ok() bool {
	return p.statusCode >= 200 && p.statusCode < 300 && p.blocked == BlockNone
}

// fetch GETs targetURL. Only transport failures are errors; status and block
// checks are left to the caller.
func (e *Extractor) fetch(ctx context.Context, targetURL string) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: create request")
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: fetch %s", targetURL)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: read body %s", targetURL)
	}

	p := &page{url: targetURL, statusCode: resp.StatusCode}
	if blocked, bt := DetectBlock(resp, body); blocked {
		p.blocked = bt
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: parse html %s", targetURL)
	}
	p.doc = doc
	return p, nil
}
