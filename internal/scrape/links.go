package scrape

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ExtractLinks fetches the index page at baseURL and returns, in document
// order, the href of every link in the first list of the article body.
// A non-2xx response or a page without the expected structure yields an
// empty result and a logged warning. Only transport failures are errors.
func (e *Extractor) ExtractLinks(ctx context.Context, baseURL string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: parse base url %q", baseURL)
	}

	p, err := e.fetch(ctx, baseURL)
	if err != nil {
		return nil, err
	}
	if !p.ok() {
		zap.L().Warn("scrape: index page unavailable",
			zap.String("url", baseURL),
			zap.Int("status", p.statusCode),
			zap.String("blocked", string(p.blocked)),
		)
		return []string{}, nil
	}

	container := p.doc.Find(containerSelector).First()
	if container.Length() == 0 {
		zap.L().Warn("scrape: index container not found", zap.String("url", baseURL))
		return []string{}, nil
	}
	list := container.Find("ul").First()
	if list.Length() == 0 {
		zap.L().Warn("scrape: no list in index container", zap.String("url", baseURL))
		return []string{}, nil
	}

	links := []string{}
	list.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		links = append(links, e.absolute(base, baseURL, href))
	})

	zap.L().Info("scrape: extracted links", zap.String("url", baseURL), zap.Int("count", len(links)))
	return links, nil
}

// absolute makes href absolute per the extractor's link mode. Hrefs starting
// with "http" are kept as written.
func (e *Extractor) absolute(base *url.URL, baseURL, href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	if e.linkMode == LinkPrefix {
		return baseURL + href
	}
	ref, err := url.Parse(href)
	if err != nil {
		zap.L().Debug("scrape: unparsable href, using prefix", zap.String("href", href), zap.Error(err))
		return baseURL + href
	}
	return base.ResolveReference(ref).String()
}
