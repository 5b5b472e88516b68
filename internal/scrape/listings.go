package scrape

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sells-group/coworking-map/internal/model"
)

// ExtractListings fetches each detail page in order and parses one listing
// per page. Pages that fail to load or lack the article body are skipped and
// counted in the report. Only context cancellation stops the pass early; the
// listings gathered so far are returned with the error.
func (e *Extractor) ExtractListings(ctx context.Context, urls []string) ([]model.Listing, Report, error) {
	report := Report{Requested: len(urls)}
	listings := make([]model.Listing, 0, len(urls))

	for i, u := range urls {
		if err := ctx.Err(); err != nil {
			return listings, report, err
		}

		p, err := e.fetch(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return listings, report, ctx.Err()
			}
			zap.L().Warn("scrape: fetch detail page failed", zap.String("url", u), zap.Error(err))
			report.FetchFailed++
			continue
		}
		if !p.ok() {
			zap.L().Warn("scrape: detail page unavailable",
				zap.String("url", u),
				zap.Int("status", p.statusCode),
				zap.String("blocked", string(p.blocked)),
			)
			report.FetchFailed++
			continue
		}

		listing, ok := parseListing(p.doc, u)
		if !ok {
			zap.L().Debug("scrape: detail container not found", zap.String("url", u))
			report.NoContainer++
			continue
		}

		listings = append(listings, listing)
		report.Extracted++
		zap.L().Debug("scrape: extracted listing",
			zap.Int("index", i),
			zap.String("url", u),
			zap.String("name", listing.Name.String()),
		)
	}

	zap.L().Info("scrape: listings extracted",
		zap.Int("requested", report.Requested),
		zap.Int("extracted", report.Extracted),
		zap.Int("fetch_failed", report.FetchFailed),
		zap.Int("no_container", report.NoContainer),
	)
	return listings, report, nil
}

// parseListing reads a detail page. It returns false when the article body
// is missing.
func parseListing(doc *goquery.Document, pageURL string) (model.Listing, bool) {
	container := doc.Find(containerSelector).First()
	if container.Length() == 0 {
		return model.Listing{}, false
	}

	l := model.NewListing(pageURL)
	if h2 := container.Find("h2").First(); h2.Length() > 0 {
		l.Name = model.ParseText(cleanName(h2.Text()))
	}

	container.Find("ul").First().Find("li").Each(func(_ int, li *goquery.Selection) {
		text := strippedText(li)
		switch {
		case strings.Contains(text, "Adresse"):
			l.Address = model.ParseText(afterColon(text))
		case strings.Contains(text, "Téléphone"):
			l.Phone = model.ParseText(afterColon(text))
		case strings.Contains(text, "Site"):
			l.Website = model.None()
			if href, ok := li.Find("a[href]").First().Attr("href"); ok {
				l.Website = model.ParseText(href)
			}
		case strings.Contains(text, "Accès"):
			l.MetroAccess = model.ParseText(afterColon(text))
		}
	})
	return l, true
}
