package dnevnik

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"peoplecards/internal/dom"
	"peoplecards/lib/htmlutil"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_listing_page_count    = "listing.page-count"
	report_listing_collect_links = "listing.collect-links"
	report_listing_duplicate     = "listing.duplicate"
)

// dnevnik listing locators
const (
	locator_pages_counter = "pages_counter"
	locator_people_table  = "people_table"
	// the link to the detail view inside a row, defaults to the anchor in
	// the last cell
	locator_row_action = "row_action"
)

const defaultRowAction = "td:last-child a"

// PersonLink is the detail view of one person as found on the listing.
type PersonLink struct {
	Id  int64
	Url string
}

// ParsePersonId reads the person id out of the marker query parameter of a
// detail link.
func ParsePersonId(link, marker string) (int64, error) {
	parsed, err := url.Parse(link)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrBadIdentifier, link, err)
	}
	raw := strings.TrimSpace(parsed.Query().Get(marker))
	if raw == "" {
		return 0, fmt.Errorf("%w: %s: no %s parameter", ErrBadIdentifier, link, marker)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s: %s=%s", ErrBadIdentifier, link, marker, raw)
	}
	return id, nil
}

// DiscoverPageCount opens the first listing page and reads the number of
// pages off its pagination.
func (s Scraper) DiscoverPageCount(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "DiscoverPageCount")
	defer span.End()

	count, err := s.discoverPageCount(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.tel.ReportBroken(report_listing_page_count, err)
		return 0, err
	}
	span.SetAttributes(attribute.Int("pages", count))
	return count, nil
}

func (s Scraper) discoverPageCount(ctx context.Context) (int, error) {
	err := s.open(ctx, s.urls.Dnevnik.CurrentPeoples)
	if err != nil {
		return 0, fmt.Errorf("open people listing: %w", err)
	}
	counter, err := s.find(nil, SERVICE_DNEVNIK, locator_pages_counter)
	if err != nil {
		return 0, err
	}
	text, err := s.session.ReadText(counter)
	if err != nil {
		return 0, fmt.Errorf("read page counter: %w", err)
	}
	text = htmlutil.NormalizeText(text)
	count, err := strconv.Atoi(text)
	if err != nil || count < 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadPageCount, text)
	}
	return count, nil
}

// CollectLinksOnPage opens a 1-based listing page and returns the detail
// links of its rows in page order. Rows without a detail link (ex. the
// header) are skipped, rows whose link carries no usable id are skipped
// with a warning.
func (s Scraper) CollectLinksOnPage(ctx context.Context, page int) ([]PersonLink, error) {
	ctx, span := tracer.Start(ctx, "CollectLinksOnPage", trace.WithAttributes(
		attribute.Int("page", page),
	))
	defer span.End()

	links, err := s.collectLinksOnPage(ctx, page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.tel.ReportBroken(report_listing_collect_links, err, page)
		return nil, err
	}
	span.SetAttributes(attribute.Int("links", len(links)))
	count(ctx, pagesVisited, 1)
	return links, nil
}

func (s Scraper) collectLinksOnPage(ctx context.Context, page int) ([]PersonLink, error) {
	pageUrl := s.urls.Dnevnik.PageURL(page)
	err := s.open(ctx, pageUrl)
	if err != nil {
		return nil, fmt.Errorf("open listing page %d: %w", page, err)
	}

	table, err := s.find(nil, SERVICE_DNEVNIK, locator_people_table)
	if err != nil {
		return nil, err
	}
	rows, err := s.session.FindAll(table, "tr")
	if err != nil {
		return nil, fmt.Errorf("listing page %d rows: %w", page, err)
	}

	rowAction, ok := s.locators.Service(SERVICE_DNEVNIK).Locator(locator_row_action)
	if !ok {
		rowAction = defaultRowAction
	}

	// relative hrefs are resolved against the page they were found on
	base, err := s.session.CurrentURL()
	if err != nil {
		base = pageUrl
	}
	baseUrl, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("listing page %d url: %w", page, err)
	}

	links := []PersonLink{}
	for i, row := range rows {
		action, found, err := dom.FindOptional(s.session, row, rowAction)
		if err != nil {
			return nil, fmt.Errorf("listing page %d row %d: %w", page, i, err)
		}
		if !found {
			continue
		}
		href, present, err := s.session.ReadAttribute(action, "href")
		if err != nil {
			return nil, fmt.Errorf("listing page %d row %d: %w", page, i, err)
		}
		if !present || strings.TrimSpace(href) == "" {
			s.tel.ReportDebug("listing row without a detail link", page, i)
			continue
		}

		resolved, err := htmlutil.ResolveHref(baseUrl, strings.TrimSpace(href))
		if err != nil {
			s.tel.ReportWarning(report_listing_collect_links, fmt.Errorf("%w: %s", ErrBadIdentifier, href), page, i)
			continue
		}
		link := resolved.String()
		id, err := ParsePersonId(link, s.urls.Dnevnik.PersonIdMarker)
		if err != nil {
			s.tel.ReportWarning(report_listing_collect_links, err, page, i)
			continue
		}
		links = append(links, PersonLink{Id: id, Url: link})
	}
	return links, nil
}

// CollectLinks walks the listing from page 1 up to the discovered page count,
// or up to pageLimit when it is positive and smaller.
func (s Scraper) CollectLinks(ctx context.Context, pageLimit int) ([]PersonLink, error) {
	total, err := s.DiscoverPageCount(ctx)
	if err != nil {
		return nil, err
	}
	last := total
	if pageLimit > 0 && pageLimit < total {
		last = pageLimit
	}
	s.tel.ReportDebug("walking people listing", "pages", last, "total", total)

	links := []PersonLink{}
	for page := 1; page <= last; page++ {
		found, err := s.CollectLinksOnPage(ctx, page)
		if err != nil {
			return nil, err
		}
		links = append(links, found...)
		if s.perfStats != nil {
			s.perfStats(ctx)
		}
	}
	return s.dedupe(links), nil
}

// dedupe keeps the last link of every id, at the position of that last
// occurrence, and warns about every link it drops.
func (s Scraper) dedupe(links []PersonLink) []PersonLink {
	lastIndex := make(map[int64]int, len(links))
	for i, link := range links {
		if prev, seen := lastIndex[link.Id]; seen {
			s.tel.ReportWarning(
				report_listing_duplicate,
				fmt.Errorf("person %d listed more than once", link.Id),
				links[prev].Url,
				link.Url,
			)
		}
		lastIndex[link.Id] = i
	}

	out := make([]PersonLink, 0, len(lastIndex))
	for i, link := range links {
		if lastIndex[link.Id] == i {
			out = append(out, link)
		}
	}
	return out
}
