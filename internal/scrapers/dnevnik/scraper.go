// Package dnevnik drives a logged in dnevnik session through the people
// listing and turns every person's detail view into a peoplecard.Card.
package dnevnik

import (
	"context"
	"fmt"
	"time"

	"peoplecards/internal/components/assert"
	"peoplecards/internal/components/chrono"
	"peoplecards/internal/components/telemetry"
	"peoplecards/internal/dom"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("scrapers/dnevnik")
var meter = otel.Meter("scrapers/dnevnik")

var recordsAssembled, _ = meter.Int64Counter("peoplecards.records_assembled")
var fieldsMissing, _ = meter.Int64Counter("peoplecards.fields_missing")
var pagesVisited, _ = meter.Int64Counter("peoplecards.pages_visited")

const (
	DefaultInteractionDelay = time.Second
	DefaultPageLoadDelay    = 4 * time.Second
)

// Delays are the fixed waits of a run. The browser gets Interaction after
// every input and PageLoad after every navigation.
type Delays struct {
	Interaction time.Duration
	PageLoad    time.Duration
}

func DefaultDelays() Delays {
	return Delays{
		Interaction: DefaultInteractionDelay,
		PageLoad:    DefaultPageLoadDelay,
	}
}

type Options struct {
	Config      Config
	Credentials Credentials
	Delays      Delays
	// PerfStats is called once per listing page, nil disables it.
	PerfStats func(ctx context.Context)
}

// Scraper is not safe for concurrent use, it shares its session's single
// current page.
type Scraper struct {
	session   dom.Session
	urls      Urls
	locators  Locators
	creds     Credentials
	delays    Delays
	perfStats func(ctx context.Context)
	time      chrono.API
	tel       telemetry.API
	extractor Extractor
}

func NewScraper(session dom.Session, opts Options, time chrono.API, tel telemetry.API) Scraper {
	assert.NotNil(session)
	assert.NotNil(time)
	assert.NotNil(tel)
	assert.NonNegative("interaction delay", int64(opts.Delays.Interaction))
	assert.NonNegative("page load delay", int64(opts.Delays.PageLoad))

	tel = telemetry.NewScopedAPI("dnevnik_scraper", tel)

	return Scraper{
		session:   session,
		urls:      opts.Config.Urls,
		locators:  opts.Config.Locators,
		creds:     opts.Credentials,
		delays:    opts.Delays,
		perfStats: opts.PerfStats,
		time:      time,
		tel:       tel,
		extractor: NewExtractor(session, tel),
	}
}

func (s Scraper) waitInteraction(ctx context.Context) error {
	return s.time.Sleep(ctx, s.delays.Interaction)
}

func (s Scraper) waitPageLoad(ctx context.Context) error {
	return s.time.Sleep(ctx, s.delays.PageLoad)
}

// open navigates and waits for the page to render.
func (s Scraper) open(ctx context.Context, url string) error {
	err := s.session.NavigateTo(ctx, url)
	if err != nil {
		return err
	}
	return s.waitPageLoad(ctx)
}

func (s Scraper) locator(service, name string) (string, error) {
	locator, ok := s.locators.Service(service).Locator(name)
	if !ok {
		return "", fmt.Errorf("%w: %s.%s", ErrLocatorMissing, service, name)
	}
	return locator, nil
}

// find looks up a node the current step cannot go on without.
func (s Scraper) find(root dom.Node, service, name string) (dom.Node, error) {
	locator, err := s.locator(service, name)
	if err != nil {
		return nil, err
	}
	node, err := s.session.FindOne(root, locator)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", service, name, err)
	}
	return node, nil
}

// requireLocation fails with a PreconditionError unless the session is at
// expected.
func (s Scraper) requireLocation(step, expected string) error {
	actual, err := s.session.CurrentURL()
	if err != nil {
		return fmt.Errorf("%s: %w", step, err)
	}
	if !sameLocation(expected, actual) {
		return &PreconditionError{Step: step, Expected: expected, Actual: actual}
	}
	return nil
}

func count(ctx context.Context, counter metric.Int64Counter, n int64) {
	if counter == nil || n == 0 {
		return
	}
	counter.Add(ctx, n)
}
