package dnevnik

import (
	"context"
	"errors"
	"fmt"

	"peoplecards/internal/dom"
	"peoplecards/internal/peoplecard"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_assemble_record  = "assemble.record"
	report_assemble_section = "assemble.section"
)

// sectionRoot finds the sub-structure of a section on the current detail
// view. A section without a root locator is read from the whole page, a
// root that is not on the page yields (nil, false).
func (s Scraper) sectionRoot(name string, table Table) (dom.Node, bool) {
	locator, ok := table.Locator(rootKey)
	if !ok {
		return nil, true
	}
	node, err := s.session.FindOne(nil, locator)
	if errors.Is(err, dom.ErrNotFound) {
		s.tel.ReportWarning(report_assemble_section, fmt.Errorf("%s block not on page: %w", name, err))
		return nil, false
	}
	if err != nil {
		s.tel.ReportWarning(report_assemble_section, fmt.Errorf("%s block: %w", name, err))
		return nil, false
	}
	return node, true
}

// AssembleRecord opens a detail view and reads all four sub-records of the
// card. A section whose block is missing leaves its sub-record at defaults,
// only a failed navigation is an error.
func (s Scraper) AssembleRecord(ctx context.Context, link PersonLink) (peoplecard.Card, error) {
	ctx, span := tracer.Start(ctx, "AssembleRecord", trace.WithAttributes(
		attribute.Int64("id", link.Id),
	))
	defer span.End()

	err := s.open(ctx, link.Url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.tel.ReportBroken(report_assemble_record, err, link.Id, link.Url)
		return peoplecard.Card{}, fmt.Errorf("open person %d: %w", link.Id, err)
	}

	card := peoplecard.Card{Id: link.Id}

	table := s.locators.Section(SECTION_PERSONAL_DATA)
	if root, ok := s.sectionRoot(SECTION_PERSONAL_DATA, table); ok {
		card.PersonalData = s.extractor.PersonalData(ctx, root, table)
	}
	table = s.locators.Section(SECTION_DOCUMENT)
	if root, ok := s.sectionRoot(SECTION_DOCUMENT, table); ok {
		card.Document = s.extractor.Document(ctx, root, table)
	}
	table = s.locators.Section(SECTION_CONTACT_DATA)
	if root, ok := s.sectionRoot(SECTION_CONTACT_DATA, table); ok {
		card.ContactData = s.extractor.ContactData(ctx, root, table)
	}
	table = s.locators.Section(SECTION_WORKER_DATA)
	if root, ok := s.sectionRoot(SECTION_WORKER_DATA, table); ok {
		card.WorkerData = s.extractor.WorkerData(ctx, root, table)
	}

	count(ctx, recordsAssembled, 1)
	return card, nil
}

// ParseCurrentPeoples collects the detail links of the listing (see
// CollectLinks for pageLimit) and assembles a card for every distinct person,
// in listing order.
func (s Scraper) ParseCurrentPeoples(ctx context.Context, pageLimit int) ([]peoplecard.Card, error) {
	links, err := s.CollectLinks(ctx, pageLimit)
	if err != nil {
		return nil, err
	}

	cards := make([]peoplecard.Card, 0, len(links))
	for _, link := range links {
		card, err := s.AssembleRecord(ctx, link)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	s.tel.ReportCount("cards", int64(len(cards)))
	return cards, nil
}
