package dnevnik

import (
	"context"
	"errors"
	"fmt"
	"time"

	"peoplecards/internal/components/assert"
	"peoplecards/internal/components/telemetry"
	"peoplecards/internal/dom"
	"peoplecards/internal/peoplecard"
)

const (
	report_extractor_personal_data     = "extractor.personal-data"
	report_extractor_document          = "extractor.document"
	report_extractor_birth_certificate = "extractor.birth-certificate"
	report_extractor_passport          = "extractor.passport"
	report_extractor_contact_data      = "extractor.contact-data"
	report_extractor_worker_data       = "extractor.worker-data"
)

// nested tables of the document section
const (
	SUB_BIRTH_CERTIFICATE = "birth_certificate"
	SUB_PASSPORT          = "passport"
)

// Extractor reads the sub-records of a detail view. A field that cannot be
// read never fails the record, it takes its default value instead: "" for
// text, peoplecard.MinDate for dates and false for the gender radio.
type Extractor struct {
	q   dom.Querier
	tel telemetry.API
}

func NewExtractor(q dom.Querier, tel telemetry.API) Extractor {
	assert.NotNil(q)
	assert.NotNil(tel)
	return Extractor{q: q, tel: tel}
}

// fieldReader reads the fields of one table below one root and counts the
// ones it had to default.
type fieldReader struct {
	e       Extractor
	report  string
	root    dom.Node
	table   Table
	missing int64
}

func (e Extractor) reader(report string, root dom.Node, table Table) *fieldReader {
	if table == nil {
		e.tel.ReportWarning(report, fmt.Errorf("%w: no locator table", ErrLocatorMissing))
	}
	return &fieldReader{e: e, report: report, root: root, table: table}
}

func (r *fieldReader) node(name string) (dom.Node, bool) {
	if r.table == nil {
		r.missing++
		return nil, false
	}
	locator, ok := r.table.Locator(name)
	if !ok {
		r.missing++
		r.e.tel.ReportWarning(r.report, fmt.Errorf("%w: %s", ErrLocatorMissing, name))
		return nil, false
	}
	node, err := r.e.q.FindOne(r.root, locator)
	if errors.Is(err, dom.ErrNotFound) {
		r.missing++
		r.e.tel.ReportDebug(fmt.Sprintf("%s: field not on page", r.report), name, locator)
		return nil, false
	}
	if err != nil {
		r.missing++
		r.e.tel.ReportWarning(r.report, fmt.Errorf("%s: %w", name, err))
		return nil, false
	}
	return node, true
}

// value reads the value of a form control.
func (r *fieldReader) value(name string) string {
	node, ok := r.node(name)
	if !ok {
		return ""
	}
	value, err := r.e.q.ReadValue(node)
	if err != nil {
		r.missing++
		r.e.tel.ReportWarning(r.report, fmt.Errorf("%s: %w", name, err))
		return ""
	}
	return value
}

// text reads the visible text of a node.
func (r *fieldReader) text(name string) string {
	node, ok := r.node(name)
	if !ok {
		return ""
	}
	text, err := r.e.q.ReadText(node)
	if err != nil {
		r.missing++
		r.e.tel.ReportWarning(r.report, fmt.Errorf("%s: %w", name, err))
		return ""
	}
	return text
}

func (r *fieldReader) date(name string) time.Time {
	return peoplecard.ParseDate(r.value(name))
}

func (r *fieldReader) checked(name string) bool {
	node, ok := r.node(name)
	if !ok {
		return false
	}
	value, present, err := r.e.q.ReadAttribute(node, "checked")
	if err != nil {
		r.missing++
		r.e.tel.ReportWarning(r.report, fmt.Errorf("%s: %w", name, err))
		return false
	}
	return peoplecard.ParseChecked(value, present)
}

func (r *fieldReader) done(ctx context.Context) {
	count(ctx, fieldsMissing, r.missing)
}

func (e Extractor) PersonalData(ctx context.Context, root dom.Node, table Table) peoplecard.PersonalData {
	r := e.reader(report_extractor_personal_data, root, table)
	defer r.done(ctx)

	return peoplecard.PersonalData{
		LastName:   r.value("last_name"),
		FirstName:  r.value("first_name"),
		MiddleName: r.value("middle_name"),
		Gender:     peoplecard.ParseGender(r.checked("sex_male")),
		BirthDate:  r.date("birth_date"),
		BirthPlace: r.value("birth_place"),
		// TODO: map the caption of the citizenship select onto
		// peoplecard.Citizenship once the captions are confirmed against a
		// live detail view, until then every card is CITIZENSHIP_UNDEFINED.
		Citizenship: peoplecard.CITIZENSHIP_UNDEFINED,
		Notes:       r.text("notes"),
	}
}

func (e Extractor) BirthCertificate(ctx context.Context, root dom.Node, table Table) peoplecard.BirthCertificate {
	r := e.reader(report_extractor_birth_certificate, root, table)
	defer r.done(ctx)

	return peoplecard.BirthCertificate{
		Series:      r.value("series"),
		Number:      r.value("number"),
		IssuedBy:    r.value("issued_by"),
		IssuedDate:  r.date("issued_date"),
		IssuedPlace: r.value("issued_place"),
		ActNumber:   r.value("act_number"),
	}
}

func (e Extractor) Passport(ctx context.Context, root dom.Node, table Table) peoplecard.Passport {
	r := e.reader(report_extractor_passport, root, table)
	defer r.done(ctx)

	return peoplecard.Passport{
		Series:      r.value("series"),
		Number:      r.value("number"),
		IssuedBy:    r.value("issued_by"),
		IssuedDate:  r.date("issued_date"),
		IssuedPlace: r.value("issued_place"),
	}
}

func (e Extractor) Document(ctx context.Context, root dom.Node, table Table) peoplecard.Document {
	r := e.reader(report_extractor_document, root, table)
	defer r.done(ctx)

	return peoplecard.Document{
		Snils:            r.value("snils"),
		Visa:             r.value("visa"),
		BirthCertificate: e.BirthCertificate(ctx, root, table.Sub(SUB_BIRTH_CERTIFICATE)),
		Passport:         e.Passport(ctx, root, table.Sub(SUB_PASSPORT)),
	}
}

func (e Extractor) ContactData(ctx context.Context, root dom.Node, table Table) peoplecard.ContactData {
	r := e.reader(report_extractor_contact_data, root, table)
	defer r.done(ctx)

	return peoplecard.ContactData{
		PermanentAddress:        r.value("permanent_address"),
		TemporaryAddress:        r.value("temporary_address"),
		TemporaryAddressEndDate: r.date("temporary_address_end_date"),
		FactAddress:             r.value("fact_address"),
		Email:                   r.value("email"),
		WorkPhone:               r.value("work_phone"),
		MobilePhone:             r.value("mobile_phone"),
		HomePhone:               r.value("home_phone"),
	}
}

func (e Extractor) WorkerData(ctx context.Context, root dom.Node, table Table) peoplecard.WorkerData {
	r := e.reader(report_extractor_worker_data, root, table)
	defer r.done(ctx)

	return peoplecard.WorkerData{
		WorkStartDate:    r.date("work_start_date"),
		WorkEndDate:      r.date("work_end_date"),
		TeacherStartDate: r.date("teacher_start_date"),
	}
}
