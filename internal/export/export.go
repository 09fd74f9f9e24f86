// Package export writes people cards out as four flat tables, one file per
// sub-record category, each keyed by the card id.
package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"peoplecards/internal/components/assert"
	"peoplecards/internal/components/chrono"
	"peoplecards/internal/components/telemetry"
	"peoplecards/internal/peoplecard"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("export")

const (
	report_builder_build = "builder.build"
	report_builder_table = "builder.table"
)

// TimestampLayout is the layout of the optional file name suffix.
const TimestampLayout = "2006-01-02_15-04-05"

type Format string

const (
	FORMAT_CSV  Format = "csv"
	FORMAT_XLSX Format = "xlsx"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FORMAT_CSV:
		return FORMAT_CSV, nil
	case FORMAT_XLSX:
		return FORMAT_XLSX, nil
	}
	return "", fmt.Errorf("unknown export format %q, expected csv or xlsx", s)
}

func (f Format) Extension() string {
	return string(f)
}

// TableError is the failure to write the table of one category.
type TableError struct {
	Category string
	Path     string
	Err      error
}

func (e *TableError) Error() string {
	return fmt.Sprintf("write %s table to %s: %s", e.Category, e.Path, e.Err)
}

func (e *TableError) Unwrap() error {
	return e.Err
}

type Builder struct {
	format Format
	time   chrono.API
	tel    telemetry.API
}

func NewBuilder(format Format, time chrono.API, tel telemetry.API) Builder {
	assert.NotEmptyStr(string(format))
	assert.NotNil(time)
	assert.NotNil(tel)
	return Builder{
		format: format,
		time:   time,
		tel:    telemetry.NewScopedAPI("export", tel),
	}
}

// FileName returns `{category}_{outputName}[_{timestamp}].{ext}`.
func (b Builder) FileName(category, outputName, timestamp string) string {
	name := fmt.Sprintf("%s_%s", category, outputName)
	if timestamp != "" {
		name += "_" + timestamp
	}
	return name + "." + b.format.Extension()
}

// Build writes the four tables of cards into outputDir, rows in the order
// of cards. Every table is attempted even if an earlier one failed, the
// failures are returned joined as *TableError. The paths of the tables that
// were written are returned either way.
func (b Builder) Build(
	ctx context.Context,
	cards []peoplecard.Card,
	outputName, outputDir string,
	useTimestampSuffix bool,
) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Build", trace.WithAttributes(
		attribute.Int("cards", len(cards)),
		attribute.String("format", string(b.format)),
	))
	defer span.End()

	// one timestamp for the whole export so the four files pair up
	timestamp := ""
	if useTimestampSuffix {
		timestamp = b.time.Now().Format(TimestampLayout)
	}

	err := os.MkdirAll(outputDir, 0o755)
	if err != nil {
		b.tel.ReportBroken(report_builder_build, err, outputDir)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	written := []string{}
	errlist := []error{}
	for _, category := range Categories {
		table, _ := Table(category, cards)
		path := filepath.Join(outputDir, b.FileName(category, outputName, timestamp))

		err := b.write(path, category, table)
		if err != nil {
			tableErr := &TableError{Category: category, Path: path, Err: err}
			b.tel.ReportBroken(report_builder_table, tableErr)
			errlist = append(errlist, tableErr)
			continue
		}
		b.tel.ReportDebug("table written", category, path, len(table.Rows))
		written = append(written, path)
	}

	err = errors.Join(errlist...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return written, err
}

func (b Builder) write(path, category string, table RawTable) error {
	switch b.format {
	case FORMAT_XLSX:
		return writeXLSX(path, category, table)
	default:
		return writeCSV(path, table)
	}
}

func writeCSV(path string, table RawTable) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(file)
	err = w.Write(table.Columns)
	if err == nil {
		err = w.WriteAll(table.Rows)
	}
	closeErr := file.Close()
	if err != nil {
		return err
	}
	return closeErr
}

func writeXLSX(path, category string, table RawTable) error {
	f := excelize.NewFile()
	defer f.Close()

	const defaultSheet = "Sheet1"
	sheet := category
	_, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	index, err := f.GetSheetIndex(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	err = f.DeleteSheet(defaultSheet)
	if err != nil {
		return err
	}

	write := func(row int, values []string) error {
		for i, v := range values {
			cell, err := excelize.CoordinatesToCellName(i+1, row)
			if err != nil {
				return err
			}
			// strings only, snils and phone numbers must not turn into numbers
			err = f.SetCellStr(sheet, cell, v)
			if err != nil {
				return err
			}
		}
		return nil
	}

	err = write(1, table.Columns)
	if err != nil {
		return err
	}
	for i, row := range table.Rows {
		err = write(i+2, row)
		if err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}
