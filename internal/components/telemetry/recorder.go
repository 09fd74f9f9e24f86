package telemetry

import (
	"strings"
	"sync"
)

type Severity int

const (
	SEVERITY_DEBUG Severity = iota
	SEVERITY_WARNING
	SEVERITY_BROKEN
	SEVERITY_COUNT
)

type Report struct {
	Severity Severity
	Id       string
	Params   []any
	Count    int64
}

// Recorder is an API that keeps every report in memory, it is used by tests
// to assert on what a component reported.
type Recorder struct {
	mu      sync.Mutex
	reports []Report
}

func (r *Recorder) add(report Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.add(Report{Severity: SEVERITY_BROKEN, Id: id, Params: params})
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.add(Report{Severity: SEVERITY_WARNING, Id: id, Params: params})
}

func (r *Recorder) ReportDebug(msg string, params ...any) {
	r.add(Report{Severity: SEVERITY_DEBUG, Id: msg, Params: params})
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.add(Report{Severity: SEVERITY_COUNT, Id: id, Count: count})
}

func (r *Recorder) Reports() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Report, len(r.reports))
	copy(out, r.reports)
	return out
}

// Find returns the reports of a given severity whose id contains substr.
func (r *Recorder) Find(severity Severity, substr string) []Report {
	var out []Report
	for _, report := range r.Reports() {
		if report.Severity == severity && strings.Contains(report.Id, substr) {
			out = append(out, report)
		}
	}
	return out
}
