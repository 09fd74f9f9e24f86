package telemetry

import (
	"fmt"
)

// API is an abstraction over logging/metrics so that components can be tested
// for the reports they make.
//
// note: fault injection point
type API interface {
	// ReportBroken reports a component that broke in a way that aborts what it
	// was doing, ex. a navigation that failed or a table that could not be written.
	//
	// The `id` names the **component** that broke, not the line that broke. It is
	// `<struct or intf>.<method>` in lowercase with dashes, ex. `listing.collect-links`
	// or `extractor.personal-data`. The ScopedAPI prefix disambiguates packages.
	// Whether something broke is already told by which method is called, so
	// ids like `login.broken-redirect` should just be `login.redirect`.
	ReportBroken(id string, params ...any)

	// ReportWarning reports something that is worth a look but was worked
	// around, ex. a detail view that is missing its worker block.
	ReportWarning(id string, params ...any)

	// ReportDebug reports information that is only useful while debugging,
	// ex. a single field that was not present on a form.
	ReportDebug(msg string, params ...any)

	// ReportCount reports the current value of a counter.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id or message with a namespace, kind of like a
// "sub" logger created with log.New().
type ScopedAPI struct {
	namespace string
	inner     API
}

// NewScopedAPI creates a ScopedAPI out of a given namespace and another api.
func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(fmt.Sprintf("%s: %s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(fmt.Sprintf("%s: %s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(fmt.Sprintf("%s: %s", s.namespace, msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(fmt.Sprintf("%s: %s", s.namespace, id), count)
}
