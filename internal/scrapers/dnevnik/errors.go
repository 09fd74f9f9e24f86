package dnevnik

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	ErrBadIdentifier  = errors.New("detail link has no positive person id")
	ErrBadPageCount   = errors.New("page counter is not a number")
	ErrLocatorMissing = errors.New("locator missing from configuration")
)

// PreconditionError is returned when a step of the run finds the browser on
// a different page than the one the step works on.
type PreconditionError struct {
	Step     string
	Expected string
	Actual   string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: expected to be at %s but the current url is %s", e.Step, e.Expected, e.Actual)
}

// sameLocation compares scheme, host and path, ignoring the query, the
// fragment and a trailing slash.
func sameLocation(expected, actual string) bool {
	e, err := url.Parse(expected)
	if err != nil {
		return expected == actual
	}
	a, err := url.Parse(actual)
	if err != nil {
		return expected == actual
	}
	return strings.EqualFold(e.Scheme, a.Scheme) &&
		strings.EqualFold(e.Host, a.Host) &&
		strings.TrimSuffix(e.Path, "/") == strings.TrimSuffix(a.Path, "/")
}
