package dnevnik

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"peoplecards/internal/dom"
	"peoplecards/lib/configutil"
)

const (
	UrlsFile     = "urls.json5"
	LocatorsFile = "locators.json5"
)

// web services, these are the top level keys of both config files.
const (
	SERVICE_DNEVNIK   = "dnevnik"
	SERVICE_GOSUSLUGI = "gosuslugi"
)

// sections of a person's detail view.
const (
	SECTION_PERSONAL_DATA = "personal_data"
	SECTION_DOCUMENT      = "document"
	SECTION_CONTACT_DATA  = "contact_data"
	SECTION_WORKER_DATA   = "worker_data"
)

// locator of the sub-structure a section table describes.
const rootKey = "root"

const pagePlaceholder = "{page}"

type DnevnikUrls struct {
	Login          string `json:"login"`
	CurrentPeoples string `json:"current_peoples"`
	// CurrentPeoplesPage is the listing url of one page, either containing
	// {page} or ending where the page number should be appended.
	CurrentPeoplesPage string `json:"current_peoples_page"`
	// PersonIdMarker is the query parameter of a detail link holding the id.
	PersonIdMarker string `json:"person_id_marker"`
}

type GosuslugiUrls struct {
	Login string `json:"login"`
}

type Urls struct {
	Dnevnik   DnevnikUrls   `json:"dnevnik"`
	Gosuslugi GosuslugiUrls `json:"gosuslugi"`
}

// PageURL returns the listing url of a 1-based page.
func (u DnevnikUrls) PageURL(page int) string {
	n := strconv.Itoa(page)
	if strings.Contains(u.CurrentPeoplesPage, pagePlaceholder) {
		return strings.ReplaceAll(u.CurrentPeoplesPage, pagePlaceholder, n)
	}
	return u.CurrentPeoplesPage + n
}

func (u Urls) validate() error {
	missing := []string{}
	if u.Dnevnik.Login == "" {
		missing = append(missing, "dnevnik.login")
	}
	if u.Dnevnik.CurrentPeoples == "" {
		missing = append(missing, "dnevnik.current_peoples")
	}
	if u.Dnevnik.CurrentPeoplesPage == "" {
		missing = append(missing, "dnevnik.current_peoples_page")
	}
	if u.Gosuslugi.Login == "" {
		missing = append(missing, "gosuslugi.login")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s: %s", configutil.ErrConfigMissing, UrlsFile, strings.Join(missing, ", "))
	}
	return nil
}

// Table maps a logical field name either to a locator or to a nested Table.
type Table map[string]any

// Locator returns the locator of a field.
func (t Table) Locator(name string) (string, bool) {
	v, ok := t[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// Sub returns a nested table, nil if there is none.
func (t Table) Sub(name string) Table {
	switch v := t[name].(type) {
	case Table:
		return v
	case map[string]any:
		return Table(v)
	}
	return nil
}

// Keys returns the keys of the table in sorted order.
func (t Table) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RelativeTo rewrites absolute xpaths that start with parent, ex. ones
// copied out of the browser dev tools, into xpaths relative to parent.
// CSS selectors and xpaths outside of parent are kept as is.
func (t Table) RelativeTo(parent string) Table {
	if t == nil {
		return nil
	}
	out := make(Table, len(t))
	for k := range t {
		if sub := t.Sub(k); sub != nil {
			out[k] = sub.RelativeTo(parent)
			continue
		}
		out[k] = t[k]
		s, ok := t[k].(string)
		if !ok || k == rootKey || parent == "" || !dom.IsXPath(parent) {
			continue
		}
		rest, found := strings.CutPrefix(s, parent)
		if !found || !strings.HasPrefix(rest, "/") {
			continue
		}
		out[k] = "." + rest
	}
	return out
}

// Locators holds one Table per web service.
type Locators map[string]Table

func (l Locators) Service(name string) Table {
	return l[name]
}

// Section returns the table of a detail view section with its field
// locators made relative to the section root.
func (l Locators) Section(name string) Table {
	section := l.Service(SERVICE_DNEVNIK).Sub(name)
	if section == nil {
		return nil
	}
	root, ok := section.Locator(rootKey)
	if !ok {
		return section
	}
	return section.RelativeTo(root)
}

type Config struct {
	Urls     Urls
	Locators Locators
}

// LoadConfig reads urls.json5 and locators.json5 (plus their .local
// overrides) from dir. A missing file is reported as configutil.ErrConfigMissing.
func LoadConfig(dir string) (Config, error) {
	urls, err := configutil.ReadConfig[Urls](filepath.Join(dir, UrlsFile))
	if err != nil {
		return Config{}, fmt.Errorf("read urls: %w", err)
	}
	if urls.Dnevnik.PersonIdMarker == "" {
		urls.Dnevnik.PersonIdMarker = "person"
	}
	err = urls.validate()
	if err != nil {
		return Config{}, err
	}

	locators, err := configutil.ReadConfig[Locators](filepath.Join(dir, LocatorsFile))
	if err != nil {
		return Config{}, fmt.Errorf("read locators: %w", err)
	}
	if locators.Service(SERVICE_DNEVNIK) == nil {
		return Config{}, fmt.Errorf("%w: %s: no %s table", configutil.ErrConfigMissing, LocatorsFile, SERVICE_DNEVNIK)
	}

	return Config{Urls: urls, Locators: locators}, nil
}
