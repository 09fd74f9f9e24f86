package dnevnik

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"peoplecards/internal/components/chrono"
	"peoplecards/internal/components/telemetry"
	"peoplecards/internal/dom/htmlsession"

	"github.com/stretchr/testify/require"
)

const (
	testLogin    = "teacher@example.com"
	testPassword = "hunter2"
)

// fixtureSite serves a tiny server rendered imitation of the dnevnik login,
// the gosuslugi login and the people listing.
type fixtureSite struct {
	t          *testing.T
	pagesTotal string
	// listing rows per page, each row is the href of its detail link
	pages   map[int][]string
	persons map[int64]string
	// when set the dnevnik login page redirects here
	loginRedirect string
}

func newFixtureSite(t *testing.T) *fixtureSite {
	return &fixtureSite{
		t:          t,
		pagesTotal: "3",
		pages: map[int][]string{
			1: {
				"/dnevnik/person?person=42&school=1",
				"/dnevnik/person?person=43&school=1",
				"/dnevnik/person?person=abc&school=1",
			},
			2: {
				"/dnevnik/person?person=44&school=1",
				"/dnevnik/person?school=1&person=42",
			},
			3: {
				"person?person=45",
			},
		},
		persons: map[int64]string{
			42: person42,
			43: person43,
			44: minimalPerson("Sidorov", "Petr"),
			45: minimalPerson("Kuznetsova", "Olga"),
		},
	}
}

func (f *fixtureSite) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/dnevnik/login", func(w http.ResponseWriter, r *http.Request) {
		if f.loginRedirect != "" {
			http.Redirect(w, r, f.loginRedirect, http.StatusFound)
			return
		}
		fmt.Fprint(w, `<html><body>
			<a id="esia-login" href="/esia/login?redirect_uri=dnevnik">Войти через Госуслуги</a>
		</body></html>`)
	})
	mux.HandleFunc("/esia/login", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<form method="post" action="/esia/submit">
				<input id="login" name="login" type="text">
				<input id="password" name="password" type="password">
				<button id="loginByPwdButton" type="submit">Войти</button>
			</form>
		</body></html>`)
	})
	mux.HandleFunc("/esia/submit", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			f.t.Error(err)
		}
		if r.PostForm.Get("login") != testLogin || r.PostForm.Get("password") != testPassword {
			http.Error(w, "bad credentials", http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "ok", Path: "/"})
		http.Redirect(w, r, "/esia/prompt", http.StatusFound)
	})
	mux.HandleFunc("/esia/prompt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<p>Protect your account</p>
			<a class="later" href="/dnevnik/home">Later</a>
		</body></html>`)
	})
	mux.HandleFunc("/dnevnik/home", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>home</body></html>`)
	})
	mux.HandleFunc("/dnevnik/people", func(w http.ResponseWriter, r *http.Request) {
		page := 1
		if raw := r.URL.Query().Get("page"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				http.NotFound(w, r)
				return
			}
			page = n
		}
		fmt.Fprint(w, f.listingPage(page))
	})
	mux.HandleFunc("/dnevnik/person", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.URL.Query().Get("person"), 10, 64)
		body, ok := f.persons[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `<html><body>%s</body></html>`, body)
	})
	return mux
}

func (f *fixtureSite) listingPage(page int) string {
	rows := strings.Builder{}
	rows.WriteString(`<tr><th>Name</th><th></th></tr>`)
	for i, href := range f.pages[page] {
		fmt.Fprintf(&rows, `<tr><td>person %d</td><td><a href="%s">open</a></td></tr>`, i, href)
	}
	// a row without a detail link
	rows.WriteString(`<tr><td colspan="2">total</td></tr>`)

	return fmt.Sprintf(`<html><body>
		<table id="people">%s</table>
		<div class="pager"><span class="pages-total"> %s </span></div>
	</body></html>`, rows.String(), f.pagesTotal)
}

const person42 = `
<div id="personal">
	<input name="lastName" value="Ivanov">
	<input name="firstName" value="Ivan">
	<input name="middleName" value="">
	<input id="sexM" type="radio" name="sex" value="M" checked="checked">
	<input id="sexF" type="radio" name="sex" value="F">
	<input name="birthday" value="01.05.2010">
	<input name="birthPlace" value="">
	<select name="citizenship"><option selected>Гражданин Российской Федерации</option></select>
	<div id="notes"></div>
</div>
<div id="document">
	<input name="snils" value="123-456-789 00">
	<input name="visa" value="">
	<fieldset id="birthCertificate">
		<input name="bcSeries" value="II-AB">
		<input name="bcNumber" value="123456">
		<input name="bcIssuedBy" value="ZAGS">
		<input name="bcIssuedDate" value="31.02.2010">
		<input name="bcIssuedPlace" value="Astrakhan">
		<input name="bcActNumber" value="77">
	</fieldset>
	<fieldset id="passport"></fieldset>
</div>
<div id="contacts">
	<input name="permanentAddress" value="Astrakhan, Lenina 1">
	<input name="temporaryAddress" value="">
	<input name="temporaryAddressEnd" value="31.12.2025">
	<input name="factAddress" value="">
	<input name="email" value="ivanov@example.com">
	<input name="workPhone" value="">
	<input name="mobilePhone" value="+7 900 000 00 00">
	<input name="homePhone" value="">
</div>
<div id="work">
	<input name="workStart" value="01.09.2020">
	<input name="workEnd" value="">
	<input name="teacherStart" value="bogus">
</div>`

// no worker block
const person43 = `
<div id="personal">
	<input name="lastName" value="Petrova">
	<input name="firstName" value="Anna">
	<input name="middleName" value="Sergeevna">
	<input id="sexM" type="radio" name="sex" value="M">
	<input id="sexF" type="radio" name="sex" value="F" checked="checked">
	<input name="birthday" value="12.11.1985">
	<input name="birthPlace" value="Moscow">
	<div id="notes">  class   teacher </div>
</div>
<div id="document"><input name="snils" value="987-654-321 00"></div>
<div id="contacts"><input name="email" value="petrova@example.com"></div>`

func minimalPerson(last, first string) string {
	return fmt.Sprintf(`<div id="personal">
		<input name="lastName" value="%s">
		<input name="firstName" value="%s">
	</div>`, last, first)
}

func testLocators() Locators {
	return Locators{
		SERVICE_DNEVNIK: Table{
			"login_with_gosuslugi": "a#esia-login",
			"pages_counter":        ".pager .pages-total",
			"people_table":         "table#people",
			SECTION_PERSONAL_DATA: Table{
				"root":        "#personal",
				"last_name":   "input[name=lastName]",
				"first_name":  "input[name=firstName]",
				"middle_name": "input[name=middleName]",
				"sex_male":    "input#sexM",
				"birth_date":  "input[name=birthday]",
				"birth_place": "input[name=birthPlace]",
				"citizenship": "select[name=citizenship]",
				"notes":       "#notes",
			},
			SECTION_DOCUMENT: Table{
				"root":  "#document",
				"snils": "input[name=snils]",
				"visa":  "input[name=visa]",
				SUB_BIRTH_CERTIFICATE: Table{
					"series":       "#birthCertificate input[name=bcSeries]",
					"number":       "#birthCertificate input[name=bcNumber]",
					"issued_by":    "#birthCertificate input[name=bcIssuedBy]",
					"issued_date":  "#birthCertificate input[name=bcIssuedDate]",
					"issued_place": "#birthCertificate input[name=bcIssuedPlace]",
					"act_number":   "#birthCertificate input[name=bcActNumber]",
				},
				SUB_PASSPORT: Table{
					"series":       "#passport input[name=passportSeries]",
					"number":       "#passport input[name=passportNumber]",
					"issued_by":    "#passport input[name=passportIssuedBy]",
					"issued_date":  "#passport input[name=passportIssuedDate]",
					"issued_place": "#passport input[name=passportIssuedPlace]",
				},
			},
			SECTION_CONTACT_DATA: Table{
				"root":                       "#contacts",
				"permanent_address":          "input[name=permanentAddress]",
				"temporary_address":          "input[name=temporaryAddress]",
				"temporary_address_end_date": "input[name=temporaryAddressEnd]",
				"fact_address":               "input[name=factAddress]",
				"email":                      "input[name=email]",
				"work_phone":                 "input[name=workPhone]",
				"mobile_phone":               "input[name=mobilePhone]",
				"home_phone":                 "input[name=homePhone]",
			},
			SECTION_WORKER_DATA: Table{
				"root":               "#work",
				"work_start_date":    "input[name=workStart]",
				"work_end_date":      "input[name=workEnd]",
				"teacher_start_date": "input[name=teacherStart]",
			},
		},
		SERVICE_GOSUSLUGI: Table{
			"login_input":    "#login",
			"password_input": "#password",
			"login_button":   "button#loginByPwdButton",
			"later_button":   "a.later",
		},
	}
}

func testUrls(base string) Urls {
	return Urls{
		Dnevnik: DnevnikUrls{
			Login:              base + "/dnevnik/login",
			CurrentPeoples:     base + "/dnevnik/people",
			CurrentPeoplesPage: base + "/dnevnik/people?page={page}",
			PersonIdMarker:     "person",
		},
		Gosuslugi: GosuslugiUrls{
			Login: base + "/esia/login",
		},
	}
}

type testRun struct {
	site     *fixtureSite
	server   *httptest.Server
	scraper  Scraper
	clock    *chrono.FakeImpl
	recorder *telemetry.Recorder
}

func newTestRun(t *testing.T, site *fixtureSite) testRun {
	server := httptest.NewServer(site.handler())
	t.Cleanup(server.Close)

	recorder := &telemetry.Recorder{}
	session, err := htmlsession.New(htmlsession.Options{}, recorder)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })

	clock := chrono.NewFakeImpl(time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC))
	scraper := NewScraper(session, Options{
		Config: Config{
			Urls:     testUrls(server.URL),
			Locators: testLocators(),
		},
		Credentials: Credentials{Login: testLogin, Password: testPassword},
		Delays:      DefaultDelays(),
	}, clock, recorder)

	return testRun{
		site:     site,
		server:   server,
		scraper:  scraper,
		clock:    clock,
		recorder: recorder,
	}
}
