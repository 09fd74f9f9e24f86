// Package htmlsession implements dom.Session over plain HTTP. Pages are
// fetched with resty and queried with goquery, there is no javascript, so
// it only works against server rendered pages.
package htmlsession

import (
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"peoplecards/internal/components/assert"
	"peoplecards/internal/components/telemetry"
	"peoplecards/internal/dom"
	"peoplecards/lib/htmlutil"
	"peoplecards/lib/restyutil"
	libtelemetry "peoplecards/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_session_navigate = "session.navigate"
	report_session_click    = "session.click"
	report_session_close    = "session.close"
)

const blankURL = "about:blank"

type Options struct {
	// Proxy is a proxy url, ex. http://10.0.0.1:3128, empty for none.
	Proxy string
	// Timeout of a single request, defaults to 30 seconds.
	Timeout time.Duration
	// RequestsPerSecond limits outgoing requests, 0 disables the limit.
	RequestsPerSecond float64
	// CloudflareBypass wraps the transport with cloudflare-bp.
	CloudflareBypass bool
	UserAgent        string
	// Dump receives every http exchange of the session, nil disables it.
	Dump restyutil.InstrumentOutput
}

type Session struct {
	http *resty.Client
	tel  telemetry.API

	doc *goquery.Document
	url *url.URL

	closeOnce sync.Once
}

var _ dom.Session = (*Session)(nil)

func New(opts Options, tel telemetry.API) (*Session, error) {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("htmlsession", tel)

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	}
	client.SetHeader("user-agent", userAgent)
	// the login flow hops between identity providers on different domains
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client.SetTimeout(timeout)

	if opts.Proxy != "" {
		client.SetProxy(opts.Proxy)
	}

	if opts.RequestsPerSecond > 0 {
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(client, tel)
	libtelemetry.TraceResty(client, "dom/htmlsession")
	restyutil.InstrumentClient(client, opts.Dump)

	return &Session{
		http: client,
		tel:  tel,
	}, nil
}

func (s *Session) resolve(target string) (*url.URL, error) {
	return htmlutil.ResolveHref(s.url, target)
}

func (s *Session) load(res *resty.Response) error {
	if res.IsError() {
		return fmt.Errorf("unexpected status %s", res.Status())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return fmt.Errorf("parse html: %w", err)
	}

	final := res.RawResponse.Request.URL
	doc.Url = final
	s.doc = doc
	s.url = final
	return nil
}

func (s *Session) NavigateTo(ctx context.Context, target string) error {
	link, err := s.resolve(target)
	if err != nil {
		s.tel.ReportBroken(report_session_navigate, fmt.Errorf("parse url: %w", err), target)
		return fmt.Errorf("htmlsession: navigate to %s: %w", target, err)
	}

	res, err := s.http.R().
		SetContext(ctx).
		Get(link.String())
	if err != nil {
		s.tel.ReportBroken(report_session_navigate, fmt.Errorf("fetch: %w", err), link.String())
		return fmt.Errorf("htmlsession: navigate to %s: %w", link, err)
	}
	err = s.load(res)
	if err != nil {
		s.tel.ReportBroken(report_session_navigate, err, link.String())
		return fmt.Errorf("htmlsession: navigate to %s: %w", link, err)
	}
	return nil
}

func (s *Session) CurrentURL() (string, error) {
	if s.url == nil {
		return blankURL, nil
	}
	return s.url.String(), nil
}

func (s *Session) selection(node dom.Node) (*goquery.Selection, error) {
	if node == nil {
		if s.doc == nil {
			return nil, fmt.Errorf("htmlsession: no page loaded")
		}
		return s.doc.Selection, nil
	}
	sel, ok := node.(*goquery.Selection)
	if !ok || sel == nil || sel.Length() == 0 {
		return nil, fmt.Errorf("htmlsession: not a node of this session: %T", node)
	}
	return sel, nil
}

func (s *Session) FindOne(root dom.Node, locator string) (dom.Node, error) {
	sel, err := s.selection(root)
	if err != nil {
		return nil, err
	}
	if dom.IsXPath(locator) {
		return nil, fmt.Errorf("htmlsession: xpath locators are not supported: %s", locator)
	}
	found := sel.Find(locator).First()
	if found.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", dom.ErrNotFound, locator)
	}
	return found, nil
}

func (s *Session) FindAll(root dom.Node, selector string) ([]dom.Node, error) {
	sel, err := s.selection(root)
	if err != nil {
		return nil, err
	}
	found := sel.Find(selector)
	nodes := make([]dom.Node, 0, found.Length())
	found.Each(func(_ int, child *goquery.Selection) {
		nodes = append(nodes, child)
	})
	return nodes, nil
}

func (s *Session) ReadValue(node dom.Node) (string, error) {
	sel, err := s.selection(node)
	if err != nil {
		return "", err
	}
	return controlValue(sel), nil
}

func controlValue(sel *goquery.Selection) string {
	switch goquery.NodeName(sel) {
	case "textarea":
		return sel.Text()
	case "select":
		option := sel.Find("option[selected]").First()
		if option.Length() == 0 {
			option = sel.Find("option").First()
		}
		if value, ok := option.Attr("value"); ok {
			return value
		}
		return htmlutil.NormalizeText(option.Text())
	default:
		return sel.AttrOr("value", "")
	}
}

func (s *Session) ReadText(node dom.Node) (string, error) {
	sel, err := s.selection(node)
	if err != nil {
		return "", err
	}
	return htmlutil.GetNormalizedText(sel.Nodes[0]), nil
}

func (s *Session) ReadAttribute(node dom.Node, name string) (string, bool, error) {
	sel, err := s.selection(node)
	if err != nil {
		return "", false, err
	}
	value, ok := sel.Attr(name)
	return value, ok, nil
}

func (s *Session) Input(node dom.Node, text string) error {
	sel, err := s.selection(node)
	if err != nil {
		return err
	}
	switch goquery.NodeName(sel) {
	case "input":
		sel.SetAttr("value", text)
	case "textarea":
		sel.SetText(text)
	default:
		return fmt.Errorf("htmlsession: cannot type into <%s>", goquery.NodeName(sel))
	}
	return nil
}

// Click follows links and submits forms, which is all a page without
// javascript can do.
func (s *Session) Click(ctx context.Context, node dom.Node) error {
	sel, err := s.selection(node)
	if err != nil {
		return err
	}

	if goquery.NodeName(sel) == "a" {
		href, ok := sel.Attr("href")
		if ok && !strings.HasPrefix(strings.TrimSpace(href), "javascript:") {
			return s.NavigateTo(ctx, href)
		}
	}

	form := sel.Closest("form")
	if form.Length() > 0 {
		return s.submit(ctx, form, sel)
	}

	err = fmt.Errorf("htmlsession: nothing happens when clicking <%s>", goquery.NodeName(sel))
	s.tel.ReportWarning(report_session_click, err)
	return err
}

func isSubmitControl(sel *goquery.Selection) bool {
	switch goquery.NodeName(sel) {
	case "button":
		t := strings.ToLower(sel.AttrOr("type", "submit"))
		return t == "submit"
	case "input":
		t := strings.ToLower(sel.AttrOr("type", "text"))
		return t == "submit" || t == "image"
	}
	return false
}

func formValues(form, submitter *goquery.Selection) url.Values {
	values := url.Values{}
	form.Find("input[name], textarea[name], select[name]").Each(func(_ int, field *goquery.Selection) {
		if _, disabled := field.Attr("disabled"); disabled {
			return
		}
		name := field.AttrOr("name", "")
		switch strings.ToLower(field.AttrOr("type", "text")) {
		case "submit", "image", "button", "reset", "file":
			return
		case "checkbox", "radio":
			if _, checked := field.Attr("checked"); !checked {
				return
			}
			values.Add(name, field.AttrOr("value", "on"))
			return
		}
		values.Add(name, controlValue(field))
	})

	if submitter != nil && isSubmitControl(submitter) {
		if name, ok := submitter.Attr("name"); ok && name != "" {
			values.Add(name, submitter.AttrOr("value", ""))
		}
	}
	return values
}

func (s *Session) submit(ctx context.Context, form, submitter *goquery.Selection) error {
	action, err := s.resolve(form.AttrOr("action", ""))
	if err != nil {
		s.tel.ReportBroken(report_session_click, fmt.Errorf("parse form action: %w", err))
		return err
	}
	values := formValues(form, submitter)

	var res *resty.Response
	if strings.EqualFold(form.AttrOr("method", "get"), "post") {
		res, err = s.http.R().
			SetContext(ctx).
			SetFormDataFromValues(values).
			Post(action.String())
	} else {
		action.RawQuery = values.Encode()
		res, err = s.http.R().
			SetContext(ctx).
			Get(action.String())
	}
	if err != nil {
		s.tel.ReportBroken(report_session_click, fmt.Errorf("submit form: %w", err), action.String())
		return fmt.Errorf("htmlsession: submit form to %s: %w", action, err)
	}
	err = s.load(res)
	if err != nil {
		s.tel.ReportBroken(report_session_click, err, action.String())
		return fmt.Errorf("htmlsession: submit form to %s: %w", action, err)
	}
	return nil
}

func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.tel.ReportDebug(report_session_close)
		s.doc = nil
		s.url = nil
	})
	return nil
}
