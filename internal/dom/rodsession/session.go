// Package rodsession implements dom.Session with a real Chrome driven over
// the devtools protocol by go-rod.
package rodsession

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"peoplecards/internal/components/assert"
	"peoplecards/internal/components/telemetry"
	"peoplecards/internal/dom"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const (
	report_session_launch   = "session.launch"
	report_session_navigate = "session.navigate"
	report_session_close    = "session.close"
)

// Config holds browser configuration.
type Config struct {
	// DebuggerURL connects to an already running Chrome instead of launching one.
	DebuggerURL string
	// Bin is the chrome binary, empty lets rod find or download one.
	Bin      string
	Headless bool
	// Proxy is passed to chrome as --proxy-server.
	Proxy               string
	ViewportWidth       int
	ViewportHeight      int
	NavigationTimeoutMs int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Headless:            false,
		ViewportWidth:       1920,
		ViewportHeight:      1080,
		NavigationTimeoutMs: 30000,
	}
}

// NavigationTimeout returns the navigation timeout.
func (c Config) NavigationTimeout() time.Duration {
	if c.NavigationTimeoutMs == 0 {
		return 30 * time.Second
	}
	return time.Duration(c.NavigationTimeoutMs) * time.Millisecond
}

type Session struct {
	cfg      Config
	tel      telemetry.API
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page

	closeOnce sync.Once
	closeErr  error
}

var _ dom.Session = (*Session)(nil)

// Launch starts (or connects to) chrome and opens the single page the run
// works in. The returned session must be closed by the caller.
func Launch(ctx context.Context, cfg Config, tel telemetry.API) (*Session, error) {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("rodsession", tel)

	s := &Session{cfg: cfg, tel: tel}

	controlURL := cfg.DebuggerURL
	if controlURL == "" {
		l := launcher.New().Headless(cfg.Headless)
		if cfg.Bin != "" {
			l = l.Bin(cfg.Bin)
		}
		if cfg.Proxy != "" {
			l = l.Proxy(cfg.Proxy)
		}
		url, err := l.Context(ctx).Launch()
		if err != nil {
			tel.ReportBroken(report_session_launch, fmt.Errorf("launch chrome: %w", err))
			return nil, fmt.Errorf("rodsession: launch chrome: %w", err)
		}
		s.launcher = l
		controlURL = url
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		s.Close()
		tel.ReportBroken(report_session_launch, fmt.Errorf("connect: %w", err), controlURL)
		return nil, fmt.Errorf("rodsession: connect to chrome: %w", err)
	}
	s.browser = browser

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		s.Close()
		tel.ReportBroken(report_session_launch, fmt.Errorf("create page: %w", err))
		return nil, fmt.Errorf("rodsession: create page: %w", err)
	}
	s.page = page

	if cfg.ViewportWidth > 0 && cfg.ViewportHeight > 0 {
		err = (proto.EmulationSetDeviceMetricsOverride{
			Width:             cfg.ViewportWidth,
			Height:            cfg.ViewportHeight,
			DeviceScaleFactor: 1.0,
			Mobile:            false,
		}).Call(page)
		if err != nil {
			tel.ReportWarning(report_session_launch, fmt.Errorf("set viewport: %w", err))
		}
	}

	return s, nil
}

func (s *Session) NavigateTo(ctx context.Context, url string) error {
	err := s.page.Context(ctx).Timeout(s.cfg.NavigationTimeout()).Navigate(url)
	if err != nil {
		s.tel.ReportBroken(report_session_navigate, err, url)
		return fmt.Errorf("rodsession: navigate to %s: %w", url, err)
	}
	return nil
}

func (s *Session) CurrentURL() (string, error) {
	info, err := s.page.Info()
	if err != nil {
		return "", fmt.Errorf("rodsession: page info: %w", err)
	}
	return info.URL, nil
}

func (s *Session) element(node dom.Node) (*rod.Element, error) {
	el, ok := node.(*rod.Element)
	if !ok || el == nil {
		return nil, fmt.Errorf("rodsession: not a node of this session: %T", node)
	}
	return el, nil
}

// FindOne uses Has/HasX which, unlike Element, do not wait for the node to
// show up: the fixed delays of the run already gave the page time to render.
func (s *Session) FindOne(root dom.Node, locator string) (dom.Node, error) {
	var (
		has bool
		el  *rod.Element
		err error
	)
	xpath := dom.IsXPath(locator)

	if root == nil {
		if xpath {
			has, el, err = s.page.HasX(locator)
		} else {
			has, el, err = s.page.Has(locator)
		}
	} else {
		parent, perr := s.element(root)
		if perr != nil {
			return nil, perr
		}
		if xpath {
			has, el, err = parent.HasX(locator)
		} else {
			has, el, err = parent.Has(locator)
		}
	}
	if err != nil {
		var notFound *rod.ElementNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %s", dom.ErrNotFound, locator)
		}
		return nil, fmt.Errorf("rodsession: find %s: %w", locator, err)
	}
	if !has {
		return nil, fmt.Errorf("%w: %s", dom.ErrNotFound, locator)
	}
	return el, nil
}

func (s *Session) FindAll(root dom.Node, selector string) ([]dom.Node, error) {
	var (
		els rod.Elements
		err error
	)
	if root == nil {
		els, err = s.page.Elements(selector)
	} else {
		parent, perr := s.element(root)
		if perr != nil {
			return nil, perr
		}
		els, err = parent.Elements(selector)
	}
	if err != nil {
		return nil, fmt.Errorf("rodsession: find all %s: %w", selector, err)
	}

	nodes := make([]dom.Node, len(els))
	for i, el := range els {
		nodes[i] = el
	}
	return nodes, nil
}

func (s *Session) ReadValue(node dom.Node) (string, error) {
	el, err := s.element(node)
	if err != nil {
		return "", err
	}
	value, err := el.Property("value")
	if err != nil {
		return "", fmt.Errorf("rodsession: read value: %w", err)
	}
	if value.Nil() {
		return "", nil
	}
	return value.Str(), nil
}

func (s *Session) ReadText(node dom.Node) (string, error) {
	el, err := s.element(node)
	if err != nil {
		return "", err
	}
	text, err := el.Text()
	if err != nil {
		return "", fmt.Errorf("rodsession: read text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (s *Session) ReadAttribute(node dom.Node, name string) (string, bool, error) {
	el, err := s.element(node)
	if err != nil {
		return "", false, err
	}
	value, err := el.Attribute(name)
	if err != nil {
		return "", false, fmt.Errorf("rodsession: read attribute %s: %w", name, err)
	}
	if value == nil {
		return "", false, nil
	}
	return *value, true, nil
}

func (s *Session) Click(ctx context.Context, node dom.Node) error {
	el, err := s.element(node)
	if err != nil {
		return err
	}
	err = el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
	if err != nil {
		return fmt.Errorf("rodsession: click: %w", err)
	}
	return nil
}

func (s *Session) Input(node dom.Node, text string) error {
	el, err := s.element(node)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("rodsession: clear input: %w", err)
	}
	if err := el.Input(text); err != nil {
		return fmt.Errorf("rodsession: input: %w", err)
	}
	return nil
}

// Close closes the browser and, when it was launched by this session, kills
// the chrome process and removes its profile directory.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		errlist := []error{}
		if s.browser != nil {
			if err := s.browser.Close(); err != nil {
				errlist = append(errlist, fmt.Errorf("close browser: %w", err))
			}
		}
		if s.launcher != nil {
			s.launcher.Kill()
			s.launcher.Cleanup()
		}
		s.closeErr = errors.Join(errlist...)
		if s.closeErr != nil {
			s.tel.ReportWarning(report_session_close, s.closeErr)
		} else {
			s.tel.ReportDebug(report_session_close)
		}
	})
	return s.closeErr
}
