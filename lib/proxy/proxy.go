// Package proxy picks a public anonymous http proxy off a free proxy list.
package proxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"peoplecards/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("lib/proxy")

const DefaultListURL = "https://free-proxy-list.net/"

// Auto is the proxy flag value that asks for a proxy off the list.
const Auto = "auto"

var ErrNoProxy = errors.New("no anonymous proxy on the list")

type Proxy struct {
	Host      string
	Port      int
	Country   string
	Anonymity string
	Https     bool
}

func (p Proxy) Address() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

func (p Proxy) URL() string {
	return "http://" + p.Address()
}

// Anonymous reports whether the proxy hides the client address, "anonymous"
// and "elite proxy" both do, "transparent" does not.
func (p Proxy) Anonymous() bool {
	a := strings.ToLower(strings.TrimSpace(p.Anonymity))
	return a == "anonymous" || strings.HasPrefix(a, "elite")
}

type Client struct {
	http    *resty.Client
	listURL string
}

func NewClient(listURL string) *Client {
	if listURL == "" {
		listURL = DefaultListURL
	}
	client := resty.New()
	client.SetTimeout(15 * time.Second)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	telemetry.TraceResty(client, "lib/proxy/http")
	return &Client{http: client, listURL: listURL}
}

// List fetches the proxy list and parses its table, rows that do not hold a
// host and a numeric port are skipped.
func (c *Client) List(ctx context.Context) ([]Proxy, error) {
	ctx, span := tracer.Start(ctx, "List")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		Get(c.listURL)
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("fetch proxy list: unexpected status %s", res.Status())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, err
	}

	var proxies []Proxy
	doc.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 7 {
			return
		}
		cell := func(i int) string {
			return strings.TrimSpace(cells.Eq(i).Text())
		}

		host := cell(0)
		if net.ParseIP(host) == nil {
			return
		}
		port, err := strconv.Atoi(cell(1))
		if err != nil || port <= 0 || port > 65535 {
			return
		}

		proxies = append(proxies, Proxy{
			Host:      host,
			Port:      port,
			Country:   cell(3),
			Anonymity: cell(4),
			Https:     strings.EqualFold(cell(6), "yes"),
		})
	})

	span.SetAttributes(attribute.Int("proxies", len(proxies)))
	slog.DebugContext(ctx, "fetched proxy list", "url", c.listURL, "proxies", len(proxies))
	return proxies, nil
}

// FindAnonymous returns the first anonymous proxy of the list.
func (c *Client) FindAnonymous(ctx context.Context) (Proxy, error) {
	proxies, err := c.List(ctx)
	if err != nil {
		return Proxy{}, err
	}
	for _, p := range proxies {
		if p.Anonymous() {
			return p, nil
		}
	}
	return Proxy{}, ErrNoProxy
}

// Resolve turns the value of a --proxy flag into a proxy url: "" means no
// proxy, Auto picks one off the list and anything else must be host:port or
// a url.
func (c *Client) Resolve(ctx context.Context, flag string) (string, error) {
	flag = strings.TrimSpace(flag)
	switch flag {
	case "":
		return "", nil
	case Auto:
		p, err := c.FindAnonymous(ctx)
		if err != nil {
			return "", err
		}
		slog.InfoContext(ctx, "using proxy", "address", p.Address(), "country", p.Country, "anonymity", p.Anonymity)
		return p.URL(), nil
	}

	if strings.Contains(flag, "://") {
		return flag, nil
	}
	_, port, err := net.SplitHostPort(flag)
	if err != nil {
		return "", fmt.Errorf("invalid proxy %q: %w", flag, err)
	}
	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("invalid proxy %q: port is not a number", flag)
	}
	return "http://" + flag, nil
}
