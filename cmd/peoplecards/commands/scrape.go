package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"peoplecards/cmd/peoplecards/utils"
	"peoplecards/internal/components/chrono"
	"peoplecards/internal/components/telemetry"
	"peoplecards/internal/dom"
	"peoplecards/internal/dom/htmlsession"
	"peoplecards/internal/dom/rodsession"
	"peoplecards/internal/export"
	"peoplecards/internal/scrapers/dnevnik"
	"peoplecards/lib/proxy"
	"peoplecards/lib/restyutil"
	libtelemetry "peoplecards/lib/telemetry"
	"peoplecards/lib/util/serviceutil"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const (
	DRIVER_CHROME = "chrome"
	DRIVER_HTTP   = "http"
)

type scrapeFlags struct {
	clickDelay   time.Duration
	loadingDelay time.Duration
	pages        int
	debug        bool
	driver       string
	headless     bool
	chromeBin    string
	debuggerURL  string
	proxy        string
	proxyList    string
	dumpDir      string
	envFile      string
	outDir       string
	outName      string
	timestamp    bool
	format       string
}

var scrape scrapeFlags

func init() {
	flags := scrapeCmd.Flags()
	flags.DurationVar(&scrape.clickDelay, "click-delay", dnevnik.DefaultInteractionDelay, "The wait after every click or input.")
	flags.DurationVar(&scrape.loadingDelay, "loading-delay", dnevnik.DefaultPageLoadDelay, "The wait after every navigation.")
	flags.IntVar(&scrape.pages, "pages", 0, "Only walk this many listing pages, 0 walks all of them.")
	flags.BoolVar(&scrape.debug, "debug", false, "Only walk the first listing page.")
	flags.StringVar(&scrape.driver, "driver", DRIVER_CHROME, "The session driver, chrome or http.")
	flags.BoolVar(&scrape.headless, "headless", false, "Run chrome without a window.")
	flags.StringVar(&scrape.chromeBin, "chrome-bin", "", "The chrome binary, by default one is found or downloaded.")
	flags.StringVar(&scrape.debuggerURL, "debugger-url", "", "Connect to an already running chrome instead of launching one.")
	flags.StringVar(&scrape.proxy, "proxy", "", "A proxy as host:port or url, \"auto\" picks an anonymous one off a free proxy list.")
	flags.StringVar(&scrape.proxyList, "proxy-list", proxy.DefaultListURL, "The proxy list used by --proxy auto.")
	flags.StringVar(&scrape.dumpDir, "dump-dir", "", "Write every http exchange of the http driver to this directory, secrets are redacted.")
	flags.StringVar(&scrape.envFile, "env-file", "", "A .env file holding GOSUSLUGI_LOGIN and GOSUSLUGI_PASSWORD, defaults to ./.env.")
	flags.StringVar(&scrape.outDir, "out-dir", "out", "The directory the tables are written to.")
	flags.StringVar(&scrape.outName, "out-name", "dump", "The name shared by the four table files.")
	flags.BoolVar(&scrape.timestamp, "timestamp", true, "Suffix the table files with the time of the export.")
	flags.StringVar(&scrape.format, "format", string(export.FORMAT_CSV), "The table format, csv or xlsx.")
	rootCmd.AddCommand(scrapeCmd)
}

func (f scrapeFlags) pageLimit() int {
	if f.debug {
		return 1
	}
	return f.pages
}

func openSession(ctx context.Context, f scrapeFlags, proxyURL string, tel telemetry.API) (dom.Session, error) {
	switch f.driver {
	case DRIVER_CHROME:
		cfg := rodsession.DefaultConfig()
		cfg.Headless = f.headless
		cfg.Bin = f.chromeBin
		cfg.DebuggerURL = f.debuggerURL
		cfg.Proxy = proxyURL
		return rodsession.Launch(ctx, cfg, tel)
	case DRIVER_HTTP:
		opts := htmlsession.Options{
			Proxy:             proxyURL,
			RequestsPerSecond: 2,
			CloudflareBypass:  true,
		}
		if f.dumpDir != "" {
			dump, err := restyutil.NewFilesystemOutput(f.dumpDir)
			if err != nil {
				return nil, fmt.Errorf("prepare dump directory: %w", err)
			}
			opts.Dump = dump
		}
		return htmlsession.New(opts, tel)
	}
	return nil, fmt.Errorf("unknown driver %q, expected %s or %s", f.driver, DRIVER_CHROME, DRIVER_HTTP)
}

type scrapeResult struct {
	cards   int
	written []string
	elapsed time.Duration
}

func runScrape(ctx context.Context, f scrapeFlags) (scrapeResult, error) {
	runId := uuid.New()
	tel := telemetry.NewSlogAPI("run", runId.String())
	clock := chrono.NewStandardImpl(nil)

	format, err := export.ParseFormat(f.format)
	if err != nil {
		return scrapeResult{}, err
	}
	config, err := dnevnik.LoadConfig(*configDir)
	if err != nil {
		return scrapeResult{}, fmt.Errorf("load configuration: %w", err)
	}
	envFiles := []string{}
	if f.envFile != "" {
		envFiles = append(envFiles, f.envFile)
	}
	creds := dnevnik.LoadCredentials(envFiles...)

	proxyURL, err := proxy.NewClient(f.proxyList).Resolve(ctx, f.proxy)
	if err != nil {
		return scrapeResult{}, fmt.Errorf("resolve proxy: %w", err)
	}

	session, err := openSession(ctx, f, proxyURL, tel)
	if err != nil {
		return scrapeResult{}, fmt.Errorf("open session: %w", err)
	}
	defer func() {
		err := session.Close()
		if err != nil {
			slog.Warn("failed to close session", "err", err.Error())
		}
	}()

	scraper := dnevnik.NewScraper(session, dnevnik.Options{
		Config:      config,
		Credentials: creds,
		Delays: dnevnik.Delays{
			Interaction: f.clickDelay,
			PageLoad:    f.loadingDelay,
		},
		PerfStats: func(ctx context.Context) {
			stats := libtelemetry.RecordPerfStats(ctx)
			slog.Debug(
				"perf stats",
				"cpu_percent", stats.CpuPercent,
				"allocated_mb", stats.AllocatedMb,
				"rss_mb", stats.RssMb,
				"goroutines", stats.Goroutines,
			)
		},
	}, clock, tel)

	start := clock.Now()
	slog.Info("logging in", "run", runId.String(), "driver", f.driver)
	err = scraper.Login(ctx)
	if err != nil {
		return scrapeResult{}, fmt.Errorf("login: %w", err)
	}

	slog.Info("collecting people", "page_limit", f.pageLimit())
	cards, err := scraper.ParseCurrentPeoples(ctx, f.pageLimit())
	if err != nil {
		return scrapeResult{}, fmt.Errorf("collect people: %w", err)
	}

	builder := export.NewBuilder(format, clock, tel)
	written, err := builder.Build(ctx, cards, f.outName, f.outDir, f.timestamp)
	result := scrapeResult{
		cards:   len(cards),
		written: written,
		elapsed: clock.Now().Sub(start),
	}
	if err != nil {
		return result, fmt.Errorf("export: %w", err)
	}
	return result, nil
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--debug] [--pages <n>] [--format csv|xlsx] [--out-dir <dir>]",
	Short: "Logs into dnevnik through gosuslugi and exports every person card of the listing.",
	Run: func(cmd *cobra.Command, args []string) {
		result, err := runScrape(cmd.Context(), scrape)

		if len(result.written) > 0 {
			t := utils.NewTable()
			t.AppendHeader(table.Row{"Table", "File"})
			for _, path := range result.written {
				t.AppendRow(table.Row{tableCategory(path), path})
			}
			t.AppendFooter(table.Row{"Cards", result.cards})
			t.Render()
		}

		if errors.Is(err, context.Canceled) {
			shutdownTelemetry()
			serviceutil.Fatal("scrape interrupted", err)
		}
		if err != nil {
			shutdownTelemetry()
			serviceutil.Fatal("scrape failed", err)
		}
		slog.Info("scrape finished", "cards", result.cards, "seconds", result.elapsed.Seconds())
	},
}

func tableCategory(path string) string {
	for _, category := range export.Categories {
		if strings.Contains(path, category+"_") {
			return category
		}
	}
	return ""
}
