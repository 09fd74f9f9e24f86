package commands

import (
	"sort"

	"peoplecards/cmd/peoplecards/utils"
	"peoplecards/internal/dom"
	"peoplecards/internal/scrapers/dnevnik"
	"peoplecards/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(locatorsCmd)
}

func appendLocators(t table.Writer, service, prefix string, locators dnevnik.Table) {
	for _, key := range locators.Keys() {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if sub := locators.Sub(key); sub != nil {
			appendLocators(t, service, path, sub)
			continue
		}
		locator, ok := locators.Locator(key)
		if !ok {
			continue
		}
		kind := "css"
		if dom.IsXPath(locator) {
			kind = "xpath"
		}
		t.AppendRow(table.Row{service, path, kind, locator})
	}
}

var locatorsCmd = &cobra.Command{
	Use:   "locators [service...]",
	Short: "Loads the configuration and lists the locators of the given services (all by default), as the scraper will use them.",
	Run: func(cmd *cobra.Command, args []string) {
		config, err := dnevnik.LoadConfig(*configDir)
		if err != nil {
			serviceutil.Fatal("failed to load configuration", err)
		}

		services := args
		if len(services) == 0 {
			for name := range config.Locators {
				services = append(services, name)
			}
			sort.Strings(services)
		}

		t := utils.NewTable()
		t.AppendHeader(table.Row{"Service", "Field", "Kind", "Locator"})
		for _, service := range services {
			locators := config.Locators.Service(service)
			if service == dnevnik.SERVICE_DNEVNIK {
				// sections are shown relative to their root like they are used
				resolved := dnevnik.Table{}
				for _, key := range locators.Keys() {
					if locators.Sub(key) != nil {
						resolved[key] = config.Locators.Section(key)
						continue
					}
					resolved[key] = locators[key]
				}
				locators = resolved
			}
			appendLocators(t, service, "", locators)
		}
		t.Render()
	},
}
