// cmd/tools/benchmarks-editor/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"site-analytics/pkg/benchmarks"
)

var catalogPath string

func main() {
	initCmd := flag.NewFlagSet("init", flag.ExitOnError)
	setCmd := flag.NewFlagSet("set", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)

	for _, fs := range []*flag.FlagSet{initCmd, setCmd, validateCmd, listCmd} {
		fs.StringVar(&catalogPath, "path", "configs/benchmarks.json", "Path to benchmark override file")
	}

	// Set command flags
	industry := setCmd.String("industry", "", "Industry key (e.g., beauty_salon)")
	field := setCmd.String("field", "", "Field to update (average_spend, repeat_rate, base_monthly_customers, annual_usage_rate, visits_per_year, label, place_type, place_keyword, <channel>.cpc, <channel>.cvr)")
	value := setCmd.String("value", "", "New value for the field")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		initCmd.Parse(os.Args[2:])
		if _, err := os.Stat(catalogPath); err == nil {
			fmt.Printf("Error: %s already exists\n", catalogPath)
			os.Exit(1)
		}
		if err := saveCatalogue(benchmarks.Default(), catalogPath); err != nil {
			fmt.Printf("Error writing catalogue: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote built-in catalogue to %s\n", catalogPath)

	case "set":
		setCmd.Parse(os.Args[2:])
		if *industry == "" || *field == "" || *value == "" {
			fmt.Println("Error: industry, field, and value are required for set.")
			setCmd.Usage()
			os.Exit(1)
		}
		if err := setField(*industry, *field, *value); err != nil {
			fmt.Printf("Error updating catalogue: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated %s, field %s to %s\n", *industry, *field, *value)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		cat, err := benchmarks.Load(catalogPath)
		if err != nil {
			fmt.Printf("Catalogue validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Catalogue validation passed. Found %d industries (version %s).\n", len(cat.ByKey), cat.Version)

	case "list":
		listCmd.Parse(os.Args[2:])
		cat, err := benchmarks.LoadOrDefault(existingPath(catalogPath))
		if err != nil {
			fmt.Printf("Error loading catalogue: %v\n", err)
			os.Exit(1)
		}
		printCatalogue(cat)

	case "help":
		fallthrough
	default:
		help()
	}
}

// setField edits one industry attribute, then reloads the file so the
// merged catalogue is validated before anything is written.
func setField(key, field, value string) error {
	cat, err := benchmarks.LoadOrDefault(existingPath(catalogPath))
	if err != nil {
		return fmt.Errorf("failed to load catalogue: %w", err)
	}

	ind, ok := cat.ByKey[key]
	if !ok {
		return fmt.Errorf("industry %s not found", key)
	}

	if channel, attr, isChannel := strings.Cut(field, "."); isChannel {
		if !benchmarks.IsChannel(channel) {
			return fmt.Errorf("unknown channel: %s", channel)
		}
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", field, err)
		}
		ch := ind.Channels[channel]
		switch attr {
		case "cpc":
			ch.CPC = n
		case "cvr":
			ch.CVR = n
		default:
			return fmt.Errorf("unknown field: %s", field)
		}
		if ind.Channels == nil {
			ind.Channels = map[string]benchmarks.Channel{}
		}
		ind.Channels[channel] = ch
	} else {
		switch field {
		case "label":
			ind.Label = value
		case "place_type":
			ind.PlaceType = value
		case "place_keyword":
			ind.PlaceKeyword = value
		default:
			n, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return fmt.Errorf("invalid %s value: %w", field, err)
			}
			switch field {
			case "average_spend":
				ind.AverageSpend = n
			case "repeat_rate":
				ind.RepeatRate = n
			case "base_monthly_customers":
				ind.BaseMonthlyCustomers = n
			case "annual_usage_rate":
				ind.AnnualUsageRate = n
			case "visits_per_year":
				ind.VisitsPerYear = n
			default:
				return fmt.Errorf("unknown field: %s", field)
			}
		}
	}
	cat.ByKey[key] = ind

	tmp := catalogPath + ".tmp"
	if err := saveCatalogue(cat, tmp); err != nil {
		return err
	}
	if _, err := benchmarks.Load(tmp); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rejected: %w", err)
	}
	return os.Rename(tmp, catalogPath)
}

func existingPath(path string) string {
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func printCatalogue(cat *benchmarks.Catalogue) {
	fmt.Printf("Catalogue version %s\n\n", cat.Version)
	fmt.Printf("%-14s %-12s %10s %8s %10s\n", "KEY", "LABEL", "SPEND", "REPEAT", "CUSTOMERS")
	for _, ind := range cat.Industries() {
		fmt.Printf("%-14s %-12s %10.0f %8.2f %10.0f\n", ind.Key, ind.Label, ind.AverageSpend, ind.RepeatRate, ind.BaseMonthlyCustomers)
		for _, name := range benchmarks.Channels {
			if ch, ok := ind.Channels[name]; ok {
				fmt.Printf("    %-12s cpc %6.0f  cvr %.3f\n", name, ch.CPC, ch.CVR)
			}
		}
	}
}

// saveCatalogue handles saving the catalogue to file
func saveCatalogue(cat *benchmarks.Catalogue, path string) error {
	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalogue: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalogue file: %w", err)
	}
	return nil
}

func help() {
	fmt.Println(`
Usage: benchmarks-editor <command> [flags]

Commands:
  init     Write the built-in catalogue as an editable override file
  set      Update one industry field
  validate Validate the override file
  list     Print the effective catalogue
  help     Show this help message

Examples:
  benchmarks-editor init -path configs/benchmarks.json
  benchmarks-editor set -industry beauty_salon -field average_spend -value 7000
  benchmarks-editor set -industry cafe -field search_ads.cpc -value 65
  benchmarks-editor validate -path configs/benchmarks.json

Point benchmarks.path in config.yaml at the file to use it.`)
}
