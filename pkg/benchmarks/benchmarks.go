// pkg/benchmarks/benchmarks.go
package benchmarks

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Default returns the built-in industry catalogue.
func Default() *Catalogue {
	return &Catalogue{
		Version: "2024.1",
		ByKey: map[string]Industry{
			"beauty_salon": {
				Key: "beauty_salon", Label: "美容室",
				AverageSpend: 6500, RepeatRate: 0.60,
				BaseMonthlyCustomers: 320, AnnualUsageRate: 0.85, VisitsPerYear: 6,
				Target: Segment{Gender: GenderFemale, AgeBands: []string{"20-29", "30-39", "40-49"}},
				Channels: map[string]Channel{
					ChannelSearchAds: {CPC: 120, CVR: 0.030},
					ChannelSNSAds:    {CPC: 80, CVR: 0.015},
					ChannelPortal:    {CPC: 150, CVR: 0.050},
					ChannelFlyer:     {CPC: 25, CVR: 0.002},
				},
				PlaceType: "beauty_salon", PlaceKeyword: "美容院",
			},
			"restaurant": {
				Key: "restaurant", Label: "飲食店",
				AverageSpend: 2500, RepeatRate: 0.40,
				BaseMonthlyCustomers: 1500, AnnualUsageRate: 0.70, VisitsPerYear: 12,
				Target: Segment{Gender: GenderAll, AgeBands: []string{"20-29", "30-39", "40-49", "50-59"}},
				Channels: map[string]Channel{
					ChannelSearchAds: {CPC: 90, CVR: 0.040},
					ChannelSNSAds:    {CPC: 60, CVR: 0.020},
					ChannelPortal:    {CPC: 110, CVR: 0.060},
					ChannelFlyer:     {CPC: 20, CVR: 0.003},
				},
				PlaceType: "restaurant", PlaceKeyword: "レストラン",
			},
			"clinic": {
				Key: "clinic", Label: "クリニック",
				AverageSpend: 5000, RepeatRate: 0.50,
				BaseMonthlyCustomers: 800, AnnualUsageRate: 0.60, VisitsPerYear: 4,
				Target: Segment{Gender: GenderAll, AgeBands: []string{"30-39", "40-49", "50-59", "60-69", "70+"}},
				Channels: map[string]Channel{
					ChannelSearchAds: {CPC: 200, CVR: 0.050},
					ChannelSNSAds:    {CPC: 100, CVR: 0.010},
					ChannelPortal:    {CPC: 180, CVR: 0.040},
					ChannelFlyer:     {CPC: 30, CVR: 0.002},
				},
				PlaceType: "doctor", PlaceKeyword: "クリニック",
			},
			"cafe": {
				Key: "cafe", Label: "カフェ",
				AverageSpend: 900, RepeatRate: 0.50,
				BaseMonthlyCustomers: 2000, AnnualUsageRate: 0.60, VisitsPerYear: 24,
				Target: Segment{Gender: GenderAll, AgeBands: []string{"15-19", "20-29", "30-39", "40-49"}},
				Channels: map[string]Channel{
					ChannelSearchAds: {CPC: 60, CVR: 0.050},
					ChannelSNSAds:    {CPC: 40, CVR: 0.030},
					ChannelPortal:    {CPC: 80, CVR: 0.040},
					ChannelFlyer:     {CPC: 15, CVR: 0.004},
				},
				PlaceType: "cafe", PlaceKeyword: "カフェ",
			},
			"fitness": {
				Key: "fitness", Label: "フィットネス",
				AverageSpend: 8000, RepeatRate: 0.80,
				BaseMonthlyCustomers: 400, AnnualUsageRate: 0.15, VisitsPerYear: 12,
				Target: Segment{Gender: GenderAll, AgeBands: []string{"20-29", "30-39", "40-49", "50-59"}},
				Channels: map[string]Channel{
					ChannelSearchAds: {CPC: 180, CVR: 0.020},
					ChannelSNSAds:    {CPC: 110, CVR: 0.012},
					ChannelPortal:    {CPC: 160, CVR: 0.030},
					ChannelFlyer:     {CPC: 25, CVR: 0.001},
				},
				PlaceType: "gym", PlaceKeyword: "ジム",
			},
			"retail": {
				Key: "retail", Label: "小売店",
				AverageSpend: 3000, RepeatRate: 0.30,
				BaseMonthlyCustomers: 1200, AnnualUsageRate: 0.50, VisitsPerYear: 12,
				Target: Segment{Gender: GenderAll, AgeBands: []string{"20-29", "30-39", "40-49", "50-59", "60-69"}},
				Channels: map[string]Channel{
					ChannelSearchAds: {CPC: 70, CVR: 0.030},
					ChannelSNSAds:    {CPC: 50, CVR: 0.020},
					ChannelPortal:    {CPC: 90, CVR: 0.030},
					ChannelFlyer:     {CPC: 18, CVR: 0.003},
				},
				PlaceType: "store", PlaceKeyword: "ショップ",
			},
		},
	}
}

// Load reads a JSON catalogue and merges it over the defaults. Industries in
// the file replace the built-in entry with the same key.
func Load(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override Catalogue
	if err := json.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse benchmarks %s: %w", path, err)
	}
	res, err := catalogueSchema.Validate(data)
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		return nil, fmt.Errorf("benchmarks %s: %s", path, strings.Join(res.GetErrorMessages(), "; "))
	}

	cat := Default()
	if override.Version != "" {
		cat.Version = override.Version
	}
	for key, ind := range override.ByKey {
		ind.Key = key
		if err := ind.validate(); err != nil {
			return nil, fmt.Errorf("industry %s: %w", key, err)
		}
		cat.ByKey[key] = ind
	}
	return cat, nil
}

// LoadOrDefault loads path when set, otherwise returns Default.
func LoadOrDefault(path string) (*Catalogue, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

func (c *Catalogue) Lookup(industry string) (Industry, bool) {
	ind, ok := c.ByKey[industry]
	return ind, ok
}

// Industries returns every industry sorted by key.
func (c *Catalogue) Industries() []Industry {
	out := make([]Industry, 0, len(c.ByKey))
	for _, ind := range c.ByKey {
		out = append(out, ind)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Keys returns the sorted industry keys.
func (c *Catalogue) Keys() []string {
	keys := make([]string, 0, len(c.ByKey))
	for k := range c.ByKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (ind Industry) validate() error {
	if ind.AverageSpend <= 0 {
		return fmt.Errorf("average_spend must be positive")
	}
	if ind.RepeatRate < 0 || ind.RepeatRate > 1 {
		return fmt.Errorf("repeat_rate must be within [0,1]")
	}
	if ind.AnnualUsageRate < 0 || ind.AnnualUsageRate > 1 {
		return fmt.Errorf("annual_usage_rate must be within [0,1]")
	}
	if ind.BaseMonthlyCustomers <= 0 {
		return fmt.Errorf("base_monthly_customers must be positive")
	}
	if ind.VisitsPerYear <= 0 {
		return fmt.Errorf("visits_per_year must be positive")
	}
	switch ind.Target.Gender {
	case GenderFemale, GenderMale, GenderAll:
	default:
		return fmt.Errorf("unknown target.gender %q", ind.Target.Gender)
	}
	if len(ind.Target.AgeBands) == 0 {
		return fmt.Errorf("target.age_bands is required")
	}
	for _, band := range ind.Target.AgeBands {
		if !isAgeBand(band) {
			return fmt.Errorf("unknown target age band %q", band)
		}
	}
	for name, ch := range ind.Channels {
		if !IsChannel(name) {
			return fmt.Errorf("unknown channel %q", name)
		}
		if ch.CPC <= 0 || ch.CVR <= 0 || ch.CVR > 1 {
			return fmt.Errorf("channel %s needs cpc > 0 and cvr in (0,1]", name)
		}
	}
	return nil
}

func IsChannel(name string) bool {
	for _, ch := range Channels {
		if ch == name {
			return true
		}
	}
	return false
}

func isAgeBand(band string) bool {
	for _, b := range AgeBands {
		if b == band {
			return true
		}
	}
	return false
}
