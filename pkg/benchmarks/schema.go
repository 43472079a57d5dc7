// pkg/benchmarks/schema.go
package benchmarks

// Advertising channels understood by the funnel simulation.
const (
	ChannelSearchAds = "search_ads"
	ChannelSNSAds    = "sns_ads"
	ChannelPortal    = "portal"
	ChannelFlyer     = "flyer"
)

// Channels lists every channel in display order.
var Channels = []string{ChannelSearchAds, ChannelSNSAds, ChannelPortal, ChannelFlyer}

// Age bands used by demographics and industry target segments.
var AgeBands = []string{"0-14", "15-19", "20-29", "30-39", "40-49", "50-59", "60-69", "70+"}

const (
	GenderFemale = "female"
	GenderMale   = "male"
	GenderAll    = "all"
)

type Catalogue struct {
	Version string              `json:"version"`
	ByKey   map[string]Industry `json:"industries"`
}

type Industry struct {
	Key                  string             `json:"key"`
	Label                string             `json:"label"`
	AverageSpend         float64            `json:"average_spend"`
	RepeatRate           float64            `json:"repeat_rate"`
	BaseMonthlyCustomers float64            `json:"base_monthly_customers"`
	AnnualUsageRate      float64            `json:"annual_usage_rate"`
	VisitsPerYear        float64            `json:"visits_per_year"`
	Target               Segment            `json:"target"`
	Channels             map[string]Channel `json:"channels"`
	PlaceType            string             `json:"place_type"`
	PlaceKeyword         string             `json:"place_keyword"`
}

// Segment is the customer group an industry sells to.
type Segment struct {
	Gender   string   `json:"gender"`
	AgeBands []string `json:"age_bands"`
}

// Channel holds cost per click and click-to-customer conversion rate.
type Channel struct {
	CPC float64 `json:"cpc"`
	CVR float64 `json:"cvr"`
}
