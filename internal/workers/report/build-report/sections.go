// internal/workers/report/build-report/sections.go
package buildreport

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Typed cell values let each renderer pick its own presentation.
type (
	money float64
	ratio float64
	count int
)

type field struct {
	Label string
	Value interface{}
}

type grid struct {
	Headers []string
	Rows    [][]interface{}
}

type section struct {
	Title  string
	Fields []field
	Table  *grid
}

var printer = message.NewPrinter(language.Japanese)

func display(v interface{}) string {
	switch x := v.(type) {
	case money:
		return printer.Sprintf("¥%.0f", float64(x))
	case ratio:
		return fmt.Sprintf("%.1f%%", float64(x)*100)
	case count:
		return printer.Sprintf("%d", int(x))
	case float64:
		return fmt.Sprintf("%.2f", x)
	case nil:
		return "-"
	default:
		return fmt.Sprint(x)
	}
}

func buildSections(r *Report, maxCompetitors int) []section {
	p := r.Project
	location := "-"
	if loc, ok := p.Location(); ok {
		location = fmt.Sprintf("%.5f, %.5f", loc.Lat, loc.Lng)
	}

	out := []section{{
		Title: "Project",
		Fields: []field{
			{"Name", p.Name},
			{"Industry", p.IndustryType},
			{"Target area", p.TargetArea},
			{"Status", string(p.Status)},
			{"Postal code", p.PostalCode},
			{"Location", location},
			{"Radius (m)", count(p.RadiusM)},
			{"Description", p.Description},
		},
	}}

	if sim := r.Simulation; sim != nil {
		res := sim.Result
		breakeven := interface{}("never")
		if res.BreakevenMonths != nil {
			breakeven = count(*res.BreakevenMonths)
		}
		rows := make([][]interface{}, 0, len(res.Channels))
		for _, c := range res.Channels {
			rows = append(rows, []interface{}{c.Channel, money(c.Budget), money(c.CPC), ratio(c.CVR), c.Clicks, c.NewCustomers, money(c.Revenue)})
		}
		out = append(out, section{
			Title: "Simulation",
			Fields: []field{
				{"Total revenue", money(res.Totals.TotalRevenue)},
				{"Repeat revenue", money(res.Totals.RepeatRevenue)},
				{"Ad spend", money(res.Totals.AdSpend)},
				{"Gross profit", money(res.Totals.GrossProfit)},
				{"Monthly profit", money(res.Totals.MonthlyProfit)},
				{"ROI", res.ROI},
				{"Achievement rate", ratio(res.AchievementRate)},
				{"Required budget", money(res.RequiredBudget)},
				{"Breakeven months", breakeven},
			},
			Table: &grid{
				Headers: []string{"Channel", "Budget", "CPC", "CVR", "Clicks", "New customers", "Revenue"},
				Rows:    rows,
			},
		})
	}

	if d := r.Demographics; d != nil {
		rows := make([][]interface{}, 0, len(d.AgeDistribution))
		for _, a := range d.AgeDistribution {
			rows = append(rows, []interface{}{a.Band, ratio(a.Share), count(a.Population)})
		}
		out = append(out, section{
			Title: "Demographics",
			Fields: []field{
				{"Area", d.Area},
				{"Population", count(d.Population)},
				{"Households", count(d.Households)},
				{"Household size", d.HouseholdSize},
				{"Female ratio", ratio(d.FemaleRatio)},
				{"Average income", money(d.AverageIncome)},
				{"Segment ratio", ratio(d.SegmentRatio)},
				{"Target population", count(d.TargetPopulation)},
			},
			Table: &grid{Headers: []string{"Age band", "Share", "Population"}, Rows: rows},
		})
	}

	if c := r.Competitors; c != nil {
		rows := make([][]interface{}, 0, len(c.Competitors))
		for i, comp := range c.Competitors {
			if maxCompetitors > 0 && i >= maxCompetitors {
				break
			}
			rows = append(rows, []interface{}{
				comp.Name, count(int(comp.DistanceM)), comp.Rating, count(comp.UserRatingsTotal),
				count(comp.EstimatedMonthlyCustomers), money(comp.EstimatedMonthlyRevenue), ratio(comp.MarketShare),
			})
		}
		out = append(out, section{
			Title: "Competitors",
			Fields: []field{
				{"Radius (m)", count(c.RadiusM)},
				{"Competitors", count(c.Summary.Count)},
				{"Average rating", c.Summary.AverageRating},
				{"Estimated customers", count(c.Summary.TotalEstimatedCustomers)},
				{"Estimated revenue", money(c.Summary.TotalEstimatedRevenue)},
				{"Competition level", c.Summary.CompetitionLevel},
			},
			Table: &grid{
				Headers: []string{"Name", "Distance (m)", "Rating", "Reviews", "Customers/month", "Revenue/month", "Share"},
				Rows:    rows,
			},
		})
	}

	if d := r.Demand; d != nil {
		fields := []field{
			{"Target population", count(d.TargetPopulation)},
			{"Annual usage rate", ratio(d.AnnualUsageRate)},
			{"Visits per year", d.VisitsPerYear},
			{"Monthly potential visits", d.MonthlyPotentialVisits},
			{"Average spend", money(d.AverageSpend)},
			{"Market size (monthly)", money(d.MarketSize)},
		}
		if d.Saturation != nil {
			fields = append(fields,
				field{"Competitor customers", count(*d.CompetitorCustomers)},
				field{"Saturation", ratio(*d.Saturation)},
				field{"Opportunity", d.Opportunity},
			)
		}
		out = append(out, section{Title: "Demand", Fields: fields})
	}

	return out
}
