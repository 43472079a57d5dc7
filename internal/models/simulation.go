// internal/models/simulation.go
package models

import "time"

type FixedCosts struct {
	Rent  float64 `json:"rent"`
	Labor float64 `json:"labor"`
	Other float64 `json:"other"`
}

func (f FixedCosts) Total() float64 {
	return f.Rent + f.Labor + f.Other
}

type SimulationParams struct {
	IndustryType       string             `json:"industry_type"`
	TargetMonthlySales float64            `json:"target_monthly_sales"`
	AverageSpend       float64            `json:"average_spend"`
	MediaBudgets       map[string]float64 `json:"media_budgets"`
	FixedCosts         FixedCosts         `json:"fixed_costs"`
	VariableCostRate   float64            `json:"variable_cost_rate"`
	RepeatRate         *float64           `json:"repeat_rate,omitempty"`
	InitialInvestment  float64            `json:"initial_investment"`
	Months             int                `json:"months"`
}

type ChannelResult struct {
	Channel      string  `json:"channel"`
	Budget       float64 `json:"budget"`
	CPC          float64 `json:"cpc"`
	CVR          float64 `json:"cvr"`
	Clicks       float64 `json:"clicks"`
	NewCustomers float64 `json:"new_customers"`
	Revenue      float64 `json:"revenue"`
}

type SimulationTotals struct {
	NewCustomers  float64 `json:"new_customers"`
	Revenue       float64 `json:"revenue"`
	RepeatRevenue float64 `json:"repeat_revenue"`
	TotalRevenue  float64 `json:"total_revenue"`
	AdSpend       float64 `json:"ad_spend"`
	FixedCosts    float64 `json:"fixed_costs"`
	VariableCosts float64 `json:"variable_costs"`
	GrossProfit   float64 `json:"gross_profit"`
	MonthlyProfit float64 `json:"monthly_profit"`
}

type ProjectionMonth struct {
	Month            int     `json:"month"`
	Revenue          float64 `json:"revenue"`
	Profit           float64 `json:"profit"`
	CumulativeProfit float64 `json:"cumulative_profit"`
}

type SimulationResult struct {
	Channels        []ChannelResult   `json:"channels"`
	Totals          SimulationTotals  `json:"totals"`
	ROI             float64           `json:"roi"`
	AchievementRate float64           `json:"achievement_rate"`
	RequiredBudget  float64           `json:"required_budget"`
	BreakevenMonths *int              `json:"breakeven_months"`
	RepeatRate      float64           `json:"repeat_rate"`
	Projection      []ProjectionMonth `json:"projection"`
}

type Simulation struct {
	ID        string           `json:"id"`
	ProjectID string           `json:"project_id"`
	Params    SimulationParams `json:"params"`
	Result    SimulationResult `json:"result"`
	CreatedAt time.Time        `json:"created_at"`
}
