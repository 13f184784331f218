// Package dashboard binds the fixed set of dashboard tabs to columns of the
// cleaned monthly table and renders them as line charts.
package dashboard

import (
	"errors"
	"fmt"
)

// ErrUnknownTab is returned for tab ids outside the fixed tab set.
var ErrUnknownTab = errors.New("unknown dashboard tab")

// DefaultTab is the tab shown when none is selected.
const DefaultTab = "production_billing"

// Binding maps a tab to the column it plots against the period column.
type Binding struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Heading string `json:"heading"`
	YColumn string `json:"y_column"`
	Title   string `json:"title"`
}

var tabs = []Binding{
	{
		ID:      "production_billing",
		Label:   "Production & Billing",
		Heading: "Production & Billing EDA",
		YColumn: "Volume Produced",
		Title:   "Production & Billing Trends",
	},
	{
		ID:      "customer_management",
		Label:   "Customer & Connection Management",
		Heading: "Customer & Connection Management EDA",
		YColumn: "Total number of customers applied for new connection",
		Title:   "New Connections Trends",
	},
	{
		ID:      "service_quality",
		Label:   "Service Quality & Response",
		Heading: "Service Quality & Response EDA",
		YColumn: "Response time to queries",
		Title:   "Service Quality & Response Trends",
	},
	{
		ID:      "operational_efficiency",
		Label:   "Operational Efficiency",
		Heading: "Operational Efficiency EDA",
		YColumn: "Power Usage",
		Title:   "Operational Efficiency Trends",
	},
	{
		ID:      "water_quality",
		Label:   "Water Quality & Treatment",
		Heading: "Water Quality & Treatment EDA",
		YColumn: "Chlorine (kg)",
		Title:   "Water Quality & Treatment Trends",
	},
	{
		ID:      "infrastructure",
		Label:   "Infrastructure & Maintenance",
		Heading: "Infrastructure & Maintenance EDA",
		YColumn: "Total Breakdowns",
		Title:   "Infrastructure & Maintenance Trends",
	},
	{
		ID:      "financial_metrics",
		Label:   "Financial Metrics",
		Heading: "Financial Metrics EDA",
		YColumn: "Total Cash Collected",
		Title:   "Financial Metrics Trends",
	},
}

// Tabs returns the tab set in display order.
func Tabs() []Binding {
	out := make([]Binding, len(tabs))
	copy(out, tabs)
	return out
}

// Resolve returns the binding for a tab id. An empty id selects DefaultTab.
func Resolve(id string) (Binding, error) {
	if id == "" {
		id = DefaultTab
	}
	for _, b := range tabs {
		if b.ID == id {
			return b, nil
		}
	}
	return Binding{}, fmt.Errorf("%w: %q", ErrUnknownTab, id)
}
