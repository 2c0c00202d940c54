package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConversionRateReport is a staff member's conversion percentage over a window
type ConversionRateReport struct {
	StaffID   string              `json:"staff_id"`
	Window    Window              `json:"window"`
	Metric    string              `json:"metric"`
	Leads     int                 `json:"leads"`
	Converted int                 `json:"converted"`
	Rate      float64             `json:"rate"`
	Orphans   []OrphanedReference `json:"orphaned_references"`
}

// StaffMonthRevenue is the revenue attributed to one staff member in one month
type StaffMonthRevenue struct {
	StaffID     string          `json:"staff_id"`
	StaffName   string          `json:"staff_name"`
	Month       Month           `json:"month"`
	Conversions int             `json:"conversions"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// RevenueReport lists revenue rows ordered by month desc, revenue desc, staff id
type RevenueReport struct {
	Window  Window              `json:"window"`
	Rows    []StaffMonthRevenue `json:"rows"`
	Orphans []OrphanedReference `json:"orphaned_references"`
}

// TimeToConvertReport is the whole-day span from creation to conversion
type TimeToConvertReport struct {
	LeadID         string              `json:"lead_id"`
	CreationDate   time.Time           `json:"creation_date"`
	ConversionDate time.Time           `json:"conversion_date"`
	Days           int                 `json:"days"`
	Orphans        []OrphanedReference `json:"orphaned_references"`
}

// TargetProgressReport compares a club's conversions in a month against its target
type TargetProgressReport struct {
	ClubID        string              `json:"club_id"`
	Month         Month               `json:"month"`
	Converted     int                 `json:"converted"`
	MonthlyTarget int                 `json:"monthly_target"`
	Progress      float64             `json:"progress"`
	Orphans       []OrphanedReference `json:"orphaned_references"`
}

// StaffSummary holds all-time derived figures for a staff member
type StaffSummary struct {
	StaffID        string              `json:"staff_id"`
	StaffName      string              `json:"staff_name"`
	TotalLeads     int                 `json:"total_leads"`
	ConvertedLeads int                 `json:"converted_leads"`
	ConversionRate float64             `json:"conversion_rate"`
	Revenue        decimal.Decimal     `json:"revenue"`
	Orphans        []OrphanedReference `json:"orphaned_references"`
}

// ClubRevenueReport is the canonical revenue of a club from its active subscriptions
type ClubRevenueReport struct {
	ClubID              string              `json:"club_id"`
	ActiveSubscriptions int                 `json:"active_subscriptions"`
	Revenue             decimal.Decimal     `json:"revenue"`
	Orphans             []OrphanedReference `json:"orphaned_references"`
}
