package portfolio

import (
	"property-backend/internal/ledger"
	"property-backend/internal/money"
)

// SummaryInput is everything a landlord report is built from. Ledgers,
// properties and requests must already be scoped to the landlord.
type SummaryInput struct {
	LandlordID  int
	Range       DateRange
	PropertyID  int
	Ledgers     []*ledger.LeaseLedger
	Properties  []Property
	Maintenance []MaintenanceRequest
}

// Summary is the portfolio report read model
type Summary struct {
	LandlordID         int              `json:"landlord_id"`
	Range              DateRange        `json:"range"`
	PropertyID         int              `json:"property_id,omitempty"`
	TotalIncome        money.Money      `json:"total_income"`
	PaymentCount       int              `json:"payment_count"`
	ByMonth            []MonthlyIncome  `json:"by_month"`
	ByProperty         []PropertyIncome `json:"by_property"`
	ByType             []TypeIncome     `json:"by_type"`
	Occupancy          Occupancy        `json:"occupancy"`
	MaintenanceAverage money.Money      `json:"maintenance_average"`
}

// Summarize computes every report section in one pass over the input.
// With a property filter, the property breakdown and occupancy only cover
// that property.
func Summarize(in SummaryInput) Summary {
	s := Summary{
		LandlordID:         in.LandlordID,
		Range:              in.Range,
		PropertyID:         in.PropertyID,
		ByMonth:            IncomeByMonth(in.Ledgers, in.Range, in.PropertyID),
		ByType:             IncomeByPaymentType(in.Ledgers, in.Range, in.PropertyID),
		MaintenanceAverage: MaintenanceCostAverage(in.Maintenance, in.Range, in.PropertyID),
		TotalIncome:        money.Zero,
	}

	for _, pi := range IncomeByProperty(in.Ledgers, in.Range) {
		if in.PropertyID != 0 && pi.PropertyID != in.PropertyID {
			continue
		}
		s.ByProperty = append(s.ByProperty, pi)
	}
	if s.ByProperty == nil {
		s.ByProperty = []PropertyIncome{}
	}

	for _, m := range s.ByMonth {
		s.TotalIncome = s.TotalIncome.Add(m.TotalIncome)
		s.PaymentCount += m.PaymentCount
	}

	properties := in.Properties
	if in.PropertyID != 0 {
		properties = nil
		for _, p := range in.Properties {
			if p.ID == in.PropertyID {
				properties = append(properties, p)
			}
		}
	}
	s.Occupancy = OccupancyRate(properties)
	return s
}
