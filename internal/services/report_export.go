package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"property-backend/internal/ledger"
	"property-backend/internal/models"
	"property-backend/internal/money"
	"property-backend/internal/portfolio"
	"property-backend/internal/timeutil"

	"github.com/jung-kurt/gofpdf/v2"
)

const statementWorkers = 5

// SummaryCSV writes the summary as one CSV with a section per breakdown
func (s *ReportService) SummaryCSV(summary portfolio.Summary) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	fm := s.formatter()

	rows := [][]string{
		{"Portfolio Summary"},
		{"Landlord", strconv.Itoa(summary.LandlordID)},
		{"From", orAll(formatDate(summary.Range.Start))},
		{"To", orAll(formatDate(summary.Range.End))},
		{"Total Income", fm(summary.TotalIncome)},
		{"Payments", strconv.Itoa(summary.PaymentCount)},
		{"Occupancy", fmt.Sprintf("%d/%d (%.1f%%)", summary.Occupancy.Occupied, summary.Occupancy.Total, summary.Occupancy.RatePercent)},
		{"Average Maintenance Cost", fm(summary.MaintenanceAverage)},
		{},
		{"Month", "Income", "Payments"},
	}
	for _, m := range summary.ByMonth {
		rows = append(rows, []string{m.Month, fm(m.TotalIncome), strconv.Itoa(m.PaymentCount)})
	}

	rows = append(rows, []string{}, []string{"Property", "Income", "Payments"})
	for _, p := range summary.ByProperty {
		rows = append(rows, []string{strconv.Itoa(p.PropertyID), fm(p.TotalIncome), strconv.Itoa(p.PaymentCount)})
	}

	rows = append(rows, []string{}, []string{"Payment Type", "Income", "Payments"})
	for _, t := range summary.ByType {
		rows = append(rows, []string{string(t.Type), fm(t.TotalIncome), strconv.Itoa(t.PaymentCount)})
	}

	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SummaryPDF renders the summary as a one or two page A4 report
func (s *ReportService) SummaryPDF(summary portfolio.Summary) ([]byte, error) {
	fm := s.formatter()
	pdf := newReportPDF("Portfolio Summary", defaultClock(s.Now)().Format(timeutil.DateTimeLayout))

	sectionHeader(pdf, "Overview")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, "Period: "+orAll(formatDate(summary.Range.Start))+" to "+orAll(formatDate(summary.Range.End)), "LB", 0, "L", false, 0, "")
	property := "All properties"
	if summary.PropertyID != 0 {
		property = fmt.Sprintf("Property #%d", summary.PropertyID)
	}
	pdf.CellFormat(95, 7, property, "RB", 1, "L", false, 0, "")
	pdf.CellFormat(63, 8, "Income: "+fm(summary.TotalIncome), "1", 0, "C", false, 0, "")
	pdf.CellFormat(63, 8, fmt.Sprintf("Occupancy: %.1f%%", summary.Occupancy.RatePercent), "1", 0, "C", false, 0, "")
	pdf.CellFormat(64, 8, "Avg maintenance: "+fm(summary.MaintenanceAverage), "1", 1, "C", false, 0, "")
	pdf.Ln(5)

	sectionHeader(pdf, "Income by Month")
	tableHeader(pdf, []float64{70, 70, 50}, "Month", "Income", "Payments")
	for _, m := range summary.ByMonth {
		tableRow(pdf, []float64{70, 70, 50}, m.Month, fm(m.TotalIncome), strconv.Itoa(m.PaymentCount))
	}
	pdf.Ln(5)

	sectionHeader(pdf, "Income by Property")
	tableHeader(pdf, []float64{70, 70, 50}, "Property", "Income", "Payments")
	for _, p := range summary.ByProperty {
		tableRow(pdf, []float64{70, 70, 50}, fmt.Sprintf("#%d", p.PropertyID), fm(p.TotalIncome), strconv.Itoa(p.PaymentCount))
	}
	pdf.Ln(5)

	sectionHeader(pdf, "Income by Payment Type")
	tableHeader(pdf, []float64{70, 70, 50}, "Type", "Income", "Payments")
	for _, t := range summary.ByType {
		tableRow(pdf, []float64{70, 70, 50}, string(t.Type), fm(t.TotalIncome), strconv.Itoa(t.PaymentCount))
	}

	return outputPDF(pdf)
}

// LeaseStatementPDF renders one lease's balance, schedule and payment history
func (s *ReportService) LeaseStatementPDF(d *models.LeaseDetails) ([]byte, error) {
	fm := s.formatter()
	pdf := newReportPDF(fmt.Sprintf("Lease #%d Statement", d.Lease.LeaseID), defaultClock(s.Now)().Format(timeutil.DateTimeLayout))

	sectionHeader(pdf, "Lease")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, fmt.Sprintf("Property #%d / Tenant #%d", d.Lease.PropertyID, d.Lease.TenantID), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, "Rent: "+fm(d.Lease.MonthlyRent)+fmt.Sprintf(" due day %d", d.Lease.PaymentDueDay), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, "Term: "+d.Lease.StartDate.Format(timeutil.DisplayLayout)+" to "+d.Lease.EndDate.Format(timeutil.DisplayLayout), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, "Next due: "+d.NextDueDate.Format(timeutil.DisplayLayout), "RB", 1, "L", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(63, 8, "Total due: "+fm(d.TotalDue), "1", 0, "C", false, 0, "")
	pdf.CellFormat(63, 8, "Rent paid: "+fm(d.TotalRentPaid), "1", 0, "C", false, 0, "")
	reliability := "N/A"
	if d.HasRentPayments {
		reliability = fmt.Sprintf("%d%%", d.ReliabilityScore)
	}
	pdf.CellFormat(64, 8, "On time: "+reliability, "1", 1, "C", false, 0, "")

	balanceText := "Balance: " + fm(d.Balance)
	if d.Balance.IsPositive() {
		pdf.SetFillColor(255, 200, 200)
	} else {
		pdf.SetFillColor(200, 255, 200)
		if d.Balance.IsNegative() {
			balanceText = "Credit: " + fm(d.Balance.Abs())
		}
	}
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(190, 10, balanceText, "1", 1, "C", true, 0, "")
	pdf.Ln(5)

	if len(d.Schedule) > 0 {
		sectionHeader(pdf, "Rent Schedule")
		widths := []float64{40, 40, 40, 35, 35}
		tableHeader(pdf, widths, "Month", "Due", "Expected", "Paid", "Status")
		for _, inst := range d.Schedule {
			tableRow(pdf, widths, inst.BillingMonth, inst.DueDate.Format(timeutil.DisplayLayout),
				fm(inst.Expected), fm(inst.Paid), string(inst.Status))
		}
		pdf.Ln(5)
	}

	if len(d.Payments) > 0 {
		sectionHeader(pdf, "Payment History")
		widths := []float64{30, 30, 35, 35, 60}
		tableHeader(pdf, widths, "Date", "Amount", "Type", "Method", "Status")
		for _, p := range d.Payments {
			status := string(p.Status)
			if p.IsVoided() {
				status = "voided: " + truncate(p.VoidReason, 40)
			}
			tableRow(pdf, widths, p.PaymentDate.Format(timeutil.DisplayLayout), fm(p.Amount),
				string(p.Type), string(p.Method), status)
		}
	}

	return outputPDF(pdf)
}

// StatementsZip builds a statement PDF for every lease of the landlord and
// zips them. PDFs are rendered by a small worker pool; a lease whose PDF
// fails is logged into the archive as a .txt note instead of failing the batch.
func (s *ReportService) StatementsZip(ctx context.Context, landlordID int) ([]byte, error) {
	ledgers, err := s.Store.LedgersForLandlord(ctx, landlordID, 0)
	if err != nil {
		return nil, err
	}

	type result struct {
		leaseID int
		data    []byte
		err     error
	}

	jobs := make(chan *ledger.LeaseLedger, len(ledgers))
	results := make(chan result, len(ledgers))

	var wg sync.WaitGroup
	for i := 0; i < statementWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for l := range jobs {
				data, err := s.LeaseStatementPDF(s.Leases.details(l))
				results <- result{leaseID: l.LeaseID(), data: data, err: err}
			}
		}()
	}

	for _, l := range ledgers {
		jobs <- l
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var collected []result
	for r := range results {
		collected = append(collected, r)
	}
	// stable file order in the archive
	sort.Slice(collected, func(i, j int) bool { return collected[i].leaseID < collected[j].leaseID })

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, r := range collected {
		name := fmt.Sprintf("lease_%d.pdf", r.leaseID)
		data := r.data
		if r.err != nil {
			name = fmt.Sprintf("lease_%d_error.txt", r.leaseID)
			data = []byte(r.err.Error())
		}
		fw, err := zw.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *ReportService) formatter() func(money.Money) string {
	symbol := s.Symbol
	if symbol == "" {
		symbol = money.DefaultSymbol
	}
	// gofpdf core fonts are latin-1 only
	return func(m money.Money) string { return m.Format(symbol) }
}

func newReportPDF(title, generated string) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, title, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, "Generated: "+generated, "", 1, "C", false, 0, "")
	pdf.Ln(5)
	return pdf
}

func sectionHeader(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, title, "1", 1, "L", true, 0, "")
}

func tableHeader(pdf *gofpdf.Fpdf, widths []float64, cols ...string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	for i, c := range cols {
		ln := 0
		if i == len(cols)-1 {
			ln = 1
		}
		pdf.CellFormat(widths[i], 7, c, "1", ln, "C", true, 0, "")
	}
	pdf.SetFont("Arial", "", 10)
}

func tableRow(pdf *gofpdf.Fpdf, widths []float64, cols ...string) {
	for i, c := range cols {
		ln := 0
		if i == len(cols)-1 {
			ln = 1
		}
		pdf.CellFormat(widths[i], 6, c, "1", ln, "L", false, 0, "")
	}
}

func outputPDF(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
