package services

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"property-backend/internal/archive"
	"property-backend/internal/cache"
	"property-backend/internal/metrics"
	"property-backend/internal/portfolio"
	"property-backend/internal/timeutil"
)

// Archiver is implemented by *archive.Store
type Archiver interface {
	Put(ctx context.Context, landlordID int, name, contentType string, data []byte, at time.Time) (string, error)
}

// SummaryQuery is the parsed filter of a report request
type SummaryQuery struct {
	Range      portfolio.DateRange
	PropertyID int
}

func (q SummaryQuery) cacheKey(landlordID int, version int64) string {
	return cache.SummaryKey(landlordID, version, formatDate(q.Range.Start), formatDate(q.Range.End), q.PropertyID)
}

// ReportService builds landlord portfolio reports and their exports
type ReportService struct {
	Store       LedgerStore
	Properties  PropertyLister
	Maintenance MaintenanceLister
	Leases      *LeaseService
	Archive     Archiver
	Symbol      string
	CacheTTL    time.Duration
	Now         Clock

	cacheGet     func(ctx context.Context, key string) ([]byte, bool)
	cacheSet     func(ctx context.Context, key string, data []byte, ttl time.Duration)
	cacheVersion func(ctx context.Context, landlordID int) int64
}

func NewReportService(store LedgerStore, properties PropertyLister, maintenance MaintenanceLister, archiver Archiver) *ReportService {
	return &ReportService{
		Store:       store,
		Properties:  properties,
		Maintenance: maintenance,
		Leases:      NewLeaseService(store),
		Archive:     archiver,
		Symbol:      "$",
		CacheTTL:    10 * time.Minute,
		cacheGet:     cache.GetCached,
		cacheSet:     cache.SetCached,
		cacheVersion: cache.ReportsVersion,
	}
}

// Summary returns the portfolio summary, from Redis when a fresh copy exists.
// Payment changes bump the landlord's report version. The version is read
// before the build, so a summary that raced a payment change is stored under
// the old version and never served.
func (s *ReportService) Summary(ctx context.Context, landlordID int, q SummaryQuery) (portfolio.Summary, error) {
	var version int64
	if s.cacheVersion != nil {
		version = s.cacheVersion(ctx, landlordID)
	}
	key := q.cacheKey(landlordID, version)
	if s.cacheGet != nil {
		if data, ok := s.cacheGet(ctx, key); ok {
			var cached portfolio.Summary
			if err := json.Unmarshal(data, &cached); err == nil {
				metrics.ReportCacheLookups.WithLabelValues("hit").Inc()
				return cached, nil
			}
			log.Printf("[Reports] Discarding unreadable cache entry %s", key)
		}
		metrics.ReportCacheLookups.WithLabelValues("miss").Inc()
	}

	summary, err := s.buildSummary(ctx, landlordID, q)
	if err != nil {
		return portfolio.Summary{}, err
	}

	if s.cacheSet != nil {
		if data, err := json.Marshal(summary); err == nil {
			s.cacheSet(ctx, key, data, s.CacheTTL)
		}
	}
	return summary, nil
}

func (s *ReportService) buildSummary(ctx context.Context, landlordID int, q SummaryQuery) (portfolio.Summary, error) {
	ledgers, err := s.Store.LedgersForLandlord(ctx, landlordID, q.PropertyID)
	if err != nil {
		return portfolio.Summary{}, err
	}
	leases, err := s.Store.LeasesForLandlord(ctx, landlordID)
	if err != nil {
		return portfolio.Summary{}, err
	}
	properties, err := s.Properties.ListByLandlord(ctx, landlordID)
	if err != nil {
		return portfolio.Summary{}, err
	}
	requests, err := s.Maintenance.ListByLandlord(ctx, landlordID)
	if err != nil {
		return portfolio.Summary{}, err
	}

	today := timeutil.DateOf(defaultClock(s.Now)())
	return portfolio.Summarize(portfolio.SummaryInput{
		LandlordID:  landlordID,
		Range:       q.Range,
		PropertyID:  q.PropertyID,
		Ledgers:     ledgers,
		Properties:  portfolio.MarkOccupied(properties, leases, today),
		Maintenance: requests,
	}), nil
}

// ArchiveReport uploads an export and returns the object key
func (s *ReportService) ArchiveReport(ctx context.Context, landlordID int, name, contentType string, data []byte) (string, error) {
	if s.Archive == nil {
		return "", archive.ErrNotConfigured
	}
	key, err := s.Archive.Put(ctx, landlordID, name, contentType, data, defaultClock(s.Now)())
	if err != nil {
		return "", err
	}
	log.Printf("[Reports] Archived %s for landlord %d", key, landlordID)
	return key, nil
}

// ReportFileName names an export after its filter, e.g.
// summary_2024-01-01_2024-12-31_p3.pdf
func ReportFileName(q SummaryQuery, ext string) string {
	name := "summary_" + orAll(formatDate(q.Range.Start)) + "_" + orAll(formatDate(q.Range.End))
	if q.PropertyID != 0 {
		name += "_p" + strconv.Itoa(q.PropertyID)
	}
	return name + "." + ext
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeutil.DateLayout)
}

func orAll(s string) string {
	if s == "" {
		return "all"
	}
	return s
}
