package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"smartbin-backend/internal/events"
	"smartbin-backend/internal/models"
	"smartbin-backend/internal/repository"

	"gorm.io/gorm"
)

const (
	maxIngestBatch      = 5000
	defaultHistoryLimit = 10
	maxHistoryLimit     = 500
)

// ReadingInput is one fill-level sensor reading as posted by a device
type ReadingInput struct {
	Reference   string   `json:"reference"`
	CO2Level    *float64 `json:"co2_level"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	FillLevel   *float64 `json:"fill_level"`
}

// OrganicReadingInput is one waste volume reading as posted by a device
type OrganicReadingInput struct {
	Reference     string   `json:"reference"`
	ToxicWaste    *float64 `json:"toxic_waste"`
	NonToxicWaste *float64 `json:"non_toxic_waste"`
	OrganicWaste  *float64 `json:"organic_waste"`
}

// StatusUpdate is the status written for one reference by an ingested batch
type StatusUpdate struct {
	Reference string  `json:"reference"`
	Statut    string  `json:"statut"`
	FillLevel float64 `json:"fill_level"`
}

// IngestResult summarizes a committed batch
type IngestResult struct {
	Readings int            `json:"readings"`
	Statuses []StatusUpdate `json:"statuses"`
}

type TelemetryService struct {
	db          *gorm.DB
	binRepo     *repository.BinRepository
	readingRepo *repository.ReadingRepository
	publisher   events.Publisher
}

func NewTelemetryService(
	db *gorm.DB,
	binRepo *repository.BinRepository,
	readingRepo *repository.ReadingRepository,
	publisher events.Publisher,
) *TelemetryService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &TelemetryService{
		db:          db,
		binRepo:     binRepo,
		readingRepo: readingRepo,
		publisher:   publisher,
	}
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// distinctReferences returns references in first-appearance order
func distinctReferences(refs []string) []string {
	seen := make(map[string]struct{}, len(refs))
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	return out
}

func validateBatchSize(n int) error {
	if n == 0 {
		return validationError("at least one reading is required")
	}
	if n > maxIngestBatch {
		return validationError(fmt.Sprintf("a batch may hold at most %d readings", maxIngestBatch))
	}
	return nil
}

// resolveReferences maps each posted reference to the reference stored on its bin,
// failing with ErrNotFound naming the first reference that has no bin.
// References the IN lookup returns verbatim resolve at once; the rest are looked up
// one by one so the database collation decides whether they match.
func resolveReferences(ctx context.Context, bins *repository.BinRepository, refs []string) (map[string]string, error) {
	found, err := bins.ExistingReferences(ctx, refs)
	if err != nil {
		return nil, err
	}
	stored := make(map[string]struct{}, len(found))
	for _, ref := range found {
		stored[ref] = struct{}{}
	}

	resolved := make(map[string]string, len(refs))
	for _, ref := range refs {
		if _, ok := stored[ref]; ok {
			resolved[ref] = ref
			continue
		}
		bin, err := bins.GetBinByReference(ctx, ref)
		if err != nil {
			return nil, lookupError("get bin", fmt.Sprintf("bin %q not found", ref), err)
		}
		resolved[ref] = bin.Reference
	}
	return resolved, nil
}

// statusUpdates derives one status per reference from its last reading, in first-appearance order
func statusUpdates(rows []models.BinReading) []StatusUpdate {
	refs := make([]string, len(rows))
	last := make(map[string]int, len(rows))
	for i, row := range rows {
		refs[i] = row.Reference
		last[row.Reference] = i
	}

	distinct := distinctReferences(refs)
	updates := make([]StatusUpdate, 0, len(distinct))
	for _, ref := range distinct {
		fill := rows[last[ref]].FillLevel
		updates = append(updates, StatusUpdate{
			Reference: ref,
			Statut:    models.ClassifyFillLevel(fill),
			FillLevel: fill,
		})
	}
	return updates
}

// Ingest stores a batch of fill-level readings and sets each referenced bin's status
// from its last reading in the batch. Bins flagged "no ok" are marked working again.
// Readings and statuses commit together or not at all.
func (s *TelemetryService) Ingest(ctx context.Context, batch []ReadingInput) (*IngestResult, error) {
	if err := validateBatchSize(len(batch)); err != nil {
		return nil, err
	}

	rows := make([]models.BinReading, len(batch))
	refs := make([]string, len(batch))
	for i, in := range batch {
		ref := strings.TrimSpace(in.Reference)
		if ref == "" {
			return nil, validationError(fmt.Sprintf("reading %d: reference is required", i))
		}
		if in.FillLevel == nil {
			return nil, validationError(fmt.Sprintf("reading %d: fill_level is required", i))
		}
		rows[i] = models.BinReading{
			Reference:   ref,
			CO2Level:    valueOrZero(in.CO2Level),
			Temperature: valueOrZero(in.Temperature),
			Humidity:    valueOrZero(in.Humidity),
			FillLevel:   *in.FillLevel,
		}
		refs[i] = ref
	}

	var updates []StatusUpdate
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bins := s.binRepo.WithTx(tx)
		readings := s.readingRepo.WithTx(tx)

		resolved, err := resolveReferences(ctx, bins, distinctReferences(refs))
		if err != nil {
			return err
		}
		for i := range rows {
			rows[i].Reference = resolved[rows[i].Reference]
		}
		updates = statusUpdates(rows)

		if err := readings.CreateReadings(ctx, rows); err != nil {
			return err
		}
		reporting := make([]string, len(updates))
		for i, u := range updates {
			if err := bins.UpdateStatus(ctx, u.Reference, u.Statut); err != nil {
				return err
			}
			reporting[i] = u.Reference
		}
		return bins.MarkReporting(ctx, reporting)
	})
	if err != nil {
		return nil, dbError("ingest readings", err)
	}

	now := time.Now().UTC()
	for _, u := range updates {
		s.publisher.Publish(events.SubjectBinStatus, events.BinStatusEvent{
			Reference: u.Reference,
			Statut:    u.Statut,
			FillLevel: u.FillLevel,
			At:        now,
		})
	}

	return &IngestResult{Readings: len(rows), Statuses: updates}, nil
}

// IngestOrganic stores a batch of waste volume readings. Bin status is left untouched;
// bins flagged "no ok" are marked working again.
func (s *TelemetryService) IngestOrganic(ctx context.Context, batch []OrganicReadingInput) (int, error) {
	if err := validateBatchSize(len(batch)); err != nil {
		return 0, err
	}

	rows := make([]models.OrganicBinReading, len(batch))
	refs := make([]string, len(batch))
	for i, in := range batch {
		ref := strings.TrimSpace(in.Reference)
		if ref == "" {
			return 0, validationError(fmt.Sprintf("reading %d: reference is required", i))
		}
		rows[i] = models.OrganicBinReading{
			Reference:     ref,
			ToxicWaste:    valueOrZero(in.ToxicWaste),
			NonToxicWaste: valueOrZero(in.NonToxicWaste),
			OrganicWaste:  valueOrZero(in.OrganicWaste),
		}
		refs[i] = ref
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bins := s.binRepo.WithTx(tx)

		resolved, err := resolveReferences(ctx, bins, distinctReferences(refs))
		if err != nil {
			return err
		}
		for i := range rows {
			rows[i].Reference = resolved[rows[i].Reference]
		}
		if err := s.readingRepo.WithTx(tx).CreateOrganicReadings(ctx, rows); err != nil {
			return err
		}
		return bins.MarkReporting(ctx, distinctReferences(refsOf(rows)))
	})
	if err != nil {
		return 0, dbError("ingest organic readings", err)
	}
	return len(rows), nil
}

func refsOf(rows []models.OrganicBinReading) []string {
	refs := make([]string, len(rows))
	for i, row := range rows {
		refs[i] = row.Reference
	}
	return refs
}

func (s *TelemetryService) requireBin(ctx context.Context, reference string) error {
	if _, err := s.binRepo.GetBinByReference(ctx, reference); err != nil {
		return lookupError("get bin", fmt.Sprintf("bin %q not found", reference), err)
	}
	return nil
}

// Latest returns the newest fill-level reading of a bin
func (s *TelemetryService) Latest(ctx context.Context, reference string) (*models.BinReading, error) {
	if err := s.requireBin(ctx, reference); err != nil {
		return nil, err
	}
	reading, err := s.readingRepo.GetLatestReading(ctx, reference)
	if err != nil {
		return nil, lookupError("get latest reading", fmt.Sprintf("no readings for bin %q", reference), err)
	}
	return reading, nil
}

func clampLimit(limit int) (int, error) {
	switch {
	case limit == 0:
		return defaultHistoryLimit, nil
	case limit < 0:
		return 0, validationError("limit must be positive")
	case limit > maxHistoryLimit:
		return maxHistoryLimit, nil
	default:
		return limit, nil
	}
}

// History returns the newest fill-level readings of a bin, oldest first
func (s *TelemetryService) History(ctx context.Context, reference string, limit int) ([]models.BinReading, error) {
	limit, err := clampLimit(limit)
	if err != nil {
		return nil, err
	}
	if err := s.requireBin(ctx, reference); err != nil {
		return nil, err
	}
	readings, err := s.readingRepo.GetRecentReadings(ctx, reference, limit)
	if err != nil {
		return nil, dbError("get reading history", err)
	}
	return readings, nil
}

// WasteData returns the newest waste volume readings of a bin, newest first
func (s *TelemetryService) WasteData(ctx context.Context, reference string, limit int) ([]models.OrganicBinReading, error) {
	limit, err := clampLimit(limit)
	if err != nil {
		return nil, err
	}
	if err := s.requireBin(ctx, reference); err != nil {
		return nil, err
	}
	readings, err := s.readingRepo.GetOrganicReadings(ctx, reference, limit)
	if err != nil {
		return nil, dbError("get waste data", err)
	}
	return readings, nil
}
