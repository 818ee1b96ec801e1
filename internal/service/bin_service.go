package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"smartbin-backend/internal/models"
	"smartbin-backend/internal/repository"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// CreateBinInput carries the fields of a new bin
type CreateBinInput struct {
	Reference     string
	Statut        string
	Functionality string
	Type          models.BinType
	Location      string
	HospitalID    *uint
}

// BinStats summarizes the fleet
type BinStats struct {
	Total           int64                 `json:"total"`
	ByFunctionality []models.LabelCount   `json:"by_functionality"`
	ByType          []models.BinTypeCount `json:"by_type"`
}

type BinService struct {
	db            *gorm.DB
	binRepo       *repository.BinRepository
	readingRepo   *repository.ReadingRepository
	hospitalRepo  *repository.HospitalRepository
	notifications *NotificationService
}

func NewBinService(
	db *gorm.DB,
	binRepo *repository.BinRepository,
	readingRepo *repository.ReadingRepository,
	hospitalRepo *repository.HospitalRepository,
	notifications *NotificationService,
) *BinService {
	return &BinService{
		db:            db,
		binRepo:       binRepo,
		readingRepo:   readingRepo,
		hospitalRepo:  hospitalRepo,
		notifications: notifications,
	}
}

func validateCreateBin(in *CreateBinInput) error {
	in.Reference = strings.TrimSpace(in.Reference)
	if in.Reference == "" {
		return validationError("reference is required")
	}
	if !in.Type.Valid() {
		return validationError("type must be 1 or 2")
	}
	if in.Statut == "" {
		in.Statut = models.StatusEmpty
	}
	if !models.ValidStatus(in.Statut) {
		return validationError("statut must be one of: empty, almost full, full")
	}
	if in.Functionality == "" {
		in.Functionality = models.FunctionalityOK
	}
	if !models.ValidFunctionality(in.Functionality) {
		return validationError("functionality must be one of: ok, no ok")
	}
	if in.Location != "" {
		if _, _, ok := ParseLocation(in.Location); !ok {
			return validationError("location must be \"lat,lng\"")
		}
	}
	return nil
}

// Create provisions a bin with the zeroed measurement row its type reports into.
// Type 1 bins start an or_bin_values series, type 2 bins a bin_values series.
func (s *BinService) Create(ctx context.Context, in CreateBinInput) (*models.Bin, error) {
	if err := validateCreateBin(&in); err != nil {
		return nil, err
	}

	bin := &models.Bin{
		Reference:     in.Reference,
		Type:          in.Type,
		Functionality: in.Functionality,
		Statut:        in.Statut,
		Location:      in.Location,
		HospitalID:    in.HospitalID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bins := s.binRepo.WithTx(tx)
		readings := s.readingRepo.WithTx(tx)

		if in.HospitalID != nil {
			if _, err := s.hospitalRepo.WithTx(tx).GetHospitalByID(ctx, *in.HospitalID); err != nil {
				return lookupError("get hospital", "hospital not found", err)
			}
		}

		_, err := bins.GetBinByReference(ctx, in.Reference)
		switch {
		case err == nil:
			return conflictError(fmt.Sprintf("bin %q already exists", in.Reference))
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if err := bins.CreateBin(ctx, bin); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return conflictError(fmt.Sprintf("bin %q already exists", in.Reference))
			}
			return err
		}

		if in.Type == models.BinTypeOrganic {
			return readings.CreateOrganicReadings(ctx, []models.OrganicBinReading{{Reference: in.Reference}})
		}
		return readings.CreateReadings(ctx, []models.BinReading{{Reference: in.Reference}})
	})
	if err != nil {
		return nil, dbError("create bin", err)
	}
	return bin, nil
}

// AssignToHospital attaches a bin to a hospital and records a notification
func (s *BinService) AssignToHospital(ctx context.Context, hospitalID uint, reference string) error {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return validationError("binReference is required")
	}

	var note *models.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bins := s.binRepo.WithTx(tx)

		if _, err := s.hospitalRepo.WithTx(tx).GetHospitalByID(ctx, hospitalID); err != nil {
			return lookupError("get hospital", "hospital not found", err)
		}
		bin, err := bins.GetBinByReference(ctx, reference)
		if err != nil {
			return lookupError("get bin", "bin not found", err)
		}
		if err := bins.SetHospital(ctx, bin.ID, &hospitalID); err != nil {
			return err
		}

		note, err = s.notifications.Record(ctx, tx, models.NotificationSystem,
			"Bin added to hospital",
			fmt.Sprintf("Bin with reference %s has been added to hospital ID %d.", reference, hospitalID),
			TargetManager)
		return err
	})
	if err != nil {
		return dbError("assign bin to hospital", err)
	}

	s.notifications.Announce(note)
	return nil
}

// RemoveFromHospital detaches a bin from the hospital it is assigned to and records a notification
func (s *BinService) RemoveFromHospital(ctx context.Context, hospitalID uint, reference string) error {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return validationError("binReference is required")
	}

	var note *models.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bins := s.binRepo.WithTx(tx)

		bin, err := bins.GetBinByReference(ctx, reference)
		if err != nil {
			return lookupError("get bin", "bin not found", err)
		}
		if bin.HospitalID == nil || *bin.HospitalID != hospitalID {
			return notFoundError("bin is not assigned to this hospital")
		}
		if err := bins.SetHospital(ctx, bin.ID, nil); err != nil {
			return err
		}

		note, err = s.notifications.Record(ctx, tx, models.NotificationSystem,
			"Bin removed from hospital",
			fmt.Sprintf("Bin with reference %s has been removed from hospital ID %d.", reference, hospitalID),
			TargetManager)
		return err
	})
	if err != nil {
		return dbError("remove bin from hospital", err)
	}

	s.notifications.Announce(note)
	return nil
}

// List returns every bin with its latest fill-level reading
func (s *BinService) List(ctx context.Context) ([]models.BinWithReading, error) {
	bins, err := s.binRepo.GetAllBinsWithLatestReading(ctx)
	if err != nil {
		return nil, dbError("list bins", err)
	}
	return bins, nil
}

var exportHeaders = []string{
	"ID", "Reference", "Type", "Status", "Functionality", "Location", "Hospital ID",
	"Fill Level", "CO2 Level", "Temperature", "Humidity", "Last Reading",
}

// Export renders the bin list as an xlsx workbook
func (s *BinService) Export(ctx context.Context) (*bytes.Buffer, error) {
	bins, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Bins"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &exportHeaders); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, b := range bins {
		row := []interface{}{
			b.ID, b.Reference, int(b.Type), b.Statut, b.Functionality, b.Location,
			optional(b.HospitalID), optional(b.FillLevel), optional(b.CO2Level),
			optional(b.Temperature), optional(b.Humidity), "",
		}
		if b.Timestamp != nil {
			row[len(row)-1] = b.Timestamp.UTC().Format("2006-01-02 15:04:05")
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(sheet, "A", "L", 16); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf, nil
}

func optional[T any](v *T) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

// Stats counts bins in total, by functionality and by type
func (s *BinService) Stats(ctx context.Context) (*BinStats, error) {
	total, err := s.binRepo.CountBins(ctx)
	if err != nil {
		return nil, dbError("count bins", err)
	}
	byFunctionality, err := s.binRepo.CountByFunctionality(ctx)
	if err != nil {
		return nil, dbError("count bins by functionality", err)
	}
	byType, err := s.binRepo.CountByType(ctx)
	if err != nil {
		return nil, dbError("count bins by type", err)
	}
	return &BinStats{Total: total, ByFunctionality: byFunctionality, ByType: byType}, nil
}

// ParseLocation parses "lat,lng" text
func ParseLocation(s string) (lat, lng float64, ok bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lng, true
}

// Locations returns the parsed position of every bin; unparsable locations are skipped
func (s *BinService) Locations(ctx context.Context) ([]models.BinLocation, error) {
	bins, err := s.binRepo.GetAllLocations(ctx)
	if err != nil {
		return nil, dbError("list bin locations", err)
	}

	locations := make([]models.BinLocation, 0, len(bins))
	for _, b := range bins {
		lat, lng, ok := ParseLocation(b.Location)
		if !ok {
			continue
		}
		locations = append(locations, models.BinLocation{ID: b.ID, Lat: lat, Lng: lng})
	}
	return locations, nil
}

// Delete hard deletes bins with their readings and returns how many bins were removed
func (s *BinService) Delete(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, validationError("at least one bin id is required")
	}

	var (
		deleted int64
		note    *models.Notification
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bins := s.binRepo.WithTx(tx)

		refs, err := bins.GetReferencesByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(refs) == 0 {
			return notFoundError("no matching bins found")
		}
		if err := s.readingRepo.WithTx(tx).DeleteReadingsForReferences(ctx, refs); err != nil {
			return err
		}
		if deleted, err = bins.DeleteBins(ctx, ids); err != nil {
			return err
		}

		title, description := "Trash bins deleted", fmt.Sprintf("%d trash bins have been permanently deleted.", deleted)
		if len(ids) == 1 {
			title, description = "Trash bin deleted", fmt.Sprintf("Trash bin with ID %d has been permanently deleted.", ids[0])
		}
		note, err = s.notifications.Record(ctx, tx, models.NotificationSystem, title, description, TargetManager)
		return err
	})
	if err != nil {
		return 0, dbError("delete bins", err)
	}

	s.notifications.Announce(note)
	return deleted, nil
}
