package repository

import (
	"context"
	"time"

	"smartbin-backend/internal/models"

	"gorm.io/gorm"
)

type BinRepository struct {
	base
}

func NewBinRepo(db *gorm.DB, timeout time.Duration) *BinRepository {
	return &BinRepository{base: newBase(db, timeout)}
}

// WithTx returns a copy of the repository bound to a transaction
func (r *BinRepository) WithTx(tx *gorm.DB) *BinRepository {
	return &BinRepository{base: r.withTx(tx)}
}

// CreateBin inserts a new bin
func (r *BinRepository) CreateBin(ctx context.Context, bin *models.Bin) error {
	db, cancel := r.session(ctx)
	defer cancel()
	return db.Create(bin).Error
}

// GetBinByReference retrieves a bin by its reference, gorm.ErrRecordNotFound when absent
func (r *BinRepository) GetBinByReference(ctx context.Context, reference string) (*models.Bin, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var bin models.Bin
	if err := db.Where("reference = ?", reference).First(&bin).Error; err != nil {
		return nil, err
	}
	return &bin, nil
}

// GetBinByID retrieves a bin by ID, gorm.ErrRecordNotFound when absent
func (r *BinRepository) GetBinByID(ctx context.Context, id uint) (*models.Bin, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var bin models.Bin
	if err := db.First(&bin, id).Error; err != nil {
		return nil, err
	}
	return &bin, nil
}

// ExistingReferences returns the subset of references that have a bin row
func (r *BinRepository) ExistingReferences(ctx context.Context, references []string) ([]string, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var found []string
	err := db.Model(&models.Bin{}).
		Where("reference IN ?", references).
		Pluck("reference", &found).Error
	return found, err
}

// UpdateStatus sets the derived status of one bin
func (r *BinRepository) UpdateStatus(ctx context.Context, reference, statut string) error {
	db, cancel := r.session(ctx)
	defer cancel()
	return db.Model(&models.Bin{}).
		Where("reference = ?", reference).
		Update("statut", statut).Error
}

// MarkReporting sets bins flagged "no ok" back to "ok" for the given references
func (r *BinRepository) MarkReporting(ctx context.Context, references []string) error {
	db, cancel := r.session(ctx)
	defer cancel()
	return db.Model(&models.Bin{}).
		Where("reference IN ? AND functionality = ?", references, models.FunctionalityNotOK).
		Update("functionality", models.FunctionalityOK).Error
}

// SetHospital assigns the bin to a hospital, or unassigns it when hospitalID is nil
func (r *BinRepository) SetHospital(ctx context.Context, binID uint, hospitalID *uint) error {
	db, cancel := r.session(ctx)
	defer cancel()
	return db.Model(&models.Bin{}).
		Where("id = ?", binID).
		Update("hospital_id", hospitalID).Error
}

// UnassignHospital detaches every bin from a hospital and returns how many were detached
func (r *BinRepository) UnassignHospital(ctx context.Context, hospitalID uint) (int64, error) {
	db, cancel := r.session(ctx)
	defer cancel()
	result := db.Model(&models.Bin{}).
		Where("hospital_id = ?", hospitalID).
		Update("hospital_id", nil)
	return result.RowsAffected, result.Error
}

// GetBinsByHospitalID retrieves the bins assigned to a hospital
func (r *BinRepository) GetBinsByHospitalID(ctx context.Context, hospitalID uint) ([]models.Bin, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var bins []models.Bin
	err := db.Where("hospital_id = ?", hospitalID).
		Order("reference ASC").
		Find(&bins).Error
	return bins, err
}

// CountByTypeForHospital counts a hospital's bins grouped by type
func (r *BinRepository) CountByTypeForHospital(ctx context.Context, hospitalID uint) ([]models.BinTypeCount, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var counts []models.BinTypeCount
	err := db.Model(&models.Bin{}).
		Select("type, COUNT(*) AS count").
		Where("hospital_id = ?", hospitalID).
		Group("type").
		Order("type ASC").
		Scan(&counts).Error
	return counts, err
}

// GetAllBinsWithLatestReading lists every bin joined with its most recent bin_values row
func (r *BinRepository) GetAllBinsWithLatestReading(ctx context.Context) ([]models.BinWithReading, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var rows []models.BinWithReading
	err := db.Table("smart_trash_bin AS b").
		Select(`b.id, b.type, b.statut, b.reference, b.functionality, b.location, b.hospital_id,
			v.co2_level, v.temperature, v.humidity, v.fill_level, v.timestamp`).
		Joins(`LEFT JOIN bin_values v ON v.reference = b.reference
			AND v.id = (SELECT MAX(id) FROM bin_values WHERE reference = b.reference)`).
		Order("b.id ASC").
		Scan(&rows).Error
	return rows, err
}

// CountBins returns the total number of bins
func (r *BinRepository) CountBins(ctx context.Context) (int64, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var count int64
	err := db.Model(&models.Bin{}).Count(&count).Error
	return count, err
}

// CountByFunctionality counts bins grouped by functionality label
func (r *BinRepository) CountByFunctionality(ctx context.Context) ([]models.LabelCount, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var counts []models.LabelCount
	err := db.Model(&models.Bin{}).
		Select("functionality AS label, COUNT(*) AS count").
		Group("functionality").
		Order("functionality ASC").
		Scan(&counts).Error
	return counts, err
}

// CountByType counts all bins grouped by type
func (r *BinRepository) CountByType(ctx context.Context) ([]models.BinTypeCount, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var counts []models.BinTypeCount
	err := db.Model(&models.Bin{}).
		Select("type, COUNT(*) AS count").
		Group("type").
		Order("type ASC").
		Scan(&counts).Error
	return counts, err
}

// GetAllLocations returns id and raw location text for every bin
func (r *BinRepository) GetAllLocations(ctx context.Context) ([]models.Bin, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var bins []models.Bin
	err := db.Select("id", "location").Order("id ASC").Find(&bins).Error
	return bins, err
}

// GetReferencesByIDs returns the references of the given bin IDs
func (r *BinRepository) GetReferencesByIDs(ctx context.Context, ids []uint) ([]string, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var refs []string
	err := db.Model(&models.Bin{}).Where("id IN ?", ids).Pluck("reference", &refs).Error
	return refs, err
}

// DeleteBins hard deletes bins by ID and returns the number removed
func (r *BinRepository) DeleteBins(ctx context.Context, ids []uint) (int64, error) {
	db, cancel := r.session(ctx)
	defer cancel()
	result := db.Where("id IN ?", ids).Delete(&models.Bin{})
	return result.RowsAffected, result.Error
}

// GetStaleBins returns working bins whose latest reading, or creation time when they
// have none, is older than cutoff
func (r *BinRepository) GetStaleBins(ctx context.Context, cutoff time.Time) ([]models.Bin, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var bins []models.Bin
	err := db.Where("functionality = ?", models.FunctionalityOK).
		Where(`COALESCE(
			(SELECT MAX(timestamp) FROM bin_values WHERE bin_values.reference = smart_trash_bin.reference),
			(SELECT MAX(timestamp) FROM or_bin_values WHERE or_bin_values.reference = smart_trash_bin.reference),
			smart_trash_bin.created_at) < ?`, cutoff).
		Order("id ASC").
		Find(&bins).Error
	return bins, err
}

// SetFunctionality updates the functionality label of the given bins
func (r *BinRepository) SetFunctionality(ctx context.Context, ids []uint, functionality string) error {
	db, cancel := r.session(ctx)
	defer cancel()
	return db.Model(&models.Bin{}).
		Where("id IN ?", ids).
		Update("functionality", functionality).Error
}
