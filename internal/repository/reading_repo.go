package repository

import (
	"context"
	"time"

	"smartbin-backend/internal/models"

	"gorm.io/gorm"
)

// insertBatchSize caps the rows sent in a single multi-row INSERT
const insertBatchSize = 500

type ReadingRepository struct {
	base
}

func NewReadingRepo(db *gorm.DB, timeout time.Duration) *ReadingRepository {
	return &ReadingRepository{base: newBase(db, timeout)}
}

// WithTx returns a copy of the repository bound to a transaction
func (r *ReadingRepository) WithTx(tx *gorm.DB) *ReadingRepository {
	return &ReadingRepository{base: r.withTx(tx)}
}

// CreateReadings appends fill-level readings with multi-row inserts
func (r *ReadingRepository) CreateReadings(ctx context.Context, readings []models.BinReading) error {
	if len(readings) == 0 {
		return nil
	}
	db, cancel := r.session(ctx)
	defer cancel()
	return db.CreateInBatches(&readings, insertBatchSize).Error
}

// CreateOrganicReadings appends organic waste readings with multi-row inserts
func (r *ReadingRepository) CreateOrganicReadings(ctx context.Context, readings []models.OrganicBinReading) error {
	if len(readings) == 0 {
		return nil
	}
	db, cancel := r.session(ctx)
	defer cancel()
	return db.CreateInBatches(&readings, insertBatchSize).Error
}

// GetLatestReading returns the newest fill-level reading for a reference
func (r *ReadingRepository) GetLatestReading(ctx context.Context, reference string) (*models.BinReading, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var reading models.BinReading
	err := db.Where("reference = ?", reference).
		Order("id DESC").
		First(&reading).Error
	if err != nil {
		return nil, err
	}
	return &reading, nil
}

// GetRecentReadings returns the newest limit readings for a reference, oldest first
func (r *ReadingRepository) GetRecentReadings(ctx context.Context, reference string, limit int) ([]models.BinReading, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var readings []models.BinReading
	err := db.Where("reference = ?", reference).
		Order("id DESC").
		Limit(limit).
		Find(&readings).Error
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(readings)-1; i < j; i, j = i+1, j-1 {
		readings[i], readings[j] = readings[j], readings[i]
	}
	return readings, nil
}

// GetOrganicReadings returns organic readings for a reference, newest first
func (r *ReadingRepository) GetOrganicReadings(ctx context.Context, reference string, limit int) ([]models.OrganicBinReading, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var readings []models.OrganicBinReading
	err := db.Where("reference = ?", reference).
		Order("id DESC").
		Limit(limit).
		Find(&readings).Error
	return readings, err
}

// DeleteReadingsForReferences removes every reading of both kinds for the given references
func (r *ReadingRepository) DeleteReadingsForReferences(ctx context.Context, references []string) error {
	if len(references) == 0 {
		return nil
	}
	db, cancel := r.session(ctx)
	defer cancel()

	if err := db.Where("reference IN ?", references).Delete(&models.BinReading{}).Error; err != nil {
		return err
	}
	return db.Where("reference IN ?", references).Delete(&models.OrganicBinReading{}).Error
}
