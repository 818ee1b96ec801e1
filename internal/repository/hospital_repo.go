package repository

import (
	"context"
	"time"

	"smartbin-backend/internal/models"

	"gorm.io/gorm"
)

type HospitalRepository struct {
	base
}

func NewHospitalRepo(db *gorm.DB, timeout time.Duration) *HospitalRepository {
	return &HospitalRepository{base: newBase(db, timeout)}
}

// WithTx returns a copy of the repository bound to a transaction
func (r *HospitalRepository) WithTx(tx *gorm.DB) *HospitalRepository {
	return &HospitalRepository{base: r.withTx(tx)}
}

// GetAllHospitals retrieves all hospitals ordered by name
func (r *HospitalRepository) GetAllHospitals(ctx context.Context) ([]models.Hospital, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var hospitals []models.Hospital
	err := db.Order("name ASC").Find(&hospitals).Error
	return hospitals, err
}

// GetHospitalByID retrieves a hospital by ID, gorm.ErrRecordNotFound when absent
func (r *HospitalRepository) GetHospitalByID(ctx context.Context, id uint) (*models.Hospital, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var hospital models.Hospital
	if err := db.First(&hospital, id).Error; err != nil {
		return nil, err
	}
	return &hospital, nil
}

// CreateHospital creates a new hospital
func (r *HospitalRepository) CreateHospital(ctx context.Context, hospital *models.Hospital) error {
	db, cancel := r.session(ctx)
	defer cancel()
	return db.Create(hospital).Error
}

// DeleteHospital removes a hospital row
func (r *HospitalRepository) DeleteHospital(ctx context.Context, id uint) (int64, error) {
	db, cancel := r.session(ctx)
	defer cancel()
	result := db.Delete(&models.Hospital{}, id)
	return result.RowsAffected, result.Error
}
