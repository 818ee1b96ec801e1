package service

import (
	"context"
	"fmt"
	"strings"

	"smartbin-backend/internal/models"
	"smartbin-backend/internal/repository"

	"gorm.io/gorm"
)

// CreateHospitalInput carries the fields of a new hospital
type CreateHospitalInput struct {
	Name    string
	Address string
	Lat     float64
	Lng     float64
}

type HospitalService struct {
	db            *gorm.DB
	hospitalRepo  *repository.HospitalRepository
	binRepo       *repository.BinRepository
	notifications *NotificationService
}

func NewHospitalService(
	db *gorm.DB,
	hospitalRepo *repository.HospitalRepository,
	binRepo *repository.BinRepository,
	notifications *NotificationService,
) *HospitalService {
	return &HospitalService{
		db:            db,
		hospitalRepo:  hospitalRepo,
		binRepo:       binRepo,
		notifications: notifications,
	}
}

// GetAllHospitals lists every hospital
func (s *HospitalService) GetAllHospitals(ctx context.Context) ([]models.Hospital, error) {
	hospitals, err := s.hospitalRepo.GetAllHospitals(ctx)
	if err != nil {
		return nil, dbError("list hospitals", err)
	}
	return hospitals, nil
}

// Locations returns the position of every hospital
func (s *HospitalService) Locations(ctx context.Context) ([]models.HospitalLocation, error) {
	hospitals, err := s.GetAllHospitals(ctx)
	if err != nil {
		return nil, err
	}
	locations := make([]models.HospitalLocation, len(hospitals))
	for i, h := range hospitals {
		locations[i] = models.HospitalLocation{ID: h.ID, Name: h.Name, Lat: h.Lat, Lng: h.Lng}
	}
	return locations, nil
}

// GetHospital returns a hospital with its bins counted by type
func (s *HospitalService) GetHospital(ctx context.Context, id uint) (*models.HospitalDetails, error) {
	hospital, err := s.hospitalRepo.GetHospitalByID(ctx, id)
	if err != nil {
		return nil, lookupError("get hospital", "hospital not found", err)
	}
	counts, err := s.binRepo.CountByTypeForHospital(ctx, id)
	if err != nil {
		return nil, dbError("count hospital bins", err)
	}
	return &models.HospitalDetails{Hospital: *hospital, Bins: counts}, nil
}

// GetBins returns the bins assigned to a hospital
func (s *HospitalService) GetBins(ctx context.Context, id uint) ([]models.Bin, error) {
	if _, err := s.hospitalRepo.GetHospitalByID(ctx, id); err != nil {
		return nil, lookupError("get hospital", "hospital not found", err)
	}
	bins, err := s.binRepo.GetBinsByHospitalID(ctx, id)
	if err != nil {
		return nil, dbError("list hospital bins", err)
	}
	return bins, nil
}

// CreateHospital creates a hospital and records a notification
func (s *HospitalService) CreateHospital(ctx context.Context, in CreateHospitalInput) (*models.Hospital, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, validationError("name is required")
	}
	if in.Lat < -90 || in.Lat > 90 || in.Lng < -180 || in.Lng > 180 {
		return nil, validationError("lat/lng out of range")
	}

	hospital := &models.Hospital{
		Name:    in.Name,
		Address: strings.TrimSpace(in.Address),
		Lat:     in.Lat,
		Lng:     in.Lng,
	}

	var note *models.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.hospitalRepo.WithTx(tx).CreateHospital(ctx, hospital); err != nil {
			return err
		}
		var err error
		note, err = s.notifications.Record(ctx, tx, models.NotificationSystem,
			"New hospital added",
			fmt.Sprintf("A new hospital with the name %s has been added.", hospital.Name),
			TargetManager)
		return err
	})
	if err != nil {
		return nil, dbError("create hospital", err)
	}

	s.notifications.Announce(note)
	return hospital, nil
}

// DeleteHospital unassigns the hospital's bins, removes it and records a notification
func (s *HospitalService) DeleteHospital(ctx context.Context, id uint) error {
	var note *models.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		hospitals := s.hospitalRepo.WithTx(tx)

		hospital, err := hospitals.GetHospitalByID(ctx, id)
		if err != nil {
			return lookupError("get hospital", "hospital not found", err)
		}
		released, err := s.binRepo.WithTx(tx).UnassignHospital(ctx, id)
		if err != nil {
			return err
		}
		if _, err := hospitals.DeleteHospital(ctx, id); err != nil {
			return err
		}

		note, err = s.notifications.Record(ctx, tx, models.NotificationSystem,
			"Hospital deleted",
			fmt.Sprintf("Hospital %s has been deleted and %d bins were unassigned.", hospital.Name, released),
			TargetManager)
		return err
	})
	if err != nil {
		return dbError("delete hospital", err)
	}

	s.notifications.Announce(note)
	return nil
}
