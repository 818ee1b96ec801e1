package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"smartbin-backend/internal/database"
	"smartbin-backend/internal/models"
	"smartbin-backend/internal/repository"
	"smartbin-backend/pkg/utils"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	utils.BcryptCost = 4
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), logger.Discard)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// recordingPublisher keeps published events in memory
type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

type published struct {
	subject string
	payload interface{}
}

func (p *recordingPublisher) Publish(subject string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{subject: subject, payload: payload})
}

func (p *recordingPublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.subject
	}
	return out
}

type testEnv struct {
	db            *gorm.DB
	publisher     *recordingPublisher
	bins          *repository.BinRepository
	readings      *repository.ReadingRepository
	hospitals     *repository.HospitalRepository
	users         *repository.UserRepository
	notifications *NotificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)
	pub := &recordingPublisher{}
	return &testEnv{
		db:            db,
		publisher:     pub,
		bins:          repository.NewBinRepo(db, 0),
		readings:      repository.NewReadingRepo(db, 0),
		hospitals:     repository.NewHospitalRepo(db, 0),
		users:         repository.NewUserRepo(db, 0),
		notifications: NewNotificationService(repository.NewNotificationRepo(db, 0), pub),
	}
}

func (e *testEnv) binService() *BinService {
	return NewBinService(e.db, e.bins, e.readings, e.hospitals, e.notifications)
}

func (e *testEnv) telemetryService() *TelemetryService {
	return NewTelemetryService(e.db, e.bins, e.readings, e.publisher)
}

func (e *testEnv) userService() *UserService {
	return NewUserService(e.db, e.users, e.notifications, nil, true)
}

func (e *testEnv) createBin(t *testing.T, reference string, binType models.BinType) *models.Bin {
	t.Helper()
	bin := &models.Bin{Reference: reference, Type: binType, Statut: models.StatusEmpty, Functionality: models.FunctionalityOK}
	if err := e.db.Create(bin).Error; err != nil {
		t.Fatalf("create bin %s: %v", reference, err)
	}
	return bin
}

func (e *testEnv) createHospital(t *testing.T, name string) *models.Hospital {
	t.Helper()
	h := &models.Hospital{Name: name, Lat: 36.8, Lng: 10.18}
	if err := e.db.Create(h).Error; err != nil {
		t.Fatalf("create hospital: %v", err)
	}
	return h
}

func (e *testEnv) createUser(t *testing.T, code string, banned bool) *models.User {
	t.Helper()
	u := &models.User{
		Email:    strings.ToLower(code) + "@example.com",
		Password: "hash",
		FullName: "User " + code,
		UserCode: code,
		Role:     models.RoleUser,
		IsBanned: banned,
	}
	if err := e.db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (e *testEnv) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func (e *testEnv) statut(t *testing.T, reference string) string {
	t.Helper()
	bin, err := e.bins.GetBinByReference(context.Background(), reference)
	if err != nil {
		t.Fatalf("get bin %s: %v", reference, err)
	}
	return bin.Statut
}

func fp(v float64) *float64 { return &v }

func up(v uint) *uint { return &v }
