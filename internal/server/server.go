package server

import (
	"smartbin-backend/internal/config"
	"smartbin-backend/internal/events"
	"smartbin-backend/internal/handler"
	"smartbin-backend/internal/middleware"
	"smartbin-backend/internal/models"
	"smartbin-backend/internal/repository"
	"smartbin-backend/internal/service"
	"smartbin-backend/internal/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps are the collaborators the router is built from. Nil Publisher and Limiter disable
// event fan-out and rate limiting.
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Publisher events.Publisher
	Limiter   middleware.RateLimiter
	Files     storage.FileStore
}

// Services groups the services wired by NewServices
type Services struct {
	Auth          *service.AuthService
	Bins          *service.BinService
	Hospitals     *service.HospitalService
	Users         *service.UserService
	Telemetry     *service.TelemetryService
	Notifications *service.NotificationService
	DeviceKeys    *service.DeviceAPIKeyService
	Worker        *service.WorkerService
}

// NewServices builds repositories and services over one database handle
func NewServices(d Deps) *Services {
	cfg := d.Config
	timeout := cfg.Database.StatementTimeout

	binRepo := repository.NewBinRepo(d.DB, timeout)
	readingRepo := repository.NewReadingRepo(d.DB, timeout)
	hospitalRepo := repository.NewHospitalRepo(d.DB, timeout)
	userRepo := repository.NewUserRepo(d.DB, timeout)
	notificationRepo := repository.NewNotificationRepo(d.DB, timeout)
	apiKeyRepo := repository.NewDeviceAPIKeyRepo(d.DB, timeout)

	notifications := service.NewNotificationService(notificationRepo, d.Publisher)

	return &Services{
		Auth:          service.NewAuthService(userRepo),
		Bins:          service.NewBinService(d.DB, binRepo, readingRepo, hospitalRepo, notifications),
		Hospitals:     service.NewHospitalService(d.DB, hospitalRepo, binRepo, notifications),
		Users:         service.NewUserService(d.DB, userRepo, notifications, d.Files, cfg.Accounts.SignupRequiresApproval),
		Telemetry:     service.NewTelemetryService(d.DB, binRepo, readingRepo, d.Publisher),
		Notifications: notifications,
		DeviceKeys:    service.NewDeviceAPIKeyService(apiKeyRepo),
		Worker:        service.NewWorkerService(d.DB, binRepo, notifications, cfg.Worker.StaleBinAfter, cfg.Worker.Interval),
	}
}

// NewRouter registers every route on a new gin engine
func NewRouter(d Deps, svc *Services) *gin.Engine {
	cfg := d.Config

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS))
	r.Static(cfg.Uploads.URLPrefix, cfg.Uploads.Dir)

	healthHandler := handler.NewHealthHandler(d.DB)
	telemetryHandler := handler.NewTelemetryHandler(svc.Telemetry)
	binHandler := handler.NewBinHandler(svc.Bins)
	hospitalHandler := handler.NewHospitalHandler(svc.Hospitals)
	authHandler := handler.NewAuthHandler(svc.Auth, svc.Users,
		int(cfg.JWT.RefreshTokenExpiry.Seconds()), cfg.Server.GinMode == gin.ReleaseMode)
	userHandler := handler.NewUserHandler(svc.Users, cfg.Uploads.MaxBytes)
	notificationHandler := handler.NewNotificationHandler(svc.Notifications)
	apiKeyHandler := handler.NewDeviceAPIKeyHandler(svc.DeviceKeys)

	rateLimit := middleware.RateLimit(d.Limiter, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	deviceAuth := middleware.APIKeyAuthMiddleware(svc.DeviceKeys, cfg.Devices.RequireAPIKey)
	staff := middleware.RequireRole(models.RoleAdmin, models.RoleManager)
	admin := middleware.RequireAdmin()

	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)

	// Device routes
	r.POST("/insert", rateLimit, deviceAuth, telemetryHandler.Insert)
	r.POST("/insert/organic", rateLimit, deviceAuth, telemetryHandler.InsertOrganic)
	r.POST("/api/updateUserPoints", rateLimit, deviceAuth, userHandler.UpdateUserPoints)

	// Public account routes
	r.POST("/signup", rateLimit, authHandler.Signup)
	r.POST("/api/login", rateLimit, authHandler.Login)
	r.POST("/api/auth/refresh", authHandler.Refresh)
	r.POST("/api/auth/logout", authHandler.Logout)

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		api.GET("/me", userHandler.Me)
		api.GET("/me/points-goal", userHandler.GetPointsGoal)
		api.PUT("/me/points-goal", userHandler.SetPointsGoal)
		api.POST("/me/profile-image", userHandler.UploadProfileImage)

		api.GET("/smart-trash-bins", binHandler.GetAllBins)
		api.GET("/smart-trash-bins/export", binHandler.ExportBins)
		api.POST("/smart-trash-bins", staff, binHandler.CreateBin)
		api.DELETE("/trashbin/:id", staff, binHandler.DeleteBin)
		api.DELETE("/trashbins", staff, binHandler.DeleteBins)

		api.GET("/bins/stats", binHandler.GetStats)
		api.GET("/bins/locations", binHandler.GetLocations)
		api.GET("/bins/:reference/latest", telemetryHandler.Latest)
		api.GET("/bins/:reference/history", telemetryHandler.History)
		api.GET("/bins/:reference/waste-data", telemetryHandler.WasteData)

		api.GET("/hospitals", hospitalHandler.GetAllHospitals)
		api.GET("/hospitals/locations", hospitalHandler.GetLocations)
		api.POST("/hospitals", staff, hospitalHandler.CreateHospital)
		api.GET("/hospitals/:hospitalId", hospitalHandler.GetHospital)
		api.GET("/hospitals/:hospitalId/bins", hospitalHandler.GetHospitalBins)
		api.DELETE("/hospitals/:hospitalId", staff, hospitalHandler.DeleteHospital)
		api.POST("/hospitals/:hospitalId/add-bin", staff, binHandler.AddBinToHospital)
		api.DELETE("/hospitals/:hospitalId/delete-bin", staff, binHandler.RemoveBinFromHospital)

		api.GET("/notifications", notificationHandler.GetAllNotifications)
		api.PUT("/notifications/:id", staff, notificationHandler.MarkRead)

		// Admin-only routes
		api.GET("/users", admin, userHandler.GetAllUsers)
		api.GET("/users/count", admin, userHandler.CountUsers)
		api.POST("/users", admin, userHandler.CreateUser)
		api.PUT("/users/:id", admin, userHandler.UpdateUser)
		api.PUT("/users/:id/status", admin, userHandler.SetUserStatus)
		api.DELETE("/users/:id", admin, userHandler.DeleteUser)
		api.DELETE("/users", admin, userHandler.DeleteUsers)

		api.POST("/device-keys", admin, apiKeyHandler.GenerateAPIKey)
		api.GET("/device-keys", admin, apiKeyHandler.GetAPIKeys)
		api.DELETE("/device-keys/:id", admin, apiKeyHandler.RevokeAPIKey)
	}

	return r
}
