package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"

	"smartbin-backend/internal/models"
	"smartbin-backend/internal/repository"
	"smartbin-backend/internal/storage"
	"smartbin-backend/pkg/utils"

	"gorm.io/gorm"
)

const (
	minPasswordLength = 6
	userCodeAttempts  = 5
)

// RewardInput identifies a user by code or by id and carries the points to add
type RewardInput struct {
	UserCode   string
	UserID     *uint
	GiftPoints int
}

// RewardResult holds the totals after a reward update
type RewardResult struct {
	FullName        string `json:"full_name"`
	TotalGiftPoints int    `json:"total_giftpoints"`
	NbTrashThrown   int    `json:"nb_trashthrown"`
}

// SignupInput carries a self-service registration
type SignupInput struct {
	FullName        string
	Email           string
	Password        string
	ConfirmPassword string
}

// CreateUserInput carries an account created by an administrator
type CreateUserInput struct {
	FullName string
	Email    string
	Password string
	Role     string
}

type UserService struct {
	db                     *gorm.DB
	userRepo               *repository.UserRepository
	notifications          *NotificationService
	files                  storage.FileStore
	signupRequiresApproval bool
}

func NewUserService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	notifications *NotificationService,
	files storage.FileStore,
	signupRequiresApproval bool,
) *UserService {
	return &UserService{
		db:                     db,
		userRepo:               userRepo,
		notifications:          notifications,
		files:                  files,
		signupRequiresApproval: signupRequiresApproval,
	}
}

// Reward counts one thrown item for a user and adds gift points.
// Banned users are rejected with ErrAccountDisabled and left unchanged.
func (s *UserService) Reward(ctx context.Context, in RewardInput) (*RewardResult, error) {
	in.UserCode = strings.TrimSpace(in.UserCode)
	if in.UserCode == "" && in.UserID == nil {
		return nil, validationError("user_code or id is required")
	}
	if in.GiftPoints < 0 {
		return nil, validationError("giftpoints must not be negative")
	}

	var result RewardResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.userRepo.WithTx(tx)

		var (
			user *models.User
			err  error
		)
		if in.UserCode != "" {
			user, err = users.FindUserByCode(ctx, in.UserCode)
		} else {
			user, err = users.FindUserByID(ctx, *in.UserID)
		}
		if err != nil {
			return lookupError("find user", "user not found", err)
		}
		if user.IsBanned {
			return newError(ErrAccountDisabled, "account is disabled")
		}

		affected, err := users.AddReward(ctx, user.ID, in.GiftPoints)
		if err != nil {
			return err
		}
		if affected == 0 {
			return newError(ErrAccountDisabled, "account is disabled")
		}

		updated, err := users.FindUserByID(ctx, user.ID)
		if err != nil {
			return err
		}
		result = RewardResult{
			FullName:        updated.FullName,
			TotalGiftPoints: updated.GiftPoints,
			NbTrashThrown:   updated.NbTrashThrown,
		}
		return nil
	})
	if err != nil {
		return nil, dbError("reward user", err)
	}
	return &result, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return "", validationError("a valid email is required")
	}
	return email, nil
}

func (s *UserService) uniqueUserCode(ctx context.Context, users *repository.UserRepository, length int) (string, error) {
	for i := 0; i < userCodeAttempts; i++ {
		code, err := utils.GenerateUserCode(length)
		if err != nil {
			return "", err
		}
		taken, err := users.UserCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", errors.New("could not allocate a unique user code")
}

// createAccount inserts a user with a fresh code, failing with ErrConflict on a taken email
func (s *UserService) createAccount(ctx context.Context, users *repository.UserRepository, user *models.User, codeLength int) error {
	taken, err := users.EmailExists(ctx, user.Email, 0)
	if err != nil {
		return err
	}
	if taken {
		return conflictError("email is already registered")
	}

	if user.UserCode, err = s.uniqueUserCode(ctx, users, codeLength); err != nil {
		return err
	}
	if err := users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return conflictError("email is already registered")
		}
		return err
	}
	return nil
}

// Signup registers a user account. Accounts stay banned until approved when approval is required.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	if in.FullName == "" {
		return nil, validationError("full_name is required")
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLength {
		return nil, validationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if in.Password != in.ConfirmPassword {
		return nil, validationError("passwords do not match")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, validationError(err.Error())
	}

	user := &models.User{
		Email:    email,
		Password: hash,
		FullName: in.FullName,
		Role:     models.RoleUser,
		IsBanned: s.signupRequiresApproval,
	}

	var note *models.Notification
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.createAccount(ctx, s.userRepo.WithTx(tx), user, utils.SignupUserCodeLength); err != nil {
			return err
		}
		var err error
		note, err = s.notifications.Record(ctx, tx, models.NotificationMail,
			fmt.Sprintf("Welcome, %s", user.FullName),
			fmt.Sprintf("New user %s has signed up", user.FullName),
			user.FullName)
		return err
	})
	if err != nil {
		return nil, dbError("sign up", err)
	}

	s.notifications.Announce(note)
	return user, nil
}

// CreateUser creates an active account on behalf of an administrator
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	if in.FullName == "" {
		return nil, validationError("full_name is required")
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLength {
		return nil, validationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	if !models.ValidRole(in.Role) {
		return nil, validationError("role must be one of: user, manager, admin")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, validationError(err.Error())
	}

	user := &models.User{
		Email:    email,
		Password: hash,
		FullName: in.FullName,
		Role:     in.Role,
	}
	if err := s.createAccount(ctx, s.userRepo, user, utils.AdminUserCodeLength); err != nil {
		return nil, dbError("create user", err)
	}
	return user, nil
}

// GetUser returns one user
func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, id)
	if err != nil {
		return nil, lookupError("find user", "user not found", err)
	}
	return user, nil
}

// ListUsers returns every user
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.GetAllUsers(ctx)
	if err != nil {
		return nil, dbError("list users", err)
	}
	return users, nil
}

// CountUsers returns the number of users
func (s *UserService) CountUsers(ctx context.Context) (int64, error) {
	count, err := s.userRepo.CountUsers(ctx)
	if err != nil {
		return 0, dbError("count users", err)
	}
	return count, nil
}

// UpdateProfile changes a user's email and name and records a notification
func (s *UserService) UpdateProfile(ctx context.Context, id uint, email, fullName string) (*models.User, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, validationError("full_name is required")
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	var (
		user *models.User
		note *models.Notification
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.userRepo.WithTx(tx)

		if _, err := users.FindUserByID(ctx, id); err != nil {
			return lookupError("find user", "user not found", err)
		}
		taken, err := users.EmailExists(ctx, email, id)
		if err != nil {
			return err
		}
		if taken {
			return conflictError("email is already registered")
		}
		if _, err := users.UpdateUser(ctx, id, map[string]interface{}{"email": email, "full_name": fullName}); err != nil {
			return err
		}
		if user, err = users.FindUserByID(ctx, id); err != nil {
			return err
		}

		note, err = s.notifications.Record(ctx, tx, models.NotificationUpdate,
			fmt.Sprintf("%s - User Updated", fullName),
			fmt.Sprintf("%s's profile has been updated", fullName),
			fullName)
		return err
	})
	if err != nil {
		return nil, dbError("update user", err)
	}

	s.notifications.Announce(note)
	return user, nil
}

// SetBanned bans or reinstates a user. Banning also revokes the user's refresh tokens.
func (s *UserService) SetBanned(ctx context.Context, id uint, banned bool) error {
	var note *models.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.userRepo.WithTx(tx)

		if _, err := users.FindUserByID(ctx, id); err != nil {
			return lookupError("find user", "user not found", err)
		}
		if _, err := users.UpdateUser(ctx, id, map[string]interface{}{"isbanned": banned}); err != nil {
			return err
		}
		if banned {
			if err := users.RevokeUserRefreshTokens(ctx, id); err != nil {
				return err
			}
		}

		statusText := "unbanned"
		if banned {
			statusText = "banned"
		}
		var err error
		note, err = s.notifications.Record(ctx, tx, models.NotificationSystem,
			"User status updated",
			fmt.Sprintf("User with ID %d has been %s.", id, statusText),
			TargetAdmin)
		return err
	})
	if err != nil {
		return dbError("set user status", err)
	}

	s.notifications.Announce(note)
	return nil
}

// DeleteUsers removes users and returns how many were deleted
func (s *UserService) DeleteUsers(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, validationError("at least one user id is required")
	}

	var (
		deleted int64
		note    *models.Notification
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if deleted, err = s.userRepo.WithTx(tx).DeleteUsers(ctx, ids); err != nil {
			return err
		}
		if deleted == 0 {
			return notFoundError("no matching users found")
		}
		note, err = s.notifications.Record(ctx, tx, models.NotificationSystem,
			"Users deleted",
			fmt.Sprintf("%d users have been deleted.", deleted),
			TargetAdmin)
		return err
	})
	if err != nil {
		return 0, dbError("delete users", err)
	}

	s.notifications.Announce(note)
	return deleted, nil
}

// GetPointsGoal returns the user's points goal, nil when unset
func (s *UserService) GetPointsGoal(ctx context.Context, id uint) (*int, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.PointsGoal, nil
}

// SetPointsGoal sets the user's points goal
func (s *UserService) SetPointsGoal(ctx context.Context, id uint, goal int) error {
	if goal < 0 {
		return validationError("points_goal must not be negative")
	}
	if _, err := s.GetUser(ctx, id); err != nil {
		return err
	}
	if _, err := s.userRepo.UpdateUser(ctx, id, map[string]interface{}{"points_goal": goal}); err != nil {
		return dbError("set points goal", err)
	}
	return nil
}

// SetProfileImage stores an uploaded image and points the user's profile at it
func (s *UserService) SetProfileImage(ctx context.Context, id uint, ext string, r io.Reader) (string, error) {
	if _, err := s.GetUser(ctx, id); err != nil {
		return "", err
	}

	p, err := s.files.Save(ctx, ext, r)
	if err != nil {
		return "", fmt.Errorf("failed to store profile image: %w", err)
	}
	if _, err := s.userRepo.UpdateUser(ctx, id, map[string]interface{}{"profile_image": p}); err != nil {
		return "", dbError("set profile image", err)
	}
	return p, nil
}
