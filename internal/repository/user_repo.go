package repository

import (
	"context"
	"time"

	"smartbin-backend/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	base
}

func NewUserRepo(db *gorm.DB, timeout time.Duration) *UserRepository {
	return &UserRepository{base: newBase(db, timeout)}
}

// WithTx returns a copy of the repository bound to a transaction
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{base: r.withTx(tx)}
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var user models.User
	if err := db.Where(query, arg).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindUserByEmail finds a user by email, gorm.ErrRecordNotFound when absent
func (r *UserRepository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

// FindUserByID finds a user by ID, gorm.ErrRecordNotFound when absent
func (r *UserRepository) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindUserByCode finds a user by user code, gorm.ErrRecordNotFound when absent
func (r *UserRepository) FindUserByCode(ctx context.Context, code string) (*models.User, error) {
	return r.findOne(ctx, "user_code = ?", code)
}

// UserCodeExists reports whether a user code is already taken
func (r *UserRepository) UserCodeExists(ctx context.Context, code string) (bool, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var count int64
	err := db.Model(&models.User{}).Where("user_code = ?", code).Count(&count).Error
	return count > 0, err
}

// EmailExists reports whether an email is already registered, ignoring excludeID
func (r *UserRepository) EmailExists(ctx context.Context, email string, excludeID uint) (bool, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var count int64
	err := db.Model(&models.User{}).
		Where("email = ? AND id <> ?", email, excludeID).
		Count(&count).Error
	return count > 0, err
}

// CreateUser creates a new user
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	db, cancel := r.session(ctx)
	defer cancel()
	return db.Create(user).Error
}

// GetAllUsers lists users ordered by ID
func (r *UserRepository) GetAllUsers(ctx context.Context) ([]models.User, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var users []models.User
	err := db.Order("id ASC").Find(&users).Error
	return users, err
}

// CountUsers returns the number of users
func (r *UserRepository) CountUsers(ctx context.Context) (int64, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var count int64
	err := db.Model(&models.User{}).Count(&count).Error
	return count, err
}

// UpdateUser applies column updates to one user and returns the affected row count
func (r *UserRepository) UpdateUser(ctx context.Context, id uint, updates map[string]interface{}) (int64, error) {
	db, cancel := r.session(ctx)
	defer cancel()
	result := db.Model(&models.User{}).Where("id = ?", id).Updates(updates)
	return result.RowsAffected, result.Error
}

// AddReward atomically counts one thrown item and adds points to a user who is not banned.
// Zero affected rows means the user is missing or banned.
func (r *UserRepository) AddReward(ctx context.Context, id uint, points int) (int64, error) {
	db, cancel := r.session(ctx)
	defer cancel()
	result := db.Model(&models.User{}).
		Where("id = ? AND isbanned = ?", id, false).
		Updates(map[string]interface{}{
			"nb_trashthrown": gorm.Expr("nb_trashthrown + ?", 1),
			"giftpoints":     gorm.Expr("giftpoints + ?", points),
		})
	return result.RowsAffected, result.Error
}

// DeleteUsers deletes users by ID and returns the number removed
func (r *UserRepository) DeleteUsers(ctx context.Context, ids []uint) (int64, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	if err := db.Where("user_id IN ?", ids).Delete(&models.RefreshToken{}).Error; err != nil {
		return 0, err
	}
	result := db.Where("id IN ?", ids).Delete(&models.User{})
	return result.RowsAffected, result.Error
}

// CreateRefreshToken creates a new refresh token
func (r *UserRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	db, cancel := r.session(ctx)
	defer cancel()
	return db.Create(token).Error
}

// FindRefreshTokenByHash finds an unrevoked refresh token by its hash, with its user
func (r *UserRepository) FindRefreshTokenByHash(ctx context.Context, hash string) (*models.RefreshToken, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var token models.RefreshToken
	err := db.Where("token_hash = ? AND revoked = ?", hash, false).
		Preload("User").
		First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// RevokeRefreshTokenByHash marks a refresh token as revoked by its hash
func (r *UserRepository) RevokeRefreshTokenByHash(ctx context.Context, hash string) error {
	db, cancel := r.session(ctx)
	defer cancel()
	return db.Model(&models.RefreshToken{}).
		Where("token_hash = ?", hash).
		Update("revoked", true).Error
}

// RevokeUserRefreshTokens revokes every refresh token of a user
func (r *UserRepository) RevokeUserRefreshTokens(ctx context.Context, userID uint) error {
	db, cancel := r.session(ctx)
	defer cancel()
	return db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true).Error
}
