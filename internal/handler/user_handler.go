package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"smartbin-backend/internal/service"
	"smartbin-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {},
}

type UserHandler struct {
	userService   *service.UserService
	maxImageBytes int64
}

func NewUserHandler(userService *service.UserService, maxImageBytes int64) *UserHandler {
	return &UserHandler{
		userService:   userService,
		maxImageBytes: maxImageBytes,
	}
}

type UpdatePointsRequest struct {
	UserCode   string `json:"user_code"`
	ID         *uint  `json:"id"`
	GiftPoints *int   `json:"giftpoints"`
}

type CreateUserRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"omitempty,oneof=user manager admin"`
}

type UpdateUserRequest struct {
	Email    string `json:"email" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
}

type UserStatusRequest struct {
	IsBanned *bool `json:"isbanned" binding:"required"`
}

type PointsGoalRequest struct {
	PointsGoal *int `json:"points_goal" binding:"required"`
}

// UpdateUserPoints rewards a user for a thrown item
// POST /api/updateUserPoints
func (h *UserHandler) UpdateUserPoints(c *gin.Context) {
	var req UpdatePointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if (req.UserCode == "" && req.ID == nil) || req.GiftPoints == nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "user_code or id and giftpoints are required")
		return
	}

	result, err := h.userService.Reward(c.Request.Context(), service.RewardInput{
		UserCode:   req.UserCode,
		UserID:     req.ID,
		GiftPoints: *req.GiftPoints,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.MessageFieldsResponse(c, "User points updated successfully", gin.H{
		"full_name":        result.FullName,
		"total_giftpoints": result.TotalGiftPoints,
		"nb_trashthrown":   result.NbTrashThrown,
	})
}

// GetAllUsers lists users
// GET /api/users
func (h *UserHandler) GetAllUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"users": users,
		"count": len(users),
	})
}

// CountUsers returns the number of users
// GET /api/users/count
func (h *UserHandler) CountUsers(c *gin.Context) {
	count, err := h.userService.CountUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"count": count})
}

// CreateUser creates an active account
// POST /api/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "full_name, email and password are required")
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), service.CreateUserInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, "User created successfully", user)
}

// UpdateUser changes a user's email and name
// PUT /api/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "email and full_name are required")
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), id, req.Email, req.FullName)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, user)
}

// SetUserStatus bans or reinstates a user
// PUT /api/users/:id/status
func (h *UserHandler) SetUserStatus(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req UserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "isbanned is required")
		return
	}

	if err := h.userService.SetBanned(c.Request.Context(), id, *req.IsBanned); err != nil {
		respondError(c, err)
		return
	}

	statusText := "unbanned"
	if *req.IsBanned {
		statusText = "banned"
	}
	utils.MessageResponse(c, "User "+statusText+" successfully")
}

// DeleteUser removes one user
// DELETE /api/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	if _, err := h.userService.DeleteUsers(c.Request.Context(), []uint{id}); err != nil {
		respondError(c, err)
		return
	}
	utils.MessageResponse(c, "User deleted successfully")
}

// DeleteUsers removes several users
// DELETE /api/users
func (h *UserHandler) DeleteUsers(c *gin.Context) {
	var req idsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "ids must be a non-empty list of user IDs")
		return
	}

	deleted, err := h.userService.DeleteUsers(c.Request.Context(), req.IDs)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.MessageFieldsResponse(c, fmt.Sprintf("%d users deleted successfully", deleted), gin.H{
		"deleted": deleted,
	})
}

// Me returns the authenticated user's profile
// GET /api/me
func (h *UserHandler) Me(c *gin.Context) {
	id, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, user)
}

// GetPointsGoal returns the authenticated user's points goal
// GET /api/me/points-goal
func (h *UserHandler) GetPointsGoal(c *gin.Context) {
	id, ok := currentUserID(c)
	if !ok {
		return
	}

	goal, err := h.userService.GetPointsGoal(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"points_goal": goal})
}

// SetPointsGoal sets the authenticated user's points goal
// PUT /api/me/points-goal
func (h *UserHandler) SetPointsGoal(c *gin.Context) {
	id, ok := currentUserID(c)
	if !ok {
		return
	}

	var req PointsGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "points_goal is required")
		return
	}

	if err := h.userService.SetPointsGoal(c.Request.Context(), id, *req.PointsGoal); err != nil {
		respondError(c, err)
		return
	}
	utils.MessageResponse(c, "Points goal updated successfully")
}

// UploadProfileImage stores the multipart "image" file as the user's profile image
// POST /api/me/profile-image
func (h *UserHandler) UploadProfileImage(c *gin.Context) {
	id, ok := currentUserID(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxImageBytes+1<<10)
	fileHeader, err := c.FormFile("image")
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "image file is required")
		return
	}
	if fileHeader.Size > h.maxImageBytes {
		utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "image is too large")
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if _, ok := imageExtensions[ext]; !ok {
		utils.ErrorResponse(c, http.StatusBadRequest, "image must be jpg, png, gif or webp")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "image file is unreadable")
		return
	}
	defer file.Close()

	path, err := h.userService.SetProfileImage(c.Request.Context(), id, ext, file)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"profile_image": path})
}
