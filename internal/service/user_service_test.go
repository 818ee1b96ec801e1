package service

import (
	"context"
	"errors"
	"testing"

	"smartbin-backend/internal/models"
	"smartbin-backend/pkg/utils"
)

func TestRewardByCodeAccumulates(t *testing.T) {
	env := newTestEnv(t)
	svc := env.userService()
	env.createUser(t, "ABC123", false)
	ctx := context.Background()

	res, err := svc.Reward(ctx, RewardInput{UserCode: "ABC123", GiftPoints: 5})
	if err != nil {
		t.Fatalf("reward: %v", err)
	}
	if res.TotalGiftPoints != 5 || res.NbTrashThrown != 1 {
		t.Fatalf("expected 5 points and 1 item got %+v", res)
	}

	res, err = svc.Reward(ctx, RewardInput{UserCode: "ABC123", GiftPoints: 3})
	if err != nil {
		t.Fatalf("reward: %v", err)
	}
	if res.TotalGiftPoints != 8 || res.NbTrashThrown != 2 {
		t.Fatalf("expected 8 points and 2 items got %+v", res)
	}
	if res.FullName != "User ABC123" {
		t.Fatalf("unexpected name %q", res.FullName)
	}
}

func TestRewardByID(t *testing.T) {
	env := newTestEnv(t)
	svc := env.userService()
	u := env.createUser(t, "BYID01", false)

	res, err := svc.Reward(context.Background(), RewardInput{UserID: up(u.ID), GiftPoints: 0})
	if err != nil {
		t.Fatalf("reward: %v", err)
	}
	if res.TotalGiftPoints != 0 || res.NbTrashThrown != 1 {
		t.Fatalf("expected 0 points and 1 item got %+v", res)
	}
}

func TestRewardBannedUserUnchanged(t *testing.T) {
	env := newTestEnv(t)
	svc := env.userService()
	u := env.createUser(t, "BANNED", true)
	ctx := context.Background()

	if _, err := svc.Reward(ctx, RewardInput{UserCode: "BANNED", GiftPoints: 10}); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled got %v", err)
	}
	got, err := env.users.FindUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.GiftPoints != 0 || got.NbTrashThrown != 0 {
		t.Fatalf("expected counters unchanged got %d/%d", got.GiftPoints, got.NbTrashThrown)
	}
}

func TestRewardErrors(t *testing.T) {
	env := newTestEnv(t)
	svc := env.userService()
	ctx := context.Background()

	if _, err := svc.Reward(ctx, RewardInput{UserCode: "MISSING", GiftPoints: 1}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
	if _, err := svc.Reward(ctx, RewardInput{GiftPoints: 1}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation got %v", err)
	}
	if _, err := svc.Reward(ctx, RewardInput{UserCode: "X", GiftPoints: -1}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation got %v", err)
	}
}

func TestSignupRequiresApproval(t *testing.T) {
	env := newTestEnv(t)
	svc := env.userService()
	ctx := context.Background()

	u, err := svc.Signup(ctx, SignupInput{
		FullName:        "Amira Ben Ali",
		Email:           " Amira@Example.com ",
		Password:        "secret123",
		ConfirmPassword: "secret123",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if !u.IsBanned {
		t.Fatal("expected new account to await approval")
	}
	if u.Email != "amira@example.com" {
		t.Fatalf("expected normalized email got %q", u.Email)
	}
	if len(u.UserCode) != utils.SignupUserCodeLength {
		t.Fatalf("expected %d char code got %q", utils.SignupUserCodeLength, u.UserCode)
	}
	if u.Role != models.RoleUser {
		t.Fatalf("expected user role got %q", u.Role)
	}

	_, err = svc.Signup(ctx, SignupInput{
		FullName:        "Someone Else",
		Email:           "amira@example.com",
		Password:        "secret123",
		ConfirmPassword: "secret123",
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict got %v", err)
	}

	_, err = svc.Signup(ctx, SignupInput{FullName: "X", Email: "x@example.com", Password: "secret123", ConfirmPassword: "other123"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation got %v", err)
	}

	notes, err := env.notifications.List(ctx)
	if err != nil {
		t.Fatalf("notifications: %v", err)
	}
	if len(notes) != 1 || notes[0].Type != models.NotificationMail {
		t.Fatalf("expected one mail notification got %+v", notes)
	}
}

func TestCreateUserAndSetBanned(t *testing.T) {
	env := newTestEnv(t)
	svc := env.userService()
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, CreateUserInput{FullName: "Manager", Email: "m@example.com", Password: "secret123", Role: models.RoleManager})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.IsBanned || len(u.UserCode) != utils.AdminUserCodeLength {
		t.Fatalf("expected active account with %d char code got %+v", utils.AdminUserCodeLength, u)
	}
	if _, err := svc.CreateUser(ctx, CreateUserInput{FullName: "X", Email: "x@example.com", Password: "secret123", Role: "root"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation got %v", err)
	}

	if err := svc.SetBanned(ctx, u.ID, true); err != nil {
		t.Fatalf("ban: %v", err)
	}
	got, err := svc.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.IsBanned {
		t.Fatal("expected user banned")
	}
	if err := svc.SetBanned(ctx, 9999, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestUpdateProfileAndDelete(t *testing.T) {
	env := newTestEnv(t)
	svc := env.userService()
	ctx := context.Background()
	a := env.createUser(t, "AAAAAA", false)
	b := env.createUser(t, "BBBBBB", false)

	updated, err := svc.UpdateProfile(ctx, a.ID, "new@example.com", "New Name")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Email != "new@example.com" || updated.FullName != "New Name" {
		t.Fatalf("unexpected profile %+v", updated)
	}
	if _, err := svc.UpdateProfile(ctx, b.ID, "new@example.com", "B"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict got %v", err)
	}

	deleted, err := svc.DeleteUsers(ctx, []uint{a.ID, b.ID})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted got %d", deleted)
	}
	if count, _ := svc.CountUsers(ctx); count != 0 {
		t.Fatalf("expected no users got %d", count)
	}
}

func TestPointsGoal(t *testing.T) {
	env := newTestEnv(t)
	svc := env.userService()
	ctx := context.Background()
	u := env.createUser(t, "GOAL01", false)

	goal, err := svc.GetPointsGoal(ctx, u.ID)
	if err != nil {
		t.Fatalf("get goal: %v", err)
	}
	if goal != nil {
		t.Fatalf("expected unset goal got %d", *goal)
	}
	if err := svc.SetPointsGoal(ctx, u.ID, 250); err != nil {
		t.Fatalf("set goal: %v", err)
	}
	goal, err = svc.GetPointsGoal(ctx, u.ID)
	if err != nil || goal == nil || *goal != 250 {
		t.Fatalf("expected goal 250 got %v err=%v", goal, err)
	}
	if err := svc.SetPointsGoal(ctx, u.ID, -1); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation got %v", err)
	}
}
