package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"disasterguardian/interfaces"
	"disasterguardian/models"
	"disasterguardian/utils"
)

type UserService struct {
	userRepo  interfaces.UserRepository
	validator *utils.ValidationService
}

func NewUserService(userRepo interfaces.UserRepository, validator *utils.ValidationService) *UserService {
	return &UserService{
		userRepo:  userRepo,
		validator: validator,
	}
}

func (us *UserService) GetUserProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	user, err := us.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := user.ToProfile()
	return &profile, nil
}

func (us *UserService) UpdateUserProfile(ctx context.Context, userID string, req models.UpdateUserRequest) (*models.UserProfile, error) {
	if err := us.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := us.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		user.Phone = utils.NormalizePhoneNumber(*req.Phone)
	}
	if req.Address != nil {
		user.Address = strings.TrimSpace(*req.Address)
	}
	if req.Language != nil {
		user.Language = *req.Language
	}
	user.UpdatedAt = time.Now()

	if err := us.userRepo.Update(ctx, user); err != nil {
		return nil, utils.NewDatabaseError("update user", err)
	}

	profile := user.ToProfile()
	return &profile, nil
}

func (us *UserService) getUser(ctx context.Context, userID string) (*models.User, error) {
	id, err := utils.ParseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}

	user, err := us.userRepo.GetByID(ctx, id)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, utils.NewNotFoundError("User")
	}
	if err != nil {
		return nil, utils.NewDatabaseError("find user", err)
	}
	return user, nil
}
