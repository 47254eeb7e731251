package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/petrovi-4/habit-tracker-backend/internal/platform/logger"
	"github.com/petrovi-4/habit-tracker-backend/internal/repos"
	"github.com/petrovi-4/habit-tracker-backend/internal/requestdata"
	"github.com/petrovi-4/habit-tracker-backend/internal/types"
	"github.com/petrovi-4/habit-tracker-backend/internal/validation"
)

type UpdateUserInput struct {
	FirstName      *string
	LastName       *string
	TelegramChatID *string
	Password       *string
}

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	UpdateMe(ctx context.Context, in UpdateUserInput) (*types.User, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) UserService {
	return &userService{
		db:       db,
		log:      log.With("service", "UserService"),
		userRepo: userRepo,
	}
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	user, err := us.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (us *userService) UpdateMe(ctx context.Context, in UpdateUserInput) (*types.User, error) {
	user, err := us.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.TelegramChatID != nil {
		user.TelegramChatID = strings.TrimSpace(*in.TelegramChatID)
	}
	if in.Password != nil {
		if len(*in.Password) < 8 {
			return nil, &validation.Error{Message: "password must be at least 8 characters"}
		}
		hashed, hErr := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if hErr != nil {
			return nil, fmt.Errorf("hash password: %w", hErr)
		}
		user.Password = string(hashed)
	}

	if err := us.userRepo.Update(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (us *userService) currentUser(ctx context.Context) (*types.User, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, ErrForbidden
	}
	user, err := us.userRepo.GetByID(ctx, nil, rd.UserID)
	if errors.Is(err, repos.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}
