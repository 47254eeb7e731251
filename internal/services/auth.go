package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/petrovi-4/habit-tracker-backend/internal/platform/logger"
	"github.com/petrovi-4/habit-tracker-backend/internal/repos"
	"github.com/petrovi-4/habit-tracker-backend/internal/requestdata"
	"github.com/petrovi-4/habit-tracker-backend/internal/types"
	"github.com/petrovi-4/habit-tracker-backend/internal/utils"
)

type AuthService interface {
	RegisterUser(ctx context.Context, user *types.User) error
	LoginUser(ctx context.Context, email, password string) (string, string, error)
	RefreshUser(ctx context.Context, refreshToken string) (string, string, error)
	LogoutUser(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	avatarService AvatarService
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	avatarService AvatarService,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		avatarService: avatarService,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}

func (as *authService) RegisterUser(ctx context.Context, user *types.User) error {
	user.Email = utils.NormalizeEmail(user.Email)
	if user.Email == "" || !strings.Contains(user.Email, "@") {
		return errors.New("a valid email is required")
	}
	if len(user.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	exists, err := as.userRepo.EmailExists(ctx, nil, user.Email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if exists {
		return errors.New("email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.Password = string(hashed)
	user.ID = uuid.New()

	if as.avatarService != nil {
		if aErr := as.avatarService.CreateUserAvatar(ctx, user); aErr != nil {
			// The avatar is cosmetic; registration proceeds without it.
			as.log.Warn("Failed to render user avatar", "error", aErr, "user_id", user.ID)
		}
	}

	if err := as.userRepo.Create(ctx, nil, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	as.log.Info("User registered", "user_id", user.ID)
	return nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (string, string, error) {
	email = utils.NormalizeEmail(email)

	user, err := as.userRepo.GetByEmail(ctx, nil, email)
	if errors.Is(err, repos.ErrRecordNotFound) {
		return "", "", ErrInvalidCredentials
	}
	if err != nil {
		return "", "", fmt.Errorf("load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return "", "", ErrInvalidCredentials
	}

	var accessToken, refreshToken string
	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if dErr := as.userTokenRepo.DeleteByUserID(ctx, tx, user.ID); dErr != nil {
			return fmt.Errorf("clear previous tokens: %w", dErr)
		}
		var iErr error
		accessToken, refreshToken, iErr = as.issueTokens(ctx, tx, user.ID)
		return iErr
	}); err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (as *authService) RefreshUser(ctx context.Context, refreshToken string) (string, string, error) {
	stored, err := as.userTokenRepo.GetByRefreshToken(ctx, nil, refreshToken)
	if errors.Is(err, repos.ErrRecordNotFound) {
		return "", "", errors.New("invalid refresh token")
	}
	if err != nil {
		return "", "", fmt.Errorf("load refresh token: %w", err)
	}
	if stored.ExpiresAt.Before(time.Now()) {
		_ = as.userTokenRepo.DeleteByID(ctx, nil, stored.ID)
		return "", "", errors.New("refresh token expired")
	}

	var accessToken, newRefreshToken string
	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if dErr := as.userTokenRepo.DeleteByID(ctx, tx, stored.ID); dErr != nil {
			return fmt.Errorf("rotate token: %w", dErr)
		}
		var iErr error
		accessToken, newRefreshToken, iErr = as.issueTokens(ctx, tx, stored.UserID)
		return iErr
	}); err != nil {
		return "", "", err
	}
	return accessToken, newRefreshToken, nil
}

func (as *authService) LogoutUser(ctx context.Context) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return errors.New("not authenticated")
	}
	return as.userTokenRepo.DeleteByUserID(ctx, nil, rd.UserID)
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil || !token.Valid {
		return ctx, errors.New("invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, errors.New("invalid token subject")
	}
	return requestdata.WithRequestData(ctx, &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      userID,
	}), nil
}

func (as *authService) issueTokens(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (string, string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return "", "", fmt.Errorf("sign access token: %w", err)
	}

	refreshToken := uuid.New().String()
	userToken := &types.UserToken{
		ID:           uuid.New(),
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(as.refreshTTL),
	}
	if err := as.userTokenRepo.Create(ctx, tx, userToken); err != nil {
		return "", "", fmt.Errorf("store user token: %w", err)
	}
	return accessToken, refreshToken, nil
}
