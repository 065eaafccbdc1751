package services

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"controlhub/internal/models"
	"controlhub/internal/repositories"
	"controlhub/utils"
)

const (
	accessTokenTTL  = 120 * time.Minute
	refreshTokenTTL = 30 * 24 * time.Hour
	verifyCodeTTL   = 10 * time.Minute
	resetCodeTTL    = 10 * time.Minute
	verifyKeyPrefix = "verify:"
	resetKeyPrefix  = "reset:"
)

type UserService struct {
	UserRepo   *repositories.UserRepository
	Redis      *redis.Client
	Email      *EmailService
	Tokens     *utils.Manager
	SigningKey string

	// BaseURL is the public address used to build verification links.
	BaseURL string
}

func generateResetCode() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

func normalizeGender(gender string) string {
	gender = strings.TrimSpace(gender)
	if gender == "" {
		return gender
	}
	return strings.ToUpper(gender[:1]) + strings.ToLower(gender[1:])
}

func (s *UserService) generateAccessToken(userID, role string) (string, error) {
	claims := &models.Claims{
		UserID: userID,
		Role:   role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(accessTokenTTL).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.SigningKey))
}

func (s *UserService) issueTokens(ctx context.Context, userID, role string) (models.Tokens, error) {
	access, err := s.generateAccessToken(userID, role)
	if err != nil {
		return models.Tokens{}, err
	}
	refresh, err := s.Tokens.NewRefreshToken()
	if err != nil {
		return models.Tokens{}, err
	}
	err = s.UserRepo.CreateSession(ctx, models.Session{
		RefreshToken: refresh,
		UserID:       userID,
		Role:         role,
		ExpiresAt:    time.Now().Add(refreshTokenTTL),
	})
	if err != nil {
		return models.Tokens{}, err
	}
	return models.Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *UserService) SignUp(ctx context.Context, req models.SignUpRequest) (models.SignUpResponse, error) {
	if _, err := s.UserRepo.GetUserByEmail(ctx, req.Email); err == nil {
		return models.SignUpResponse{}, models.ErrDuplicateEmail
	} else if err != models.ErrUserNotFound {
		return models.SignUpResponse{}, err
	}
	if _, err := s.UserRepo.GetUserByPhone(ctx, req.PhoneNumber); err == nil {
		return models.SignUpResponse{}, models.ErrDuplicatePhone
	} else if err != models.ErrUserNotFound {
		return models.SignUpResponse{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.SignUpResponse{}, err
	}

	user := models.User{
		ID:          uuid.NewString(),
		Email:       req.Email,
		Password:    string(hashed),
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Gender:      normalizeGender(req.Gender),
		Birthdate:   req.Birthdate,
		Role:        "user",
		IsVerified:  false,
	}
	user, err = s.UserRepo.CreateUser(ctx, user)
	if err != nil {
		return models.SignUpResponse{}, err
	}

	if err := s.sendVerification(ctx, user); err != nil {
		log.Printf("sign up: failed to send verification email to %s: %v", user.Email, err)
	}

	tokens, err := s.issueTokens(ctx, user.ID, user.Role)
	if err != nil {
		return models.SignUpResponse{}, err
	}

	user.Password = ""
	return models.SignUpResponse{User: user, Tokens: tokens}, nil
}

func (s *UserService) sendVerification(ctx context.Context, user models.User) error {
	token := uuid.NewString()
	if err := s.Redis.Set(ctx, verifyKeyPrefix+token, user.ID, verifyCodeTTL).Err(); err != nil {
		return err
	}
	link := fmt.Sprintf("%s/user/verify_email?token=%s", s.BaseURL, token)
	return s.Email.SendVerificationLink(user.Email, user.FullName, link)
}

func (s *UserService) SignIn(ctx context.Context, req models.SignInRequest) (models.SignUpResponse, error) {
	user, err := s.UserRepo.GetUserByEmail(ctx, req.Email)
	if err == models.ErrUserNotFound {
		return models.SignUpResponse{}, models.ErrInvalidCredentials
	}
	if err != nil {
		return models.SignUpResponse{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return models.SignUpResponse{}, models.ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(ctx, user.ID, user.Role)
	if err != nil {
		return models.SignUpResponse{}, err
	}

	user.Password = ""
	return models.SignUpResponse{User: user, Tokens: tokens}, nil
}

func (s *UserService) VerifyEmail(ctx context.Context, token string) error {
	userID, err := s.Redis.Get(ctx, verifyKeyPrefix+token).Result()
	if err == redis.Nil {
		return models.ErrCodeExpired
	}
	if err != nil {
		return err
	}
	if err := s.UserRepo.MarkVerified(ctx, userID); err != nil {
		return err
	}
	return s.Redis.Del(ctx, verifyKeyPrefix+token).Err()
}

func (s *UserService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.UserRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return nil
	}
	return s.sendVerification(ctx, user)
}

func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.UserRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	code := generateResetCode()
	if err := s.Redis.Set(ctx, resetKeyPrefix+email, code, resetCodeTTL).Err(); err != nil {
		return err
	}
	return s.Email.SendResetCode(user.Email, user.FullName, code)
}

func (s *UserService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	stored, err := s.Redis.Get(ctx, resetKeyPrefix+req.Email).Result()
	if err == redis.Nil || (err == nil && stored != req.Code) {
		return models.ErrCodeExpired
	}
	if err != nil {
		return err
	}

	user, err := s.UserRepo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.UserRepo.UpdatePassword(ctx, user.ID, string(hashed)); err != nil {
		return err
	}
	return s.Redis.Del(ctx, resetKeyPrefix+req.Email).Err()
}

func (s *UserService) ChangePassword(ctx context.Context, req models.ChangePasswordRequest) error {
	user, err := s.UserRepo.GetUserByID(ctx, req.UserID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		return models.ErrInvalidCredentials
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.UserRepo.UpdatePassword(ctx, user.ID, string(hashed))
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	user, err := s.UserRepo.GetUserByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	user.Password = ""
	return user, nil
}

func (s *UserService) GetUsers(ctx context.Context) ([]models.User, error) {
	return s.UserRepo.GetUsers(ctx)
}

func (s *UserService) UpdateUser(ctx context.Context, user models.User) (models.User, error) {
	updated, err := s.UserRepo.UpdateUser(ctx, user)
	if err != nil {
		return models.User{}, err
	}
	updated.Password = ""
	return updated, nil
}

// CreateUser is the admin path: the account is created pre-verified and
// without the email round-trip.
func (s *UserService) CreateUser(ctx context.Context, req models.SignUpRequest, role string) (models.User, error) {
	if _, err := s.UserRepo.GetUserByEmail(ctx, req.Email); err == nil {
		return models.User{}, models.ErrDuplicateEmail
	} else if err != models.ErrUserNotFound {
		return models.User{}, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}
	user := models.User{
		ID:          uuid.NewString(),
		Email:       req.Email,
		Password:    string(hashed),
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Gender:      normalizeGender(req.Gender),
		Birthdate:   req.Birthdate,
		Role:        role,
		IsVerified:  true,
	}
	user, err = s.UserRepo.CreateUser(ctx, user)
	if err != nil {
		return models.User{}, err
	}
	user.Password = ""
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	return s.UserRepo.DeleteUser(ctx, id)
}
