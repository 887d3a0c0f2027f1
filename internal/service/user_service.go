package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"globomart/internal/auth"
	"globomart/internal/mailer"
	"globomart/internal/model"
	"globomart/internal/repository"
	"globomart/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	maxUserNameLength = 50
	minPasswordLength = 6
)

// userService implements UserService.
type userService struct {
	userRepo      repository.UserRepository
	tokens        *auth.TokenManager
	store         storage.Store
	mailer        mailer.Mailer
	resetTokenTTL time.Duration
	logger        zerolog.Logger
	now           func() time.Time
}

// NewUserService creates a new user service.
func NewUserService(
	userRepo repository.UserRepository,
	tokens *auth.TokenManager,
	store storage.Store,
	m mailer.Mailer,
	resetTokenTTL time.Duration,
	logger zerolog.Logger,
) UserService {
	return &userService{
		userRepo:      userRepo,
		tokens:        tokens,
		store:         store,
		mailer:        m,
		resetTokenTTL: resetTokenTTL,
		logger:        logger.With().Str("service", "user").Logger(),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *userService) Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error) {
	if req == nil {
		return nil, model.ErrValidation.WithMessage("Please enter your details")
	}
	name, email, err := validateIdentity(req.Name, req.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	user := &model.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		CreatedAt:    s.now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrDuplicateKey) {
			s.logger.Warn().Str("email", email).Msg("email already registered")
		} else {
			s.logger.Error().Err(err).Msg("failed to create user")
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return s.session(user)
}

func (s *userService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	if req == nil || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, model.ErrValidation.WithMessage("Please Enter email & password")
	}

	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to get user by email")
		return nil, fmt.Errorf("failed to login: %w", err)
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.logger.Warn().Str("email", req.Email).Msg("failed login attempt")
		return nil, model.ErrInvalidCredentials
	}

	return s.session(user)
}

// Authenticate resolves a session token to a current user.
func (s *userService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, model.ErrLoginRequired
	}

	id, err := s.tokens.Parse(token)
	if err != nil {
		s.logger.Debug().Err(err).Msg("rejected session token")
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to get user")
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}
	if user == nil {
		return nil, model.ErrLoginRequired
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to get user")
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		s.logger.Debug().Str("user_id", id.String()).Msg("user not found")
		return nil, model.ErrUserNotFound
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id uuid.UUID, req *model.UpdateProfileRequest) (*model.User, error) {
	if req == nil {
		return nil, model.ErrValidation.WithMessage("Please enter your details")
	}
	return s.update(ctx, id, req.Name, req.Email, "")
}

func (s *userService) UpdateUser(ctx context.Context, id uuid.UUID, req *model.UpdateUserRequest) (*model.User, error) {
	if req == nil {
		return nil, model.ErrValidation.WithMessage("Please enter user details")
	}
	if req.Role != model.RoleUser && req.Role != model.RoleAdmin {
		return nil, model.ErrValidation.WithMessage("Please select a valid role")
	}
	return s.update(ctx, id, req.Name, req.Email, req.Role)
}

// update writes name and email, and role when non-empty.
func (s *userService) update(ctx context.Context, id uuid.UUID, name, email, role string) (*model.User, error) {
	name, email, err := validateIdentity(name, email)
	if err != nil {
		return nil, err
	}

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Name = name
	user.Email = email
	if role != "" {
		user.Role = role
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to update user")
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (s *userService) UpdatePassword(ctx context.Context, id uuid.UUID, req *model.UpdatePasswordRequest) (*model.AuthResponse, error) {
	if req == nil {
		return nil, model.ErrValidation.WithMessage("Please enter your password")
	}

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, req.OldPassword) {
		s.logger.Warn().Str("user_id", id.String()).Msg("old password mismatch")
		return nil, model.ErrOldPasswordWrong
	}

	if err := s.setPassword(ctx, user, req.Password); err != nil {
		return nil, err
	}
	return s.session(user)
}

func (s *userService) UploadAvatar(ctx context.Context, id uuid.UUID, dataURI string) (*model.User, error) {
	contentType, data, err := storage.DecodeDataURI(dataURI)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", id.String()).Msg("invalid avatar upload")
		return nil, model.ErrValidation.WithMessage("Please upload a valid avatar").Wrap(err)
	}

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	img, err := s.store.Upload(ctx, storage.FolderAvatars, contentType, data)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to upload avatar")
		return nil, model.ErrExternalServiceFailure.WithMessage("Failed to upload avatar").Wrap(err)
	}

	previous := user.Avatar
	user.Avatar = &img
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to save avatar")
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if previous != nil && previous.PublicID != "" {
		if err := s.store.Delete(ctx, previous.PublicID); err != nil {
			s.logger.Error().Err(err).Str("public_id", previous.PublicID).Msg("failed to delete previous avatar")
		}
	}

	return user, nil
}

// ForgotPassword stores a hashed reset token and mails the raw token. The
// token is cleared again when the mail cannot be queued.
func (s *userService) ForgotPassword(ctx context.Context, email, resetBaseURL string) error {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to get user by email")
		return fmt.Errorf("failed to start password reset: %w", err)
	}
	if user == nil {
		return model.ErrUserNotFound.WithMessage("User not found with this email")
	}

	token, hash, err := auth.NewResetToken()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to generate reset token")
		return fmt.Errorf("failed to start password reset: %w", err)
	}
	expire := s.now().Add(s.resetTokenTTL)

	if err := s.userRepo.SetResetToken(ctx, user.ID, &hash, &expire); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to store reset token")
		return fmt.Errorf("failed to start password reset: %w", err)
	}

	resetURL := strings.TrimRight(resetBaseURL, "/") + "/password/reset/" + token
	if err := s.mailer.Send(ctx, mailer.ResetPasswordMessage(user.Email, user.Name, resetURL)); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to send reset email")
		if clearErr := s.userRepo.SetResetToken(ctx, user.ID, nil, nil); clearErr != nil {
			s.logger.Error().Err(clearErr).Str("user_id", user.ID.String()).Msg("failed to clear reset token")
		}
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("password reset email queued")
	return nil
}

func (s *userService) ResetPassword(ctx context.Context, token string, req *model.ResetPasswordRequest) (*model.AuthResponse, error) {
	if req == nil {
		return nil, model.ErrValidation.WithMessage("Please enter your password")
	}

	user, err := s.userRepo.GetByResetToken(ctx, auth.HashResetToken(token), s.now())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to get user by reset token")
		return nil, fmt.Errorf("failed to reset password: %w", err)
	}
	if user == nil {
		return nil, model.ErrResetTokenInvalid
	}

	if req.Password != req.ConfirmPassword {
		return nil, model.ErrPasswordMismatch
	}

	if err := s.setPassword(ctx, user, req.Password); err != nil {
		return nil, err
	}
	user.ResetPasswordToken = nil
	user.ResetPasswordExpire = nil

	s.logger.Info().Str("user_id", user.ID.String()).Msg("password reset")
	return s.session(user)
}

func (s *userService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list users")
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *userService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if user.Avatar != nil && user.Avatar.PublicID != "" {
		if err := s.store.Delete(ctx, user.Avatar.PublicID); err != nil {
			s.logger.Error().Err(err).Str("public_id", user.Avatar.PublicID).Msg("failed to delete avatar")
			return model.ErrExternalServiceFailure.WithMessage("Failed to delete avatar").Wrap(err)
		}
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to delete user")
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info().Str("user_id", id.String()).Msg("user deleted")
	return nil
}

func (s *userService) setPassword(ctx context.Context, user *model.User, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to update password")
		return fmt.Errorf("failed to update password: %w", err)
	}
	user.PasswordHash = hash
	return nil
}

// session issues a token for user.
func (s *userService) session(user *model.User) (*model.AuthResponse, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to issue token")
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &model.AuthResponse{Token: token, User: user}, nil
}

// validateIdentity trims and checks a name and email pair.
func validateIdentity(name, email string) (string, string, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	switch {
	case name == "":
		return "", "", model.ErrValidation.WithMessage("Please enter your name")
	case len(name) > maxUserNameLength:
		return "", "", model.ErrValidation.WithMessage("Your name cannot exceed 50 characters")
	case email == "":
		return "", "", model.ErrValidation.WithMessage("Please enter your email")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", "", model.ErrValidation.WithMessage("Please enter a valid email address")
	}
	return name, email, nil
}

func validatePassword(password string) error {
	switch {
	case password == "":
		return model.ErrValidation.WithMessage("Please enter your password")
	case len(password) < minPasswordLength:
		return model.ErrValidation.WithMessage("Your password must be longer than 6 characters")
	}
	return nil
}
