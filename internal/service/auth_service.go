package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	"github.com/stride-app/stride-backend/internal/domain"
	mailpkg "github.com/stride-app/stride-backend/internal/mail"
	"github.com/stride-app/stride-backend/internal/token"
)

const (
	MinPasswordLength = 6
	bcryptCost        = 10
)

var (
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
)

// googleUserInfo is the response shape of Google's userinfo endpoint
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// RegisterInput carries the fields of a registration request
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// AuthService handles registration, login and federated login
type AuthService struct {
	users  domain.UserRepository
	tokens *token.Manager
	mailer mailpkg.Mailer
	google *oauth2.Config
}

// NewAuthService creates a new AuthService. mailer may be nil when mail
// is not configured; google may be nil when federated login is not
// configured.
func NewAuthService(users domain.UserRepository, tokens *token.Manager, mailer mailpkg.Mailer, google *oauth2.Config) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		mailer: mailer,
		google: google,
	}
}

// Register creates a new account, issues an access token and sends the
// verification email
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, string, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))

	if err := validateRegistration(input); err != nil {
		return nil, "", err
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, "", domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	hashStr := string(hash)
	verifyCode := uuid.New().String()

	user, err := s.users.Create(ctx, &domain.User{
		ID:           uuid.New(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: &hashStr,
		VerifyCode:   &verifyCode,
	})
	if err != nil {
		return nil, "", err
	}

	// Mail delivery must not block or fail the registration
	if s.mailer != nil {
		go func(email, code string) {
			if err := s.mailer.SendVerification(email, code); err != nil {
				log.Warn().Err(err).Str("email", email).Msg("Verification email not sent")
			}
		}(user.Email, verifyCode)
	}

	accessToken, err := s.tokens.Create(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}

	return user, accessToken, nil
}

// Login authenticates with email and password and issues an access
// token
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", err
	}

	// Federated accounts have no local password
	if user.PasswordHash == nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	accessToken, err := s.tokens.Create(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}

	return user, accessToken, nil
}

// ResolveToken returns the account a bearer token denotes, or nil when
// the token is absent, invalid, or no longer matches an account. It
// never returns an error: an unresolvable session is an answer, not a
// failure.
func (s *AuthService) ResolveToken(ctx context.Context, tokenString string) *domain.User {
	if tokenString == "" {
		return nil
	}

	claims, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil
	}
	return user
}

// VerifyEmail marks the account matching the verification code as
// verified and consumes the code
func (s *AuthService) VerifyEmail(ctx context.Context, code string) error {
	if code == "" {
		return domain.ErrInvalidVerifyCode
	}

	user, err := s.users.GetByVerifyCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrInvalidVerifyCode
		}
		return err
	}

	user.Verified = true
	user.VerifyCode = nil
	_, err = s.users.Update(ctx, user)
	return err
}

// GoogleAuthURL returns the consent page URL to redirect the client to
func (s *AuthService) GoogleAuthURL(state string) (string, error) {
	if s.google == nil {
		return "", errors.New("google login not configured")
	}
	return s.google.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// GoogleLogin exchanges the authorization code, fetches the Google
// profile and finds or creates the matching account. Google accounts
// are considered verified.
func (s *AuthService) GoogleLogin(ctx context.Context, code string) (*domain.User, string, error) {
	if s.google == nil {
		return nil, "", errors.New("google login not configured")
	}

	oauthToken, err := s.google.Exchange(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	client := s.google.Client(ctx, oauthToken)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, "", fmt.Errorf("user info request failed with status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, "", fmt.Errorf("failed to decode user info: %w", err)
	}
	if info.Email == "" {
		return nil, "", errors.New("google profile has no email")
	}

	user, err := s.findOrCreateGoogleUser(ctx, info)
	if err != nil {
		return nil, "", err
	}

	accessToken, err := s.tokens.Create(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}

	return user, accessToken, nil
}

func (s *AuthService) findOrCreateGoogleUser(ctx context.Context, info googleUserInfo) (*domain.User, error) {
	email := strings.ToLower(info.Email)

	user, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		// Existing account; link the Google identity on first login
		if user.GoogleID == nil {
			user.GoogleID = &info.ID
			user.Verified = true
			return s.users.Update(ctx, user)
		}
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	newUser := &domain.User{
		ID:       uuid.New(),
		Name:     info.Name,
		Email:    email,
		GoogleID: &info.ID,
		Verified: true,
	}
	if info.Picture != "" {
		newUser.Avatar = &info.Picture
	}
	return s.users.Create(ctx, newUser)
}

// validateRegistration checks every field and reports all failures in
// one error, so a client fixing a form sees the full list at once
func validateRegistration(input RegisterInput) error {
	var fields []domain.FieldError

	switch {
	case input.Name == "":
		fields = append(fields, domain.FieldError{Field: "name", Message: "Name is required"})
	case len(input.Name) > domain.MaxNameLength:
		fields = append(fields, domain.FieldError{Field: "name", Message: "Name must be 255 characters or less"})
	}

	if input.Email == "" {
		fields = append(fields, domain.FieldError{Field: "email", Message: "Email is required"})
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		fields = append(fields, domain.FieldError{Field: "email", Message: "A valid email address is required"})
	}

	switch {
	case input.Password == "":
		fields = append(fields, domain.FieldError{Field: "password", Message: "Password is required"})
	case len(input.Password) < MinPasswordLength:
		fields = append(fields, domain.FieldError{Field: "password", Message: "Password must be at least 6 characters"})
	case input.Password != input.ConfirmPassword:
		fields = append(fields, domain.FieldError{Field: "confirmPassword", Message: "Passwords do not match"})
	}

	if len(fields) > 0 {
		return &domain.ValidationFailed{Fields: fields}
	}
	return nil
}
