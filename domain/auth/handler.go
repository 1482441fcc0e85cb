package auth

import (
	"database/sql"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"travel-cms/config"
	"travel-cms/pkg/apperrors"
	"travel-cms/pkg/logger"
)

const maxLoginFailures = 5

// LoginHandler authenticates an admin and issues a 24h bearer token.
// Failed attempts are counted in Redis; the account is locked for the
// remainder of the window after too many failures.
func LoginHandler(c echo.Context) error {
	log := logger.Get().WithComponent("auth").WithRequestID(logger.GetRequestIDFromContext(c))

	req := new(LoginRequest)
	if err := c.Bind(req); err != nil {
		log.Warn("Invalid login request payload", logger.Err(err))
		return apperrors.RespondWithError(c, apperrors.NewValidation(
			apperrors.ErrCodeValidationFailed, "Invalid request payload."))
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.RespondWithError(c, apperrors.NewValidation(
			apperrors.ErrCodeMissingField, "Email and password are required."))
	}

	if config.LoginFailures(req.Email) >= maxLoginFailures {
		log.Warn("Login attempt while locked", logger.Email(req.Email))
		return apperrors.RespondWithError(c, apperrors.NewTooManyRequests(
			apperrors.ErrCodeLoginLocked,
			"Too many failed attempts. Please try again later."))
	}

	var admin Admin
	err := config.DB.GetContext(c.Request().Context(), &admin, `
		SELECT id, email, password_hash, created_at
		FROM admins
		WHERE email = $1
	`, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			recordFailure(log, req.Email)
			return apperrors.RespondWithError(c, apperrors.NewUnauthorized(
				apperrors.ErrCodeInvalidCredentials, "Invalid email or password."))
		}
		log.Error("Failed to fetch admin", err, logger.Email(req.Email))
		return apperrors.RespondWithError(c, apperrors.NewStore("Internal server error.", err))
	}

	if !CheckPassword(req.Password, admin.PasswordHash) {
		recordFailure(log, req.Email)
		return apperrors.RespondWithError(c, apperrors.NewUnauthorized(
			apperrors.ErrCodeInvalidCredentials, "Invalid email or password."))
	}

	config.ResetLoginFailures(req.Email)

	token, err := GenerateToken(admin.ID, admin.Email)
	if err != nil {
		log.Error("Failed to sign token", err, logger.Email(req.Email))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeUnexpectedError, "Internal server error.", err))
	}

	log.Info("Admin logged in", logger.AdminID(admin.ID), logger.Email(admin.Email))
	return apperrors.RespondWithSuccess(c, LoginResponse{Token: token, Email: admin.Email})
}

func recordFailure(log logger.Logger, email string) {
	if _, err := config.RecordLoginFailure(email); err != nil {
		log.Warn("Failed to record login failure", logger.Email(email), logger.Err(err))
	}
}

// GenerateToken issues an HS256 JWT for the admin.
func GenerateToken(adminID int64, email string) (string, error) {
	jwtSecret := viper.GetString("JWT_SECRET")

	claims := jwt.MapClaims{
		"admin_id": adminID,
		"email":    email,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// HashPassword hashes a password salted with the configured secret.
func HashPassword(password string) (string, error) {
	secret := viper.GetString("JWT_SECRET")
	bytes, err := bcrypt.GenerateFromPassword([]byte(password+secret), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword verifies a password against its stored hash.
func CheckPassword(password, hash string) bool {
	secret := viper.GetString("JWT_SECRET")
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password+secret)) == nil
}
