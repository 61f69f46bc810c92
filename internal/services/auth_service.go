package services

import (
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pigpay/backend/internal/audit"
	"github.com/pigpay/backend/internal/ledger"
	"github.com/pigpay/backend/internal/logging"
	"github.com/pigpay/backend/internal/middleware"
	"github.com/pigpay/backend/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"golang.org/x/crypto/argon2"
)

type AuthService struct {
	db             *sql.DB
	redis          *redis.Client
	engine         *ledger.Engine
	audit          *audit.AuditLogger
	validator      *ValidationHelper
	initialBalance int64
	log            *logrus.Entry
}

// LoginRequest represents the login request payload
// @Description Login request structure
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64" example:"alice"`              // Account username
	Password string `json:"password" validate:"required,min=8,max=72" example:"password123"` // Account password
}

// RegisterRequest represents the registration request payload
// @Description Registration request structure
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32,alphanumunicode" example:"alice"` // Unique username
	Password string `json:"password" validate:"required,min=8,max=72" example:"password123"`          // Account password
}

// AuthResponse represents the authentication response
// @Description Authentication response structure
type AuthResponse struct {
	Token   string         `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."` // JWT token
	Account models.Account `json:"account"`                                                 // Account information
}

func NewAuthService(db *sql.DB, redisClient *redis.Client, engine *ledger.Engine, auditLogger *audit.AuditLogger, initialBalance int64) *AuthService {
	viper.SetDefault("argon2.salt_length", 16)
	viper.SetDefault("argon2.time", 1)
	viper.SetDefault("argon2.memory", 64*1024)
	viper.SetDefault("argon2.threads", 4)
	viper.SetDefault("argon2.key_length", 32)
	viper.SetDefault("jwt.expiry_hours", 24)

	return &AuthService{
		db:             db,
		redis:          redisClient,
		engine:         engine,
		audit:          auditLogger,
		validator:      NewValidationHelper(),
		initialBalance: initialBalance,
		log:            logging.For("auth"),
	}
}

// Register creates an account with the registration balance
// @Summary Register a new user
// @Description Create an account and return a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration details"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/register [post]
func (s *AuthService) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !s.validator.DecodeAndValidate(w, r, &req) {
		return
	}

	hashedPassword, err := hashPassword(req.Password)
	if err != nil {
		s.log.WithError(err).Error("[AUTH] Failed to hash password")
		SendErrorResponse(w, "Failed to process password", http.StatusInternalServerError, nil)
		return
	}

	account, err := s.engine.Register(r.Context(), req.Username, hashedPassword, s.initialBalance)
	if err != nil {
		if ledgerErrorStatus(err) == http.StatusInternalServerError {
			s.log.WithError(err).WithField("username", req.Username).Error("[AUTH] Failed to create user")
		}
		SendLedgerError(w, err)
		return
	}

	token, err := generateJWT(account.Username)
	if err != nil {
		SendErrorResponse(w, "Failed to generate token", http.StatusInternalServerError, nil)
		return
	}

	s.audit.LogOperation("REGISTER", account.Username, fmt.Sprintf("initial balance %d", account.Balance))
	SendJSON(w, http.StatusCreated, AuthResponse{Token: token, Account: *account})
}

// Login authenticates a user
// @Summary Login
// @Description Exchange username and password for a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func (s *AuthService) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !s.validator.DecodeAndValidate(w, r, &req) {
		return
	}

	var hashedPassword string
	err := s.db.QueryRowContext(r.Context(),
		`SELECT password_hash FROM credentials WHERE username = $1`, req.Username).Scan(&hashedPassword)
	if errors.Is(err, sql.ErrNoRows) {
		SendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
		return
	}
	if err != nil {
		s.log.WithError(err).Error("[AUTH] Credential lookup failed")
		SendErrorResponse(w, "Failed to login", http.StatusInternalServerError, nil)
		return
	}

	if !verifyPassword(req.Password, hashedPassword) {
		SendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
		return
	}

	account, err := s.engine.Account(r.Context(), req.Username)
	if err != nil {
		SendLedgerError(w, err)
		return
	}

	token, err := generateJWT(account.Username)
	if err != nil {
		SendErrorResponse(w, "Failed to generate token", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, AuthResponse{Token: token, Account: *account})
}

// Logout revokes the current token
// @Summary Logout
// @Description Blacklist the bearer token until it expires
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{message=string}
// @Failure 401 {object} ErrorResponse
// @Router /auth/logout [post]
func (s *AuthService) Logout(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.BearerToken(r)
	if err != nil {
		SendErrorResponse(w, err.Error(), http.StatusUnauthorized, nil)
		return
	}

	if s.redis != nil {
		expiry := time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour
		if err := s.redis.Set(r.Context(), middleware.BlacklistKey(token), "1", expiry).Err(); err != nil {
			s.log.WithError(err).Error("[AUTH] Failed to blacklist token")
			SendErrorResponse(w, "Failed to logout", http.StatusInternalServerError, nil)
			return
		}
	}

	SendJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

func generateJWT(username string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour)),
	})

	return token.SignedString([]byte(viper.GetString("jwt.secret_key")))
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, viper.GetInt("argon2.salt_length"))
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt,
		uint32(viper.GetInt("argon2.time")),
		uint32(viper.GetInt("argon2.memory")),
		uint8(viper.GetInt("argon2.threads")),
		uint32(viper.GetInt("argon2.key_length")))
	return fmt.Sprintf("%s$%s", base64.StdEncoding.EncodeToString(salt), base64.StdEncoding.EncodeToString(hash)), nil
}

func verifyPassword(password, hashedPassword string) bool {
	parts := strings.Split(hashedPassword, "$")
	if len(parts) != 2 {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}

	hash, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt,
		uint32(viper.GetInt("argon2.time")),
		uint32(viper.GetInt("argon2.memory")),
		uint8(viper.GetInt("argon2.threads")),
		uint32(len(hash)))
	return subtle.ConstantTimeCompare(hash, computedHash) == 1
}
