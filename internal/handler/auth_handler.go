package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mercadodasophia-design/mercadodasophia/internal/model"
	"github.com/mercadodasophia-design/mercadodasophia/pkg/database"
	"github.com/mercadodasophia-design/mercadodasophia/pkg/jwtutil"
	"github.com/mercadodasophia-design/mercadodasophia/pkg/logger"
	"github.com/mercadodasophia-design/mercadodasophia/prometheus"
)

// LoginRequest is the POST /auth/login body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the POST /auth/register body.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Login authenticates a user and issues a JWT.
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.AuthAttemptsCounter.Inc()

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if details := validateCredentials(req.Email, req.Password); len(details) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "invalid request data",
			"details": details,
		})
	}

	var user model.User
	result := database.GetDB().Where("email = ?", req.Email).First(&user)
	if result.Error != nil {
		log.Warn("Login failed, unknown email", zap.String("email", req.Email))
		prometheus.AuthErrorsCounter.Inc()
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password"})
	}

	if !user.IsActive {
		log.Warn("Login rejected, account disabled", zap.String("email", req.Email))
		prometheus.AuthErrorsCounter.Inc()
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account disabled"})
	}

	if !user.ComparePassword(req.Password) {
		log.Warn("Login failed, wrong password", zap.String("email", req.Email))
		prometheus.AuthErrorsCounter.Inc()
		database.GetDB().Model(&user).UpdateColumn("login_attempts", user.LoginAttempts+1)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password"})
	}

	now := time.Now()
	database.GetDB().Model(&user).UpdateColumns(map[string]any{
		"last_login":     now,
		"login_attempts": 0,
	})

	token, err := jwtutil.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to generate token"})
	}

	log.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("role", user.Role))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"token":   token,
		"user": echo.Map{
			"id":     user.ID,
			"name":   user.Name,
			"email":  user.Email,
			"role":   user.Role,
			"avatar": user.Avatar,
		},
	})
}

// Register creates a new admin panel user.
func Register(c echo.Context) error {
	log := logger.FromContext(c)

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	details := validateCredentials(req.Email, req.Password)
	if len(req.Name) < 2 {
		details = append(details, "name must have at least 2 characters")
	}
	if !model.IsValidRole(req.Role) {
		details = append(details, "invalid role")
	}
	if len(details) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "invalid request data",
			"details": details,
		})
	}

	var count int64
	database.GetDB().Model(&model.User{}).Where("email = ?", req.Email).Count(&count)
	if count > 0 {
		log.Warn("Registration rejected, email taken", zap.String("email", req.Email))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
	}

	user := model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	}
	if result := database.GetDB().Create(&user); result.Error != nil {
		log.Error("Failed to create user", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create user"})
	}

	token, err := jwtutil.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to generate token"})
	}

	log.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("role", user.Role))
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"token":   token,
		"user": echo.Map{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

// Verify checks the bearer token and returns the associated user.
func Verify(c echo.Context) error {
	log := logger.FromContext(c)

	authHeader := c.Request().Header.Get("Authorization")
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
	}

	claims, err := jwtutil.ValidateToken(token)
	if err != nil {
		log.Warn("Token verification failed", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}

	var user model.User
	result := database.GetDB().Where("id = ?", claims.UserID).First(&user)
	if result.Error != nil || !user.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"user": echo.Map{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

func validateCredentials(email, password string) []string {
	var details []string
	if !strings.Contains(email, "@") {
		details = append(details, "invalid email")
	}
	if len(password) < 6 {
		details = append(details, "password must have at least 6 characters")
	}
	return details
}
