package handler

import (
	"net/http"
	"time"

	"tempo-api/internal/middleware"
	"tempo-api/internal/model"
	"tempo-api/pkg/database"
	"tempo-api/pkg/jwtutil"
	"tempo-api/pkg/logger"
	"tempo-api/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/clause"
)

// Login authenticates a user within the resolved tenant and returns a
// tenant-scoped JWT.
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		log.Error("Login reached without tenant context")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	// Parse request
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	// Find user in database - track DB operation duration
	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	result := database.GetDB().Where("tenant_id = ? AND email = ?", tenant.ID, req.Email).First(&user)
	if result.Error != nil {
		log.Error("User not found", zap.String("email", req.Email), zap.Uint("tenant_id", tenant.ID))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		log.Error("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	token, err := jwtutil.GenerateToken(user.Email, user.ID, tenant.ID, tenant.Slug, user.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	prometheus.IncreaseActiveTokens()
	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.Uint("user_id", user.ID),
		zap.Uint("tenant_id", tenant.ID))

	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user":  user,
	})
}

// Signup redeems an invite token and creates the employee account together
// with its scope-membership row.
func Signup(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.SignupCounter.Inc()

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		log.Error("Signup reached without tenant context")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	var req struct {
		Token    string `json:"token"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse signup request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Token == "" || req.Name == "" || len(req.Password) < 8 {
		prometheus.RecordAuthError("incomplete_signup")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token, name and a password of at least 8 characters are required"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	var invite model.Invite
	result := database.GetDB().Where("tenant_id = ? AND token = ?", tenant.ID, req.Token).First(&invite)
	if result.Error != nil {
		log.Warn("Signup with unknown invite token", zap.Uint("tenant_id", tenant.ID))
		prometheus.RecordAuthError("invite_not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invite not found"})
	}

	if !invite.Pending(time.Now()) {
		prometheus.RecordAuthError("invite_expired")
		return c.JSON(http.StatusGone, echo.Map{"error": "invite expired or already used"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	// Begin transaction
	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		prometheus.RecordAuthError("database_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	user := model.User{
		TenantID:     tenant.ID,
		Email:        invite.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         invite.Role,
		Location:     invite.Location,
		Department:   invite.Department,
	}
	if result := tx.Create(&user); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create user", zap.Error(result.Error), zap.String("email", invite.Email))
		prometheus.RecordAuthError("signup_failed")
		return c.JSON(http.StatusConflict, echo.Map{"error": "account already exists for this email"})
	}

	scope := model.UserScope{
		UserID:     user.ID,
		Location:   user.Location,
		Department: user.Department,
	}
	if result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&scope); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create scope membership", zap.Error(result.Error))
		prometheus.RecordAuthError("signup_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	now := time.Now()
	if result := tx.Model(&invite).Update("accepted_at", &now); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to mark invite accepted", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit signup transaction", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	log.Info("User signed up",
		zap.String("email", user.Email),
		zap.Uint("user_id", user.ID),
		zap.Uint("tenant_id", tenant.ID))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Account created successfully",
		"user":    user,
	})
}

// GetProfile returns the authenticated user together with their scope
// memberships.
func GetProfile(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		prometheus.RecordAuthError("unauthorized_profile_access")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var user model.User
	if result := database.GetDB().First(&user, userID); result.Error != nil {
		log.Error("Profile user not found", zap.Uint("user_id", userID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	scopes := []model.UserScope{}
	if result := database.GetDB().Where("user_id = ?", userID).Find(&scopes); result.Error != nil {
		log.Error("Failed to load scope memberships", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user":   user,
		"scopes": scopes,
	})
}

// ChangePassword updates the authenticated user's password.
func ChangePassword(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		prometheus.RecordAuthError("unauthorized_password_change")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if len(req.NewPassword) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "new password must be at least 8 characters"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	var user model.User
	if result := database.GetDB().First(&user, userID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "current password is incorrect"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	if result := database.GetDB().Model(&user).Update("password_hash", string(hash)); result.Error != nil {
		log.Error("Failed to update password", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	log.Info("Password changed", zap.Uint("user_id", userID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Password changed successfully"})
}
