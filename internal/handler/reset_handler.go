package handler

import (
	"net/http"
	"time"

	"tempo-api/internal/middleware"
	"tempo-api/internal/model"
	"tempo-api/pkg/database"
	"tempo-api/pkg/logger"
	"tempo-api/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const resetTokenTTL = time.Hour

// RequestPasswordReset issues a single-use reset token. The response is the
// same whether or not the email matches an account, so the endpoint cannot
// be used to probe for registered addresses.
func RequestPasswordReset(c echo.Context) error {
	log := logger.FromContext(c)

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil || req.Email == "" {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}

	accepted := echo.Map{"message": "If the account exists, a reset link has been sent"}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	var user model.User
	result := database.GetDB().Where("tenant_id = ? AND email = ?", tenant.ID, req.Email).First(&user)
	if result.Error != nil {
		log.Debug("Reset requested for unknown email", zap.Uint("tenant_id", tenant.ID))
		return c.JSON(http.StatusAccepted, accepted)
	}

	reset := model.PasswordReset{
		UserID:    user.ID,
		Token:     uuid.New().String(),
		ExpiresAt: time.Now().Add(resetTokenTTL),
	}
	if result := database.GetDB().Create(&reset); result.Error != nil {
		log.Error("Failed to create reset token", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	// Token delivery is out of band; the mailer tails this log in development.
	log.Info("Password reset token issued",
		zap.Uint("user_id", user.ID),
		zap.String("token", reset.Token))

	return c.JSON(http.StatusAccepted, accepted)
}

// ConfirmPasswordReset exchanges a valid reset token for a new password.
func ConfirmPasswordReset(c echo.Context) error {
	log := logger.FromContext(c)

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Token == "" || len(req.NewPassword) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token and a password of at least 8 characters are required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	var reset model.PasswordReset
	result := database.GetDB().Where("token = ?", req.Token).First(&reset)
	if result.Error != nil {
		prometheus.RecordAuthError("reset_token_not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invalid or expired token"})
	}

	if !reset.Usable(time.Now()) {
		prometheus.RecordAuthError("reset_token_expired")
		return c.JSON(http.StatusGone, echo.Map{"error": "invalid or expired token"})
	}

	var user model.User
	if result := database.GetDB().First(&user, reset.UserID); result.Error != nil || user.TenantID != tenant.ID {
		prometheus.RecordAuthError("reset_token_not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invalid or expired token"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	// Begin transaction
	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	if result := tx.Model(&user).Update("password_hash", string(hash)); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to update password", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	now := time.Now()
	if result := tx.Model(&reset).Update("used_at", &now); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to mark reset token used", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit reset transaction", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	log.Info("Password reset completed", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Password reset successfully"})
}
