package handler

import (
	"net/http"
	"strconv"
	"time"

	"tempo-api/internal/middleware"
	"tempo-api/internal/model"
	"tempo-api/pkg/database"
	"tempo-api/pkg/logger"
	"tempo-api/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const inviteTTL = 7 * 24 * time.Hour

// CreateInvite issues an invite for a new employee. A still-pending invite
// for the same email is refreshed instead of duplicated.
func CreateInvite(c echo.Context) error {
	log := logger.FromContext(c)

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	var req struct {
		Email      string `json:"email"`
		Role       string `json:"role,omitempty"`
		Location   string `json:"location"`
		Department string `json:"department"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Email == "" || req.Location == "" || req.Department == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, location and department are required"})
	}
	if req.Role == "" {
		req.Role = model.RoleStaff
	}
	if req.Role != model.RoleStaff && req.Role != model.RoleManager {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be staff or manager"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	invite := model.Invite{
		TenantID:   tenant.ID,
		Email:      req.Email,
		Role:       req.Role,
		Location:   req.Location,
		Department: req.Department,
	}

	// Refresh a pending invite rather than stacking a second token
	var existing model.Invite
	result := database.GetDB().
		Where("tenant_id = ? AND email = ? AND accepted_at IS NULL", tenant.ID, req.Email).
		First(&existing)
	if result.Error == nil {
		existing.Role = req.Role
		existing.Location = req.Location
		existing.Department = req.Department
		existing.Token = uuid.New().String()
		existing.ExpiresAt = time.Now().Add(inviteTTL)
		if err := database.GetDB().Save(&existing).Error; err != nil {
			log.Error("Failed to refresh invite", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
		}
		log.Info("Invite refreshed", zap.Uint("invite_id", existing.ID), zap.Uint("tenant_id", tenant.ID))
		return c.JSON(http.StatusOK, echo.Map{
			"message": "Invite refreshed",
			"invite":  existing,
			"token":   existing.Token,
		})
	}

	invite.Token = uuid.New().String()
	invite.ExpiresAt = time.Now().Add(inviteTTL)
	if err := database.GetDB().Create(&invite).Error; err != nil {
		log.Error("Failed to create invite", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	log.Info("Invite created",
		zap.Uint("invite_id", invite.ID),
		zap.Uint("tenant_id", tenant.ID),
		zap.String("role", invite.Role))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Invite created",
		"invite":  invite,
		"token":   invite.Token,
	})
}

// ListInvites returns the tenant's invites, newest first.
func ListInvites(c echo.Context) error {
	log := logger.FromContext(c)

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	invites := []model.Invite{}
	result := database.GetDB().
		Where("tenant_id = ?", tenant.ID).
		Order("created_at DESC").
		Find(&invites)
	if result.Error != nil {
		log.Error("Failed to list invites", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, invites)
}

// RevokeInvite deletes a not-yet-accepted invite.
func RevokeInvite(c echo.Context) error {
	log := logger.FromContext(c)

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invite ID"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())

	result := database.GetDB().
		Where("tenant_id = ? AND id = ? AND accepted_at IS NULL", tenant.ID, id).
		Delete(&model.Invite{})
	if result.Error != nil {
		log.Error("Failed to revoke invite", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invite not found"})
	}

	log.Info("Invite revoked", zap.Uint64("invite_id", id), zap.Uint("tenant_id", tenant.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Invite revoked"})
}
