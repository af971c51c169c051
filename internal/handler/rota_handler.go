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

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ListWeeks returns the tenant's rota weeks, optionally filtered by the
// location and department query parameters.
func ListWeeks(c echo.Context) error {
	log := logger.FromContext(c)

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	query := database.GetDB().Where("tenant_id = ?", tenant.ID)
	if location := c.QueryParam("location"); location != "" {
		query = query.Where("location = ?", location)
	}
	if department := c.QueryParam("department"); department != "" {
		query = query.Where("department = ?", department)
	}

	weeks := []model.RotaWeek{}
	if result := query.Order("week_start DESC").Find(&weeks); result.Error != nil {
		log.Error("Failed to list rota weeks", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, weeks)
}

// CreateWeek opens a new rota week for a (location, department) unit.
func CreateWeek(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRotaOperation("week_create")

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	var req struct {
		WeekStart  string `json:"week_start"`
		Location   string `json:"location"`
		Department string `json:"department"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	weekStart, err := time.Parse("2006-01-02", req.WeekStart)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "week_start must be a date in YYYY-MM-DD format"})
	}
	if req.Location == "" || req.Department == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "location and department are required"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	week := model.RotaWeek{
		TenantID:   tenant.ID,
		WeekStart:  weekStart,
		Location:   req.Location,
		Department: req.Department,
	}
	if result := database.GetDB().Create(&week); result.Error != nil {
		log.Error("Failed to create rota week", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	log.Info("Rota week created",
		zap.Uint("week_id", week.ID),
		zap.Uint("tenant_id", tenant.ID),
		zap.String("location", week.Location),
		zap.String("department", week.Department))

	return c.JSON(http.StatusCreated, week)
}

// PublishWeek marks a rota week as visible to staff.
func PublishWeek(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRotaOperation("week_publish")

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid week ID"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	result := database.GetDB().
		Model(&model.RotaWeek{}).
		Where("tenant_id = ? AND id = ?", tenant.ID, id).
		Update("published", true)
	if result.Error != nil {
		log.Error("Failed to publish rota week", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "rota week not found"})
	}

	log.Info("Rota week published", zap.Uint64("week_id", id), zap.Uint("tenant_id", tenant.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Rota week published"})
}

// ListShifts returns the shifts of one rota week.
func ListShifts(c echo.Context) error {
	log := logger.FromContext(c)

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	weekID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid week ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	shifts := []model.RotaShift{}
	result := database.GetDB().
		Where("tenant_id = ? AND week_id = ?", tenant.ID, weekID).
		Order("start_time").
		Find(&shifts)
	if result.Error != nil {
		log.Error("Failed to list shifts", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, shifts)
}

// CreateShift adds a shift to a rota week. Blank scope fields inherit the
// week's location and department.
func CreateShift(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRotaOperation("shift_create")

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	weekID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid week ID"})
	}

	var week model.RotaWeek
	if result := database.GetDB().Where("tenant_id = ? AND id = ?", tenant.ID, weekID).First(&week); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "rota week not found"})
	}

	var req struct {
		UserID     *uint     `json:"user_id,omitempty"`
		StartTime  time.Time `json:"start_time"`
		EndTime    time.Time `json:"end_time"`
		Location   string    `json:"location"`
		Department string    `json:"department"`
		RoleLabel  string    `json:"role_label"`
		Notes      string    `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() || !req.EndTime.After(req.StartTime) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time must precede end_time"})
	}

	if req.Location == "" {
		req.Location = week.Location
	}
	if req.Department == "" {
		req.Department = week.Department
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	shift := model.RotaShift{
		TenantID:   tenant.ID,
		WeekID:     week.ID,
		UserID:     req.UserID,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Location:   req.Location,
		Department: req.Department,
		RoleLabel:  req.RoleLabel,
		Notes:      req.Notes,
	}
	if result := database.GetDB().Create(&shift); result.Error != nil {
		log.Error("Failed to create shift", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	log.Info("Shift created",
		zap.Uint("shift_id", shift.ID),
		zap.Uint("week_id", week.ID),
		zap.Uint("tenant_id", tenant.ID))

	return c.JSON(http.StatusCreated, shift)
}

// UpdateShift applies a partial update to a shift.
func UpdateShift(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRotaOperation("shift_update")

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid shift ID"})
	}

	var shift model.RotaShift
	if result := database.GetDB().Where("tenant_id = ? AND id = ?", tenant.ID, id).First(&shift); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "shift not found"})
	}

	var req struct {
		UserID    *uint      `json:"user_id,omitempty"`
		StartTime *time.Time `json:"start_time,omitempty"`
		EndTime   *time.Time `json:"end_time,omitempty"`
		RoleLabel *string    `json:"role_label,omitempty"`
		Notes     *string    `json:"notes,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.UserID != nil {
		updates["user_id"] = *req.UserID
	}
	if req.StartTime != nil {
		updates["start_time"] = *req.StartTime
	}
	if req.EndTime != nil {
		updates["end_time"] = *req.EndTime
	}
	if req.RoleLabel != nil {
		updates["role_label"] = *req.RoleLabel
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no fields to update"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	if result := database.GetDB().Model(&shift).Updates(updates); result.Error != nil {
		log.Error("Failed to update shift", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	log.Info("Shift updated", zap.Uint("shift_id", shift.ID), zap.Uint("tenant_id", tenant.ID))
	return c.JSON(http.StatusOK, shift)
}

// DeleteShift removes a shift from the rota.
func DeleteShift(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRotaOperation("shift_delete")

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid shift ID"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())

	result := database.GetDB().
		Where("tenant_id = ? AND id = ?", tenant.ID, id).
		Delete(&model.RotaShift{})
	if result.Error != nil {
		log.Error("Failed to delete shift", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "shift not found"})
	}

	log.Info("Shift deleted", zap.Uint64("shift_id", id), zap.Uint("tenant_id", tenant.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Shift deleted"})
}
