package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"home_climate/internal/models"
	"home_climate/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK = "ok"

	errLoadClimate  = "failed to load climate data"
	errLoadPrograms = "failed to load programs"
	errLoadHistory  = "failed to load climate history"
	errLoadGarage   = "failed to load garage door status"
	errLoadVideos   = "failed to load videos"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Latest climate reading
// @Description  Devices presenting X-Device-Key receive only mode, zone and target temperature.
// @Tags         climate
// @Produce      json
// @Success      200  {object}  models.ClimateReading
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/climate [get]
// @Security     BearerAuth
func (h *Handler) getClimate(c *gin.Context) {
	reading, err := h.services.Climate.Latest(c.Request.Context())
	if errors.Is(err, service.ErrNoClimateData) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadClimate, "climate_latest_failed", err)
		return
	}
	if h.isDevice(c) {
		c.JSON(http.StatusOK, reading.ForDevice())
		return
	}
	c.JSON(http.StatusOK, reading)
}

// @Summary      List climate programs
// @Tags         climate
// @Produce      json
// @Success      200  {array}   models.ClimateProgram
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/climate/programs [get]
// @Security     BearerAuth
func (h *Handler) listPrograms(c *gin.Context) {
	programs, err := h.services.Programs.List(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadPrograms, "programs_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, programs)
}

// @Summary      Active climate program
// @Description  204 when no program is active.
// @Tags         climate
// @Produce      json
// @Success      200  {object}  models.ClimateProgram
// @Success      204
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/climate/programs/active-program [get]
// @Security     BearerAuth
func (h *Handler) getActiveProgram(c *gin.Context) {
	active, err := h.services.Programs.Active(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadPrograms, "programs_active_failed", err)
		return
	}
	if active == nil {
		c.Status(http.StatusNoContent)
		return
	}
	if h.isDevice(c) {
		c.JSON(http.StatusOK, active.ForDevice())
		return
	}
	c.JSON(http.StatusOK, active)
}

// @Summary      Climate program by id
// @Tags         climate
// @Produce      json
// @Param        id   path      int  true  "Program id"
// @Success      200  {object}  models.ClimateProgram
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/climate/programs/{id} [get]
// @Security     BearerAuth
func (h *Handler) getProgram(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrInvalidProgramID.Error()})
		return
	}
	p, err := h.services.Programs.Get(c.Request.Context(), id)
	switch {
	case errors.Is(err, service.ErrProgramNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err != nil:
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadPrograms, "program_get_failed", err, "id", id)
	default:
		c.JSON(http.StatusOK, p)
	}
}

// @Summary      Climate history
// @Description  Archived readings covering the last N days, newest first. Each entry stands for archiveSpan 15 minute intervals.
// @Tags         climate
// @Produce      json
// @Param        days  path      int  true  "Number of days (1-366)"
// @Success      200   {array}   models.ClimateReading
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/climate/history/{days} [get]
// @Security     BearerAuth
func (h *Handler) getHistory(c *gin.Context) {
	days, err := strconv.Atoi(c.Param("days"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrInvalidTimeSpan.Error()})
		return
	}
	readings, err := h.services.Climate.History(c.Request.Context(), days)
	if errors.Is(err, service.ErrInvalidTimeSpan) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadHistory, "climate_history_failed", err, "days", days)
		return
	}
	c.JSON(http.StatusOK, readings)
}

// @Summary      Garage door status
// @Tags         home
// @Produce      json
// @Success      200  {object}  models.GarageDoor
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/garagedoor [get]
// @Security     BearerAuth
func (h *Handler) getGarageDoor(c *gin.Context) {
	door, err := h.services.Garage.Status(c.Request.Context())
	if errors.Is(err, service.ErrNoGarageStatus) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadGarage, "garage_status_failed", err)
		return
	}
	c.JSON(http.StatusOK, door)
}

// @Summary      Recent security videos
// @Tags         home
// @Produce      json
// @Param        location  query     string  false  "Camera location"
// @Param        limit     query     int     false  "Maximum number of videos (default 12, max 100)"
// @Success      200       {array}   models.Video
// @Router       /api/v1/videos [get]
// @Security     BearerAuth
func (h *Handler) listVideos(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	ctx := c.Request.Context()

	var (
		videos []models.Video
		err    error
	)
	if loc := c.Query("location"); loc != "" {
		videos, err = h.services.Videos.ByLocation(ctx, loc, limit)
	} else {
		videos, err = h.services.Videos.Recent(ctx, limit)
	}
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadVideos, "videos_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, videos)
}
