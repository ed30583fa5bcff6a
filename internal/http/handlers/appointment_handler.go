package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/antonkudrin/profi-backend/internal/service"
)

const dateLayout = "2006-01-02"

// AppointmentHandler обслуживает записи и расписание специалистов.
type AppointmentHandler struct {
	appointments *service.AppointmentService
}

// NewAppointmentHandler создаёт обработчик записей.
func NewAppointmentHandler(appointments *service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments}
}

// Create обрабатывает POST /api/appointments.
func (h *AppointmentHandler) Create(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortUnauthorized(c)
		return
	}

	var req struct {
		ProfessionalID  uuid.UUID  `json:"professional_id" binding:"required"`
		ServiceID       *uuid.UUID `json:"service_id"`
		Date            string     `json:"date" binding:"required"`
		StartTime       string     `json:"start_time" binding:"required"`
		DurationMinutes int        `json:"duration_minutes" binding:"required"`
		Notes           *string    `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректное тело запроса"})
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "дата должна быть в формате YYYY-MM-DD"})
		return
	}

	appointment, err := h.appointments.Schedule(c.Request.Context(), service.ScheduleInput{
		ProfessionalID:  req.ProfessionalID,
		ClientID:        userID,
		ServiceID:       req.ServiceID,
		Date:            date,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, appointment)
}

// Get обрабатывает GET /api/appointments/:id.
func (h *AppointmentHandler) Get(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortUnauthorized(c)
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	appointment, err := h.appointments.Get(c.Request.Context(), id, userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, appointment)
}

// List обрабатывает GET /api/appointments.
func (h *AppointmentHandler) List(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortUnauthorized(c)
		return
	}
	limit, offset := paginationParams(c)

	appointments, err := h.appointments.ListForUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"appointments": appointments})
}

// Cancel обрабатывает POST /api/appointments/:id/cancel.
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortUnauthorized(c)
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	appointment, err := h.appointments.Cancel(c.Request.Context(), id, userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, appointment)
}

// Availability обрабатывает GET /api/professionals/:id/availability.
// Эндпоинт публичный: отдаёт только занятые интервалы без данных клиентов.
func (h *AppointmentHandler) Availability(c *gin.Context) {
	professionalID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	now := time.Now().UTC()
	startDate := now.Truncate(24 * time.Hour)
	endDate := startDate.AddDate(0, 0, 30)

	if raw := c.Query("date"); raw != "" {
		date, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "дата должна быть в формате YYYY-MM-DD"})
			return
		}
		slots, err := h.appointments.OccupiedSlotsForDate(c.Request.Context(), professionalID, date)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"occupied_slots": slots})
		return
	}

	slots, err := h.appointments.Availability(c.Request.Context(), professionalID, startDate, endDate)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"occupied_slots": slots})
}

// CheckSlot обрабатывает GET /api/professionals/:id/check-slot.
func (h *AppointmentHandler) CheckSlot(c *gin.Context) {
	professionalID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	date, err := time.Parse(dateLayout, c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "дата должна быть в формате YYYY-MM-DD"})
		return
	}

	duration, err := strconv.Atoi(c.Query("duration_minutes"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "duration_minutes должен быть числом"})
		return
	}

	free, err := h.appointments.IsSlotFree(c.Request.Context(), professionalID, date, c.Query("start_time"), duration)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"available": free})
}
