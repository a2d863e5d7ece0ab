package handler

import (
	"net/http"
	"time"

	"eventbook/internal/identity"
	"eventbook/internal/middleware"
	"eventbook/internal/model"
	"eventbook/internal/service"

	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	service service.EventService
}

func NewEventHandler(service service.EventService) *EventHandler {
	return &EventHandler{service: service}
}

func (h *EventHandler) RegisterRoutes(r *gin.Engine, jwtSecret string) {
	router := r.Group("/api/v1")
	{
		router.GET("events", h.List)
		router.GET("events/:id", h.GetByEventID)
		router.GET("events/:id/availability", h.GetAvailability)
	}

	admin := r.Group("/api/v1", middleware.Authenticate(jwtSecret), middleware.RequireRole(identity.RoleAdmin))
	{
		admin.POST("events", h.Create)
		admin.PUT("events/:id", h.UpdateByEventID)
	}
}

// CreateEventRequest 建立活動請求
type CreateEventRequest struct {
	Name        string    `json:"name" binding:"required,max=200"`
	Description *string   `json:"description"`
	TotalSeats  int       `json:"total_seats" binding:"required,min=1"`
	Price       int64     `json:"price" binding:"min=0"`
	Date        time.Time `json:"date" binding:"required"`
}

// UpdateEventRequest 更新活動請求
type UpdateEventRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	TotalSeats  *int       `json:"total_seats"`
	Price       *int64     `json:"price"`
	Date        *time.Time `json:"date"`
}

func (r UpdateEventRequest) empty() bool {
	return r.Name == nil && r.Description == nil && r.TotalSeats == nil && r.Price == nil && r.Date == nil
}

func (h *EventHandler) List(c *gin.Context) {
	events, err := h.service.List(c)
	if err != nil {
		handleError(c, err, "ListEvents")
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) GetByEventID(c *gin.Context) {
	eventID, ok := BindID(c)
	if !ok {
		return
	}
	event, err := h.service.GetByEventID(c, eventID)
	if err != nil {
		handleError(c, err, "GetEvent")
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) GetAvailability(c *gin.Context) {
	eventID, ok := BindID(c)
	if !ok {
		return
	}
	availability, err := h.service.GetAvailability(c, eventID)
	if err != nil {
		handleError(c, err, "GetAvailability")
		return
	}
	c.JSON(http.StatusOK, availability)
}

func (h *EventHandler) Create(c *gin.Context) {
	var req CreateEventRequest
	if err := BindJson(c, &req); err != nil {
		return
	}
	event := &model.Event{
		Name:        req.Name,
		Description: req.Description,
		TotalSeats:  req.TotalSeats,
		Price:       req.Price,
		Date:        req.Date,
	}
	created, err := h.service.Create(c, event)
	if err != nil {
		handleError(c, err, "CreateEvent")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *EventHandler) UpdateByEventID(c *gin.Context) {
	eventID, ok := BindID(c)
	if !ok {
		return
	}
	var req UpdateEventRequest
	if err := BindJson(c, &req); err != nil {
		return
	}
	if req.empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one field is required"})
		return
	}
	params := model.UpdateEventParams{
		Name:        req.Name,
		Description: req.Description,
		TotalSeats:  req.TotalSeats,
		Price:       req.Price,
		Date:        req.Date,
	}
	updated, err := h.service.UpdateByEventID(c, eventID, params)
	if err != nil {
		handleError(c, err, "UpdateEvent")
		return
	}
	c.JSON(http.StatusOK, updated)
}
