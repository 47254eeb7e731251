package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/petrovi-4/habit-tracker-backend/internal/platform/logger"
	"github.com/petrovi-4/habit-tracker-backend/internal/requestdata"
	"github.com/petrovi-4/habit-tracker-backend/internal/services"
)

type HabitHandler struct {
	log          *logger.Logger
	habitService services.HabitService
}

func NewHabitHandler(log *logger.Logger, habitService services.HabitService) *HabitHandler {
	return &HabitHandler{
		log:          log.With("handler", "HabitHandler"),
		habitService: habitService,
	}
}

// habitRequest covers both create and partial update; absent fields stay
// nil so updates only touch what the caller sent.
type habitRequest struct {
	Place             *string    `json:"place"`
	Time              *string    `json:"time"`
	PeriodicityDays   *int       `json:"periodicity_days"`
	Action            *string    `json:"action"`
	IsPleasurable     *bool      `json:"is_pleasurable"`
	AssociatedHabitID *uuid.UUID `json:"associated_habit"`
	Reward            *string    `json:"reward"`
	LeadTimeMinutes   *int       `json:"lead_time_minutes"`
	IsPublic          *bool      `json:"is_public"`
}

func (hh *HabitHandler) Create(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req habitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	in := services.CreateHabitInput{
		Place:             req.Place,
		PeriodicityDays:   req.PeriodicityDays,
		AssociatedHabitID: req.AssociatedHabitID,
		Reward:            req.Reward,
		LeadTimeMinutes:   req.LeadTimeMinutes,
	}
	if req.Time != nil {
		in.Time = *req.Time
	}
	if req.Action != nil {
		in.Action = *req.Action
	}
	if req.IsPleasurable != nil {
		in.IsPleasurable = *req.IsPleasurable
	}
	if req.IsPublic != nil {
		in.IsPublic = *req.IsPublic
	}

	habit, err := hh.habitService.Create(c.Request.Context(), rd.UserID, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, habit)
}

func (hh *HabitHandler) Update(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	habitID, ok := parseHabitID(c)
	if !ok {
		return
	}
	var req habitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	habit, err := hh.habitService.Update(c.Request.Context(), rd.UserID, habitID, services.UpdateHabitInput{
		Place:             req.Place,
		Time:              req.Time,
		PeriodicityDays:   req.PeriodicityDays,
		Action:            req.Action,
		IsPleasurable:     req.IsPleasurable,
		AssociatedHabitID: req.AssociatedHabitID,
		Reward:            req.Reward,
		LeadTimeMinutes:   req.LeadTimeMinutes,
		IsPublic:          req.IsPublic,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, habit)
}

func (hh *HabitHandler) Delete(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	habitID, ok := parseHabitID(c)
	if !ok {
		return
	}
	if err := hh.habitService.Delete(c.Request.Context(), rd.UserID, habitID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (hh *HabitHandler) Get(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	habitID, ok := parseHabitID(c)
	if !ok {
		return
	}
	habit, err := hh.habitService.Get(c.Request.Context(), rd.UserID, habitID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, habit)
}

func (hh *HabitHandler) ListOwned(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	page, pageSize := parsePaging(c)
	result, err := hh.habitService.ListOwned(c.Request.Context(), rd.UserID, page, pageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}

func (hh *HabitHandler) ListPublic(c *gin.Context) {
	page, pageSize := parsePaging(c)
	result, err := hh.habitService.ListPublic(c.Request.Context(), page, pageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}

func parseHabitID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusNotFound, "not_found", services.ErrNotFound)
		return uuid.Nil, false
	}
	return id, true
}

func parsePaging(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(services.DefaultPageSize)))
	return page, pageSize
}
