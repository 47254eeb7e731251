package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/petrovi-4/habit-tracker-backend/internal/platform/logger"
	"github.com/petrovi-4/habit-tracker-backend/internal/services"
)

type UserHandler struct {
	log         *logger.Logger
	userService services.UserService
}

func NewUserHandler(log *logger.Logger, userService services.UserService) *UserHandler {
	return &UserHandler{
		log:         log.With("handler", "UserHandler"),
		userService: userService,
	}
}

func (uh *UserHandler) GetMe(c *gin.Context) {
	user, err := uh.userService.GetMe(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, user)
}

func (uh *UserHandler) UpdateMe(c *gin.Context) {
	var req struct {
		FirstName      *string `json:"first_name"`
		LastName       *string `json:"last_name"`
		TelegramChatID *string `json:"telegram_chat_id"`
		Password       *string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	user, err := uh.userService.UpdateMe(c.Request.Context(), services.UpdateUserInput{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		TelegramChatID: req.TelegramChatID,
		Password:       req.Password,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, user)
}
