package httpHandler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"

	"store-rating-server/handlers"
	"store-rating-server/middleware"
	"store-rating-server/usecases"
)

type UserHandler struct {
	useCase *usecases.UserUseCase
	log     logrus.FieldLogger
}

func NewUserHandler(useCase *usecases.UserUseCase, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{useCase: useCase, log: log}
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// UpdatePassword handles PUT /api/users/password
func (h *UserHandler) UpdatePassword(c *gin.Context) {
	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	principal, _ := middleware.PrincipalFrom(c)

	if err := h.useCase.UpdatePassword(c.Request.Context(), principal.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

// ListUsers handles GET /api/users?sortBy=&filterRole=&search=
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.useCase.List(c.Request.Context(), usecases.ListUsersInput{
		SortBy:     c.Query("sortBy"),
		FilterRole: c.Query("filterRole"),
		Search:     c.Query("search"),
	})
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetUser handles GET /api/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.useCase.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// CreateUser handles POST /api/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req middleware.SignupRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user, err := h.useCase.Create(c.Request.Context(), signupInput(req))
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user":    user,
	})
}

// Stats handles GET /api/users/stats
func (h *UserHandler) Stats(c *gin.Context) {
	stats, err := h.useCase.Stats(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
