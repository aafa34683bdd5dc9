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

type AuthHandler struct {
	useCase *usecases.AuthUseCase
	log     logrus.FieldLogger
}

func NewAuthHandler(useCase *usecases.AuthUseCase, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{useCase: useCase, log: log}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup handles POST /api/auth/signup. Field validation already ran in
// middleware.ValidateSignup.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req middleware.SignupRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	session, err := h.useCase.Signup(c.Request.Context(), signupInput(req))
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"token":   session.Token,
		"userId":  session.UserID,
		"role":    session.Role,
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	session, err := h.useCase.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   session.Token,
		"userId":  session.UserID,
		"role":    session.Role,
	})
}

func signupInput(req middleware.SignupRequest) usecases.SignupInput {
	return usecases.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Address:  req.Address,
		Role:     req.Role,
	}
}
