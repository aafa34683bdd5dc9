package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"store-rating-server/validation"
)

// SignupRequest is the body accepted by signup and admin user creation.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Address  string `json:"address"`
	Role     string `json:"role"`
}

// ValidateSignup checks the signup fields in a fixed order and answers 400 with
// the first failure. The body stays readable for the handler through
// ShouldBindBodyWith.
func ValidateSignup() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SignupRequest
		if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		err := validation.ValidateSignup(req.Name, req.Email, req.Password, req.Address)
		var verr *validation.Error
		if errors.As(err, &verr) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": verr.Message})
			return
		}
		c.Next()
	}
}
