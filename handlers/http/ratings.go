package httpHandler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"store-rating-server/handlers"
	"store-rating-server/middleware"
	"store-rating-server/usecases"
)

type RatingHandler struct {
	useCase *usecases.RatingUseCase
	log     logrus.FieldLogger
}

func NewRatingHandler(useCase *usecases.RatingUseCase, log logrus.FieldLogger) *RatingHandler {
	return &RatingHandler{useCase: useCase, log: log}
}

type SubmitRatingRequest struct {
	StoreID string `json:"storeId"`
	Rating  int    `json:"rating"`
}

// SubmitRating handles POST /api/ratings
func (h *RatingHandler) SubmitRating(c *gin.Context) {
	var req SubmitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	principal, _ := middleware.PrincipalFrom(c)

	created, err := h.useCase.Submit(c.Request.Context(), principal.UserID, req.StoreID, req.Rating)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	if created {
		c.JSON(http.StatusCreated, gin.H{"message": "Rating submitted successfully"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rating updated successfully"})
}

// GetUserRating handles GET /api/ratings/store/:storeId/user
func (h *RatingHandler) GetUserRating(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)
	rating, err := h.useCase.GetUserRating(c.Request.Context(), principal.UserID, c.Param("storeId"))
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": rating.ID, "rating": rating.Rating})
}

// GetStoreRatings handles GET /api/ratings/store/:storeId
func (h *RatingHandler) GetStoreRatings(c *gin.Context) {
	ratings, err := h.useCase.ListForStore(c.Request.Context(), c.Param("storeId"))
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, ratings)
}
