package httpHandler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"store-rating-server/handlers"
	"store-rating-server/middleware"
	"store-rating-server/usecases"
)

type StoreHandler struct {
	useCase *usecases.StoreUseCase
	log     logrus.FieldLogger
}

func NewStoreHandler(useCase *usecases.StoreUseCase, log logrus.FieldLogger) *StoreHandler {
	return &StoreHandler{useCase: useCase, log: log}
}

type CreateStoreRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
	OwnerID string `json:"ownerId"`
}

// CreateStore handles POST /api/stores
func (h *StoreHandler) CreateStore(c *gin.Context) {
	var req CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	store, err := h.useCase.Create(c.Request.Context(), usecases.CreateStoreInput{
		Name:    req.Name,
		Address: req.Address,
		Email:   req.Email,
		OwnerID: req.OwnerID,
	})
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Store created successfully",
		"store": gin.H{
			"id":      store.ID,
			"name":    store.Name,
			"address": store.Address,
			"email":   store.Email,
		},
	})
}

// ListStores handles GET /api/stores?search=&sortBy=
func (h *StoreHandler) ListStores(c *gin.Context) {
	stores, err := h.useCase.List(c.Request.Context(), c.Query("search"), c.Query("sortBy"))
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stores)
}

// GetStore handles GET /api/stores/:id
func (h *StoreHandler) GetStore(c *gin.Context) {
	store, err := h.useCase.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, store)
}

// OwnerDashboard handles GET /api/stores/owner/dashboard
func (h *StoreHandler) OwnerDashboard(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)
	stores, err := h.useCase.OwnerDashboard(c.Request.Context(), principal.UserID)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stores)
}
