package http

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zing-commerce/cart-engine/internal/adapters/handler/http/middleware"
	"github.com/zing-commerce/cart-engine/internal/adapters/upstream"
	"github.com/zing-commerce/cart-engine/internal/core/domain"
	"github.com/zing-commerce/cart-engine/internal/core/events"
	"github.com/zing-commerce/cart-engine/internal/core/services"
)

type CartHandler struct {
	cart        *services.CartService
	hydration   *services.HydrationService
	broadcaster *events.Broadcaster
}

func NewCartHandler(cart *services.CartService, hydration *services.HydrationService, broadcaster *events.Broadcaster) *CartHandler {
	return &CartHandler{
		cart:        cart,
		hydration:   hydration,
		broadcaster: broadcaster,
	}
}

type addItemRequest struct {
	ProductID string  `json:"product_id" binding:"required"`
	Quantity  int     `json:"quantity"`
	ColorID   *string `json:"color_id"`
	SizeID    *string `json:"size_id"`
}

type updateQuantityRequest struct {
	ProductID string  `json:"product_id"`
	ColorID   *string `json:"color_id"`
	SizeID    *string `json:"size_id"`
	ItemID    *string `json:"item_id"`
	Quantity  int     `json:"quantity" binding:"required"`
}

type removeItemRequest struct {
	ProductID string  `json:"product_id"`
	ColorID   *string `json:"color_id"`
	SizeID    *string `json:"size_id"`
	ItemID    *string `json:"item_id"`
}

func (h *CartHandler) RegisterRoutes(router *gin.RouterGroup) {
	cart := router.Group("/cart")
	{
		cart.GET("", h.List)
		cart.GET("/hydrated", h.ListHydrated)
		cart.GET("/count", h.Count)
		cart.GET("/events", h.Events)
		cart.POST("/items", h.Add)
		cart.PUT("/items", h.UpdateQuantity)
		cart.DELETE("/items", h.Remove)
	}
}

func (h *CartHandler) Add(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no actor resolved"})
		return
	}

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	// Quick-add actions default to one unit.
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	input := services.AddInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		ColorID:   req.ColorID,
		SizeID:    req.SizeID,
	}

	if err := h.cart.Add(c.Request.Context(), actor, input); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusCreated)
}

func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no actor resolved"})
		return
	}

	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	identity := domain.Identity{
		ProductID:    req.ProductID,
		ColorID:      req.ColorID,
		SizeID:       req.SizeID,
		ServerItemID: req.ItemID,
	}

	if err := h.cart.UpdateQuantity(c.Request.Context(), actor, identity, req.Quantity); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *CartHandler) Remove(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no actor resolved"})
		return
	}

	var req removeItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	identity := domain.Identity{
		ProductID:    req.ProductID,
		ColorID:      req.ColorID,
		SizeID:       req.SizeID,
		ServerItemID: req.ItemID,
	}

	if err := h.cart.Remove(c.Request.Context(), actor, identity); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *CartHandler) List(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no actor resolved"})
		return
	}

	entries, err := h.cart.List(c.Request.Context(), actor)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": entries})
}

func (h *CartHandler) ListHydrated(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no actor resolved"})
		return
	}

	entries, err := h.cart.List(c.Request.Context(), actor)
	if err != nil {
		handleError(c, err)
		return
	}

	hydrated := h.hydration.HydrateAll(c.Request.Context(), entries)

	c.JSON(http.StatusOK, gin.H{"items": hydrated})
}

func (h *CartHandler) Count(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no actor resolved"})
		return
	}

	count, err := h.cart.Count(c.Request.Context(), actor)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// Events streams cart-changed signals for this actor's cart as SSE, so a
// header badge re-derives its count without polling. Events carry no
// payload; the client re-queries /cart/count on each one.
func (h *CartHandler) Events(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no actor resolved"})
		return
	}

	ch, cancel := h.broadcaster.Subscribe()
	defer cancel()

	scope := actor.Scope()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, open := <-ch:
			if !open {
				return false
			}
			if event.Scope != scope {
				return true
			}
			c.SSEvent("cart-changed", gin.H{})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func handleError(c *gin.Context, err error) {
	var apiErr *upstream.APIError

	switch {
	case errors.Is(err, domain.ErrQuantityTooLow) || errors.Is(err, domain.ErrProductIDEmpty):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrVariantRequired):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "variant_required",
			"message": "this product needs a color/size selection",
		})

	case errors.Is(err, domain.ErrMissingServerItemID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "item_id is required for authenticated cart items"})

	case errors.Is(err, domain.ErrEntryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "cart entry not found"})

	case errors.Is(err, domain.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})

	case errors.As(err, &apiErr):
		c.JSON(apiErr.StatusCode, gin.H{"error": apiErr.Message})

	default:
		log.Printf("[ERROR] Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)

		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
