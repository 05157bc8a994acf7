// AngelaMos | 2026
// handler.go

package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/storefront-api/internal/core"
	"github.com/carterperez-dev/storefront-api/internal/middleware"
)

type AddItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  *int   `json:"quantity"  validate:"required"`
}

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router, authenticator func(http.Handler) http.Handler) {
	r.Route("/cart", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/all", h.GetCart)
		r.Post("/add", h.AddItem)
		r.Delete("/items/{productID}", h.RemoveItem)
		r.Delete("/", h.Clear)
	})
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetCartSummary(r.Context(), middleware.GetPrincipal(r.Context()))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	if summary.Empty {
		core.Success(w, http.StatusOK, summary, summary.Message)
		return
	}
	core.Success(w, http.StatusOK, summary, "Cart items fetched successfully")
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := core.DecodeJSON(r, h.validator, &req); err != nil {
		core.JSONError(w, err)
		return
	}

	p := middleware.GetPrincipal(r.Context())
	if _, err := h.service.AddOrUpdateItem(r.Context(), p, req.ProductID, *req.Quantity); err != nil {
		core.JSONError(w, err)
		return
	}

	summary, err := h.service.GetCartSummary(r.Context(), p)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Success(w, http.StatusOK, summary, "Cart updated")
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	if _, err := h.service.RemoveItem(r.Context(), p, chi.URLParam(r, "productID")); err != nil {
		core.JSONError(w, err)
		return
	}

	summary, err := h.service.GetCartSummary(r.Context(), p)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Success(w, http.StatusOK, summary, "Item removed")
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context(), middleware.GetPrincipal(r.Context())); err != nil {
		core.JSONError(w, err)
		return
	}

	core.Message(w, http.StatusOK, "Cart cleared")
}
