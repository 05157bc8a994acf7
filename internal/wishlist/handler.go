// AngelaMos | 2026
// handler.go

package wishlist

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/storefront-api/internal/catalog"
	"github.com/carterperez-dev/storefront-api/internal/core"
	"github.com/carterperez-dev/storefront-api/internal/middleware"
)

type ToggleRequest struct {
	ProductID string `json:"productId" validate:"required"`
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
	r.Route("/wishlist", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/add", h.Toggle)
		r.Get("/all", h.List)
	})
}

func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := core.DecodeJSON(r, h.validator, &req); err != nil {
		core.JSONError(w, err)
		return
	}

	result, err := h.service.Toggle(r.Context(), middleware.GetPrincipal(r.Context()), req.ProductID)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	if result == Added {
		core.Success(w, http.StatusCreated, map[string]Result{"status": result}, "Product added to wishlist")
		return
	}
	core.Success(w, http.StatusOK, map[string]Result{"status": result}, "Product removed from wishlist")
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context(), middleware.GetPrincipal(r.Context()))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, catalog.ToProductResponseList(products))
}
