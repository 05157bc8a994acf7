// AngelaMos | 2026
// handler.go

package order

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/storefront-api/internal/core"
	"github.com/carterperez-dev/storefront-api/internal/middleware"
)

const (
	WebhookPath       = "/orders/stripe/webhook"
	signatureHeader   = "Stripe-Signature"
	maxWebhookPayload = 1 << 16
)

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

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/stripe/webhook", h.Webhook)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)

			r.Get("/all", h.ListOrders)
			r.Get("/{id}", h.GetOrder)
			r.Post("/checkout/cart", h.CheckoutCart)
			r.Post("/checkout/instant", h.CheckoutInstant)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Use(adminOnly)

			r.Get("/admin/all", h.ListAllOrders)
			r.Put("/update-status", h.UpdateStatus)
		})
	})
}

func (h *Handler) CheckoutCart(w http.ResponseWriter, r *http.Request) {
	var req CartCheckoutRequest
	if err := core.DecodeJSON(r, h.validator, &req); err != nil {
		core.JSONError(w, err)
		return
	}

	session, err := h.service.CreateCheckoutSession(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		Source{CartID: req.CartID},
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Success(w, http.StatusOK, session, "Checkout session created")
}

func (h *Handler) CheckoutInstant(w http.ResponseWriter, r *http.Request) {
	var req InstantCheckoutRequest
	if err := core.DecodeJSON(r, h.validator, &req); err != nil {
		core.JSONError(w, err)
		return
	}

	session, err := h.service.CreateCheckoutSession(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		Source{ProductID: req.ProductID},
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Success(w, http.StatusOK, session, "Checkout session created")
}

// Webhook reads the raw body untouched; the signature covers the exact
// bytes the provider sent.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookPayload+1))
	if err != nil {
		core.JSONError(w, core.ValidationError("unreadable payload"))
		return
	}
	if len(payload) > maxWebhookPayload {
		core.JSONError(w, core.ValidationError("payload too large"))
		return
	}

	if err := h.service.HandlePaymentWebhook(r.Context(), r.Header.Get(signatureHeader), payload); err != nil {
		core.JSONError(w, err)
		return
	}

	core.JSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context(), middleware.GetPrincipal(r.Context()))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToOrderResponseList(orders))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOrder(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		chi.URLParam(r, "id"),
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToOrderResponse(o))
}

func (h *Handler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	params := ListParams{
		PageParams: core.ParsePageParams(r),
		Status:     DeliveryStatus(strings.ToLower(r.URL.Query().Get("status"))),
	}

	orders, total, err := h.service.ListAllOrders(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		params,
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Paginated(w, ToOrderResponseList(orders), params.Page, params.PageSize, total)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := core.DecodeJSON(r, h.validator, &req); err != nil {
		core.JSONError(w, err)
		return
	}

	o, err := h.service.UpdateOrderStatus(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		req.OrderID,
		req.Status,
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Success(w, http.StatusOK, ToOrderResponse(o), "Order status updated")
}
