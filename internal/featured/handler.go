// AngelaMos | 2026
// handler.go

package featured

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/storefront-api/internal/core"
	"github.com/carterperez-dev/storefront-api/internal/media"
	"github.com/carterperez-dev/storefront-api/internal/middleware"
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
	r.Route("/featured-products", func(r chi.Router) {
		r.Get("/all", h.List)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Use(adminOnly)

			r.Post("/add", h.Create)
			r.Put("/update/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToResponseList(items))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	f, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToResponse(f))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parse(w, r)
	if !ok {
		return
	}

	f, err := h.service.Create(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		req,
		media.FormFile(r, "banner"),
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Success(w, http.StatusCreated, ToResponse(f), "Featured product created")
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parse(w, r)
	if !ok {
		return
	}

	f, err := h.service.Update(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		chi.URLParam(r, "id"),
		req,
		media.FormFile(r, "banner"),
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Success(w, http.StatusOK, ToResponse(f), "Featured product updated")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		chi.URLParam(r, "id"),
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Message(w, http.StatusOK, "Featured product deleted")
}

func (h *Handler) parse(w http.ResponseWriter, r *http.Request) (Request, bool) {
	if err := media.ParseForm(r); err != nil {
		core.JSONError(w, err)
		return Request{}, false
	}

	req := Request{
		Title:     formValue(r, "title"),
		Link:      formValue(r, "link"),
		LinkTitle: formValue(r, "link_title"),
	}
	if err := h.validator.Struct(req); err != nil {
		core.JSONError(w, core.FormatValidationError(err))
		return Request{}, false
	}

	return req, true
}

func formValue(r *http.Request, field string) *string {
	if _, ok := r.Form[field]; !ok {
		return nil
	}
	v := r.FormValue(field)
	return &v
}
