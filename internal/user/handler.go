// AngelaMos | 2026
// handler.go

package user

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

// RegisterRoutes mounts profile and admin user endpoints on a router already
// scoped to the users prefix.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Put("/update-profile", h.UpdateProfile)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.ListUsers)
		r.Get("/{userID}", h.GetUser)
		r.Put("/{userID}/role", h.UpdateUserRole)
	})
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if err := media.ParseForm(r); err != nil {
		core.JSONError(w, err)
		return
	}

	req := UpdateProfileRequest{Name: r.FormValue("name")}
	if err := h.validator.Struct(req); err != nil {
		core.JSONError(w, core.FormatValidationError(err))
		return
	}

	user, err := h.service.UpdateProfile(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		req,
		media.FormFile(r, "avatar"),
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Success(w, http.StatusOK, ToUserResponse(user), "Profile updated")
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := ListUsersParams{
		PageParams: core.ParsePageParams(r),
		Search:     r.URL.Query().Get("search"),
		Role:       r.URL.Query().Get("role"),
	}

	users, total, err := h.service.ListUsers(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		params,
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Paginated(
		w,
		ToUserResponseList(users),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		chi.URLParam(r, "userID"),
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRoleRequest
	if err := core.DecodeJSON(r, h.validator, &req); err != nil {
		core.JSONError(w, err)
		return
	}

	user, err := h.service.UpdateUserRole(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		chi.URLParam(r, "userID"),
		req.Role,
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Success(w, http.StatusOK, ToUserResponse(user), "Role updated")
}
