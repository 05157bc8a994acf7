// AngelaMos | 2026
// handler.go

package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

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
	r.Route("/products", func(r chi.Router) {
		r.Get("/all", h.ListProducts)
		r.Get("/categories", h.Categories)
		r.Get("/category/{category}", h.ListByCategory)
		r.Get("/{id}", h.GetProduct)
		r.Get("/{id}/reviews", h.ListReviews)

		r.With(authenticator).Post("/add-review", h.AddReview)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Use(adminOnly)

			r.Post("/add-product", h.CreateProduct)
			r.Put("/update/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
		})
	})
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	params := ListParams{
		PageParams: core.ParsePageParams(r),
		Category:   Category(strings.ToLower(r.URL.Query().Get("category"))),
		Search:     r.URL.Query().Get("search"),
	}

	products, total, err := h.service.ListProducts(r.Context(), params)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Paginated(w, ToProductResponseList(products), params.Page, params.PageSize, total)
}

func (h *Handler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	page := core.ParsePageParams(r)

	products, total, err := h.service.ListByCategory(
		r.Context(),
		chi.URLParam(r, "category"),
		page,
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Paginated(w, ToProductResponseList(products), page.Page, page.PageSize, total)
}

func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, map[string]any{
		"categories": categories,
		"available":  Categories,
	})
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToProductResponse(product))
}

func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.ListReviews(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToReviewResponseList(reviews))
}

func (h *Handler) AddReview(w http.ResponseWriter, r *http.Request) {
	var req AddReviewRequest
	if err := core.DecodeJSON(r, h.validator, &req); err != nil {
		core.JSONError(w, err)
		return
	}

	resp, err := h.service.AddReview(r.Context(), middleware.GetPrincipal(r.Context()), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Success(w, http.StatusOK, resp, "Review saved")
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	if err := media.ParseForm(r); err != nil {
		core.JSONError(w, err)
		return
	}

	req, err := parseCreateForm(r)
	if err != nil {
		core.JSONError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		core.JSONError(w, core.FormatValidationError(err))
		return
	}

	product, err := h.service.CreateProduct(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		req,
		formFiles(r),
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Success(w, http.StatusCreated, ToProductResponse(product), "Product created")
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	if err := media.ParseForm(r); err != nil {
		core.JSONError(w, err)
		return
	}

	req, err := parseUpdateForm(r)
	if err != nil {
		core.JSONError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		core.JSONError(w, core.FormatValidationError(err))
		return
	}

	product, err := h.service.UpdateProduct(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		chi.URLParam(r, "id"),
		req,
		formFiles(r),
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Success(w, http.StatusOK, ToProductResponse(product), "Product updated")
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteProduct(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		chi.URLParam(r, "id"),
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Message(w, http.StatusOK, "Product deleted")
}

func formFiles(r *http.Request) Files {
	return Files{
		Thumbnail: media.FormFile(r, "thumbnail"),
		Images:    media.FormFiles(r, "images"),
	}
}

func parseCreateForm(r *http.Request) (CreateProductRequest, error) {
	req := CreateProductRequest{
		Title:        r.FormValue("title"),
		Description:  r.FormValue("description"),
		BulletPoints: formList(r, "bullet_points"),
		Category:     r.FormValue("category"),
	}

	var err error
	if req.PriceBase, err = formDecimal(r, "price_base"); err != nil {
		return req, err
	}
	if _, ok := r.Form["price_discounted"]; ok {
		if req.PriceDiscounted, err = formDecimal(r, "price_discounted"); err != nil {
			return req, err
		}
	}
	if req.Quantity, err = formInt(r, "quantity"); err != nil {
		return req, err
	}

	return req, nil
}

func parseUpdateForm(r *http.Request) (UpdateProductRequest, error) {
	var req UpdateProductRequest

	req.Title = formOptional(r, "title")
	req.Description = formOptional(r, "description")
	req.Category = formOptional(r, "category")
	if _, ok := r.Form["bullet_points"]; ok {
		req.BulletPoints = formList(r, "bullet_points")
		if req.BulletPoints == nil {
			req.BulletPoints = []string{}
		}
	}

	for field, dst := range map[string]**decimal.Decimal{
		"price_base":       &req.PriceBase,
		"price_discounted": &req.PriceDiscounted,
	} {
		if _, ok := r.Form[field]; !ok {
			continue
		}
		d, err := formDecimal(r, field)
		if err != nil {
			return req, err
		}
		*dst = &d
	}

	if _, ok := r.Form["quantity"]; ok {
		q, err := formInt(r, "quantity")
		if err != nil {
			return req, err
		}
		req.Quantity = &q
	}

	return req, nil
}

func formOptional(r *http.Request, field string) *string {
	if _, ok := r.Form[field]; !ok {
		return nil
	}
	v := r.FormValue(field)
	return &v
}

// formList accepts either repeated fields or a single JSON array.
func formList(r *http.Request, field string) []string {
	values := r.Form[field]
	if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		var list []string
		if err := json.Unmarshal([]byte(values[0]), &list); err == nil {
			return list
		}
	}

	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func formDecimal(r *http.Request, field string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(r.FormValue(field)))
	if err != nil {
		return decimal.Zero, core.ValidationError(field + " must be a number")
	}
	return d.Round(2), nil
}

func formInt(r *http.Request, field string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(r.FormValue(field)))
	if err != nil {
		return 0, core.ValidationError(field + " must be an integer")
	}
	return n, nil
}
