package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/domain"
	mw "github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/http/middleware"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/http/response"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/service"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/pkg/logger"
)

type ProductHandler struct {
	svc       service.CatalogService
	jwtSecret string
}

func NewProductHandler(svc service.CatalogService, jwtSecret string) *ProductHandler {
	return &ProductHandler{svc: svc, jwtSecret: jwtSecret}
}

func (h *ProductHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.list)
	r.Get("/{id}", h.get)

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireJWT(h.jwtSecret))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Get("/user/my-listings", h.myListings)
	})

	return r
}

func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *ProductHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.ProductFilter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
	}
	if sort, ok := domain.ParseSortMode(q.Get("sort")); ok {
		filter.Sort = sort
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	if filter.Category != "" {
		if _, ok := domain.ParseCategory(filter.Category); !ok {
			response.BadRequest(w, "invalid category: "+filter.Category)
			return
		}
	}

	page, err := h.svc.List(r.Context(), filter)
	if err != nil {
		logger.ErrorContext(r.Context(), "product list failed", "error", err)
		response.InternalError(w, "failed to load products")
		return
	}

	response.WriteJSON(w, http.StatusOK, page)
}

func (h *ProductHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		response.BadRequest(w, "invalid product id")
		return
	}

	product, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(w, "product not found")
			return
		}
		logger.ErrorContext(r.Context(), "product lookup failed", "error", err)
		response.InternalError(w, "failed to load product")
		return
	}

	response.WriteJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) create(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)

	var req domain.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	product, err := h.svc.Create(r.Context(), claims.Sub, &req)
	if err != nil {
		logger.ErrorContext(r.Context(), "product create failed", "error", err)
		response.InternalError(w, "failed to create product")
		return
	}

	response.WriteJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) update(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)

	id, ok := idParam(r)
	if !ok {
		response.BadRequest(w, "invalid product id")
		return
	}

	var req domain.UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	product, err := h.svc.Update(r.Context(), claims.Sub, id, &req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			response.NotFound(w, "product not found")
		case errors.Is(err, domain.ErrForbidden):
			response.Forbidden(w, "you can only edit your own listings")
		default:
			logger.ErrorContext(r.Context(), "product update failed", "error", err)
			response.InternalError(w, "failed to update product")
		}
		return
	}

	response.WriteJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) delete(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)

	id, ok := idParam(r)
	if !ok {
		response.BadRequest(w, "invalid product id")
		return
	}

	if err := h.svc.Delete(r.Context(), claims.Sub, id); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			response.NotFound(w, "product not found")
		case errors.Is(err, domain.ErrForbidden):
			response.Forbidden(w, "you can only delete your own listings")
		default:
			logger.ErrorContext(r.Context(), "product delete failed", "error", err)
			response.InternalError(w, "failed to delete product")
		}
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"message": "product removed"})
}

func (h *ProductHandler) myListings(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)

	products, err := h.svc.MyListings(r.Context(), claims.Sub)
	if err != nil {
		logger.ErrorContext(r.Context(), "my listings failed", "error", err)
		response.InternalError(w, "failed to load listings")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{"products": products})
}
