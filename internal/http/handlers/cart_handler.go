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

type CartHandler struct {
	svc       service.CartService
	jwtSecret string
}

func NewCartHandler(svc service.CartService, jwtSecret string) *CartHandler {
	return &CartHandler{svc: svc, jwtSecret: jwtSecret}
}

func (h *CartHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(mw.RequireJWT(h.jwtSecret))

	r.Get("/", h.get)
	r.Post("/add", h.add)
	r.Put("/update/{itemId}", h.update)
	r.Delete("/remove/{itemId}", h.remove)
	r.Delete("/clear", h.clear)
	r.Post("/checkout", h.checkout)

	return r
}

func itemIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "itemId"), 10, 64)
	return id, err == nil && id > 0
}

func (h *CartHandler) get(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)

	cart, err := h.svc.GetCart(r.Context(), claims.Sub)
	if err != nil {
		logger.ErrorContext(r.Context(), "cart load failed", "error", err)
		response.InternalError(w, "failed to load cart")
		return
	}

	response.WriteJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)

	var in struct {
		ProductID int64 `json:"productId"`
		Quantity  int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.ProductID <= 0 {
		response.BadRequest(w, "productId is required")
		return
	}

	cart, err := h.svc.AddItem(r.Context(), claims.Sub, in.ProductID, in.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			response.NotFound(w, "product not found")
		case errors.Is(err, domain.ErrSelfPurchase):
			response.WriteError(w, http.StatusBadRequest, err.Error(), response.CodeSelfPurchase)
		default:
			logger.ErrorContext(r.Context(), "cart add failed", "error", err)
			response.InternalError(w, "failed to add item")
		}
		return
	}

	response.WriteJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) update(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)

	itemID, ok := itemIDParam(r)
	if !ok {
		response.BadRequest(w, "invalid cart item id")
		return
	}

	var in struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Quantity < 1 {
		response.BadRequest(w, "quantity must be at least 1")
		return
	}

	cart, err := h.svc.UpdateItem(r.Context(), claims.Sub, itemID, in.Quantity)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(w, "cart item not found")
			return
		}
		logger.ErrorContext(r.Context(), "cart update failed", "error", err)
		response.InternalError(w, "failed to update item")
		return
	}

	response.WriteJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) remove(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)

	itemID, ok := itemIDParam(r)
	if !ok {
		response.BadRequest(w, "invalid cart item id")
		return
	}

	cart, err := h.svc.RemoveItem(r.Context(), claims.Sub, itemID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(w, "cart item not found")
			return
		}
		logger.ErrorContext(r.Context(), "cart remove failed", "error", err)
		response.InternalError(w, "failed to remove item")
		return
	}

	response.WriteJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)

	if err := h.svc.Clear(r.Context(), claims.Sub); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(w, "cart not found")
			return
		}
		logger.ErrorContext(r.Context(), "cart clear failed", "error", err)
		response.InternalError(w, "failed to clear cart")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"message": "cart cleared"})
}

func (h *CartHandler) checkout(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)

	var req domain.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	order, err := h.svc.Checkout(r.Context(), claims.Sub, &req)
	if err != nil {
		var unavailable *domain.ItemsUnavailableError
		switch {
		case errors.Is(err, domain.ErrEmptyCart):
			response.WriteError(w, http.StatusBadRequest, err.Error(), response.CodeEmptyCart)
		case errors.As(err, &unavailable):
			response.WriteError(w, http.StatusBadRequest, unavailable.Error(), response.CodeItemUnavailable)
		default:
			logger.ErrorContext(r.Context(), "checkout failed", "error", err)
			response.InternalError(w, "checkout failed")
		}
		return
	}

	response.WriteJSON(w, http.StatusCreated, order)
}
