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

type OrderHandler struct {
	svc       service.OrderService
	jwtSecret string
}

func NewOrderHandler(svc service.OrderService, jwtSecret string) *OrderHandler {
	return &OrderHandler{svc: svc, jwtSecret: jwtSecret}
}

func (h *OrderHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(mw.RequireJWT(h.jwtSecret))

	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/stats", h.stats)
	r.Get("/seller/orders", h.sellerOrders)
	r.Get("/{id}", h.get)
	r.Put("/{id}/status", h.updateStatus)

	return r
}

func pageParams(r *http.Request) (status string, page, limit int) {
	q := r.URL.Query()
	status = q.Get("status")
	page, _ = strconv.Atoi(q.Get("page"))
	limit, _ = strconv.Atoi(q.Get("limit"))
	return status, page, limit
}

func (h *OrderHandler) list(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)
	status, page, limit := pageParams(r)

	if status != "" {
		if _, ok := domain.ParseOrderStatus(status); !ok {
			response.BadRequest(w, "invalid order status: "+status)
			return
		}
	}

	orders, err := h.svc.ListMine(r.Context(), claims.Sub, status, page, limit)
	if err != nil {
		logger.ErrorContext(r.Context(), "order list failed", "error", err)
		response.InternalError(w, "failed to load orders")
		return
	}

	response.WriteJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) get(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)

	id, ok := idParam(r)
	if !ok {
		response.BadRequest(w, "invalid order id")
		return
	}

	order, err := h.svc.Get(r.Context(), claims.Sub, id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			response.NotFound(w, "order not found")
		case errors.Is(err, domain.ErrForbidden):
			response.Forbidden(w, "not your order")
		default:
			logger.ErrorContext(r.Context(), "order lookup failed", "error", err)
			response.InternalError(w, "failed to load order")
		}
		return
	}

	response.WriteJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) stats(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)

	stats, err := h.svc.Stats(r.Context(), claims.Sub)
	if err != nil {
		logger.ErrorContext(r.Context(), "order stats failed", "error", err)
		response.InternalError(w, "failed to load stats")
		return
	}

	response.WriteJSON(w, http.StatusOK, stats)
}

func (h *OrderHandler) sellerOrders(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)
	status, page, limit := pageParams(r)

	if status != "" {
		if _, ok := domain.ParseOrderStatus(status); !ok {
			response.BadRequest(w, "invalid order status: "+status)
			return
		}
	}

	orders, err := h.svc.SellerOrders(r.Context(), claims.Sub, status, page, limit)
	if err != nil {
		logger.ErrorContext(r.Context(), "seller order list failed", "error", err)
		response.InternalError(w, "failed to load orders")
		return
	}

	response.WriteJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) create(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)

	var req domain.DirectOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	order, err := h.svc.CreateDirect(r.Context(), claims.Sub, &req)
	if err != nil {
		var unavailable *domain.ItemsUnavailableError
		switch {
		case errors.Is(err, domain.ErrNotFound):
			response.NotFound(w, "product not found")
		case errors.Is(err, domain.ErrSelfPurchase):
			response.WriteError(w, http.StatusBadRequest, "cannot order your own product", response.CodeSelfPurchase)
		case errors.As(err, &unavailable):
			response.WriteError(w, http.StatusBadRequest, unavailable.Error(), response.CodeItemUnavailable)
		default:
			logger.ErrorContext(r.Context(), "order create failed", "error", err)
			response.InternalError(w, "failed to create order")
		}
		return
	}

	response.WriteJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)

	id, ok := idParam(r)
	if !ok {
		response.BadRequest(w, "invalid order id")
		return
	}

	var in struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Status == "" {
		response.BadRequest(w, "status is required")
		return
	}
	if _, ok := domain.ParseOrderStatus(in.Status); !ok {
		response.BadRequest(w, "invalid order status: "+in.Status)
		return
	}

	order, err := h.svc.UpdateStatus(r.Context(), claims.Sub, id, in.Status)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			response.NotFound(w, "order not found")
		case errors.Is(err, domain.ErrForbidden):
			response.Forbidden(w, "only sellers of items in this order can update it")
		default:
			response.BadRequest(w, err.Error())
		}
		return
	}

	response.WriteJSON(w, http.StatusOK, order)
}
