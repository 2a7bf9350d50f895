package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/tenantkit/core"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// Router mounts the order endpoints. The tenant context middleware must run
// before these handlers.
func Router(svc *Service) chi.Router {
	r := chi.NewRouter()
	r.Get("/", handleList(svc))
	r.Post("/", handleCreate(svc))
	r.Get("/{id}", handleGet(svc))
	r.Put("/{id}/status", handleUpdateStatus(svc))
	r.Delete("/{id}", handleCancel(svc))
	return r
}

func handleList(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc, ok := tenant.FromContext(r.Context())
		if !ok {
			core.ErrorFrom(w, tenant.ErrNoContext)
			return
		}

		f := Filter{Limit: 20}
		q := r.URL.Query()
		if v := q.Get("limit"); v != "" {
			if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
				f.Limit = limit
			}
		}
		if v := q.Get("offset"); v != "" {
			if offset, err := strconv.Atoi(v); err == nil && offset > 0 {
				f.Offset = offset
			}
		}
		if v := q.Get("status"); v != "" {
			f.Status = Status(v)
		}
		if v := q.Get("from_date"); v != "" {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				f.FromDate = t
			}
		}
		if v := q.Get("to_date"); v != "" {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				f.ToDate = t
			}
		}

		orders, err := svc.List(r.Context(), tc, f)
		if err != nil {
			writeError(w, err)
			return
		}
		core.JSON(w, http.StatusOK, map[string]any{
			"orders": orders,
			"count":  len(orders),
		})
	}
}

func handleCreate(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc, ok := tenant.FromContext(r.Context())
		if !ok {
			core.ErrorFrom(w, tenant.ErrNoContext)
			return
		}

		var in CreateInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			core.Error(w, http.StatusBadRequest, "Invalid request body", "")
			return
		}

		o, err := svc.Create(r.Context(), tc, in)
		if err != nil {
			writeError(w, err)
			return
		}
		core.JSON(w, http.StatusCreated, map[string]any{
			"message": "Order created successfully",
			"order":   o,
		})
	}
}

func handleGet(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc, ok := tenant.FromContext(r.Context())
		if !ok {
			core.ErrorFrom(w, tenant.ErrNoContext)
			return
		}

		o, err := svc.Get(r.Context(), tc, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		core.JSON(w, http.StatusOK, o)
	}
}

func handleUpdateStatus(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc, ok := tenant.FromContext(r.Context())
		if !ok {
			core.ErrorFrom(w, tenant.ErrNoContext)
			return
		}

		var body struct {
			Status Status `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Status == "" {
			core.Error(w, http.StatusBadRequest, "status is required", "")
			return
		}

		o, err := svc.UpdateStatus(r.Context(), tc, chi.URLParam(r, "id"), body.Status)
		if err != nil {
			writeError(w, err)
			return
		}
		core.JSON(w, http.StatusOK, map[string]any{
			"message": "Order updated successfully",
			"order":   o,
		})
	}
}

func handleCancel(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc, ok := tenant.FromContext(r.Context())
		if !ok {
			core.ErrorFrom(w, tenant.ErrNoContext)
			return
		}

		o, err := svc.Cancel(r.Context(), tc, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		core.JSON(w, http.StatusOK, map[string]any{
			"message": "Order cancelled",
			"order":   o,
		})
	}
}

func writeError(w http.ResponseWriter, err error) {
	var invalid *InvalidTransitionError
	switch {
	case errors.Is(err, ErrMissingCustomer), errors.Is(err, ErrNoItems):
		core.Error(w, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, ErrOrderNotFound):
		core.Error(w, http.StatusNotFound, "Order not found", "")
	case errors.As(err, &invalid):
		core.Error(w, http.StatusBadRequest,
			"Cannot transition from "+string(invalid.From)+" to "+string(invalid.To), "")
	case errors.Is(err, ErrConflictingTransition):
		core.Error(w, http.StatusConflict,
			"Order was modified by a concurrent request", "re-read the order and retry")
	default:
		core.ErrorFrom(w, err)
	}
}
