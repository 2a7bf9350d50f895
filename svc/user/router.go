package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/tenantkit/core"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// Router mounts the user endpoints. The tenant context middleware must run
// before these handlers.
func Router(svc *Service) chi.Router {
	r := chi.NewRouter()
	r.Get("/", handleList(svc))
	r.Post("/", handleCreate(svc))
	r.Get("/{id}", handleGet(svc))
	r.Put("/{id}", handleUpdate(svc))
	r.Delete("/{id}", handleDelete(svc))
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
		f.Role = q.Get("role")
		f.Status = q.Get("status")

		users, err := svc.List(r.Context(), tc, f)
		if err != nil {
			writeError(w, err)
			return
		}
		core.JSON(w, http.StatusOK, map[string]any{
			"users": users,
			"count": len(users),
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

		u, err := svc.Create(r.Context(), tc, in)
		if err != nil {
			writeError(w, err)
			return
		}
		core.JSON(w, http.StatusCreated, map[string]any{
			"message": "User created successfully",
			"user":    u,
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

		u, err := svc.Get(r.Context(), tc, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		core.JSON(w, http.StatusOK, u)
	}
}

func handleUpdate(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc, ok := tenant.FromContext(r.Context())
		if !ok {
			core.ErrorFrom(w, tenant.ErrNoContext)
			return
		}

		var in UpdateInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			core.Error(w, http.StatusBadRequest, "Invalid request body", "")
			return
		}

		u, err := svc.Update(r.Context(), tc, chi.URLParam(r, "id"), in)
		if err != nil {
			writeError(w, err)
			return
		}
		core.JSON(w, http.StatusOK, map[string]any{
			"message": "User updated successfully",
			"user":    u,
		})
	}
}

func handleDelete(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc, ok := tenant.FromContext(r.Context())
		if !ok {
			core.ErrorFrom(w, tenant.ErrNoContext)
			return
		}

		if err := svc.Delete(r.Context(), tc, chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		core.JSON(w, http.StatusOK, map[string]any{
			"message": "User deleted successfully",
			"user_id": chi.URLParam(r, "id"),
		})
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMissingFields), errors.Is(err, ErrNoFields):
		core.Error(w, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, ErrDuplicateEmail):
		core.Error(w, http.StatusConflict, "User with this email already exists", "")
	case errors.Is(err, ErrUserNotFound):
		core.Error(w, http.StatusNotFound, "User not found", "")
	default:
		core.ErrorFrom(w, err)
	}
}
