package tenantsvc

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/tenantkit/core"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// Router mounts the tenant management endpoints. Registration is
// unauthenticated; everything else requires a resolved tenant context and
// only reaches the caller's own tenant.
func Router(svc *Service) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", handleRegister(svc))
	r.Get("/{id}", handleGet(svc))
	r.Put("/{id}", handleUpdate(svc))
	r.Delete("/{id}", handleDelete(svc))
	return r
}

func handleRegister(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in RegisterInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			core.Error(w, http.StatusBadRequest, "Invalid request body", "")
			return
		}

		t, err := svc.Register(r.Context(), in)
		if err != nil {
			writeError(w, err)
			return
		}
		core.JSON(w, http.StatusCreated, map[string]any{
			"message": "Tenant registered successfully",
			"tenant":  t,
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

		t, err := svc.Get(r.Context(), tc, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		core.JSON(w, http.StatusOK, t)
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

		t, err := svc.Update(r.Context(), tc, chi.URLParam(r, "id"), in)
		if err != nil {
			writeError(w, err)
			return
		}
		core.JSON(w, http.StatusOK, map[string]any{
			"message": "Tenant updated successfully",
			"tenant":  t,
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
			"message": "Tenant deletion scheduled",
		})
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMissingFields), errors.Is(err, ErrInvalidTier),
		errors.Is(err, ErrInvalidStatus):
		core.Error(w, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, ErrAccessDenied):
		core.Error(w, http.StatusForbidden, "Access to this tenant is denied", "")
	default:
		core.ErrorFrom(w, err)
	}
}
