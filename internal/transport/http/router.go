// Package http exposes the REST surface. Handlers decode requests, resolve
// the tenant from the X-Relative-Id header, call the domain services and map
// domain error codes onto HTTP statuses. No business rule lives here.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	accountsvc "orfin/internal/account/service"
	categorysvc "orfin/internal/category/service"
	"orfin/internal/jwttoken"
	"orfin/internal/platform/middleware"
	profilesvc "orfin/internal/profile/service"
	"orfin/internal/tenant"
	usersvc "orfin/internal/user/service"
	id "orfin/pkg/domain"
	dErrors "orfin/pkg/domain-errors"
)

// relativeHeader carries the active profile ("relative") id on every
// category and account request.
const relativeHeader = "X-Relative-Id"

// accessTokenTTL bounds how long an issued token stays valid.
const accessTokenTTL = 24 * time.Hour

// Handler bundles the services the REST surface fronts.
type Handler struct {
	users      *usersvc.Service
	profiles   *profilesvc.Service
	categories *categorysvc.Service
	accounts   *accountsvc.Service
	tokens     *jwttoken.Service
	resolver   *tenant.Resolver
	logger     *slog.Logger
}

// NewHandler constructs the REST handler.
func NewHandler(
	users *usersvc.Service,
	profiles *profilesvc.Service,
	categories *categorysvc.Service,
	accounts *accountsvc.Service,
	tokens *jwttoken.Service,
	resolver *tenant.Resolver,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		users:      users,
		profiles:   profiles,
		categories: categories,
		accounts:   accounts,
		tokens:     tokens,
		resolver:   resolver,
		logger:     logger,
	}
}

// Router wires the routes. Registration and login are public; everything
// else requires a bearer token.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestMetadata)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/api/users", h.register)
	r.Post("/api/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.tokens, h.logger))

		r.Route("/api/users/me", func(r chi.Router) {
			r.Get("/", h.me)
			r.Put("/", h.updateContact)
			r.Delete("/", h.deactivate)
		})

		r.Route("/api/relatives", func(r chi.Router) {
			r.Get("/", h.listProfiles)
			r.Post("/", h.createProfile)
			r.Get("/{profileID}", h.getProfile)
			r.Put("/{profileID}", h.updateProfile)
			r.Delete("/{profileID}", h.archiveProfile)
			r.Post("/{profileID}/unarchive", h.unarchiveProfile)
		})

		r.Route("/api/categories", func(r chi.Router) {
			r.Get("/", h.listCategories)
			r.Post("/", h.createCategory)
			r.Get("/{categoryID}", h.getCategory)
			r.Put("/{categoryID}", h.updateCategory)
			r.Delete("/{categoryID}", h.archiveCategory)
		})

		r.Route("/api/accounts", func(r chi.Router) {
			r.Get("/", h.listAccounts)
			r.Post("/", h.createAccount)
			r.Get("/{accountID}", h.getAccount)
			r.Put("/{accountID}", h.updateAccount)
			r.Delete("/{accountID}", h.archiveAccount)
		})
	})

	return r
}

// resolveTenant reads the profile header and proves the profile belongs to
// the authenticated user. Category and account writes without the header
// fail before any service runs.
func (h *Handler) resolveTenant(r *http.Request, userID id.UserID) (tenant.Key, error) {
	raw := r.Header.Get(relativeHeader)
	if raw == "" {
		return tenant.Key{}, dErrors.NewField(dErrors.CodeValidation, "profile_id", "profile header missing")
	}
	profileID, err := id.ParseProfileID(raw)
	if err != nil {
		return tenant.Key{}, dErrors.NewField(dErrors.CodeValidation, "profile_id", "profile header is not a valid id")
	}
	return h.resolver.Resolve(r.Context(), userID, profileID)
}

// optionalTenant is resolveTenant for reads, where the header may be
// absent: a nil key means the request spans all of the user's profiles.
func (h *Handler) optionalTenant(r *http.Request, userID id.UserID) (*tenant.Key, error) {
	if r.Header.Get(relativeHeader) == "" {
		return nil, nil
	}
	key, err := h.resolveTenant(r, userID)
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// listFilter reads the shared query params for list endpoints.
func listFilter(r *http.Request) (onlyArchived bool, name string) {
	q := r.URL.Query()
	return q.Get("only_archived") == "true", q.Get("name")
}
