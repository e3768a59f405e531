package httpapi

import (
	"net/http"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/auth"
	idgen "github.com/tallink-tennis/fuss-tracker/internal/platform/id"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/logging"
)

// RouterConfig is the outer surface of the API.
type RouterConfig struct {
	SwaggerEnabled     bool
	CORSAllowedOrigins []string
	RequestIDs         idgen.Generator
}

func NewRouter(handler *Handler, resolver SessionResolver, logger *logging.Logger, cfg RouterConfig) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.RequestIDs == nil {
		cfg.RequestIDs = idgen.NewUUIDGenerator()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler, cfg.SwaggerEnabled)
	registerAuthRoutes(mux, handler, resolver)
	registerMemberRoutes(mux, handler, resolver)
	registerCoachRoutes(mux, handler, resolver)
	registerAdminRoutes(mux, handler, resolver)

	return RequestTracing(RequestID(cfg.RequestIDs, RequestLogging(logger, CORS(cfg.CORSAllowedOrigins, recoverPanic(logger, mux)))))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec, "path", r.URL.Path)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

var (
	anyRole      []auth.Role
	memberRoles  = []auth.Role{auth.RolePlayer, auth.RoleParent}
	coachRoles   = []auth.Role{auth.RoleCoach, auth.RoleAdmin}
	adminRoles   = []auth.Role{auth.RoleAdmin}
	accountRoles = []auth.Role{auth.RolePlayer, auth.RoleParent, auth.RoleAdmin}
)
