package httpapi

import (
	"net/http"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/auth"
)

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func gated(resolver SessionResolver, roles []auth.Role, fn http.HandlerFunc) http.Handler {
	return RequireSession(resolver, roles, fn)
}

func registerAuthRoutes(mux *http.ServeMux, handler *Handler, resolver SessionResolver) {
	mux.HandleFunc("POST /v1/auth/login", handler.Login)
	mux.HandleFunc("POST /v1/auth/parent-login", handler.ParentLogin)
	mux.HandleFunc("POST /v1/auth/coach-login", handler.CoachLogin)
	mux.Handle("POST /v1/auth/logout", gated(resolver, anyRole, handler.Logout))
	mux.Handle("GET /v1/me", gated(resolver, anyRole, handler.Me))
	mux.Handle("PUT /v1/players/{player}/password", gated(resolver, accountRoles, handler.ChangePassword))
	mux.Handle("PUT /v1/players/{player}/parent-password", gated(resolver, accountRoles, handler.ChangeParentPassword))
}

// Routes every logged in role reaches; ownership is checked per player.
func registerMemberRoutes(mux *http.ServeMux, handler *Handler, resolver SessionResolver) {
	mux.Handle("GET /v1/dates", gated(resolver, anyRole, handler.ListDates))
	mux.Handle("GET /v1/schedule", gated(resolver, anyRole, handler.GetSchedule))
	mux.Handle("GET /v1/attendance/{kind}", gated(resolver, anyRole, handler.AttendanceTable))
	mux.Handle("PUT /v1/attendance/{kind}/{date}/{player}", gated(resolver, anyRole, handler.SetAttendance))
	mux.Handle("POST /v1/attendance/{kind}/{date}/{player}/toggle", gated(resolver, anyRole, handler.ToggleAttendance))
	mux.Handle("GET /v1/feedback/{player}", gated(resolver, anyRole, handler.PlayerFeedback))
	mux.Handle("PUT /v1/feedback/{player}/{date}", gated(resolver, anyRole, handler.SubmitPlayerFeedback))
	mux.Handle("GET /v1/stats/players/{player}", gated(resolver, anyRole, handler.PlayerStats))
	mux.Handle("GET /v1/groups/notice", gated(resolver, memberRoles, handler.GroupNotice))
	mux.Handle("POST /v1/groups/notice/ack", gated(resolver, memberRoles, handler.AcknowledgeGroupNotice))
}

func registerCoachRoutes(mux *http.ServeMux, handler *Handler, resolver SessionResolver) {
	mux.Handle("PUT /v1/fuss/effort/{date}/{player}", gated(resolver, coachRoles, handler.SetEffort))
	mux.Handle("GET /v1/groups", gated(resolver, coachRoles, handler.ListGroups))
	mux.Handle("PUT /v1/groups/{kind}/{player}", gated(resolver, coachRoles, handler.AssignGroup))
	mux.Handle("GET /v1/players", gated(resolver, coachRoles, handler.ListPlayers))
	mux.Handle("GET /v1/sessions", gated(resolver, coachRoles, handler.ListSessions))
	mux.Handle("GET /v1/sessions/{date}/{kind}/{group}", gated(resolver, coachRoles, handler.ReviewSession))
	mux.Handle("PUT /v1/sessions/{date}/{kind}/{group}/feedback", gated(resolver, coachRoles, handler.SubmitCoachFeedback))
	mux.Handle("GET /v1/stats/groups/{kind}", gated(resolver, coachRoles, handler.GroupStats))
	mux.Handle("GET /v1/sync/status", gated(resolver, coachRoles, handler.SyncStatus))
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler, resolver SessionResolver) {
	mux.Handle("POST /v1/players", gated(resolver, adminRoles, handler.AddPlayer))
	mux.Handle("DELETE /v1/players/{player}", gated(resolver, adminRoles, handler.ArchivePlayer))
	mux.Handle("GET /v1/archived-players", gated(resolver, adminRoles, handler.ListArchived))
	mux.Handle("POST /v1/archived-players/{player}/restore", gated(resolver, adminRoles, handler.RestorePlayer))
	mux.Handle("PUT /v1/schedule/{kind}/{group}/{weekday}", gated(resolver, adminRoles, handler.SetSlot))
	mux.Handle("DELETE /v1/schedule/{kind}/{group}/{weekday}", gated(resolver, adminRoles, handler.RemoveSlot))
	mux.Handle("POST /v1/dates", gated(resolver, adminRoles, handler.AddDate))
	mux.Handle("DELETE /v1/dates/{date}", gated(resolver, adminRoles, handler.RemoveDate))
	mux.Handle("POST /v1/sync/refresh", gated(resolver, adminRoles, handler.SyncRefresh))
	mux.Handle("GET /v1/admin/export", gated(resolver, adminRoles, handler.ExportAttendance))
}
