package handler

import (
	"net/http"

	"github.com/yourorg/greenthumb/internal/security/middleware"
)

// Handlers groups every HTTP handler the API serves
type Handlers struct {
	Health    *HealthHandler
	Auth      *AuthHandler
	Plants    *PlantHandler
	Schedules *ScheduleHandler
	Tips      *TipHandler
	Forum     *ForumHandler
	Layouts   *LayoutHandler

	// CredentialLimit wraps login and register; nil leaves them unwrapped.
	CredentialLimit func(http.Handler) http.Handler
}

// RegisterRoutes mounts the API on mux. Everything except the health
// endpoints, the auth entry points and forum reads requires a signed-in user.
func RegisterRoutes(mux *http.ServeMux, h Handlers) {
	protected := func(fn http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(fn)
	}

	mux.HandleFunc("GET /{$}", h.Health.Welcome)
	mux.HandleFunc("GET /healthz", h.Health.Health)
	mux.HandleFunc("GET /readyz", h.Health.Ready)

	credentials := func(fn http.HandlerFunc) http.Handler {
		if h.CredentialLimit == nil {
			return fn
		}
		return h.CredentialLimit(fn)
	}

	mux.Handle("POST /api/register", credentials(h.Auth.Register))
	mux.Handle("POST /api/login", credentials(h.Auth.Login))
	mux.HandleFunc("POST /api/refresh", h.Auth.Refresh)
	mux.HandleFunc("POST /api/logout", h.Auth.Logout)
	mux.Handle("POST /api/change-password", protected(h.Auth.ChangePassword))

	mux.Handle("POST /api/plants", protected(h.Plants.Create))
	mux.Handle("GET /api/plants", protected(h.Plants.List))
	mux.Handle("GET /api/plants/{id}", protected(h.Plants.Get))
	mux.Handle("PATCH /api/plants/{id}", protected(h.Plants.Update))
	mux.Handle("DELETE /api/plants/{id}", protected(h.Plants.Delete))
	mux.Handle("GET /api/plants/{id}/schedules", protected(h.Plants.Schedules))

	mux.Handle("POST /api/care_schedules", protected(h.Schedules.Create))
	mux.Handle("GET /api/care_schedules", protected(h.Schedules.List))
	mux.Handle("GET /api/care_schedules/due", protected(h.Schedules.Due))
	mux.Handle("PATCH /api/care_schedules/{id}", protected(h.Schedules.Update))
	mux.Handle("DELETE /api/care_schedules/{id}", protected(h.Schedules.Delete))

	mux.Handle("POST /api/tips", protected(h.Tips.Create))
	mux.Handle("GET /api/tips", protected(h.Tips.List))
	mux.Handle("GET /api/tips/{id}", protected(h.Tips.Get))
	mux.Handle("PATCH /api/tips/{id}", protected(h.Tips.Update))
	mux.Handle("DELETE /api/tips/{id}", protected(h.Tips.Delete))

	mux.HandleFunc("GET /api/forum", h.Forum.ListPosts)
	mux.HandleFunc("GET /api/forum/{id}", h.Forum.GetPost)
	mux.Handle("POST /api/forum", protected(h.Forum.CreatePost))
	mux.Handle("PATCH /api/forum/{id}", protected(h.Forum.UpdatePost))
	mux.Handle("DELETE /api/forum/{id}", protected(h.Forum.DeletePost))
	mux.Handle("GET /api/forum/{id}/comments", protected(h.Forum.ListComments))
	mux.Handle("POST /api/forum/{id}/comments", protected(h.Forum.AddComment))
	mux.Handle("PATCH /api/comments/{id}", protected(h.Forum.UpdateComment))
	mux.Handle("DELETE /api/comments/{id}", protected(h.Forum.DeleteComment))

	mux.Handle("POST /api/layouts", protected(h.Layouts.Create))
	mux.Handle("GET /api/layouts", protected(h.Layouts.List))
	mux.Handle("GET /api/layouts/{id}", protected(h.Layouts.Get))
	mux.Handle("PATCH /api/layouts/{id}", protected(h.Layouts.Update))
	mux.Handle("DELETE /api/layouts/{id}", protected(h.Layouts.Delete))
}
