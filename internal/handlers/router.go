// internal/handlers/router.go
package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"microblog/internal/auth"
	"microblog/internal/handlers/posts"
	"microblog/internal/handlers/social"
	"microblog/internal/handlers/users"
	"microblog/internal/middleware"
	"microblog/internal/repo"
)

// RegisterRoutes mounts the auth, post, user and search routes.
func RegisterRoutes(mux *chi.Mux, r repo.Repo, tokens *auth.Tokens, refreshTTL time.Duration) {
	p := posts.New(r)
	s := social.New(r)
	u := users.New(r)

	requireAuth := middleware.RequireAuth(r, tokens)

	// Auth routes; token issuance is public, the rest needs a bearer token.
	mux.Route("/auth", func(sr chi.Router) {
		sr.Post("/signup", auth.SignupHandler(r, tokens, refreshTTL))
		sr.Post("/login", auth.LoginHandler(r, tokens, refreshTTL))
		sr.Post("/refresh", auth.RefreshHandler(r, tokens, refreshTTL))
		sr.Post("/logout", auth.LogoutHandler(r))

		sr.Group(func(gr chi.Router) {
			gr.Use(requireAuth)
			gr.Get("/me", auth.MeHandler())
			gr.Put("/profile", auth.UpdateProfileHandler(r))
			gr.Get("/mfa/totp/setup", auth.TOTPSetupBeginHandler(r))
			gr.Post("/mfa/totp/verify", auth.TOTPSetupVerifyHandler(r))
		})
	})

	mux.Route("/posts", func(sr chi.Router) {
		// Apply auth to the whole group ONCE
		sr.Use(requireAuth)

		sr.Get("/", p.List)
		sr.Post("/", p.Create)
		sr.Get("/{id}", p.Get)
		sr.Delete("/{id}", p.Delete)

		sr.Post("/{id}/like", s.Like)
		sr.Delete("/{id}/like", s.Unlike)
		sr.Get("/{id}/comments", s.ListComments)
		sr.Post("/{id}/comments", s.AddComment)
		sr.Delete("/{id}/comments/{commentID}", s.DeleteComment)
	})

	mux.Route("/users", func(sr chi.Router) {
		sr.Use(requireAuth)

		sr.Get("/{username}", u.Get)
		sr.Get("/{username}/posts", u.Posts)
		sr.Get("/{username}/followers", u.Followers)
		sr.Get("/{username}/following", u.Following)
		sr.Post("/{username}/follow", u.Follow)
		sr.Delete("/{username}/follow", u.Unfollow)
	})

	mux.With(requireAuth).Get("/search", SearchHandler(r))

	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
}
