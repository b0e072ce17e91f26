package handlers

import "net/http"

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Sessions      SessionManager
	Blogs         BlogService
	Production    bool
	MaxImageBytes int64
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	users := UserHandler{Sessions: deps.Sessions, Production: deps.Production, MaxImageBytes: deps.MaxImageBytes}
	blogs := BlogHandler{Blogs: deps.Blogs, Sessions: deps.Sessions, MaxImageBytes: deps.MaxImageBytes}

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /users/register", users.Register)
	mux.HandleFunc("POST /users/login", users.Login)
	mux.HandleFunc("POST /users/logout", users.Logout)
	mux.HandleFunc("POST /users/refresh", users.Refresh)
	mux.HandleFunc("GET /users/me", users.Me)
	mux.HandleFunc("GET /users/{userId}", users.Profile)

	mux.HandleFunc("POST /blogs/publish", blogs.Publish)
	mux.HandleFunc("GET /blogs/blogger/{blogId}", blogs.GetOwned)
	mux.HandleFunc("POST /blogs/blogger/{blogId}", blogs.Update)
	mux.HandleFunc("DELETE /blogs/blogger/{blogId}", blogs.Delete)
	mux.HandleFunc("GET /blogs/blogger/{$}", blogs.ListOwned)
	mux.HandleFunc("GET /blogs/{blogId}", blogs.GetPublic)
	mux.HandleFunc("GET /blogs/{$}", blogs.ListPublic)
}
