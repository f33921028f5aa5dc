// Package server is the dashboard gateway: the HTTP surface that replaces
// the browser application's routing shell. It logs users in and out, exposes
// the session, and proxies the resource APIs behind the route guard.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dashlite/go-admin-client/api"
	"github.com/dashlite/go-admin-client/guard"
	"github.com/dashlite/go-admin-client/poststore"
	"github.com/dashlite/go-admin-client/session"
	"github.com/dashlite/go-admin-client/todos"
)

// LoginPath is the entry point unauthenticated navigation is sent to.
const LoginPath = "/login"

type Server struct {
	sessions *session.Service
	api      *api.Client
	guard    *guard.Guard
	posts    *poststore.Store
	todos    *todos.List
}

// New wires the gateway around an already-constructed session service and
// API client.
func New(sessions *session.Service, apiClient *api.Client) *Server {
	return &Server{
		sessions: sessions,
		api:      apiClient,
		guard:    guard.New(sessions, LoginPath),
		posts:    poststore.New(apiClient.Posts),
		todos:    todos.NewList(),
	}
}

// Routes builds the router. Everything under /api and the session endpoint
// sit behind the route guard; the auth endpoints do not, since login must
// work logged out.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogging)
	r.Use(Recover)

	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.guard.RequireMiddleware)

		r.Get("/auth/session", s.handleSession)

		r.Route("/api", func(r chi.Router) {
			r.Get("/users", s.handleListUsers)
			r.Post("/users", s.handleAddUser)
			r.Get("/users/{id}", s.handleGetUser)
			r.Patch("/users/{id}", s.handleUpdateUser)
			r.Delete("/users/{id}", s.handleDeleteUser)
			r.Get("/users/{id}/posts", s.handleUserPosts)

			r.Get("/posts", s.handleListPosts)
			r.Post("/posts", s.handleAddPost)
			r.Get("/posts/{id}", s.handleGetPost)

			r.Get("/products", s.handleListProducts)
			r.Get("/products/{id}", s.handleGetProduct)

			r.Get("/todos", s.handleListTodos)
			r.Post("/todos", s.handleAddTodo)
			r.Post("/todos/{id}/toggle", s.handleToggleTodo)
			r.Delete("/todos/{id}", s.handleDeleteTodo)
		})
	})

	return r
}
