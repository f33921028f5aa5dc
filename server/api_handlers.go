package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/dashlite/go-admin-client/api"
	"github.com/dashlite/go-admin-client/internal/utils"
	"github.com/dashlite/go-admin-client/todos"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := paging(r)
	result, err := s.api.Users.List(r.Context(), page, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := s.api.Users.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	var user api.NewUser
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	result, err := s.api.Users.Add(r.Context(), user)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var patch api.UserPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	result, err := s.api.Users.Update(r.Context(), id, patch)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.api.Users.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUserPosts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := s.api.Users.Posts(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// handleListPosts serves the post listing through the post store, so the
// gateway returns the cached page together with its paging summary.
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	if err := s.posts.Load(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	snapshot := s.posts.Snapshot()
	respondJSON(w, http.StatusOK, postListing{
		Posts:       snapshot.Posts,
		Total:       snapshot.Total,
		CurrentPage: snapshot.CurrentPage(),
		TotalPages:  snapshot.TotalPages(),
	})
}

type postListing struct {
	Posts       []api.Post `json:"posts"`
	Total       int        `json:"total"`
	CurrentPage int        `json:"currentPage"`
	TotalPages  int        `json:"totalPages"`
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.posts.LoadPost(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, utils.Value(s.posts.Snapshot().Selected))
}

func (s *Server) handleAddPost(w http.ResponseWriter, r *http.Request) {
	var post api.NewPost
	if err := json.NewDecoder(r.Body).Decode(&post); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	result, err := s.api.Posts.Add(r.Context(), post)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	page, limit := paging(r)
	result, err := s.api.Products.List(r.Context(), page, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := s.api.Products.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.todos.Tasks())
}

func (s *Server) handleAddTodo(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Name == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "task name is required"})
		return
	}
	respondJSON(w, http.StatusCreated, s.todos.Add(payload.Name))
}

func (s *Server) handleToggleTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	task, err := s.todos.Toggle(id)
	if err != nil {
		respondJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.todos.Delete(id); err != nil {
		if errors.Is(err, todos.TaskNotFoundErr) {
			respondJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
			return
		}
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return 0, false
	}
	return id, true
}

func paging(r *http.Request) (page, limit int) {
	page, limit = defaultPage, defaultLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	return page, limit
}
