package api

import (
	"context"
	"fmt"
)

// User mirrors the API's user payload.
type User struct {
	ID        int     `json:"id"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	Username  string  `json:"username"`
	Image     string  `json:"image"`
	BirthDate string  `json:"birthDate"`
	Gender    string  `json:"gender"`
	Address   Address `json:"address"`
	Company   Company `json:"company"`
}

type Address struct {
	City  string `json:"city"`
	State string `json:"state"`
}

type Company struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// UserPage wraps a user listing in the API's paging envelope.
type UserPage struct {
	Users []User `json:"users"`
	Total int    `json:"total"`
	Skip  int    `json:"skip"`
	Limit int    `json:"limit"`
}

// UserPatch carries the fields of a partial update. Nil fields are omitted
// from the request and left unchanged by the API.
type UserPatch struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	BirthDate *string `json:"birthDate,omitempty"`
	Gender    *string `json:"gender,omitempty"`
}

// NewUser is the payload for adding a user.
type NewUser struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Username  string `json:"username,omitempty"`
	BirthDate string `json:"birthDate,omitempty"`
	Gender    string `json:"gender,omitempty"`
}

// UserService reads and writes users.
type UserService struct {
	client *Client
}

// List returns one page of users. Pages are 1-based; the page size maps to
// the API's limit/skip parameters.
func (s *UserService) List(ctx context.Context, page, limit int) (*UserPage, error) {
	if page < 1 {
		page = 1
	}
	skip := (page - 1) * limit

	var out UserPage
	if err := s.client.get(ctx, fmt.Sprintf("/users?limit=%d&skip=%d", limit, skip), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *UserService) Get(ctx context.Context, id int) (*User, error) {
	var out User
	if err := s.client.get(ctx, fmt.Sprintf("/users/%d", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *UserService) Add(ctx context.Context, user NewUser) (*User, error) {
	var out User
	if err := s.client.do(ctx, "POST", "/users/add", user, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update applies a partial update and returns the full updated user.
func (s *UserService) Update(ctx context.Context, id int, patch UserPatch) (*User, error) {
	var out User
	if err := s.client.do(ctx, "PATCH", fmt.Sprintf("/users/%d", id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *UserService) Delete(ctx context.Context, id int) error {
	return s.client.do(ctx, "DELETE", fmt.Sprintf("/users/%d", id), nil, nil)
}

// Posts returns the posts authored by the given user.
func (s *UserService) Posts(ctx context.Context, id int) (*PostPage, error) {
	var out PostPage
	if err := s.client.get(ctx, fmt.Sprintf("/users/%d/posts", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
