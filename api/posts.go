package api

import (
	"context"
	"fmt"
)

// Post mirrors the API's post payload.
type Post struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	UserID    int       `json:"userId"`
	Tags      []string  `json:"tags"`
	Reactions Reactions `json:"reactions"`
}

type Reactions struct {
	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes"`
}

// PostPage wraps a post listing in the API's paging envelope.
type PostPage struct {
	Posts []Post `json:"posts"`
	Total int    `json:"total"`
	Skip  int    `json:"skip"`
	Limit int    `json:"limit"`
}

// NewPost is the payload for adding a post.
type NewPost struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	UserID int      `json:"userId"`
	Tags   []string `json:"tags,omitempty"`
}

// PostService reads and writes posts.
type PostService struct {
	client *Client
}

// List returns the post listing.
func (s *PostService) List(ctx context.Context) (*PostPage, error) {
	var out PostPage
	if err := s.client.get(ctx, "/posts", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *PostService) Get(ctx context.Context, id int) (*Post, error) {
	var out Post
	if err := s.client.get(ctx, fmt.Sprintf("/posts/%d", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *PostService) Add(ctx context.Context, post NewPost) (*Post, error) {
	var out Post
	if err := s.client.do(ctx, "POST", "/posts/add", post, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
