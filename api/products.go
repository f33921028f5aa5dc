package api

import (
	"context"
	"fmt"
)

// Product mirrors the API's product payload.
type Product struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Rating      float64 `json:"rating"`
	Stock       int     `json:"stock"`
	Brand       string  `json:"brand"`
	Thumbnail   string  `json:"thumbnail"`
}

// ProductPage wraps a product listing in the API's paging envelope.
type ProductPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Skip     int       `json:"skip"`
	Limit    int       `json:"limit"`
}

// ProductService reads products.
type ProductService struct {
	client *Client
}

// List returns one page of products. Pages are 1-based.
func (s *ProductService) List(ctx context.Context, page, limit int) (*ProductPage, error) {
	if page < 1 {
		page = 1
	}
	skip := (page - 1) * limit

	var out ProductPage
	if err := s.client.get(ctx, fmt.Sprintf("/products?limit=%d&skip=%d", limit, skip), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ProductService) Get(ctx context.Context, id int) (*Product, error) {
	var out Product
	if err := s.client.get(ctx, fmt.Sprintf("/products/%d", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
