package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// apiClient talks to the store rating server.
type apiClient struct {
	baseURL string
	http    *http.Client
	token   string
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type storeItem struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Address       string  `json:"address"`
	AverageRating float64 `json:"average_rating"`
	TotalRatings  int     `json:"total_ratings"`
}

type loginResult struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("server not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Error == "" {
			return resp.StatusCode, fmt.Errorf("server returned %d", resp.StatusCode)
		}
		return resp.StatusCode, errors.New(apiErr.Error)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// Login stores the session token for later calls.
func (c *apiClient) Login(ctx context.Context, email, password string) (*loginResult, error) {
	var res loginResult
	if _, err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, &res); err != nil {
		return nil, err
	}
	c.token = res.Token
	return &res, nil
}

func (c *apiClient) Stores(ctx context.Context) ([]storeItem, error) {
	var stores []storeItem
	if _, err := c.do(ctx, http.MethodGet, "/api/stores?sortBy=rating", nil, &stores); err != nil {
		return nil, err
	}
	return stores, nil
}

// Rate reports whether the rating was new (true) or replaced an earlier one.
func (c *apiClient) Rate(ctx context.Context, storeID string, rating int) (bool, error) {
	status, err := c.do(ctx, http.MethodPost, "/api/ratings", map[string]any{"storeId": storeID, "rating": rating}, nil)
	if err != nil {
		return false, err
	}
	return status == http.StatusCreated, nil
}
