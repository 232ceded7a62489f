package models

import "strconv"

// Pagination defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// PageRequest is a 1-indexed page/limit pair. Limit has no upper bound.
type PageRequest struct {
	Page  int
	Limit int
}

// ParsePageRequest reads raw query values. Missing, non-numeric or
// non-positive values fall back to the defaults.
func ParsePageRequest(rawPage, rawLimit string) PageRequest {
	return PageRequest{
		Page:  positiveOr(rawPage, DefaultPage),
		Limit: positiveOr(rawLimit, DefaultLimit),
	}
}

func positiveOr(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// Page is the list envelope shared by students and courses.
type Page[T any] struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Data  []T `json:"data"`
}

// Paginate slices items for the requested page. Total counts all items.
func Paginate[T any](items []T, req PageRequest) Page[T] {
	if req.Page < 1 {
		req.Page = DefaultPage
	}
	if req.Limit < 1 {
		req.Limit = DefaultLimit
	}
	pages := len(items) / req.Limit
	if len(items)%req.Limit != 0 {
		pages++
	}
	if req.Page-1 >= pages {
		return Page[T]{Page: req.Page, Limit: req.Limit, Total: len(items), Data: []T{}}
	}
	start := (req.Page - 1) * req.Limit
	end := len(items)
	if req.Limit < end-start {
		end = start + req.Limit
	}
	data := make([]T, end-start)
	copy(data, items[start:end])
	return Page[T]{Page: req.Page, Limit: req.Limit, Total: len(items), Data: data}
}
