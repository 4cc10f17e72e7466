package entities

import "time"

// PageMeta is the pagination envelope of list endpoints
type PageMeta struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Page is the `{ data, meta }` list response. FromCache and CachedAt are set
// when the client served the page from its fallback cache.
type Page[T any] struct {
	Data      []T        `json:"data"`
	Meta      PageMeta   `json:"meta"`
	FromCache bool       `json:"_fromCache,omitempty"`
	CachedAt  *time.Time `json:"_cachedAt,omitempty"`
}
