package domain

import (
	"bytes"
	"encoding/json"
)

// Page is a DRF list response. Paginated endpoints return
// {count, next, previous, results}; unpaginated ones return a bare array.
// Both decode into Page.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// pageFields has Page's layout without its methods, so decoding into it does
// not recurse.
type pageFields[T any] Page[T]

func (p *Page[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var items []T
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*p = Page[T]{Count: len(items), Results: items}
		return nil
	}

	var r pageFields[T]
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	*p = Page[T](r)
	if p.Results == nil {
		p.Results = []T{}
	}
	return nil
}

func (p *Page[T]) HasNext() bool {
	return p.Next != nil && *p.Next != ""
}
