package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultSize = 100
	MaxSize     = 1000
)

// Params holds the zero-based page and page size of a listing request.
type Params struct {
	Page int
	Size int
}

// FromContext reads the page and size query params.
func FromContext(c echo.Context) Params {
	size, _ := strconv.Atoi(c.QueryParam("size"))
	if size <= 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 0 {
		page = 0
	}

	return Params{Page: page, Size: size}
}

func (p Params) Limit() int  { return p.Size }
func (p Params) Offset() int { return p.Page * p.Size }

// Page is the listing envelope sync clients page through.
type Page[T any] struct {
	Content       []T `json:"content"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
	Number        int `json:"number"`
	Size          int `json:"size"`
}

func NewPage[T any](content []T, total int, p Params) *Page[T] {
	if content == nil {
		content = []T{}
	}
	pages := 0
	if p.Size > 0 {
		pages = (total + p.Size - 1) / p.Size
	}
	return &Page[T]{
		Content:       content,
		TotalElements: total,
		TotalPages:    pages,
		Number:        p.Page,
		Size:          p.Size,
	}
}

// Empty is the page returned when a filter cannot match anything.
func Empty[T any](p Params) *Page[T] {
	return NewPage[T](nil, 0, p)
}
