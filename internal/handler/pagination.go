package handler

import (
	"net/http"
	"strconv"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

type PaginationParams struct {
	Limit  int
	Offset int
}

func ParsePagination(r *http.Request) PaginationParams {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	if limit <= 0 || limit > maxPageLimit {
		limit = defaultPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	return PaginationParams{Limit: limit, Offset: offset}
}
