package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	repo "github.com/oksasatya/go-account-service/internal/domain/repository"
)

// Status selects which records a listing returns.
type Status int

const (
	StatusActive Status = iota
	StatusDeleted
	StatusAll
)

func (st Status) String() string {
	switch st {
	case StatusDeleted:
		return "deleted"
	case StatusAll:
		return "all"
	default:
		return "active"
	}
}

// ParseStatus maps "", "active", "deleted" and "all" to a Status.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "active":
		return StatusActive, nil
	case "deleted":
		return StatusDeleted, nil
	case "all":
		return StatusAll, nil
	}
	return StatusActive, invalidArg(fmt.Sprintf("Invalid args. Unknown status %q.", s))
}

func (st Status) filter() repo.UserFilter {
	switch st {
	case StatusAll:
		return repo.UserFilter{}
	case StatusDeleted:
		d := true
		return repo.UserFilter{Deleted: &d}
	default:
		d := false
		return repo.UserFilter{Deleted: &d}
	}
}

type ListParams struct {
	Status Status
	Limit  int
	Page   int
}

// Page is one page of a listing. Total counts every record matching the filter.
type Page struct {
	Docs    []*entity.User `json:"docs"`
	Total   int64          `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"perPage"`
	Pages   int            `json:"pages"`
}

// List pages through active users, or deleted ones when includeDeleted is set.
func (s *Service) List(ctx context.Context, includeDeleted bool, limit, page int) (*Page, error) {
	st := StatusActive
	if includeDeleted {
		st = StatusDeleted
	}
	return s.ListByStatus(ctx, ListParams{Status: st, Limit: limit, Page: page})
}

func (s *Service) ListByStatus(ctx context.Context, p ListParams) (*Page, error) {
	if p.Limit <= 0 {
		p.Limit = defaultListLimit
	}
	if p.Page <= 0 {
		p.Page = 1
	}
	f := p.Status.filter()
	skip := int64(p.Limit) * int64(p.Page-1)

	docs, err := s.Repo.List(ctx, f, skip, int64(p.Limit))
	if err != nil {
		return nil, wrapKind(ErrStoreFailure, "Could not list users", err)
	}
	total, err := s.Repo.Count(ctx, f)
	if err != nil {
		return nil, wrapKind(ErrStoreFailure, "Could not count users", err)
	}
	if docs == nil {
		docs = []*entity.User{}
	}

	pages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return &Page{Docs: docs, Total: total, Page: p.Page, PerPage: p.Limit, Pages: pages}, nil
}
