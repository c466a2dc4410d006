package service

import (
	"context"

	"github.com/talkincode/toughledger/config"
	"github.com/talkincode/toughledger/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Paginator applies the process-wide default window.
type Paginator struct {
	defaults config.PaginationConfig
}

func NewPaginator(defaults config.PaginationConfig) Paginator {
	return Paginator{defaults: defaults}
}

// Resolve returns p, or the configured default when p is nil.
func (pg Paginator) Resolve(p *domain.Pagination) domain.Pagination {
	if p == nil {
		return domain.Pagination{Limit: pg.defaults.Limit, Offset: pg.defaults.Offset}
	}
	return *p
}

// listPage runs the window query and the count concurrently.
func listPage[T any](
	ctx context.Context,
	p domain.Pagination,
	findAll func(ctx context.Context, limit, offset int) ([]T, error),
	findCount func(ctx context.Context) (int64, error),
) (domain.Page[T], error) {
	var (
		data  []T
		count int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		data, err = findAll(gctx, p.Limit, p.Offset)
		return err
	})
	g.Go(func() (err error) {
		count, err = findCount(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Page[T]{}, err
	}
	return domain.NewPage(data, count, p), nil
}
