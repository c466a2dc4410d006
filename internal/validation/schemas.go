package validation

import "github.com/talkincode/toughledger/internal/domain"

// IDParams is the :id path parameter shared by every single-resource route.
type IDParams struct {
	ID string `param:"id" validate:"required,uuid"`
}

// PageQuery is the optional pagination window; limit and offset come together.
type PageQuery struct {
	Limit  *int `query:"limit" validate:"required_with=Offset,omitempty,gt=0,max=1000"`
	Offset *int `query:"offset" validate:"required_with=Limit,omitempty,min=0"`
}

// Window returns nil when the caller left pagination to the defaults.
func (q PageQuery) Window() *domain.Pagination {
	if q.Limit == nil || q.Offset == nil {
		return nil
	}
	return &domain.Pagination{Limit: *q.Limit, Offset: *q.Offset}
}
