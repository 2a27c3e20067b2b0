package query

import (
	"context"

	"github.com/nayher/commerce-backend/internal/order/domain"
)

type ListOrdersQuery struct {
	Filter domain.OrderFilter
}

type Pagination struct {
	Current int   `json:"current"`
	Pages   int   `json:"pages"`
	Total   int64 `json:"total"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

type ListOrdersResult struct {
	Orders     []*domain.Order `json:"orders"`
	Pagination Pagination      `json:"pagination"`
}

type ListOrdersHandler struct {
	orders domain.OrderRepository
}

func NewListOrdersHandler(orders domain.OrderRepository) *ListOrdersHandler {
	return &ListOrdersHandler{orders: orders}
}

func (h *ListOrdersHandler) Handle(ctx context.Context, q ListOrdersQuery) (*ListOrdersResult, error) {
	filter := q.Filter
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 10
	}

	orders, total, err := h.orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []*domain.Order{}
	}

	pages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &ListOrdersResult{
		Orders: orders,
		Pagination: Pagination{
			Current: filter.Page,
			Pages:   pages,
			Total:   total,
			HasNext: filter.Page < pages,
			HasPrev: filter.Page > 1,
		},
	}, nil
}
