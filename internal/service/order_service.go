package service

import (
	"context"

	"github.com/AnkitRegmi1/TruSwap/internal/domain/entity"
	"github.com/AnkitRegmi1/TruSwap/internal/platform/logger"
)

type OrderAPI interface {
	FetchOrders(ctx context.Context, token string) ([]entity.Order, error)
	FetchSoldItems(ctx context.Context, token string) ([]entity.Order, error)
}

// OrderService reads the caller's purchase and sale history. Who "the
// caller" is comes entirely from the bearer token; there is no user id
// parameter anywhere.
type OrderService interface {
	Purchases(ctx context.Context, token string) ([]entity.Order, error)
	Sales(ctx context.Context, token string) ([]entity.Order, error)
}

type orderService struct {
	api OrderAPI
	log logger.Logger
}

func NewOrderService(api OrderAPI, log logger.Logger) OrderService {
	return &orderService{api: api, log: log}
}

func (s *orderService) Purchases(ctx context.Context, token string) ([]entity.Order, error) {
	orders, err := s.api.FetchOrders(ctx, token)
	if err != nil {
		return nil, err
	}
	s.log.Debugf("Purchases: %d orders", len(orders))
	return orders, nil
}

func (s *orderService) Sales(ctx context.Context, token string) ([]entity.Order, error) {
	orders, err := s.api.FetchSoldItems(ctx, token)
	if err != nil {
		return nil, err
	}
	s.log.Debugf("Sales: %d orders", len(orders))
	return orders, nil
}
