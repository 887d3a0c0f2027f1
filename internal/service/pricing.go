package service

import (
	"context"
	"fmt"

	"globomart/internal/model"
	"globomart/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// priceItems rewrites each line's name and unit price from the catalogue and
// returns the repriced lines with their subtotal. Client prices are ignored.
func priceItems(ctx context.Context, productRepo repository.ProductRepository, items []model.OrderItem) ([]model.OrderItem, float64, error) {
	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	products, err := productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load products: %w", err)
	}

	catalogue := make(map[uuid.UUID]model.Product, len(products))
	for _, p := range products {
		catalogue[p.ID] = p
	}

	priced := make([]model.OrderItem, len(items))
	subtotal := decimal.Zero
	for i, item := range items {
		p, ok := catalogue[item.ProductID]
		if !ok {
			return nil, 0, model.ErrProductsNotFound
		}
		item.Name = p.Name
		item.Price = p.Price
		if item.Image == "" && len(p.Images) > 0 {
			item.Image = p.Images[0].URL
		}
		priced[i] = item
		subtotal = subtotal.Add(decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	return priced, subtotal.Round(2).InexactFloat64(), nil
}

// sumAmounts adds money values without float drift.
func sumAmounts(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	return total.Round(2).InexactFloat64()
}
