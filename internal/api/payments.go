package api

import (
	"context"

	"github.com/diagnosis/pakbooking/internal/domain"
)

type Payments struct {
	r Requester
}

func (p *Payments) Methods(ctx context.Context) ([]domain.PaymentMethod, error) {
	var out domain.Page[domain.PaymentMethod]
	if err := get(ctx, p.r, "/payments/methods/", nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (p *Payments) Transactions(ctx context.Context, f domain.TransactionFilter) (domain.Page[domain.PaymentTransaction], error) {
	var out domain.Page[domain.PaymentTransaction]
	err := get(ctx, p.r, "/payments/transactions/", f, &out)
	return out, err
}

func (p *Payments) Transaction(ctx context.Context, id string) (domain.PaymentTransaction, error) {
	var out domain.PaymentTransaction
	err := get(ctx, p.r, resourcePath("/payments/transactions", domain.ID(id)), nil, &out)
	return out, err
}
