package api

import (
	"context"

	"github.com/diagnosis/pakbooking/internal/domain"
)

type Reviews struct {
	r Requester
}

func (rv *Reviews) ForProperty(ctx context.Context, property domain.ID) (domain.Page[domain.Review], error) {
	var out domain.Page[domain.Review]
	err := get(ctx, rv.r, resourcePath("/properties", property, "reviews"), nil, &out)
	return out, err
}

func (rv *Reviews) Create(ctx context.Context, in domain.ReviewInput) (domain.Review, error) {
	var out domain.Review
	err := post(ctx, rv.r, "/reviews/", in, &out)
	return out, err
}

func (rv *Reviews) Update(ctx context.Context, id domain.ID, in domain.ReviewInput) (domain.Review, error) {
	var out domain.Review
	err := patch(ctx, rv.r, resourcePath("/reviews", id), in, &out)
	return out, err
}

func (rv *Reviews) Delete(ctx context.Context, id domain.ID) error {
	return del(ctx, rv.r, resourcePath("/reviews", id))
}
