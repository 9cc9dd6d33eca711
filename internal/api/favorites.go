package api

import (
	"context"

	"github.com/diagnosis/pakbooking/internal/domain"
	"github.com/diagnosis/pakbooking/pkg/logger"
)

type Favorites struct {
	r Requester
}

func (f *Favorites) List(ctx context.Context) ([]domain.Favorite, error) {
	var out domain.Page[domain.Favorite]
	if err := get(ctx, f.r, "/auth/favorites/", nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (f *Favorites) Add(ctx context.Context, property domain.ID) (domain.Favorite, error) {
	var out domain.Favorite
	err := post(ctx, f.r, "/auth/favorites/", map[string]domain.ID{"property": property}, &out)
	return out, err
}

func (f *Favorites) Remove(ctx context.Context, property domain.ID) error {
	return del(ctx, f.r, resourcePath("/auth/favorites", property))
}

// IsFavorite reports false on any error; a heart icon is not worth an
// error path.
func (f *Favorites) IsFavorite(ctx context.Context, property domain.ID) bool {
	var out struct {
		IsFavorite bool `json:"is_favorite"`
	}
	if err := get(ctx, f.r, resourcePath("/auth/favorites", property, "check"), nil, &out); err != nil {
		logger.DebugContext(ctx, "Favorite check failed", "property_id", property, "error", err)
		return false
	}
	return out.IsFavorite
}
