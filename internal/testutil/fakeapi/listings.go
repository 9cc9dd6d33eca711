package fakeapi

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/diagnosis/pakbooking/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

func (s *Server) listingRoutes(r chi.Router) {
	r.Get("/", s.listProperties)
	r.Get("/{id}/", s.getProperty)
}

func (s *Server) propertyRoutes(r chi.Router) {
	r.Get("/search/", s.searchProperties)
	r.Get("/featured/", s.featuredProperties)
	r.Get("/{id}/reviews/", s.propertyReviews)
}

func (s *Server) reviewRoutes(r chi.Router) {
	r.Use(s.requireJWT)
	r.Post("/", s.createReview)
	r.Patch("/{id}/", s.updateReview)
	r.Delete("/{id}/", s.deleteReview)
}

func (s *Server) filterProperties(q url.Values) []domain.Property {
	s.mu.Lock()
	defer s.mu.Unlock()

	city := strings.ToLower(q.Get("city"))
	search := strings.ToLower(q.Get("search"))
	guests, _ := strconv.Atoi(q.Get("guests"))

	out := []domain.Property{}
	for _, id := range s.propertyOrder {
		p := s.properties[id]
		if city != "" && strings.ToLower(p.City) != city {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Title+" "+p.Description+" "+p.City), search) {
			continue
		}
		if guests > 0 && p.MaxGuests < guests {
			continue
		}
		if v := q.Get("min_price"); v != "" {
			if lo, err := decimal.NewFromString(v); err == nil && p.PricePerNight.LessThan(lo) {
				continue
			}
		}
		if v := q.Get("max_price"); v != "" {
			if hi, err := decimal.NewFromString(v); err == nil && p.PricePerNight.GreaterThan(hi) {
				continue
			}
		}
		out = append(out, *p)
	}
	return out
}

func (s *Server) listProperties(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, page(s.filterProperties(r.URL.Query())))
}

func (s *Server) getProperty(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.properties[domain.ID(chi.URLParam(r, "id"))]
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) searchProperties(w http.ResponseWriter, r *http.Request) {
	q := url.Values{"search": {r.URL.Query().Get("q")}}
	writeJSON(w, http.StatusOK, page(s.filterProperties(q)))
}

func (s *Server) featuredProperties(w http.ResponseWriter, r *http.Request) {
	all := s.filterProperties(url.Values{})
	featured := []domain.Property{}
	for _, p := range all {
		if p.Rating.GreaterThanOrEqual(decimal.RequireFromString("4.5")) {
			featured = append(featured, p)
		}
	}
	writeJSON(w, http.StatusOK, featured)
}

func (s *Server) propertyReviews(w http.ResponseWriter, r *http.Request) {
	pid := domain.ID(chi.URLParam(r, "id"))

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Review{}
	for _, id := range sortedIDs(s.reviews) {
		if rv := s.reviews[id]; rv.Property == pid {
			out = append(out, *rv)
		}
	}
	writeJSON(w, http.StatusOK, page(out))
}

func (s *Server) createReview(w http.ResponseWriter, r *http.Request) {
	var in domain.ReviewInput
	if !decodeBody(r, &in) {
		badRequest(w, "Invalid JSON body")
		return
	}
	if in.Rating < 1 || in.Rating > 5 {
		writeFieldErrors(w, map[string][]string{"rating": {"Ensure this value is between 1 and 5."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.properties[in.Property]; !ok {
		writeFieldErrors(w, map[string][]string{"property": {"Invalid pk - object does not exist."}})
		return
	}
	u := s.accounts[userID(r)].user
	rv := &domain.Review{
		ID:        s.newID(),
		Property:  in.Property,
		User:      &u,
		Rating:    in.Rating,
		Comment:   in.Comment,
		CreatedAt: time.Now().UTC(),
	}
	s.reviews[rv.ID] = rv
	writeJSON(w, http.StatusCreated, rv)
}

func (s *Server) ownReview(w http.ResponseWriter, r *http.Request) *domain.Review {
	rv, ok := s.reviews[domain.ID(chi.URLParam(r, "id"))]
	if !ok {
		notFound(w)
		return nil
	}
	if rv.User == nil || rv.User.ID != domain.ID(strconv.FormatInt(userID(r), 10)) {
		forbidden(w)
		return nil
	}
	return rv
}

func (s *Server) updateReview(w http.ResponseWriter, r *http.Request) {
	var in domain.ReviewInput
	if !decodeBody(r, &in) {
		badRequest(w, "Invalid JSON body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rv := s.ownReview(w, r)
	if rv == nil {
		return
	}
	if in.Rating != 0 {
		rv.Rating = in.Rating
	}
	if in.Comment != "" {
		rv.Comment = in.Comment
	}
	writeJSON(w, http.StatusOK, rv)
}

func (s *Server) deleteReview(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rv := s.ownReview(w, r)
	if rv == nil {
		return
	}
	delete(s.reviews, rv.ID)
	writeJSON(w, http.StatusNoContent, nil)
}
