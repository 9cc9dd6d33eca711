package fakeapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diagnosis/pakbooking/internal/domain"
	"github.com/diagnosis/pakbooking/pkg/auth"
	"github.com/go-chi/chi/v5"
)

type ctxKey string

const ctxUserID ctxKey = "user_id"

// requireJWT rejects requests without a valid, unrevoked access token.
func (s *Server) requireJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		if !strings.HasPrefix(authz, "Bearer ") {
			unauthorized(w, "Authentication credentials were not provided.")
			return
		}
		raw := strings.TrimPrefix(authz, "Bearer ")

		claims, err := auth.Parse(raw, s.Secret)
		if err != nil || claims.TokenType != "access" {
			tokenNotValid(w)
			return
		}

		s.mu.Lock()
		revoked := s.revoked[raw]
		s.mu.Unlock()
		if revoked {
			tokenNotValid(w)
			return
		}

		id, err := strconv.ParseInt(string(claims.UserID), 10, 64)
		if err != nil {
			tokenNotValid(w)
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		a, ok := s.accounts[userID(r)]
		s.mu.Unlock()
		if !ok || !a.user.IsStaff {
			forbidden(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func userID(r *http.Request) int64 {
	v, _ := r.Context().Value(ctxUserID).(int64)
	return v
}

func (s *Server) mintLocked(id int64) (access, refresh string, err error) {
	access, err = auth.NewToken(id, "access", s.Secret, s.AccessTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err = auth.NewToken(id, "refresh", s.Secret, s.RefreshTTL)
	if err != nil {
		return "", "", err
	}
	s.issued = append(s.issued, access)
	return access, refresh, nil
}

func (s *Server) authRoutes(r chi.Router) {
	r.Post("/register/", s.register)
	r.Post("/login/", s.login)
	r.Post("/token/refresh/", s.refresh)

	r.Group(func(pr chi.Router) {
		pr.Use(s.requireJWT)
		pr.Post("/logout/", s.logout)
		pr.Get("/user/", s.currentUser)
		pr.Patch("/user/", s.updateUser)
		pr.Post("/change-password/", s.changePassword)
		pr.Get("/favorites/", s.listFavorites)
		pr.Post("/favorites/", s.addFavorite)
		pr.Delete("/favorites/{propertyID}/", s.removeFavorite)
		pr.Get("/favorites/{propertyID}/check/", s.checkFavorite)
	})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in domain.Registration
	if !decodeBody(r, &in) {
		badRequest(w, "Invalid JSON body")
		return
	}

	fields := map[string][]string{}
	if strings.TrimSpace(in.Email) == "" {
		fields["email"] = []string{"This field is required."}
	}
	if len(in.Password) < 8 {
		fields["password"] = []string{"This password is too short. It must contain at least 8 characters."}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(in.Email))
	for _, a := range s.accounts {
		if a.user.Email == email {
			fields["email"] = []string{"user with this email already exists."}
		}
	}
	if len(fields) > 0 {
		writeFieldErrors(w, fields)
		return
	}

	u := s.addUserLocked(email, in.Password, in.FirstName, in.LastName, false)
	writeJSON(w, http.StatusCreated, map[string]any{
		"user":    u,
		"message": "User registered successfully",
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in domain.Credentials
	if !decodeBody(r, &in) {
		badRequest(w, "Invalid JSON body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(in.Email))
	for id, a := range s.accounts {
		if a.user.Email != email || a.password != in.Password || !a.user.IsActive {
			continue
		}
		access, refresh, err := s.mintLocked(id)
		if err != nil {
			internalError(w)
			return
		}
		writeJSON(w, http.StatusOK, domain.LoginResult{Access: access, Refresh: refresh, User: a.user})
		return
	}
	unauthorized(w, "No active account found with the given credentials")
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)
	if d := time.Duration(s.refreshDelay.Load()); d > 0 {
		time.Sleep(d)
	}

	var in domain.TokenRefreshRequest
	if !decodeBody(r, &in) || in.Refresh == "" {
		writeFieldErrors(w, map[string][]string{"refresh": {"This field is required."}})
		return
	}
	if s.FailRefresh.Load() {
		writeError(w, http.StatusUnauthorized, "Token is invalid or expired", "token_not_valid")
		return
	}

	claims, err := auth.Parse(in.Refresh, s.Secret)
	if err != nil || claims.TokenType != "refresh" {
		writeError(w, http.StatusUnauthorized, "Token is invalid or expired", "token_not_valid")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blacklisted[in.Refresh] {
		writeError(w, http.StatusUnauthorized, "Token is blacklisted", "token_not_valid")
		return
	}

	id, _ := strconv.ParseInt(string(claims.UserID), 10, 64)
	access, err := auth.NewToken(id, "access", s.Secret, s.AccessTTL)
	if err != nil {
		internalError(w)
		return
	}
	s.issued = append(s.issued, access)
	writeJSON(w, http.StatusOK, domain.TokenRefreshResponse{Access: access})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if s.FailLogout.Load() {
		internalError(w)
		return
	}
	var in domain.TokenRefreshRequest
	_ = decodeBody(r, &in)

	s.mu.Lock()
	if in.Refresh != "" {
		s.blacklisted[in.Refresh] = true
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"detail": "Successfully logged out."})
}

func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) {
	if s.FailCurrentUser.Load() {
		internalError(w)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[userID(r)]
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, a.user)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	var in domain.ProfilePatch
	if !decodeBody(r, &in) {
		badRequest(w, "Invalid JSON body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[userID(r)]
	if !ok {
		notFound(w)
		return
	}
	if in.Email != nil {
		if !strings.Contains(*in.Email, "@") {
			writeFieldErrors(w, map[string][]string{"email": {"Enter a valid email address."}})
			return
		}
		a.user.Email = strings.ToLower(*in.Email)
	}
	if in.FirstName != nil {
		a.user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		a.user.LastName = *in.LastName
	}
	if in.Phone != nil {
		a.user.Phone = *in.Phone
	}
	writeJSON(w, http.StatusOK, a.user)
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var in domain.PasswordChange
	if !decodeBody(r, &in) {
		badRequest(w, "Invalid JSON body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.accounts[userID(r)]
	if a == nil || a.password != in.OldPassword {
		writeFieldErrors(w, map[string][]string{"old_password": {"Wrong password."}})
		return
	}
	if len(in.NewPassword) < 8 {
		writeFieldErrors(w, map[string][]string{"new_password": {"This password is too short. It must contain at least 8 characters."}})
		return
	}
	a.password = in.NewPassword
	writeJSON(w, http.StatusOK, map[string]string{"detail": "Password updated successfully"})
}

func (s *Server) listFavorites(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	favs := s.favorites[userID(r)]
	if favs == nil {
		favs = []domain.Favorite{}
	}
	// Unpaginated: the backend returns a bare array here.
	writeJSON(w, http.StatusOK, favs)
}

func (s *Server) addFavorite(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Property domain.ID `json:"property"`
	}
	if !decodeBody(r, &in) || in.Property == "" {
		writeFieldErrors(w, map[string][]string{"property": {"This field is required."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.properties[in.Property]
	if !ok {
		writeFieldErrors(w, map[string][]string{"property": {"Invalid pk - object does not exist."}})
		return
	}
	uid := userID(r)
	for _, f := range s.favorites[uid] {
		if f.Property == in.Property {
			writeFieldErrors(w, map[string][]string{"non_field_errors": {"Property is already in favorites."}})
			return
		}
	}
	cp := *p
	f := domain.Favorite{ID: s.newID(), Property: in.Property, PropertyDetails: &cp, CreatedAt: time.Now().UTC()}
	s.favorites[uid] = append(s.favorites[uid], f)
	writeJSON(w, http.StatusCreated, f)
}

func (s *Server) removeFavorite(w http.ResponseWriter, r *http.Request) {
	pid := domain.ID(chi.URLParam(r, "propertyID"))

	s.mu.Lock()
	defer s.mu.Unlock()
	uid := userID(r)
	favs := s.favorites[uid]
	for i, f := range favs {
		if f.Property == pid {
			s.favorites[uid] = append(favs[:i], favs[i+1:]...)
			writeJSON(w, http.StatusNoContent, nil)
			return
		}
	}
	notFound(w)
}

func (s *Server) checkFavorite(w http.ResponseWriter, r *http.Request) {
	pid := domain.ID(chi.URLParam(r, "propertyID"))

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.favorites[userID(r)] {
		if f.Property == pid {
			writeJSON(w, http.StatusOK, map[string]bool{"is_favorite": true})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_favorite": false})
}
