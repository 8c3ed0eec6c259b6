package mock

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/viant/brokerage/schema"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// user is treated as immutable once stored, updates replace the entry
type user struct {
	ID           int
	Username     string
	PasswordHash []byte
	Role         string
	Email        string
	FirstName    string
	LastName     string
	Phone        *string
}

func (u *user) profile() *schema.Profile {
	return &schema.Profile{
		ID:        u.ID,
		Username:  u.Username,
		Phone:     u.Phone,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
	}
}

type userKey struct{}

func currentUser(ctx context.Context) *user {
	u, _ := ctx.Value(userKey{}).(*user)
	return u
}

// AddUser registers a user with the given role
func (s *Service) AddUser(username, password, role string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return errors.Wrap(err, "failed to hash password")
	}
	u := &user{
		ID:           int(s.nextUserID.Add(1)),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	}
	if !s.users.PutIfAbsent(username, u) {
		return errors.Newf("user %v already exists", username)
	}
	return nil
}

// Issue returns a fresh token pair for an existing user without a login call
func (s *Service) Issue(username string) (*schema.AuthResponse, error) {
	u, ok := s.users.Get(username)
	if !ok {
		return nil, errors.Newf("unknown user %v", username)
	}
	return s.tokens(u)
}

// RevokeRefreshTokens drops every refresh token issued so far
func (s *Service) RevokeRefreshTokens() {
	s.refreshTokens.Range(func(token string, _ string) bool {
		s.refreshTokens.Delete(token)
		return true
	})
}

func (s *Service) tokens(u *user) (*schema.AuthResponse, error) {
	access, err := s.issueAccessToken(u)
	if err != nil {
		return nil, err
	}
	return &schema.AuthResponse{Access: access, Refresh: s.issueRefreshToken(u), Role: u.Role}, nil
}

func (s *Service) userByID(id int) *user {
	var ret *user
	s.users.Range(func(_ string, u *user) bool {
		if u.ID == id {
			ret = u
			return false
		}
		return true
	})
	return ret
}

func (s *Service) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req schema.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeDetail(w, http.StatusBadRequest, "username and password are required")
		return
	}
	u, ok := s.users.Get(req.Username)
	if !ok || bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(req.Password)) != nil {
		writeDetail(w, http.StatusUnauthorized, "Invalid username or password.")
		return
	}
	resp, err := s.tokens(u)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) registerHandler(w http.ResponseWriter, r *http.Request) {
	var req schema.Registration
	if err := decodeBody(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	switch {
	case req.Username == "":
		writeFieldError(w, "username", "This field may not be blank.")
		return
	case len(req.Password) < minPasswordLength:
		writeFieldError(w, "password", "This password is too short. It must contain at least 8 characters.")
		return
	case req.Password != req.Password2:
		writeJSON(w, http.StatusBadRequest, map[string]string{"password2": "Passwords do not match."})
		return
	}
	if err := s.AddUser(req.Username, req.Password, schema.RoleUser); err != nil {
		writeFieldError(w, "username", "A user with that username already exists.")
		return
	}
	u, _ := s.users.Get(req.Username)
	updated := *u
	updated.Email = req.Email
	updated.FirstName = req.FirstName
	updated.LastName = req.LastName
	if req.Phone != "" {
		phone := req.Phone
		updated.Phone = &phone
	}
	s.users.Put(updated.Username, &updated)
	resp, err := s.tokens(&updated)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Detail = "Registration successful."
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Service) refreshHandler(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)
	rotate, reject, omit, delay, _ := s.settings()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	var req schema.RefreshRequest
	if err := decodeBody(r, &req); err != nil || req.Refresh == "" {
		writeFieldError(w, "refresh", "This field is required.")
		return
	}
	username, ok := s.refreshTokens.Get(req.Refresh)
	var u *user
	if ok {
		u, ok = s.users.Get(username)
	}
	// a rotated refresh token is single use, only the request that removes it wins
	if ok && !reject && rotate && !omit {
		ok = s.refreshTokens.Delete(req.Refresh)
	}
	if reject || !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired", "code": "token_not_valid"})
		return
	}
	if omit {
		writeJSON(w, http.StatusOK, map[string]string{})
		return
	}
	access, err := s.issueAccessToken(u)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := &schema.RefreshResponse{Access: access}
	if rotate {
		resp.Refresh = s.issueRefreshToken(u)
	}
	writeJSON(w, http.StatusOK, resp)
}

// authenticate resolves the bearer token into the current user
func (s *Service) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.protectedCalls.Add(1)
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		claims, err := s.parseAccessToken(raw)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Given token not valid for any token type", "code": "token_not_valid"})
			return
		}
		u := s.userByID(claims.UserID)
		if u == nil {
			writeDetail(w, http.StatusUnauthorized, "User not found")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, u)))
	})
}

func (s *Service) meHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r.Context()).profile())
}

func (s *Service) updateMeHandler(w http.ResponseWriter, r *http.Request) {
	var req schema.ProfileUpdate
	if err := decodeBody(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	s.writes.Lock()
	defer s.writes.Unlock()
	current, _ := s.users.Get(currentUser(r.Context()).Username)
	updated := *current
	if req.Email != nil && *req.Email != "" {
		if s.taken(updated.ID, func(u *user) bool { return strings.EqualFold(u.Email, *req.Email) }) {
			writeFieldError(w, "email", "This email is already in use.")
			return
		}
		updated.Email = *req.Email
	}
	if req.Phone != nil && *req.Phone != "" {
		if s.taken(updated.ID, func(u *user) bool { return u.Phone != nil && *u.Phone == *req.Phone }) {
			writeFieldError(w, "phone", "This phone number is already in use.")
			return
		}
		phone := *req.Phone
		updated.Phone = &phone
	}
	if req.FirstName != nil {
		updated.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		updated.LastName = *req.LastName
	}
	s.users.Put(updated.Username, &updated)
	writeJSON(w, http.StatusOK, updated.profile())
}

// taken returns true if another user matches
func (s *Service) taken(id int, match func(u *user) bool) bool {
	ret := false
	s.users.Range(func(_ string, u *user) bool {
		if u.ID != id && match(u) {
			ret = true
			return false
		}
		return true
	})
	return ret
}
