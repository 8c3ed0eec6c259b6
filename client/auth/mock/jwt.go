package mock

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenTypeAccess = "access"

// accessClaims mirrors the claim set of the upstream simple-jwt access token,
// Generation lets tests expire every token issued so far.
type accessClaims struct {
	jwt.RegisteredClaims
	TokenType  string `json:"token_type"`
	UserID     int    `json:"user_id"`
	Generation int    `json:"gen"`
}

func (s *Service) issueAccessToken(u *user) (string, error) {
	_, _, _, _, generation := s.settings()
	now := time.Now()
	claims := &accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.AccessTTL)),
		},
		TokenType:  tokenTypeAccess,
		UserID:     u.ID,
		Generation: generation,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.Secret)
}

// issueRefreshToken creates an opaque refresh token bound to username
func (s *Service) issueRefreshToken(u *user) string {
	token := uuid.NewString()
	s.refreshTokens.Put(token, u.Username)
	return token
}

func (s *Service) parseAccessToken(raw string) (*accessClaims, error) {
	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, errors.New("token has wrong type")
	}
	_, _, _, _, generation := s.settings()
	if claims.Generation < generation {
		return nil, errors.New("token is expired")
	}
	return claims, nil
}
