package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const resetAudience = "password-reset"

var ErrInvalidToken = errors.New("invalid reset token")

type resetClaims struct {
	Stamp string `json:"stm"`
	jwt.RegisteredClaims
}

// ResetTokens HS256 签名的重置密码令牌
type ResetTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewResetTokens(secret string, ttl time.Duration) *ResetTokens {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ResetTokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *ResetTokens) Issue(userID uint64, stamp string) (string, error) {
	now := t.now()
	claims := resetClaims{
		Stamp: stamp,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			Audience:  jwt.ClaimStrings{resetAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *ResetTokens) Parse(token string) (uint64, string, error) {
	var claims resetClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(resetAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return 0, "", errors.Join(ErrInvalidToken, err)
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, "", ErrInvalidToken
	}
	return id, claims.Stamp, nil
}
