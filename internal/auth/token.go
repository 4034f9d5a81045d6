package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken はトークン検証失敗を表す。
// 署名不一致、期限切れ、形式不正、subject欠落などを区別せず、この1種類のみを返す。
var ErrInvalidToken = errors.New("invalid token")

// DefaultTokenTTL はTOKEN_TTL未指定時のトークン有効期間。
const DefaultTokenTTL = 24 * time.Hour

// TokenCodec はHS256署名付きJWTの発行と検証を行う。
// 生成後は状態を変更しないため、複数goroutineから同時に利用できる。
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewTokenCodec はTokenCodecを生成する。
// ttlが0以下の場合はDefaultTokenTTLを使用する。
func NewTokenCodec(secret []byte, ttl time.Duration, issuer string) *TokenCodec {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenCodec{
		secret: secret,
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}
}

// Issue はsubjectIDを主体とするトークンを発行する。
// 有効期限は発行時刻からttl後。
func (c *TokenCodec) Issue(subjectID string) (string, error) {
	if subjectID == "" {
		return "", errors.New("subject ID is required")
	}

	now := c.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Issuer:    c.issuer,
		Subject:   subjectID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate はトークンを検証し、subjectIDを返す。
// 失敗時は常にErrInvalidTokenを返す。
func (c *TokenCodec) Validate(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
