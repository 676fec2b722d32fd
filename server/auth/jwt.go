package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTConfig JWT 配置, 仅支持 HS256
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// JWTAuthenticator 校验 Authorization: Bearer <token>
type JWTAuthenticator struct {
	secret []byte
	cfg    JWTConfig
	parser *jwt.Parser
}

// NewJWTAuthenticator 创建 JWT 认证器
func NewJWTAuthenticator(cfg JWTConfig) *JWTAuthenticator {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	return &JWTAuthenticator{
		secret: []byte(cfg.Secret),
		cfg:    cfg,
		parser: jwt.NewParser(opts...),
	}
}

// Method 返回认证方法类型
func (a *JWTAuthenticator) Method() AuthMethod {
	return AuthMethodJWT
}

// Credential 读取 Bearer token
func (a *JWTAuthenticator) Credential(r *http.Request) string {
	return bearerToken(r)
}

// Validate 校验签名、过期时间、issuer 和 audience
func (a *JWTAuthenticator) Validate(_ context.Context, tokenString string) (*Principal, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := a.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	return &Principal{Subject: claims.Subject, Method: AuthMethodJWT}, nil
}

// GenerateToken 为 subject 签发 token
func (a *JWTAuthenticator) GenerateToken(subject string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(a.cfg.TTL)

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    a.cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	if a.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{a.cfg.Audience}
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}
