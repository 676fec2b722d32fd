package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wordflowlab/vectorhub/pkg/logging"
)

var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("expired token")
)

// AuthMethod 认证方法类型
type AuthMethod string

const (
	AuthMethodAPIKey AuthMethod = "apikey"
	AuthMethodJWT    AuthMethod = "jwt"
)

// principalKey gin.Context 中保存调用方身份的 key
const principalKey = "auth.principal"

// Principal 通过认证的调用方
type Principal struct {
	Subject string     `json:"subject"`
	Method  AuthMethod `json:"method"`
}

// Authenticator 认证器接口
type Authenticator interface {
	Method() AuthMethod
	// Credential 从请求中提取凭证, 不存在时返回空串
	Credential(r *http.Request) string
	Validate(ctx context.Context, credential string) (*Principal, error)
}

// Manager 按注册顺序尝试各认证器, 第一个带凭证的认证器决定结果
type Manager struct {
	authenticators []Authenticator
}

// NewManager 创建认证管理器
func NewManager(authenticators ...Authenticator) *Manager {
	return &Manager{authenticators: authenticators}
}

// Register 注册认证器
func (m *Manager) Register(a Authenticator) {
	m.authenticators = append(m.authenticators, a)
}

// Enabled 是否注册了任何认证器
func (m *Manager) Enabled() bool {
	return m != nil && len(m.authenticators) > 0
}

// Authenticate 校验请求
func (m *Manager) Authenticate(r *http.Request) (*Principal, error) {
	for _, a := range m.authenticators {
		cred := a.Credential(r)
		if cred == "" {
			continue
		}
		return a.Validate(r.Context(), cred)
	}
	return nil, ErrMissingCredentials
}

// Middleware 认证中间件, 失败时返回 401
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.Enabled() {
			c.Next()
			return
		}
		p, err := m.Authenticate(c.Request)
		if err != nil {
			logging.Warn(c.Request.Context(), "auth.rejected", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   err.Error(),
			})
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// PrincipalFrom 返回当前请求的调用方, 未认证时为 nil
func PrincipalFrom(c *gin.Context) *Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*Principal)
	return p
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
