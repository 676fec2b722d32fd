package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
)

// APIKeyAuthenticator 静态 API Key 认证器。
// 只保存 key 的 SHA-256 摘要, 比较时使用常量时间。
type APIKeyAuthenticator struct {
	header string
	hashes [][]byte
}

// NewAPIKeyAuthenticator 创建 API Key 认证器, header 为空时使用 "X-API-Key"
func NewAPIKeyAuthenticator(header string, keys []string) *APIKeyAuthenticator {
	if header == "" {
		header = "X-API-Key"
	}
	a := &APIKeyAuthenticator{header: header}
	for _, k := range keys {
		if k == "" {
			continue
		}
		sum := sha256.Sum256([]byte(k))
		a.hashes = append(a.hashes, sum[:])
	}
	return a
}

// Method 返回认证方法类型
func (a *APIKeyAuthenticator) Method() AuthMethod {
	return AuthMethodAPIKey
}

// Credential 读取 API Key 请求头
func (a *APIKeyAuthenticator) Credential(r *http.Request) string {
	return r.Header.Get(a.header)
}

// Validate 校验 API Key
func (a *APIKeyAuthenticator) Validate(_ context.Context, key string) (*Principal, error) {
	if key == "" {
		return nil, ErrMissingCredentials
	}
	sum := sha256.Sum256([]byte(key))
	for _, h := range a.hashes {
		if subtle.ConstantTimeCompare(sum[:], h) == 1 {
			// 以摘要前缀标识调用方, 不在日志中暴露 key
			return &Principal{Subject: "key:" + hex.EncodeToString(h[:4]), Method: AuthMethodAPIKey}, nil
		}
	}
	return nil, ErrInvalidCredentials
}
