package service

import (
	"errors"
	"fmt"
)

// ErrNotFound 请求的命名空间或向量不存在
var ErrNotFound = errors.New("not found")

// ValidationError 请求参数不合法
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func namespaceNotFound(name string) error {
	return fmt.Errorf("namespace %s: %w", name, ErrNotFound)
}

func vectorNotFound(namespace, id string) error {
	return fmt.Errorf("vector %s in namespace %s: %w", id, namespace, ErrNotFound)
}
