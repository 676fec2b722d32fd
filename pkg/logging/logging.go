package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level 日志级别
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

var levelOrder = map[Level]int{
	LevelDebug: 1,
	LevelInfo:  2,
	LevelWarn:  3,
	LevelError: 4,
}

// ParseLevel 解析配置中的日志级别, 大小写不敏感
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	if l == "warning" {
		l = LevelWarn
	}
	if _, ok := levelOrder[l]; !ok {
		return LevelInfo, fmt.Errorf("unknown log level: %q", s)
	}
	return l, nil
}

// LogRecord 标准化日志记录结构
type LogRecord struct {
	Timestamp time.Time              `json:"ts"`
	Level     Level                  `json:"level"`
	Message   string                 `json:"message"`
	RequestID string                 `json:"request_id,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Transport 日志输出通道接口
type Transport interface {
	Name() string
	Log(ctx context.Context, rec *LogRecord) error
	Flush(ctx context.Context) error
}

type requestIDKey struct{}

// WithRequestID 将请求 ID 放入 context, 之后的日志会自动带上
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID 从 context 中读取请求 ID
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Logger 聚合多个 Transport, 提供统一的日志接口
type Logger struct {
	mu         sync.RWMutex
	level      Level
	transports []Transport
}

// NewLogger 创建 Logger 实例
func NewLogger(level Level, transports ...Transport) *Logger {
	return &Logger{
		level:      level,
		transports: transports,
	}
}

// SetLevel 设置日志级别, 可在运行时调用
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Level 返回当前日志级别
func (l *Logger) Level() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

// SetTransports 替换全部 transport
func (l *Logger) SetTransports(transports ...Transport) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.transports = transports
}

func (l *Logger) log(ctx context.Context, level Level, msg string, fields map[string]interface{}) {
	if !l.enabled(level) {
		return
	}

	rec := &LogRecord{
		Timestamp: time.Now(),
		Level:     level,
		Message:   msg,
		RequestID: RequestID(ctx),
		Fields:    fields,
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, t := range l.transports {
		_ = t.Log(ctx, rec)
	}
}

func (l *Logger) enabled(level Level) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return levelOrder[level] >= levelOrder[l.level]
}

// Debug 记录调试日志
func (l *Logger) Debug(ctx context.Context, msg string, fields map[string]interface{}) {
	l.log(ctx, LevelDebug, msg, fields)
}

// Info 记录信息日志
func (l *Logger) Info(ctx context.Context, msg string, fields map[string]interface{}) {
	l.log(ctx, LevelInfo, msg, fields)
}

// Warn 记录警告日志
func (l *Logger) Warn(ctx context.Context, msg string, fields map[string]interface{}) {
	l.log(ctx, LevelWarn, msg, fields)
}

// Error 记录错误日志
func (l *Logger) Error(ctx context.Context, msg string, fields map[string]interface{}) {
	l.log(ctx, LevelError, msg, fields)
}

// Flush 刷新所有 transports
func (l *Logger) Flush(ctx context.Context) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, t := range l.transports {
		_ = t.Flush(ctx)
	}
}

// WriterTransport 将日志记录以 JSON 行的形式写到任意 io.Writer
type WriterTransport struct {
	mu      sync.Mutex
	name    string
	encoder *json.Encoder
}

// NewWriterTransport 创建 WriterTransport
func NewWriterTransport(name string, w io.Writer) *WriterTransport {
	return &WriterTransport{name: name, encoder: json.NewEncoder(w)}
}

// NewStdoutTransport 创建写 stdout 的 transport
func NewStdoutTransport() *WriterTransport {
	return NewWriterTransport("stdout", os.Stdout)
}

func (t *WriterTransport) Name() string { return t.name }

func (t *WriterTransport) Log(_ context.Context, rec *LogRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.encoder.Encode(rec)
}

func (t *WriterTransport) Flush(context.Context) error { return nil }

// FileTransport 将日志记录以 JSON 行追加到文件
type FileTransport struct {
	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
}

// NewFileTransport 创建 FileTransport, path 为日志文件路径
func NewFileTransport(path string) (*FileTransport, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileTransport{
		file:    f,
		encoder: json.NewEncoder(f),
	}, nil
}

func (t *FileTransport) Name() string { return "file" }

func (t *FileTransport) Log(_ context.Context, rec *LogRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.encoder.Encode(rec)
}

func (t *FileTransport) Flush(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.file.Sync()
}

// Close 关闭底层文件
func (t *FileTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.file.Close()
}

// Default 全局 Logger, 服务层和 HTTP 中间件都通过它输出
var Default = NewLogger(LevelInfo, NewStdoutTransport())

func Debug(ctx context.Context, msg string, fields map[string]interface{}) {
	Default.Debug(ctx, msg, fields)
}

func Info(ctx context.Context, msg string, fields map[string]interface{}) {
	Default.Info(ctx, msg, fields)
}

func Warn(ctx context.Context, msg string, fields map[string]interface{}) {
	Default.Warn(ctx, msg, fields)
}

func Error(ctx context.Context, msg string, fields map[string]interface{}) {
	Default.Error(ctx, msg, fields)
}

func Flush(ctx context.Context) {
	Default.Flush(ctx)
}
