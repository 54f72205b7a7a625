package logger

import (
	"context"
	"time"
)

// Logger is the logging abstraction every component depends on.
// Concrete implementations live next to it (zap.go).
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	// WithContext returns a logger enriched with values carried by ctx
	// (request id, order id).
	WithContext(ctx context.Context) Logger

	// WithFields returns a logger that always writes the given fields.
	WithFields(fields ...Field) Logger

	// Sync flushes any buffered log entries
	Sync() error
}

// Field is one key/value pair of a log entry.
type Field struct {
	Key   string
	Value interface{}
}

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	orderIDKey   ctxKey = "order_id"
)

// ContextWithRequestID stores a request id that WithContext will pick up.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// ContextWithOrderID stores the order being worked on.
func ContextWithOrderID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, orderIDKey, id)
}

func contextFields(ctx context.Context) []Field {
	if ctx == nil {
		return nil
	}
	var fields []Field
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		fields = append(fields, String(string(requestIDKey), v))
	}
	if v, ok := ctx.Value(orderIDKey).(int64); ok && v > 0 {
		fields = append(fields, Int64(string(orderIDKey), v))
	}
	return fields
}

func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

func Error(err error) Field {
	return Field{Key: "error", Value: err}
}

func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}
