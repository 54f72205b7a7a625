package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestContextFields(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithOrderID(ctx, 1001)

	fields := contextFields(ctx)

	assert.Equal(t, []Field{
		String("request_id", "req-1"),
		Int64("order_id", 1001),
	}, fields)
}

func TestContextFields_Empty(t *testing.T) {
	assert.Empty(t, contextFields(context.Background()))
}

func TestConvertFields(t *testing.T) {
	fields := convertFields([]Field{
		String("s", "v"),
		Int("i", 1),
		Duration("d", time.Second),
		Error(errors.New("boom")),
		Any("a", []int{1}),
	})

	assert.Len(t, fields, 5)
	assert.Equal(t, zapcore.StringType, fields[0].Type)
	assert.Equal(t, zapcore.Int64Type, fields[1].Type)
	assert.Equal(t, zapcore.DurationType, fields[2].Type)
	assert.Equal(t, zapcore.ErrorType, fields[3].Type)
}

func TestNop_WithContext(t *testing.T) {
	l := NewNop()
	assert.Same(t, l, l.WithContext(context.Background()))
	assert.NotSame(t, l, l.WithContext(ContextWithRequestID(context.Background(), "x")))
}
