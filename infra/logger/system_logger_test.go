package logger

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(maxRecent int) *SystemLogger {
	return NewSystemLogger(nil, SystemLoggerConfig{
		MinLevel:  LevelDebug,
		Service:   "paybridge-test",
		MaxRecent: maxRecent,
	})
}

func TestRedactFields(t *testing.T) {
	fields := map[string]any{
		"cardNumber":    "4242 4242 4242 4242",
		"cvc":           "123",
		"clientToken":   "eyJ2ZXJzaW9uIjoyfQ==",
		"secretKey":     "sk_live_abc",
		"amount":        2500,
		"currency":      "usd",
		"authorization": "Bearer abc",
	}

	redacted := RedactFields(fields)

	assert.Equal(t, "****4242", redacted["cardNumber"])
	assert.Equal(t, "[REDACTED]", redacted["cvc"])
	assert.Equal(t, "[REDACTED]", redacted["clientToken"])
	assert.Equal(t, "[REDACTED]", redacted["secretKey"])
	assert.Equal(t, "[REDACTED]", redacted["authorization"])
	assert.Equal(t, 2500, redacted["amount"])
	assert.Equal(t, "usd", redacted["currency"])

	// Input map must not be touched.
	assert.Equal(t, "4242 4242 4242 4242", fields["cardNumber"])
}

func TestRedactFields_Nested(t *testing.T) {
	fields := map[string]any{
		"request": map[string]any{
			"card_number": "378282246310005",
			"email":       "buyer@example.com",
		},
	}

	redacted := RedactFields(fields)
	nested, ok := redacted["request"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "****0005", nested["card_number"])
	assert.Equal(t, "buyer@example.com", nested["email"])
}

func TestRedactFields_Nil(t *testing.T) {
	assert.Nil(t, RedactFields(nil))
}

func TestTokenPreview(t *testing.T) {
	assert.Equal(t, "pm_1ABCd...", TokenPreview("pm_1ABCdEfGhIjKl"))
	assert.Equal(t, "[REDACTED]", TokenPreview("short"))
	assert.Equal(t, "[REDACTED]", TokenPreview(""))
}

func TestSystemLogger_RecentBuffer(t *testing.T) {
	sl := newTestLogger(3)

	for i := 0; i < 5; i++ {
		sl.Info(fmt.Sprintf("message %d", i))
	}

	recent := sl.Recent()
	require.Len(t, recent, 3)
	assert.Equal(t, "message 2", recent[0].Message)
	assert.Equal(t, "message 4", recent[2].Message)
}

func TestSystemLogger_RedactsBeforeBuffering(t *testing.T) {
	sl := newTestLogger(10)

	sl.Info("tokenizing card", LogContext{
		Gateway: "Stripe",
		Fields:  map[string]any{"cardNumber": "4242424242424242"},
	})

	recent := sl.Recent()
	require.Len(t, recent, 1)
	assert.Equal(t, "****4242", recent[0].Fields["cardNumber"])
	assert.Equal(t, "Stripe", recent[0].Gateway)
}

func TestSystemLogger_MinLevel(t *testing.T) {
	sl := NewSystemLogger(nil, SystemLoggerConfig{
		MinLevel: LevelWarn,
		Service:  "paybridge-test",
	})

	sl.Debug("dropped")
	sl.Info("dropped")
	sl.Warn("kept")
	sl.Error("kept too", assert.AnError)

	recent := sl.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, LevelWarn, recent[0].Level)
	assert.Equal(t, LevelError, recent[1].Level)
	assert.Equal(t, assert.AnError.Error(), recent[1].Error)
}
