package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractStripeSessionID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"present", "https://shop.example.com/return?session_id=cs_test_a1B2c3", "cs_test_a1B2c3"},
		{"among other params", "https://shop.example.com/return?order=42&session_id=cs_live_x9&utm=mail", "cs_live_x9"},
		{"absent", "https://shop.example.com/return?order=42", ""},
		{"empty url", "", ""},
		{"unparseable", "http://exa mple.com/?session_id=cs_1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractStripeSessionID(tt.url))
		})
	}
}

func TestStripeRedirectClassification(t *testing.T) {
	assert.True(t, IsStripeSuccessRedirect("https://shop.example.com/return?session_id=cs_test_1"))
	assert.False(t, IsStripeSuccessRedirect("https://shop.example.com/return"))
	assert.False(t, IsStripeSuccessRedirect("https://shop.example.com/return?session_id=cs_test_1&canceled=true"))

	assert.True(t, IsStripeCancelRedirect("https://shop.example.com/return?canceled=true"))
	assert.True(t, IsStripeCancelRedirect("https://shop.example.com/return?cancel=true"))
	assert.False(t, IsStripeCancelRedirect("https://shop.example.com/return?canceled=false"))
	assert.False(t, IsStripeCancelRedirect("https://shop.example.com/return"))
}
