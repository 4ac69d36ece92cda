package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuntime_OverrideAndReset(t *testing.T) {
	rt := NewRuntime(&Config{WebhookURL: "https://n8n.example.com/webhook/members", ImageURL: "https://img.example.com"})
	assert.False(t, rt.Overridden())

	hook := "http://localhost:5678/webhook/test"
	rt.Override(&hook, nil)
	hook = "mutated after the call"

	assert.True(t, rt.Overridden())
	assert.Equal(t, "http://localhost:5678/webhook/test", rt.WebhookURL())
	assert.Equal(t, "https://img.example.com", rt.ImageURL())

	empty := ""
	rt.Override(nil, &empty)
	assert.Equal(t, "", rt.ImageURL())

	rt.Reset()
	assert.False(t, rt.Overridden())
	assert.Equal(t, "https://n8n.example.com/webhook/members", rt.WebhookURL())
	assert.Equal(t, "https://img.example.com", rt.ImageURL())
}

func TestMask(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "Not configured"},
		{"http://short.io", "http://…"},
		{"http://a", "http…"},
		{"https://n8n.example.io", "https://n8n…"},
		{"https://n8n.example.com/webhook/members", "https://n8n.exam…embers"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Mask(tt.in), tt.in)
	}
}
