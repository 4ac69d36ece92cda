package config

import "sync"

// Runtime holds the endpoints the process was started with plus optional
// session-only overrides set from the settings API. Overrides live in memory
// and are lost on restart; changing the real endpoints means redeploying.
type Runtime struct {
	mu sync.RWMutex

	baseWebhook string
	baseImage   string

	webhook *string
	image   *string
}

func NewRuntime(cfg *Config) *Runtime {
	return &Runtime{baseWebhook: cfg.WebhookURL, baseImage: cfg.ImageURL}
}

func (r *Runtime) WebhookURL() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.webhook != nil {
		return *r.webhook
	}
	return r.baseWebhook
}

func (r *Runtime) ImageURL() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.image != nil {
		return *r.image
	}
	return r.baseImage
}

// Override replaces the endpoints for the rest of the session. A nil argument
// leaves that endpoint untouched.
func (r *Runtime) Override(webhookURL, imageURL *string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if webhookURL != nil {
		v := *webhookURL
		r.webhook = &v
	}
	if imageURL != nil {
		v := *imageURL
		r.image = &v
	}
}

func (r *Runtime) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.webhook = nil
	r.image = nil
}

func (r *Runtime) Overridden() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.webhook != nil || r.image != nil
}

// Mask shortens a URL for display: first 16 and last 6 characters. Short
// URLs keep at most half of their characters.
func Mask(url string) string {
	if url == "" {
		return "Not configured"
	}
	if len(url) <= 22 {
		return url[:min(len(url)/2, 16)] + "…"
	}
	return url[:16] + "…" + url[len(url)-6:]
}
