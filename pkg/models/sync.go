package models

// ImportReport summarizes one bulk import run.
type ImportReport struct {
	Total    int      `json:"total"`
	Imported int      `json:"imported"` // confirmed by the webhook
	Fallback int      `json:"fallback"` // stored locally only
	Failed   int      `json:"failed"`
	Invalid  int      `json:"invalid"`
	Errors   []string `json:"errors"`
	Batch    bool     `json:"batch"`
}

// ImportProgress is the state of the running (or last) import.
type ImportProgress struct {
	Running bool    `json:"running"`
	Done    int     `json:"done"`
	Total   int     `json:"total"`
	Ratio   float64 `json:"ratio"`
}

// Settings is what the settings page shows. URLs are masked.
type Settings struct {
	WebhookURL        string `json:"webhook_url"`
	ImageURL          string `json:"image_url"`
	WebhookConfigured bool   `json:"webhook_configured"`
	ImageConfigured   bool   `json:"image_configured"`
	Overridden        bool   `json:"overridden"`
}

// SettingsUpdate sets session-only endpoint overrides. Nil fields are left alone.
type SettingsUpdate struct {
	WebhookURL *string `json:"webhook_url"`
	ImageURL   *string `json:"image_url"`
}

// Event is pushed to websocket subscribers.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const (
	EventNotice         = "notice"
	EventImportProgress = "import_progress"
)

type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}
