// Package alerts stores per-user notifications, derives them from analysis
// output and streams new ones over WebSocket.
package alerts

// Severities.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alert is one notification row.
type Alert struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	Message   string `json:"message"`
	Severity  string `json:"severity"`
	Seen      bool   `json:"seen"`
	CreatedAt int64  `json:"created_at"`
}

// NewAlert is an alert about to be written, before it has an id.
type NewAlert struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
}
