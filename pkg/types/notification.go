package types

// Severity grades a user-visible notification.
type Severity string

// Notification severities.
const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is a message for the user, emitted on every success and
// failure path of the editor.
type Notification struct {
	Severity Severity `json:"severity"`
	Text     string   `json:"text"`
}

// Notifier receives notifications. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(n Notification)
}
