package models

type NotificationType string

const (
	NotificationInfo          NotificationType = "info"
	NotificationWarning       NotificationType = "warning"
	NotificationEventReminder NotificationType = "event_reminder"
)

type Notification struct {
	ID        int64            `json:"id"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	IsRead    bool             `json:"is_read"`
	CreatedAt string           `json:"created_at"`
	Link      string           `json:"link,omitempty"`
}

type MarkReadRequest struct {
	IDs []string `json:"notification_ids"`
}

// Unread filters notifications that have not been read.
func Unread(all []Notification) []Notification {
	var out []Notification
	for _, n := range all {
		if !n.IsRead {
			out = append(out, n)
		}
	}
	return out
}
