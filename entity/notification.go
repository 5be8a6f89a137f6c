package entity

import (
	"time"
)

type NotificationCategory string

const (
	NotificationTicketIssued         NotificationCategory = "ticket_issued"
	NotificationRegistrationReceived NotificationCategory = "registration_received"
	NotificationReminder             NotificationCategory = "reminder"
	NotificationAnnouncement         NotificationCategory = "announcement"
	NotificationSocial               NotificationCategory = "social"
)

type Notification struct {
	ID                string               `json:"id" db:"notification_id"`
	UserID            string               `json:"userId" db:"user_id"`
	Category          NotificationCategory `json:"category" db:"category"`
	Title             string               `json:"title" db:"title"`
	Message           string               `json:"message" db:"message"`
	EventID           *string              `json:"eventId,omitempty" db:"event_id"`
	RelatedUserID     *string              `json:"relatedUserId,omitempty" db:"related_user_id"`
	RelatedUserName   *string              `json:"relatedUserName,omitempty" db:"related_user_name"`
	RelatedUserAvatar *string              `json:"relatedUserAvatar,omitempty" db:"related_user_avatar"`
	Read              bool                 `json:"read" db:"is_read"`
	CreatedAt         time.Time            `json:"createdAt" db:"created_at"`
}
