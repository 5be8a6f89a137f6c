package entity

import (
	"time"
)

type Ticket struct {
	ID                    string     `json:"id" db:"ticket_id"`
	UserID                string     `json:"userId" db:"user_id"`
	EventID               string     `json:"eventId" db:"event_id"`
	EventName             string     `json:"eventName" db:"event_name"`
	EventDate             string     `json:"eventDate" db:"event_date"`
	EventTime             string     `json:"eventTime" db:"event_time"`
	EventLocation         string     `json:"eventLocation" db:"event_location"`
	EventImageURL         string     `json:"eventImageUrl" db:"event_image_url"`
	EventImageHint        string     `json:"eventImageHint" db:"event_image_hint"`
	QRCodeRef             string     `json:"qrCodeRef" db:"qr_code_ref"`
	PurchasedAt           time.Time  `json:"purchasedAt" db:"purchased_at"`
	MidtransOrderID       string     `json:"midtransOrderId" db:"midtrans_order_id"`
	MidtransTransactionID *string    `json:"midtransTransactionId,omitempty" db:"midtrans_transaction_id"`
	DeletedAt             *time.Time `json:"-" db:"deleted_at"`
}

func QRCodeRef(ticketID string) string {
	return "UPJEH-TICKET:" + ticketID
}
