package entity

import "time"

// DeliveryResult reports the outcome of one outbound email. MessageID is set
// on success, Error on failure.
type DeliveryResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

func Delivered(messageID string) DeliveryResult {
	return DeliveryResult{Success: true, MessageID: messageID}
}

func Failed(reason string) DeliveryResult {
	return DeliveryResult{Success: false, Error: reason}
}

type DeliveryKind string

const (
	DeliveryKindOTP     DeliveryKind = "otp"
	DeliveryKindWelcome DeliveryKind = "welcome"
)

func (k DeliveryKind) String() string { return string(k) }

type DeliveryStatus int16

const (
	DeliveryStatusUnknown DeliveryStatus = 0
	DeliveryStatusSent    DeliveryStatus = 1
	DeliveryStatusFailed  DeliveryStatus = 2
)

func (s DeliveryStatus) String() string {
	switch s {
	case DeliveryStatusSent:
		return "sent"
	case DeliveryStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DeliveryLog is the audit row written for every dispatch attempt. It never
// carries the passcode or temporary password.
type DeliveryLog struct {
	ID        int64
	Kind      DeliveryKind
	Recipient string
	Status    DeliveryStatus
	MessageID string
	Error     string
	CreatedAt time.Time
}
