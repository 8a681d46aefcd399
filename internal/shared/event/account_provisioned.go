package event

const AccountProvisionedDestination string = "account_provisioned"
const AccountProvisionedConsumerNotification string = "account_provisioned_notification"

// HeaderCorrelationID carries the correlation id across the broker.
const HeaderCorrelationID string = "cID"

// AccountProvisionedMessage is published when an account is created with a
// temporary password. The payload is the only place the plaintext temporary
// password travels; consumers must not persist it.
type AccountProvisionedMessage struct {
	AccountID         int64  `json:"account_id"`
	Email             string `json:"email"`
	FullName          string `json:"full_name"`
	Role              string `json:"role"`
	TemporaryPassword string `json:"temporary_password"`
}
