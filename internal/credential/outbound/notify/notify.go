package notify

import (
	"context"
	"errors"

	notifentity "github.com/shandysiswandi/crmotp/internal/notification/entity"
	notifusecase "github.com/shandysiswandi/crmotp/internal/notification/usecase"
)

type dispatcher interface {
	SendOTPEmail(ctx context.Context, in notifusecase.SendOTPEmailInput) notifentity.DeliveryResult
}

// Notifier hands passcodes to the notification module.
type Notifier struct {
	dispatcher dispatcher
}

func New(d dispatcher) *Notifier {
	return &Notifier{dispatcher: d}
}

// SendOTP returns the transport failure reason as an error.
func (n *Notifier) SendOTP(ctx context.Context, to, code, name string) (string, error) {
	result := n.dispatcher.SendOTPEmail(ctx, notifusecase.SendOTPEmailInput{To: to, Code: code, Name: name})
	if !result.Success {
		return "", errors.New(result.Error)
	}
	return result.MessageID, nil
}
