package mq

import (
	"context"
	"encoding/json"
	"strconv"

	"go.opentelemetry.io/otel/codes"

	"github.com/shandysiswandi/crmotp/internal/credential/usecase"
	"github.com/shandysiswandi/crmotp/internal/pkg/instrument"
	"github.com/shandysiswandi/crmotp/internal/pkg/messaging"
	"github.com/shandysiswandi/crmotp/internal/shared/event"
)

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishAccountProvisioned(ctx context.Context, msg usecase.AccountProvisionedEvent) error {
	ctx, span := m.ins.Tracer("credential.outbound.mq").Start(ctx, "PublishAccountProvisioned")
	defer span.End()

	body, err := json.Marshal(event.AccountProvisionedMessage{
		AccountID:         msg.AccountID,
		Email:             msg.Email,
		FullName:          msg.FullName,
		Role:              msg.Role,
		TemporaryPassword: msg.TemporaryPassword,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.AccountProvisionedDestination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(strconv.FormatInt(msg.AccountID, 10)),
		Headers: []messaging.Header{{Key: event.HeaderCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
