package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/crmotp/internal/notification/usecase"
	"github.com/shandysiswandi/crmotp/internal/pkg/instrument"
	"github.com/shandysiswandi/crmotp/internal/pkg/messaging"
	"github.com/shandysiswandi/crmotp/internal/pkg/uid"
	"github.com/shandysiswandi/crmotp/internal/shared/event"
)

type uc interface {
	ConsumeAccountProvisioned(ctx context.Context, in usecase.ConsumeAccountProvisionedInput) error
}

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	if cID, ok := messaging.HeaderValue(headers, event.HeaderCorrelationID); ok && cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) AccountProvisionedNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "AccountProvisionedNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: account provisioned notification", "msg_body", string(body))

	var payload event.AccountProvisionedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of account provisioned notification", "msg_body", string(body), "error", err)
		return nil
	}

	return h.uc.ConsumeAccountProvisioned(ctx, usecase.ConsumeAccountProvisionedInput{
		AccountID:         payload.AccountID,
		Email:             payload.Email,
		FullName:          payload.FullName,
		Role:              payload.Role,
		TemporaryPassword: payload.TemporaryPassword,
	})
}
