package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/shandysiswandi/crmotp/internal/notification/entity"
	"github.com/shandysiswandi/crmotp/internal/pkg/mail"
	"github.com/shandysiswandi/crmotp/internal/pkg/stacktrace"
)

const defaultMailTimeout = 10 * time.Second

// HeaderDeliveryKind tags outbound mail so relays can route or audit it.
const HeaderDeliveryKind = "X-CRM-Delivery-Kind"

type dispatchInput struct {
	kind     entity.DeliveryKind
	to       string
	template string
	data     map[string]any
}

// dispatch renders and sends exactly one email. Every failure, including a
// panic in the renderer or transport, is returned as a failed result.
func (s *Usecase) dispatch(ctx context.Context, in dispatchInput) (result entity.DeliveryResult) {
	ctx, span := s.startSpan(ctx, "dispatch."+in.kind.String())
	defer span.End()

	defer func() {
		if rvr := recover(); rvr != nil {
			stack := debug.Stack()
			slog.ErrorContext(ctx, "panic while dispatching email", "kind", in.kind, "panic", rvr, "stack", stacktrace.InternalPaths(stack))
			result = entity.Failed(fmt.Sprintf("internal error: %v", rvr))
		}

		if !result.Success {
			span.SetStatus(codes.Error, result.Error)
		}
		s.record(ctx, in, result)
	}()

	rendered, err := s.renderer.Render(in.template, in.data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render email", "kind", in.kind, "error", err)
		return entity.Failed("failed to render email: " + err.Error())
	}

	timeout := s.cfg.GetSecond("modules.notification.mail_timeout_seconds")
	if timeout <= 0 {
		timeout = defaultMailTimeout
	}
	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	messageID, err := s.repoMail.Send(sendCtx, mail.Message{
		To:       []string{in.to},
		Subject:  rendered.Subject,
		HTMLBody: rendered.HTML,
		TextBody: rendered.Text,
		Headers:  map[string]string{HeaderDeliveryKind: in.kind.String()},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("mail transport timed out after %s: %w", timeout, err)
		}
		slog.WarnContext(ctx, "failed to send email", "kind", in.kind, "error", err)
		return entity.Failed(err.Error())
	}

	slog.InfoContext(ctx, "email sent", "kind", in.kind, "message_id", messageID)
	return entity.Delivered(messageID)
}

// record writes the audit row and metric. Failures are logged only.
func (s *Usecase) record(ctx context.Context, in dispatchInput, result entity.DeliveryResult) {
	status := entity.DeliveryStatusSent
	if !result.Success {
		status = entity.DeliveryStatusFailed
	}

	if s.delivered != nil {
		s.delivered.Add(ctx, 1, metric.WithAttributes(
			attribute.String("kind", in.kind.String()),
			attribute.String("status", status.String()),
		))
	}

	if s.repoDB == nil {
		return
	}

	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err := s.repoDB.CreateDeliveryLog(logCtx, entity.DeliveryLog{
		ID:        s.uid.Generate(),
		Kind:      in.kind,
		Recipient: in.to,
		Status:    status,
		MessageID: result.MessageID,
		Error:     result.Error,
		CreatedAt: s.clock.Now(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create delivery log", "kind", in.kind, "error", err)
	}
}

func (s *Usecase) baseTemplateData() map[string]any {
	return map[string]any{
		"AppName": s.cfg.GetString("app.display_name"),
		"Year":    s.clock.Now().Format("2006"),
	}
}
