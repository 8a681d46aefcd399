package usecase

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/shandysiswandi/crmotp/internal/notification/entity"
	"github.com/shandysiswandi/crmotp/internal/pkg/clock"
	"github.com/shandysiswandi/crmotp/internal/pkg/config"
	"github.com/shandysiswandi/crmotp/internal/pkg/idempotency"
	"github.com/shandysiswandi/crmotp/internal/pkg/instrument"
	"github.com/shandysiswandi/crmotp/internal/pkg/mail"
	"github.com/shandysiswandi/crmotp/internal/pkg/uid"
	"github.com/shandysiswandi/crmotp/internal/pkg/validator"
)

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) (string, error)
}

type repoDB interface {
	CreateDeliveryLog(ctx context.Context, log entity.DeliveryLog) error
}

type Dependency struct {
	RepoMail    repoMail
	RepoDB      repoDB
	Renderer    Renderer
	Config      config.Config
	UID         uid.NumberID
	Clock       clock.Clocker
	Validator   validator.Validator
	Idempotency idempotency.Idempotency
	Instrument  instrument.Instrumentation
}

// Usecase dispatches credential emails and consumes provisioning events.
type Usecase struct {
	repoMail  repoMail
	repoDB    repoDB
	renderer  Renderer
	cfg       config.Config
	uid       uid.NumberID
	clock     clock.Clocker
	validator validator.Validator
	idem      idempotency.Idempotency
	ins       instrument.Instrumentation
	delivered metric.Int64Counter
}

func NewNotification(dep Dependency) *Usecase {
	delivered, err := dep.Instrument.Meter("notification.usecase").Int64Counter(
		"notification.email.deliveries",
		metric.WithDescription("Outbound emails by kind and status"),
	)
	if err != nil {
		slog.Warn("failed to create delivery counter", "error", err)
	}

	return &Usecase{
		repoMail:  dep.RepoMail,
		repoDB:    dep.RepoDB,
		renderer:  dep.Renderer,
		cfg:       dep.Config,
		uid:       dep.UID,
		clock:     dep.Clock,
		validator: dep.Validator,
		idem:      dep.Idempotency,
		ins:       dep.Instrument,
		delivered: delivered,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}
