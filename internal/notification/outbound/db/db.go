package db

import (
	"context"
	_ "embed"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shandysiswandi/crmotp/internal/notification/entity"
	"github.com/shandysiswandi/crmotp/internal/pkg/goerror"
	"github.com/shandysiswandi/crmotp/internal/pkg/instrument"
)

// Schema creates the tables owned by this package.
//
//go:embed schema.sql
var Schema string

type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, ins: ins}
}

func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *DB) CreateDeliveryLog(ctx context.Context, log entity.DeliveryLog) (err error) {
	ctx, span := s.startSpan(ctx, "CreateDeliveryLog")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO notification_delivery_logs (id, kind, recipient, status, message_id, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		log.ID, log.Kind.String(), log.Recipient, int16(log.Status), log.MessageID, log.Error, log.CreatedAt,
	)
	return s.mapError(err)
}

// CountDeliveries returns how many deliveries of kind were recorded for recipient.
func (s *DB) CountDeliveries(ctx context.Context, recipient string, kind entity.DeliveryKind, status entity.DeliveryStatus) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "CountDeliveries")
	defer func() { s.endSpan(span, err) }()

	var n int64
	err = s.conn.QueryRow(ctx, `
		SELECT count(*) FROM notification_delivery_logs
		WHERE recipient = $1 AND kind = $2 AND status = $3`,
		recipient, kind.String(), int16(status),
	).Scan(&n)

	return n, s.mapError(err)
}
