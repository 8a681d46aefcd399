package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/crmotp/internal/notification/entity"
	"github.com/shandysiswandi/crmotp/internal/pkg/goerror"
	"github.com/shandysiswandi/crmotp/internal/pkg/instrument"
	"github.com/shandysiswandi/crmotp/internal/pkg/testkit"
)

func TestDB_DeliveryLog(t *testing.T) {
	db := NewDB(testkit.Postgres(t, Schema), instrument.NewNoop())
	ctx := t.Context()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, db.CreateDeliveryLog(ctx, entity.DeliveryLog{
		ID: 1, Kind: entity.DeliveryKindOTP, Recipient: "a@b.co",
		Status: entity.DeliveryStatusSent, MessageID: "<x@b.co>", CreatedAt: now,
	}))
	require.NoError(t, db.CreateDeliveryLog(ctx, entity.DeliveryLog{
		ID: 2, Kind: entity.DeliveryKindOTP, Recipient: "a@b.co",
		Status: entity.DeliveryStatusFailed, Error: "dial tcp: refused", CreatedAt: now,
	}))

	err := db.CreateDeliveryLog(ctx, entity.DeliveryLog{ID: 1, Kind: entity.DeliveryKindOTP, Recipient: "a@b.co", CreatedAt: now})
	assert.ErrorIs(t, err, goerror.ErrConflict)

	sent, err := db.CountDeliveries(ctx, "a@b.co", entity.DeliveryKindOTP, entity.DeliveryStatusSent)
	require.NoError(t, err)
	assert.Equal(t, int64(1), sent)

	welcome, err := db.CountDeliveries(ctx, "a@b.co", entity.DeliveryKindWelcome, entity.DeliveryStatusSent)
	require.NoError(t, err)
	assert.Zero(t, welcome)
}
