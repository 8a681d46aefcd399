package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/crmotp/internal/credential/usecase"
	"github.com/shandysiswandi/crmotp/internal/pkg/instrument"
	"github.com/shandysiswandi/crmotp/internal/pkg/messaging"
	"github.com/shandysiswandi/crmotp/internal/shared/event"
)

type fakeBroker struct {
	messaging.Messaging
	topic string
	msg   messaging.OutgoingMessage
	err   error
}

func (f *fakeBroker) Publish(_ context.Context, destination string, msg messaging.OutgoingMessage) (messaging.PublishResult, error) {
	f.topic, f.msg = destination, msg
	return messaging.PublishResult{}, f.err
}

func TestMessaging_PublishAccountProvisioned(t *testing.T) {
	broker := &fakeBroker{}
	m := NewMessaging(broker, instrument.NewNoop())

	ctx := instrument.SetCorrelationID(t.Context(), "cid-1")
	err := m.PublishAccountProvisioned(ctx, usecase.AccountProvisionedEvent{
		AccountID:         42,
		Email:             "ops@acme.test",
		FullName:          "Ops Lead",
		Role:              "admin",
		TemporaryPassword: "Ab12-Cd34-Ef56",
	})
	require.NoError(t, err)

	assert.Equal(t, event.AccountProvisionedDestination, broker.topic)
	assert.Equal(t, []byte("42"), broker.msg.Key)

	cID, ok := messaging.HeaderValue(broker.msg.Headers, event.HeaderCorrelationID)
	assert.True(t, ok)
	assert.Equal(t, "cid-1", cID)

	var payload event.AccountProvisionedMessage
	require.NoError(t, json.Unmarshal(broker.msg.Body, &payload))
	assert.Equal(t, event.AccountProvisionedMessage{
		AccountID:         42,
		Email:             "ops@acme.test",
		FullName:          "Ops Lead",
		Role:              "admin",
		TemporaryPassword: "Ab12-Cd34-Ef56",
	}, payload)
}

func TestMessaging_PublishAccountProvisioned_Error(t *testing.T) {
	broker := &fakeBroker{err: errors.New("nats: connection closed")}
	m := NewMessaging(broker, instrument.NewNoop())

	err := m.PublishAccountProvisioned(t.Context(), usecase.AccountProvisionedEvent{AccountID: 1})
	assert.EqualError(t, err, "nats: connection closed")
}
