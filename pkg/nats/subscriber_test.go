package nats

import (
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMessage(t *testing.T) {
	at := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	header := nats.Header{}
	header.Set(HeaderOccurredAt, at.Format(time.RFC3339Nano))

	evt, err := DecodeMessage("events.record_changed", header, []byte(`{"record_id":"01HQ","count":3}`))
	require.NoError(t, err)

	assert.Equal(t, "record_changed", evt.EventType())
	assert.Equal(t, "01HQ", evt.Payload()["record_id"])
	assert.Equal(t, float64(3), evt.Payload()["count"])
	assert.True(t, at.Equal(evt.Timestamp()))
}

func TestDecodeMessageRejectsGarbage(t *testing.T) {
	_, err := DecodeMessage("events.x", nil, []byte("not json"))
	assert.Error(t, err)
}
