package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ID    string   `json:"id"`
	Words []string `json:"words"`
}

func TestDecodeJSON(t *testing.T) {
	got, err := DecodeJSON[sample]([]byte(`{"id":"a","words":["x","y"]}`))
	require.NoError(t, err)
	assert.Equal(t, sample{ID: "a", Words: []string{"x", "y"}}, got)

	_, err = DecodeJSON[sample]([]byte(`{"id":`))
	assert.Error(t, err)
}

func TestPingWithoutBrokers(t *testing.T) {
	assert.Error(t, Ping(context.Background(), nil))
}

func TestPingUnreachableBroker(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	assert.Error(t, Ping(ctx, []string{"127.0.0.1:1"}))
}
