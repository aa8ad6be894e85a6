package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rps-arena/models"
)

func TestRelayHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	relay := NewRelayClient(srv.URL)
	require.NoError(t, relay.Health(context.Background()))
}

func TestRelayHealthReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	relay := NewRelayClient(srv.URL)
	assert.Error(t, relay.Health(context.Background()))

	srv.Close()
	assert.Error(t, relay.Health(context.Background()), "unreachable relay must error")
}

func TestStoreRevealPayload(t *testing.T) {
	var got struct {
		GameID              string `json:"gameId"`
		EncryptedRevealData string `json:"encryptedRevealData"`
	}
	var requestID string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/store-reveal", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		requestID = r.Header.Get("X-Request-ID")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	relay := NewRelayClient(srv.URL)
	pc := &models.PendingCommitment{
		RoundID:    42,
		Choice:     models.ChoicePaper,
		Nonce:      "123456789",
		Account:    "0x1111111111111111111111111111111111111111",
		CommitHash: "0xab",
	}
	require.NoError(t, relay.StoreReveal(context.Background(), pc))

	assert.Equal(t, "42", got.GameID)
	assert.NotEmpty(t, requestID)

	// The blob must round-trip back to the commitment the bot needs.
	raw, err := base64.StdEncoding.DecodeString(got.EncryptedRevealData)
	require.NoError(t, err)
	var decoded models.PendingCommitment
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, pc.RoundID, decoded.RoundID)
	assert.Equal(t, pc.Choice, decoded.Choice)
	assert.Equal(t, pc.Nonce, decoded.Nonce)
	assert.Equal(t, pc.Account, decoded.Account)
}

func TestStoreRevealRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	relay := NewRelayClient(srv.URL)
	err := relay.StoreReveal(context.Background(), &models.PendingCommitment{RoundID: 1})
	assert.Error(t, err)
}
