// services/relay_client.go
package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"rps-arena/models"
)

// RelayClient talks to the off-chain bot service that stores reveal payloads
// and performs the auto-reveal on the creator's behalf. The bot is an external
// collaborator; we only consume its two endpoints.
type RelayClient struct {
	BaseURL string
	Client  *http.Client
}

func NewRelayClient(baseURL string) *RelayClient {
	return &RelayClient{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Health checks GET /health. A nil error means the bot is reachable.
func (c *RelayClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("relay unreachable: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("relay health returned %d", resp.StatusCode)
	}
	return nil
}

type storeRevealRequest struct {
	GameID              string `json:"gameId"`
	EncryptedRevealData string `json:"encryptedRevealData"`
}

// StoreReveal posts the reveal payload to /api/store-reveal. The payload is
// the base64 of the commitment JSON, the opaque blob format the bot expects.
func (c *RelayClient) StoreReveal(ctx context.Context, pc *models.PendingCommitment) error {
	blob, err := json.Marshal(pc)
	if err != nil {
		return err
	}
	body, err := json.Marshal(storeRevealRequest{
		GameID:              fmt.Sprintf("%d", pc.RoundID),
		EncryptedRevealData: base64.StdEncoding.EncodeToString(blob),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/api/store-reveal", bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("relay store-reveal request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Printf("[RELAY] ❌ store-reveal for round %d returned %d: %s", pc.RoundID, resp.StatusCode, string(msg))
		return fmt.Errorf("relay store-reveal returned %d", resp.StatusCode)
	}

	log.Printf("[RELAY] ✅ Reveal payload for round %d stored with bot", pc.RoundID)
	return nil
}
