package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"hunter-season-system/services"
	"hunter-season-system/utils"
)

// BlockSyncClient reads the chain height from the sync service.
type BlockSyncClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewBlockSyncClient(baseURL, token string) *BlockSyncClient {
	return &BlockSyncClient{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: utils.HTTPClient,
	}
}

func (c *BlockSyncClient) GetBlockHeight(ctx context.Context) (uint64, error) {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return 0, fmt.Errorf("failed to parse base URL: %w", err)
	}
	u := base.JoinPath("/api/v1/block-height")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if c.Token != "" {
		req.Header.Set("X-Service-Token", c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to call sync service: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, fmt.Errorf("sync service returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Height uint64 `json:"height"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return 0, fmt.Errorf("failed to decode sync service response: %w", err)
	}
	return response.Height, nil
}

// SyncOnce pulls the remote height into the clock.
func SyncOnce(ctx context.Context, client *BlockSyncClient, clock *services.ClockService) (uint64, bool, error) {
	height, err := client.GetBlockHeight(ctx)
	if err != nil {
		return 0, false, err
	}
	return clock.Sync(ctx, height)
}

// PollBlockHeight keeps the clock in step with the chain until ctx is cancelled.
func PollBlockHeight(ctx context.Context, client *BlockSyncClient, clock *services.ClockService, pollInterval time.Duration) {
	log.Println("⛓️ Starting block height polling...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Block height polling stopped.")
			return
		case <-ticker.C:
			ordinal, moved, err := SyncOnce(ctx, client, clock)
			if err != nil {
				log.Printf("❌ [CLOCK] Error polling block height: %v", err)
				continue
			}
			if moved {
				log.Printf("✅ [CLOCK] synced to block %d", ordinal)
			}
		}
	}
}
