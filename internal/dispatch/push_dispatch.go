package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/example/accessride/internal/models"
)

// PushDispatcher tries the driver's live websocket first and falls back to
// the push provider's HTTP endpoint (FCM HTTPv1-shaped body).
type PushDispatcher struct {
	Endpoint string
	Key      string
	Client   *http.Client
	WS       *WSRegistry
}

func NewPushDispatcher(endpoint, key string, ws *WSRegistry) *PushDispatcher {
	return &PushDispatcher{
		Endpoint: endpoint,
		Key:      key,
		Client:   &http.Client{Timeout: 3 * time.Second},
		WS:       ws,
	}
}

func (p *PushDispatcher) NotifyAssignment(ctx context.Context, driverID string, a models.Assignment) error {
	if p.WS != nil {
		if err := p.WS.NotifyAssignment(ctx, driverID, a); err == nil {
			return nil
		}
	}
	if p.Endpoint == "" {
		return ErrNoSession
	}
	body := map[string]interface{}{
		"message": map[string]interface{}{
			"token": driverID,
			"notification": map[string]string{
				"title": "New Ride Request",
				"body":  "You have been assigned a new ride.",
			},
			"data": map[string]interface{}{
				"type":    "ride_request",
				"ride_id": a.RideID,
				"offer":   a,
			},
		},
	}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.Key != "" {
		req.Header.Set("Authorization", "Bearer "+p.Key)
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("push endpoint returned %d", resp.StatusCode)
	}
	return nil
}
