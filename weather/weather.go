package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/cenkalti/backoff/v4"
)

// Client fetches the current ambient temperature from OpenWeatherMap.
type Client struct {
	apiKey      string
	baseURL     string
	client      *http.Client
	retryBudget time.Duration
}

// NewClient creates a weather client. The timeout bounds both each request
// and the total retry budget so a reading never stalls the pipeline.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	return &Client{
		apiKey:      apiKey,
		baseURL:     baseURL,
		client:      &http.Client{Timeout: timeout},
		retryBudget: timeout,
	}
}

type currentResponse struct {
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
}

// AmbientTemp returns the temperature in Celsius at the given coordinates.
// Transient upstream failures are retried within the budget; anything else
// returns an error so the caller can fall back to the nominal constant.
func (c *Client) AmbientTemp(ctx context.Context, lat, lon float64) (float64, error) {
	if c.apiKey == "" {
		return 0, fmt.Errorf("weather api key not configured")
	}

	endpoint := fmt.Sprintf("%s/weather?lat=%f&lon=%f&units=metric&appid=%s",
		c.baseURL, lat, lon, c.apiKey)

	var temp float64
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("weather api returned %s", resp.Status)
		default:
			return backoff.Permanent(fmt.Errorf("weather api returned %s", resp.Status))
		}

		var decoded currentResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode weather response: %w", err))
		}
		temp = decoded.Main.Temp
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.retryBudget
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return 0, fmt.Errorf("failed to fetch ambient temperature: %w", err)
	}

	log.Debugf("ambient %.1f°C at (%.4f, %.4f)", temp, lat, lon)
	return temp, nil
}
