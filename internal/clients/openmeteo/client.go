// Package openmeteo fetches daily weather from the Open-Meteo APIs: the
// forecast endpoint for upcoming days and the archive endpoint for history.
// Neither requires an API key.
package openmeteo

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/breadline/bakeplan/internal/modules/weather"
)

const (
	forecastURL = "https://api.open-meteo.com/v1/forecast"
	archiveURL  = "https://archive-api.open-meteo.com/v1/archive"

	// SourceForecast and SourceArchive tag weather rows by origin.
	SourceForecast = "open-meteo"
	SourceArchive  = "open-meteo-archive"
)

// Client is an Open-Meteo API client pinned to one location.
type Client struct {
	client    *http.Client
	latitude  float64
	longitude float64
	log       zerolog.Logger
}

// NewClient creates a new Open-Meteo client for the given coordinates.
func NewClient(latitude, longitude float64, log zerolog.Logger) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		latitude:  latitude,
		longitude: longitude,
		log:       log.With().Str("client", "openmeteo").Logger(),
	}
}

// dailyResponse is the shared shape of both Open-Meteo daily endpoints.
type dailyResponse struct {
	Daily struct {
		Time             []string   `json:"time"`
		TemperatureMax   []*float64 `json:"temperature_2m_max"`
		PrecipitationSum []*float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

// FetchForecast returns the daily forecast for the next `days` days,
// starting today.
func (c *Client) FetchForecast(days int) ([]weather.Observation, error) {
	if days <= 0 || days > 16 {
		return nil, fmt.Errorf("forecast days must be within 1..16, got %d", days)
	}

	params := url.Values{}
	params.Add("latitude", strconv.FormatFloat(c.latitude, 'f', -1, 64))
	params.Add("longitude", strconv.FormatFloat(c.longitude, 'f', -1, 64))
	params.Add("daily", "temperature_2m_max,precipitation_sum")
	params.Add("timezone", "auto")
	params.Add("forecast_days", strconv.Itoa(days))

	return c.fetchDaily(forecastURL + "?" + params.Encode())
}

// FetchHistory returns daily observations for the inclusive [start, end]
// range from the archive endpoint.
func (c *Client) FetchHistory(start, end time.Time) ([]weather.Observation, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("history range end %s precedes start %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	params := url.Values{}
	params.Add("latitude", strconv.FormatFloat(c.latitude, 'f', -1, 64))
	params.Add("longitude", strconv.FormatFloat(c.longitude, 'f', -1, 64))
	params.Add("daily", "temperature_2m_max,precipitation_sum")
	params.Add("timezone", "auto")
	params.Add("start_date", start.Format("2006-01-02"))
	params.Add("end_date", end.Format("2006-01-02"))

	return c.fetchDaily(archiveURL + "?" + params.Encode())
}

func (c *Client) fetchDaily(requestURL string) ([]weather.Observation, error) {
	resp, err := c.client.Get(requestURL)
	if err != nil {
		return nil, fmt.Errorf("open-meteo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("open-meteo returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed dailyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode open-meteo response: %w", err)
	}

	out := make([]weather.Observation, 0, len(parsed.Daily.Time))
	for i, date := range parsed.Daily.Time {
		o := weather.Observation{Date: date}
		if i < len(parsed.Daily.TemperatureMax) {
			o.MaxTemp = parsed.Daily.TemperatureMax[i]
		}
		if i < len(parsed.Daily.PrecipitationSum) {
			o.RainMM = parsed.Daily.PrecipitationSum[i]
		}
		out = append(out, o)
	}

	c.log.Debug().Int("days", len(out)).Msg("Fetched daily weather")
	return out, nil
}
