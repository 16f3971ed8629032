// Package nager fetches public holidays from the Nager.Date API
// (date.nager.at). No API key required.
package nager

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/breadline/bakeplan/internal/modules/calendar"
)

const baseURL = "https://date.nager.at/api/v3/PublicHolidays"

// Client is a Nager.Date API client pinned to one country.
type Client struct {
	client  *http.Client
	country string
	log     zerolog.Logger
}

// NewClient creates a new Nager.Date client for the given ISO 3166-1
// alpha-2 country code.
func NewClient(country string, log zerolog.Logger) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		country: country,
		log:     log.With().Str("client", "nager").Logger(),
	}
}

// publicHoliday is one entry of the Nager.Date response.
type publicHoliday struct {
	Date      string `json:"date"`
	LocalName string `json:"localName"`
	Name      string `json:"name"`
}

// FetchYear returns the country's public holidays for one year as calendar
// events carrying the given uplift percentage.
func (c *Client) FetchYear(year int, upliftPct float64) ([]calendar.Event, error) {
	url := fmt.Sprintf("%s/%d/%s", baseURL, year, c.country)

	resp, err := c.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("nager request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("nager returned status %d: %s", resp.StatusCode, string(body))
	}

	var holidays []publicHoliday
	if err := json.NewDecoder(resp.Body).Decode(&holidays); err != nil {
		return nil, fmt.Errorf("failed to decode nager response: %w", err)
	}

	out := make([]calendar.Event, 0, len(holidays))
	for _, h := range holidays {
		name := h.LocalName
		if name == "" {
			name = h.Name
		}
		out = append(out, calendar.Event{
			Date:      h.Date,
			Name:      name,
			Type:      calendar.EventTypeHoliday,
			UpliftPct: upliftPct,
		})
	}

	c.log.Debug().Int("year", year).Int("holidays", len(out)).Msg("Fetched public holidays")
	return out, nil
}

// FetchYears fetches several years and concatenates the results.
func (c *Client) FetchYears(years []int, upliftPct float64) ([]calendar.Event, error) {
	var out []calendar.Event
	for _, y := range years {
		events, err := c.FetchYear(y, upliftPct)
		if err != nil {
			return nil, err
		}
		out = append(out, events...)
	}
	return out, nil
}
