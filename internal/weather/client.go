// internal/weather/client.go
//
// Open-Meteo forecast client.
// Responsibilities:
//   - Request the daily forecast for one coordinate (one request, no retry, no cache).
//   - Decode the column-oriented "daily" block into one Day per date.
//   - Attach the WMO interpretation to each day.
//
// Notes:
//   - timezone=auto makes sunrise/sunset local times at the location; they are kept as the
//     ISO-8601 strings the API returns.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultURL is the public Open-Meteo forecast endpoint.
const DefaultURL = "https://api.open-meteo.com/v1/forecast"

// dailyVars are requested in this order; decoding is by name so the order only matters for the URL.
var dailyVars = []string{
	"weather_code",
	"temperature_2m_max",
	"temperature_2m_min",
	"sunrise",
	"sunset",
	"wind_speed_10m_max",
	"precipitation_hours",
	"precipitation_sum",
}

// Day is one forecast day.
type Day struct {
	Date               string  `json:"date"`
	WeatherCode        int     `json:"weatherCode"`
	Description        string  `json:"description"`
	Icon               string  `json:"icon"`
	TempMaxC           float64 `json:"tempMaxC"`
	TempMinC           float64 `json:"tempMinC"`
	Sunrise            string  `json:"sunrise"`
	Sunset             string  `json:"sunset"`
	WindSpeedMaxKmh    float64 `json:"windSpeedMaxKmh"`
	PrecipitationHours float64 `json:"precipitationHours"`
	PrecipitationMm    float64 `json:"precipitationMm"`
}

// Forecast is the decoded daily forecast for one location.
type Forecast struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	Days      []Day   `json:"days"`
}

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("forecast upstream returned %d: %s", e.Code, e.Body)
}

// Client talks to an Open-Meteo compatible endpoint.
type Client struct {
	baseURL string
	days    int
	http    *http.Client
}

// NewClient builds a client. An empty baseURL means DefaultURL; timeout bounds each request.
func NewClient(baseURL string, days int, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if days <= 0 {
		days = 7
	}
	return &Client{
		baseURL: baseURL,
		days:    days,
		http:    &http.Client{Timeout: timeout},
	}
}

// wire shape of the API response
type apiResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	Daily     struct {
		Time               []string   `json:"time"`
		WeatherCode        []*int     `json:"weather_code"`
		TempMax            []*float64 `json:"temperature_2m_max"`
		TempMin            []*float64 `json:"temperature_2m_min"`
		Sunrise            []string   `json:"sunrise"`
		Sunset             []string   `json:"sunset"`
		WindSpeedMax       []*float64 `json:"wind_speed_10m_max"`
		PrecipitationHours []*float64 `json:"precipitation_hours"`
		PrecipitationSum   []*float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

// FetchForecast requests the daily forecast at (lat, lng).
func (c *Client) FetchForecast(ctx context.Context, lat, lng float64) (*Forecast, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("forecast url: %w", err)
	}
	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lng, 'f', -1, 64))
	for _, v := range dailyVars {
		q.Add("daily", v)
	}
	q.Set("timezone", "auto")
	q.Set("forecast_days", strconv.Itoa(c.days))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	var raw apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}
	return raw.forecast()
}

func (r *apiResponse) forecast() (*Forecast, error) {
	d := r.Daily
	n := len(d.Time)
	cols := map[string]int{
		"weather_code":        len(d.WeatherCode),
		"temperature_2m_max":  len(d.TempMax),
		"temperature_2m_min":  len(d.TempMin),
		"sunrise":             len(d.Sunrise),
		"sunset":              len(d.Sunset),
		"wind_speed_10m_max":  len(d.WindSpeedMax),
		"precipitation_hours": len(d.PrecipitationHours),
		"precipitation_sum":   len(d.PrecipitationSum),
	}
	for name, got := range cols {
		if got != n {
			return nil, fmt.Errorf("decode forecast: %s has %d values for %d days", name, got, n)
		}
	}

	f := &Forecast{
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Timezone:  r.Timezone,
		Days:      make([]Day, 0, n),
	}
	for i := 0; i < n; i++ {
		code := UnknownCode
		if d.WeatherCode[i] != nil {
			code = *d.WeatherCode[i]
		}
		in := Interpret(code)
		f.Days = append(f.Days, Day{
			Date:               d.Time[i],
			WeatherCode:        code,
			Description:        in.Description,
			Icon:               in.Icon,
			TempMaxC:           val(d.TempMax[i]),
			TempMinC:           val(d.TempMin[i]),
			Sunrise:            d.Sunrise[i],
			Sunset:             d.Sunset[i],
			WindSpeedMaxKmh:    val(d.WindSpeedMax[i]),
			PrecipitationHours: val(d.PrecipitationHours[i]),
			PrecipitationMm:    val(d.PrecipitationSum[i]),
		})
	}
	return f, nil
}

func val(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
