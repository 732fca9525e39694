package feeds

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// Weather talks to the OpenWeatherMap current-conditions and geocoding
// APIs. The API key never leaves the server.
type Weather struct {
	apiKey string
	client *http.Client
}

// Conditions is the normalized current-weather payload.
type Conditions struct {
	Location  string `json:"location"`
	Temp      int    `json:"temp"`
	Condition string `json:"condition"`
	High      int    `json:"high"`
	Low       int    `json:"low"`
	Humidity  int    `json:"humidity"`
	FeelsLike int    `json:"feels_like"`
	WindSpeed int    `json:"wind_speed"`
	Units     string `json:"units"`
	Icon      string `json:"icon"`
}

// Coordinates is a geocoded location.
type Coordinates struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

var zipRe = regexp.MustCompile(`^\d{5}$`)

type owmResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp      float64 `json:"temp"`
		TempMax   float64 `json:"temp_max"`
		TempMin   float64 `json:"temp_min"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
}

// Current fetches current conditions for a location (5-digit zip codes
// are treated as US zips, anything else as a city name). HTTP status
// codes map to user-facing messages: 401 means the API key is invalid,
// 404 means the location was not found.
func (w *Weather) Current(ctx context.Context, location, units string) (*Conditions, error) {
	apiUnits := "imperial"
	if units == "celsius" {
		apiUnits = "metric"
	}

	endpoint := fmt.Sprintf("https://api.openweathermap.org/data/2.5/weather?%s&appid=%s&units=%s",
		locationQuery(location), w.apiKey, apiUnits)

	var resp owmResponse
	if err := getJSON(ctx, w.client, "weather", endpoint, nil, &resp); err != nil {
		return nil, w.mapError(err, location)
	}

	cond := &Conditions{
		Location:  resp.Name,
		Temp:      int(math.Round(resp.Main.Temp)),
		High:      int(math.Round(resp.Main.TempMax)),
		Low:       int(math.Round(resp.Main.TempMin)),
		FeelsLike: int(math.Round(resp.Main.FeelsLike)),
		Humidity:  resp.Main.Humidity,
		WindSpeed: int(math.Round(resp.Wind.Speed)),
		Units:     units,
	}
	if len(resp.Weather) > 0 {
		cond.Condition = titleCase(resp.Weather[0].Description)
		cond.Icon = resp.Weather[0].Icon
	}
	return cond, nil
}

// Geocode resolves a location to coordinates for the radar embed.
func (w *Weather) Geocode(ctx context.Context, location string) (*Coordinates, error) {
	endpoint := fmt.Sprintf("https://api.openweathermap.org/data/2.5/weather?%s&appid=%s",
		locationQuery(location), w.apiKey)

	var resp owmResponse
	if err := getJSON(ctx, w.client, "weather", endpoint, nil, &resp); err != nil {
		return nil, w.mapError(err, location)
	}
	return &Coordinates{Name: resp.Name, Lat: resp.Coord.Lat, Lon: resp.Coord.Lon}, nil
}

func (w *Weather) mapError(err error, location string) error {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		switch upstream.Status {
		case http.StatusUnauthorized:
			return fmt.Errorf("invalid API key")
		case http.StatusNotFound:
			return fmt.Errorf("location %q not found", location)
		}
	}
	return err
}

func locationQuery(location string) string {
	if zipRe.MatchString(location) {
		return "zip=" + url.QueryEscape(location) + ",US"
	}
	return "q=" + url.QueryEscape(location)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
