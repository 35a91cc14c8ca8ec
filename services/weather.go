package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/krishiyukti/krishiyukti/config"
)

// ErrWeatherKeyMissing means no OpenWeather API key was configured.
var ErrWeatherKeyMissing = errors.New("OPENWEATHER_API_KEY is not set")

// ErrWeatherUpstream wraps any failure talking to OpenWeather; handlers map it to 502.
var ErrWeatherUpstream = errors.New("openweather error")

// CurrentWeather is the shaped response for the current-conditions endpoint.
type CurrentWeather struct {
	TemperatureC *float64 `json:"temperatureC"`
	Humidity     *float64 `json:"humidity"`
	WindKph      *int     `json:"windKph"`
	Condition    *string  `json:"condition"`
	RainMm1h     *float64 `json:"rainMm1h"`
	UpdatedAt    string   `json:"updatedAt"`
}

// ForecastItem is one three-hour forecast step.
type ForecastItem struct {
	Time      *string  `json:"time"`
	TempC     *float64 `json:"tempC"`
	Pop       *float64 `json:"pop"`
	RainMm    *float64 `json:"rainMm"`
	WindKph   *int     `json:"windKph"`
	Condition *string  `json:"condition"`
}

// Forecast carries the next ~24h of three-hour steps.
type Forecast struct {
	Items []ForecastItem `json:"items"`
}

// WeatherService proxies OpenWeather, reshaping responses for the frontend.
// It holds no state beyond configuration.
type WeatherService struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewWeatherService builds a WeatherService from configuration.
func NewWeatherService(cfg config.AppConfig) *WeatherService {
	return &WeatherService{
		apiKey:  cfg.OpenWeatherAPIKey,
		baseURL: cfg.OpenWeatherBaseURL,
		client:  defaultHTTPClient,
	}
}

type owWeather struct {
	Main struct {
		Temp     *float64 `json:"temp"`
		Humidity *float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
	Rain struct {
		OneHour *float64 `json:"1h"`
	} `json:"rain"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

type owForecast struct {
	List []struct {
		Dt    int64   `json:"dt"`
		DtTxt *string `json:"dt_txt"`
		Main  struct {
			Temp *float64 `json:"temp"`
		} `json:"main"`
		Wind struct {
			Speed *float64 `json:"speed"`
		} `json:"wind"`
		Rain struct {
			ThreeHour *float64 `json:"3h"`
		} `json:"rain"`
		Pop     *float64 `json:"pop"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"list"`
}

// Current fetches and reshapes current conditions for a coordinate.
func (s *WeatherService) Current(ctx context.Context, lat, lon float64) (*CurrentWeather, error) {
	var j owWeather
	if err := s.get(ctx, "/weather", lat, lon, &j); err != nil {
		return nil, err
	}

	out := &CurrentWeather{
		TemperatureC: j.Main.Temp,
		Humidity:     j.Main.Humidity,
		WindKph:      kph(j.Wind.Speed),
		RainMm1h:     j.Rain.OneHour,
		UpdatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if len(j.Weather) > 0 {
		out.Condition = &j.Weather[0].Description
	}
	return out, nil
}

// NextDay fetches the forecast and keeps the first 8 three-hour steps (~24h).
func (s *WeatherService) NextDay(ctx context.Context, lat, lon float64) (*Forecast, error) {
	var j owForecast
	if err := s.get(ctx, "/forecast", lat, lon, &j); err != nil {
		return nil, err
	}

	items := make([]ForecastItem, 0, 8)
	for i, it := range j.List {
		if i >= 8 {
			break
		}
		item := ForecastItem{
			TempC:   it.Main.Temp,
			Pop:     it.Pop,
			RainMm:  it.Rain.ThreeHour,
			WindKph: kph(it.Wind.Speed),
		}
		if it.DtTxt != nil {
			item.Time = it.DtTxt
		} else if it.Dt != 0 {
			when := time.Unix(it.Dt, 0).UTC().Format(time.RFC3339)
			item.Time = &when
		}
		if len(it.Weather) > 0 {
			item.Condition = &it.Weather[0].Description
		}
		items = append(items, item)
	}
	return &Forecast{Items: items}, nil
}

func (s *WeatherService) get(ctx context.Context, path string, lat, lon float64, out interface{}) error {
	if s.apiKey == "" {
		return ErrWeatherKeyMissing
	}

	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%v", lat))
	params.Set("lon", fmt.Sprintf("%v", lon))
	params.Set("units", "metric")
	params.Set("appid", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, joinURL(s.baseURL, path)+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWeatherUpstream, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWeatherUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: status %d", ErrWeatherUpstream, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrWeatherUpstream, err)
	}
	return nil
}

// kph converts metres per second to rounded kilometres per hour.
func kph(ms *float64) *int {
	if ms == nil {
		return nil
	}
	v := int(math.Round(*ms * 3.6))
	return &v
}
