package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"meteobot.app/internal/ports"
	"meteobot.app/pkg/errors"
)

// YandexGeocoderAdapter implements the Geocoder port against the Yandex geocoder HTTP API
type YandexGeocoderAdapter struct {
	apiKey  string
	baseURL string
	lang    string
	http    *resilientClient
	logger  ports.Logger
}

// YandexGeocoderParams holds parameters for creating the Yandex geocoder adapter
type YandexGeocoderParams struct {
	APIKey  string
	BaseURL string
	Lang    string
	Client  HTTPClient
	Breaker *gobreaker.CircuitBreaker
	Backoff *BackoffConfig
	Logger  ports.Logger
}

// yandexGeocodeResponse mirrors the parts of the geocoder response the bot reads
type yandexGeocodeResponse struct {
	Response struct {
		GeoObjectCollection struct {
			MetaDataProperty struct {
				GeocoderResponseMetaData struct {
					Found *string `json:"found"`
				} `json:"GeocoderResponseMetaData"`
			} `json:"metaDataProperty"`
			FeatureMember []struct {
				GeoObject struct {
					MetaDataProperty struct {
						GeocoderMetaData struct {
							Text string `json:"text"`
						} `json:"GeocoderMetaData"`
					} `json:"metaDataProperty"`
					Point struct {
						Pos string `json:"pos"`
					} `json:"Point"`
				} `json:"GeoObject"`
			} `json:"featureMember"`
		} `json:"GeoObjectCollection"`
	} `json:"response"`
}

// NewYandexGeocoderAdapter creates a new Yandex geocoder adapter
func NewYandexGeocoderAdapter(params YandexGeocoderParams) *YandexGeocoderAdapter {
	baseURL := strings.TrimRight(params.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://geocode-maps.yandex.ru"
	}
	lang := params.Lang
	if lang == "" {
		lang = "ru_RU"
	}
	client := params.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	breaker := params.Breaker
	if breaker == nil {
		breaker = NewCircuitBreaker("yandex-geocoder")
	}
	backoff := DefaultBackoff()
	if params.Backoff != nil {
		backoff = *params.Backoff
	}

	return &YandexGeocoderAdapter{
		apiKey:  params.APIKey,
		baseURL: baseURL,
		lang:    lang,
		http:    newResilientClient(client, breaker, backoff),
		logger:  params.Logger,
	}
}

// Resolve looks up a town. Malformed or empty answers are reported as NotFound,
// transport and status failures as ExternalAPI errors.
func (g *YandexGeocoderAdapter) Resolve(ctx context.Context, town string) (*ports.GeoInfo, error) {
	if strings.TrimSpace(town) == "" {
		return nil, errors.NewValidationError("town cannot be empty")
	}

	query := url.Values{}
	query.Set("apikey", g.apiKey)
	query.Set("geocode", town)
	query.Set("lang", g.lang)
	query.Set("results", "1")
	query.Set("format", "json")
	endpoint := fmt.Sprintf("%s/v1/?%s", g.baseURL, query.Encode())

	resp, err := g.http.do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return nil, errors.NewExternalAPIError("failed to call Yandex geocoder", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			g.logger.Warn("Failed to close geocoder response body", ports.F("error", closeErr))
		}
	}()

	var apiResp yandexGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		g.logger.Warn("Malformed geocoder response", ports.F("town", town), ports.F("error", err))
		return nil, errors.NewNotFoundError("malformed geocoder response")
	}

	return g.parse(town, &apiResp)
}

func (g *YandexGeocoderAdapter) parse(town string, apiResp *yandexGeocodeResponse) (*ports.GeoInfo, error) {
	collection := apiResp.Response.GeoObjectCollection

	found := collection.MetaDataProperty.GeocoderResponseMetaData.Found
	if found == nil || *found == "0" {
		return nil, errors.NewNotFoundError(fmt.Sprintf("town %q not found", town))
	}
	if len(collection.FeatureMember) == 0 {
		g.logger.Warn("Geocoder reported matches without features", ports.F("town", town), ports.F("found", *found))
		return nil, errors.NewNotFoundError(fmt.Sprintf("town %q not found", town))
	}

	object := collection.FeatureMember[0].GeoObject
	address := strings.TrimSpace(object.MetaDataProperty.GeocoderMetaData.Text)
	if address == "" {
		g.logger.Warn("Geocoder feature has no address", ports.F("town", town))
		return nil, errors.NewNotFoundError(fmt.Sprintf("town %q has no address", town))
	}

	lon, lat, err := parsePos(object.Point.Pos)
	if err != nil {
		g.logger.Warn("Geocoder feature has invalid position",
			ports.F("town", town),
			ports.F("pos", object.Point.Pos),
			ports.F("error", err))
		return nil, errors.NewNotFoundError(fmt.Sprintf("town %q has no position", town))
	}

	return &ports.GeoInfo{
		Latitude:  lat,
		Longitude: lon,
		Address:   address,
	}, nil
}

// parsePos splits a "longitude latitude" pair
func parsePos(pos string) (lon, lat float64, err error) {
	parts := strings.Fields(pos)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected two coordinates, got %d", len(parts))
	}
	if lon, err = strconv.ParseFloat(parts[0], 64); err != nil {
		return 0, 0, fmt.Errorf("parse longitude: %w", err)
	}
	if lat, err = strconv.ParseFloat(parts[1], 64); err != nil {
		return 0, 0, fmt.Errorf("parse latitude: %w", err)
	}
	return lon, lat, nil
}

// GetProviderName returns the name of this geocoder
func (g *YandexGeocoderAdapter) GetProviderName() string {
	return "yandex"
}
