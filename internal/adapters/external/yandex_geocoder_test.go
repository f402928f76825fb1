package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meteobot.app/internal/mocks"
	"meteobot.app/pkg/errors"
)

const yandexKazanResponse = `{
  "response": {
    "GeoObjectCollection": {
      "metaDataProperty": {"GeocoderResponseMetaData": {"request": "Казань", "found": "1", "results": "1"}},
      "featureMember": [
        {"GeoObject": {
          "metaDataProperty": {"GeocoderMetaData": {"kind": "locality", "text": "Россия, Республика Татарстан, Казань"}},
          "Point": {"pos": "49.10 55.80"}
        }}
      ]
    }
  }
}`

func newTestYandexGeocoder(t *testing.T, handler http.HandlerFunc) *YandexGeocoderAdapter {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewYandexGeocoderAdapter(YandexGeocoderParams{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Client:  server.Client(),
		Breaker: NewCircuitBreaker(t.Name()),
		Backoff: &BackoffConfig{MaxRetries: 0, InitialInterval: time.Millisecond},
		Logger:  mocks.NewLogger(),
	})
}

func TestYandexGeocoderAdapter_Resolve(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var query url.Values
		geocoder := newTestYandexGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/", r.URL.Path)
			query = r.URL.Query()
			_, _ = w.Write([]byte(yandexKazanResponse))
		})

		geo, err := geocoder.Resolve(context.Background(), "Казань")

		require.NoError(t, err)
		assert.Equal(t, 55.80, geo.Latitude)
		assert.Equal(t, 49.10, geo.Longitude)
		assert.Equal(t, "Россия, Республика Татарстан, Казань", geo.Address)

		assert.Equal(t, "test-key", query.Get("apikey"))
		assert.Equal(t, "Казань", query.Get("geocode"))
		assert.Equal(t, "ru_RU", query.Get("lang"))
		assert.Equal(t, "1", query.Get("results"))
		assert.Equal(t, "json", query.Get("format"))
	})

	t.Run("EmptyTown", func(t *testing.T) {
		geocoder := newTestYandexGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})

		_, err := geocoder.Resolve(context.Background(), "  ")
		assert.True(t, errors.IsValidationError(err))
	})
}

func TestYandexGeocoderAdapter_NotFound(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "FoundZero",
			body: `{"response":{"GeoObjectCollection":{"metaDataProperty":{"GeocoderResponseMetaData":{"found":"0"}},"featureMember":[]}}}`,
		},
		{
			name: "FoundMissing",
			body: `{"response":{"GeoObjectCollection":{"featureMember":[]}}}`,
		},
		{
			name: "NoFeatures",
			body: `{"response":{"GeoObjectCollection":{"metaDataProperty":{"GeocoderResponseMetaData":{"found":"3"}},"featureMember":[]}}}`,
		},
		{
			name: "NoAddress",
			body: `{"response":{"GeoObjectCollection":{"metaDataProperty":{"GeocoderResponseMetaData":{"found":"1"}},"featureMember":[{"GeoObject":{"Point":{"pos":"49.1 55.8"}}}]}}}`,
		},
		{
			name: "SinglePosValue",
			body: `{"response":{"GeoObjectCollection":{"metaDataProperty":{"GeocoderResponseMetaData":{"found":"1"}},"featureMember":[{"GeoObject":{"metaDataProperty":{"GeocoderMetaData":{"text":"Kazan"}},"Point":{"pos":"49.1"}}}]}}}`,
		},
		{
			name: "NonNumericPos",
			body: `{"response":{"GeoObjectCollection":{"metaDataProperty":{"GeocoderResponseMetaData":{"found":"1"}},"featureMember":[{"GeoObject":{"metaDataProperty":{"GeocoderMetaData":{"text":"Kazan"}},"Point":{"pos":"east north"}}}]}}}`,
		},
		{
			name: "MalformedJSON",
			body: `{"response":`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			geocoder := newTestYandexGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			geo, err := geocoder.Resolve(context.Background(), "nowhere")

			assert.Nil(t, geo)
			assert.True(t, errors.IsNotFoundError(err), "got %v", err)
		})
	}
}

func TestYandexGeocoderAdapter_UpstreamFailures(t *testing.T) {
	t.Run("ServerErrorIsRetried", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		geocoder := NewYandexGeocoderAdapter(YandexGeocoderParams{
			APIKey:  "k",
			BaseURL: server.URL,
			Client:  server.Client(),
			Breaker: NewCircuitBreaker(t.Name()),
			Backoff: &BackoffConfig{MaxRetries: 2, InitialInterval: time.Millisecond},
			Logger:  mocks.NewLogger(),
		})

		_, err := geocoder.Resolve(context.Background(), "Kazan")

		assert.True(t, errors.IsExternalAPIError(err))
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("ForbiddenIsNotRetried", func(t *testing.T) {
		var calls atomic.Int32
		geocoder := newTestYandexGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusForbidden)
		})

		_, err := geocoder.Resolve(context.Background(), "Kazan")

		assert.True(t, errors.IsExternalAPIError(err))
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestParsePos(t *testing.T) {
	lon, lat, err := parsePos(" 37.617698  55.755864 ")
	require.NoError(t, err)
	assert.Equal(t, 37.617698, lon)
	assert.Equal(t, 55.755864, lat)

	_, _, err = parsePos("")
	assert.Error(t, err)
	_, _, err = parsePos("1 2 3")
	assert.Error(t, err)
}

func TestYandexGeocoderAdapter_GetProviderName(t *testing.T) {
	assert.Equal(t, "yandex", NewYandexGeocoderAdapter(YandexGeocoderParams{Logger: mocks.NewLogger()}).GetProviderName())
}
