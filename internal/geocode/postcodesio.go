package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/safestreets/safemap/internal/models"
)

// ErrInvalidPostcode is the single outcome callers see when a postcode cannot
// be resolved. A lookup miss and a failed network call are deliberately not
// distinguished: either way the coordinates cannot be trusted.
var ErrInvalidPostcode = errors.New("invalid postcode")

// Geocoder resolves a postcode to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, postcode string) (models.Coordinates, error)
}

// Normalize upper-cases and trims a postcode, the canonical form used for
// storage, lookup and cache keys.
func Normalize(postcode string) string {
	return strings.ToUpper(strings.TrimSpace(postcode))
}

// PostcodesIOClient implements Geocoder against the postcodes.io lookup API.
type PostcodesIOClient struct {
	baseURL string
	client  *http.Client
	logger  *logrus.Logger
}

// NewPostcodesIOClient creates a client for the given API base URL.
func NewPostcodesIOClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *PostcodesIOClient {
	return &PostcodesIOClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Geocode looks up a postcode. Every failure mode collapses to
// ErrInvalidPostcode; the underlying cause is only logged.
func (g *PostcodesIOClient) Geocode(ctx context.Context, postcode string) (models.Coordinates, error) {
	log := g.logger.WithFields(logrus.Fields{
		"geocoder": "postcodes.io",
		"postcode": postcode,
	})

	u := fmt.Sprintf("%s/postcodes/%s", g.baseURL, url.PathEscape(Normalize(postcode)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		log.WithError(err).Warn("Failed to build geocode request")
		return models.Coordinates{}, ErrInvalidPostcode
	}

	resp, err := g.client.Do(req)
	if err != nil {
		log.WithError(err).Warn("Geocode lookup failed")
		return models.Coordinates{}, ErrInvalidPostcode
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.WithField("status", resp.StatusCode).Info("Postcode not found")
		return models.Coordinates{}, ErrInvalidPostcode
	}

	var data struct {
		Result struct {
			Postcode  string  `json:"postcode"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		log.WithError(err).Warn("Failed to decode geocode response")
		return models.Coordinates{}, ErrInvalidPostcode
	}

	return models.Coordinates{
		Latitude:  data.Result.Latitude,
		Longitude: data.Result.Longitude,
	}, nil
}
