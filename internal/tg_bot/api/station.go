package api

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/models"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/repository"
	"github.com/sirupsen/logrus"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// StationAPI queries the station directory and caches every station it has seen.
type StationAPI struct {
	endpoint  string                   // Directory endpoint, the name part is sent as stationNamePart.
	userAgent string                   // User-Agent header value.
	cache     *repository.StationCache // Name to code cache.
	client    *http.Client             // HTTP client
}

// NewStationAPI creates a new StationAPI.
// Arguments:
//   - endpoint: station directory URL.
//   - userAgent: User-Agent header value, empty uses DefaultUserAgent.
//   - timeout: HTTP client timeout.
//   - cache: station cache filled by the lookups.
//
// Returns a pointer to a StationAPI.
func NewStationAPI(endpoint, userAgent string, timeout time.Duration, cache *repository.StationCache) *StationAPI {
	return &StationAPI{
		endpoint:  endpoint,
		userAgent: userAgent,
		cache:     cache,
		client:    newHTTPClient(timeout),
	}
}

// SearchStations returns the stations whose names match namePart and caches all of them.
func (s *StationAPI) SearchStations(ctx context.Context, namePart string) ([]models.Station, error) {
	namePart = strings.ToUpper(strings.TrimSpace(namePart))
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid station endpoint: %w", err)
	}
	query := u.Query()
	query.Set("stationNamePart", namePart)
	u.RawQuery = query.Encode()

	data, _, err := doGet(ctx, s.client, u.String(), s.userAgent, nil)
	if err != nil {
		logrus.WithError(err).WithField("namePart", namePart).Error("Station directory request failed")
		return nil, err
	}

	var stations []models.Station
	if len(strings.TrimSpace(string(data))) > 0 {
		if err = json.Unmarshal(data, &stations); err != nil {
			logrus.WithError(err).Error("Failed to unmarshal station directory response")
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	for _, station := range stations {
		s.cache.AddStation(station.Name, station.Code)
	}
	logrus.Debugf("Station directory returned %d stations for %q", len(stations), namePart)
	return stations, nil
}

// LookupStationCode resolves an exact station name. The directory is queried only on a cache miss.
func (s *StationAPI) LookupStationCode(ctx context.Context, name string) (int, bool, error) {
	if code, ok := s.cache.StationCode(name); ok {
		return code, true, nil
	}
	if _, err := s.SearchStations(ctx, name); err != nil {
		return 0, false, err
	}
	code, ok := s.cache.StationCode(name)
	return code, ok, nil
}

// CachedStationName returns the upper-cased station name when it is already cached.
func (s *StationAPI) CachedStationName(name string) (string, bool) {
	return s.cache.StationName(name)
}
