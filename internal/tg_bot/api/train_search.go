package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/models"
	"github.com/sirupsen/logrus"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	noTrainsMarker = "Нету рейсов на выбранную дату."
	ridResultMark  = `"result":"RID`
	dateLayout     = "02.01.2006"
)

// ErrRIDNotReady is returned when the data endpoint keeps answering with the request id.
var ErrRIDNotReady = errors.New("train search result is not ready")

// TrainSearchAPI searches trains with the two-step request-id protocol of the ticket service:
// the first request returns a request id and session cookies, the second one is repeated with
// them until the result is ready.
type TrainSearchAPI struct {
	ridEndpoint  string        // Endpoint returning the request id.
	dataEndpoint string        // Endpoint returning the trains for a request id.
	userAgent    string        // User-Agent header value.
	pollInterval time.Duration // Pause between data requests.
	maxAttempts  int           // Data requests before giving up.
	client       *http.Client  // HTTP client
}

type ridResponse struct {
	Result string          `json:"result"`
	RID    json.RawMessage `json:"RID"`
}

type trainsResponse struct {
	TP []struct {
		List []models.TrainOffer `json:"list"`
	} `json:"tp"`
}

// NewTrainSearchAPI creates a new TrainSearchAPI with a 1s poll interval and 10 attempts.
func NewTrainSearchAPI(ridEndpoint, dataEndpoint, userAgent string, timeout time.Duration) *TrainSearchAPI {
	return &TrainSearchAPI{
		ridEndpoint:  ridEndpoint,
		dataEndpoint: dataEndpoint,
		userAgent:    userAgent,
		pollInterval: time.Second,
		maxAttempts:  10,
		client:       newHTTPClient(timeout),
	}
}

// WithPolling overrides the poll interval and the number of data requests.
func (t *TrainSearchAPI) WithPolling(interval time.Duration, attempts int) *TrainSearchAPI {
	t.pollInterval = interval
	if attempts > 0 {
		t.maxAttempts = attempts
	}
	return t
}

// SearchTrains returns the trains between two stations on the date, or an empty list when there are none.
func (t *TrainSearchAPI) SearchTrains(ctx context.Context, departureCode, arrivalCode int, date time.Time) ([]models.TrainOffer, error) {
	ridURL, err := withQuery(t.ridEndpoint, map[string]string{
		"code0": strconv.Itoa(departureCode),
		"code1": strconv.Itoa(arrivalCode),
		"dt0":   date.Format(dateLayout),
	})
	if err != nil {
		return nil, err
	}

	data, cookies, err := doGet(ctx, t.client, ridURL, t.userAgent, nil)
	if err != nil {
		logrus.WithError(err).Error("Train search RID request failed")
		return nil, fmt.Errorf("rid request: %w", err)
	}
	if bytes.Contains(data, []byte(noTrainsMarker)) {
		return []models.TrainOffer{}, nil
	}

	var rid ridResponse
	if err = json.Unmarshal(bytes.TrimSpace(data), &rid); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rid response: %w", err)
	}
	ridValue := strings.Trim(string(rid.RID), `"`)
	if ridValue == "" {
		// Some routes are answered right away without a request id.
		return parseTrains(data)
	}
	if len(cookies) == 0 {
		logrus.Warn("No cookies received from RID request")
	}

	dataURL, err := withQuery(t.dataEndpoint, map[string]string{"rid": ridValue})
	if err != nil {
		return nil, err
	}
	for attempt := 1; attempt <= t.maxAttempts; attempt++ {
		data, _, err = doGet(ctx, t.client, dataURL, t.userAgent, cookies)
		if err != nil {
			logrus.WithError(err).Error("Train search data request failed")
			return nil, fmt.Errorf("data request: %w", err)
		}
		if bytes.Contains(data, []byte(noTrainsMarker)) {
			return []models.TrainOffer{}, nil
		}
		if !bytes.Contains(data, []byte(ridResultMark)) {
			return parseTrains(data)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(t.pollInterval):
		}
	}
	return nil, fmt.Errorf("rid %s after %d attempts: %w", ridValue, t.maxAttempts, ErrRIDNotReady)
}

func parseTrains(data []byte) ([]models.TrainOffer, error) {
	var response trainsResponse
	if err := json.Unmarshal(data, &response); err != nil {
		logrus.WithError(err).Error("Failed to unmarshal train search response")
		return nil, fmt.Errorf("failed to unmarshal trains: %w", err)
	}
	trains := make([]models.TrainOffer, 0)
	for _, tp := range response.TP {
		trains = append(trains, tp.List...)
	}
	return trains, nil
}

func withQuery(endpoint string, params map[string]string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	query := u.Query()
	for key, value := range params {
		query.Set(key, value)
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}
