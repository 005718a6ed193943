package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/repository"
)

func TestStationAPI_LookupUsesCache(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if got := r.URL.Query().Get("stationNamePart"); got != "МОСКВА" {
			t.Errorf("unexpected name part %q", got)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Errorf("user agent must be set")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"n":"МОСКВА","c":2000000},{"n":"МОСКВА КАЗАНСКАЯ","c":2000003}]`))
	}))
	defer srv.Close()

	cache := repository.NewStationCache()
	stations := NewStationAPI(srv.URL+"/suggest?lang=ru", "", time.Second, cache)

	code, ok, err := stations.LookupStationCode(context.Background(), "Москва")
	if err != nil || !ok || code != 2000000 {
		t.Fatalf("lookup = %d/%v/%v", code, ok, err)
	}
	code, ok, err = stations.LookupStationCode(context.Background(), "МОСКВА КАЗАНСКАЯ")
	if err != nil || !ok || code != 2000003 {
		t.Fatalf("cached lookup = %d/%v/%v", code, ok, err)
	}
	if calls != 1 {
		t.Errorf("expected a single directory request, got %d", calls)
	}
	if name, ok := stations.CachedStationName("москва казанская"); !ok || name != "МОСКВА КАЗАНСКАЯ" {
		t.Errorf("unexpected cached name %q/%v", name, ok)
	}
}

func TestStationAPI_UnknownStation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	stations := NewStationAPI(srv.URL, "test-agent", time.Second, repository.NewStationCache())
	_, ok, err := stations.LookupStationCode(context.Background(), "Атлантида")
	if err != nil || ok {
		t.Errorf("expected not found without error, got %v/%v", ok, err)
	}
}

func TestStationAPI_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	stations := NewStationAPI(srv.URL, "test-agent", time.Second, repository.NewStationCache())
	if _, err := stations.SearchStations(context.Background(), "МОСК"); err == nil {
		t.Errorf("expected error on forbidden response")
	}
}
