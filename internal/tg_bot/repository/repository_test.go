package repository

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/models"
)

func TestUsersState_DefaultAndUpdate(t *testing.T) {
	states := NewUsersStateMap("")

	if got := states.GetUserState(1); got != models.DefaultBotState {
		t.Errorf("expected default state, got %s", got)
	}
	if err := states.SetUserState(1, models.StateAskStationArrival); err != nil {
		t.Fatalf("set state: %v", err)
	}
	if got := states.GetUserState(1); got != models.StateAskStationArrival {
		t.Errorf("expected %s, got %s", models.StateAskStationArrival, got)
	}
	if req := states.GetSearchRequest(2); req.DepartureStationCode != nil {
		t.Errorf("expected empty request, got %+v", req)
	}
}

func TestUsersState_FileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "states.json")
	states := NewUsersStateMap(path)

	code := 2004000
	date := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	if err := states.SetUserState(5, models.StateDateDepartReceived); err != nil {
		t.Fatalf("set state: %v", err)
	}
	if err := states.SaveSearchRequest(5, models.SearchRequest{DepartureStationCode: &code, DateDepart: &date}); err != nil {
		t.Fatalf("save request: %v", err)
	}
	if err := states.SaveBatchToFile(); err != nil {
		t.Fatalf("save to file: %v", err)
	}

	restored := NewUsersStateMap(path)
	if err := restored.LoadFromFile(); err != nil {
		t.Fatalf("read file: %v", err)
	}
	if got := restored.GetUserState(5); got != models.StateDateDepartReceived {
		t.Errorf("expected restored state, got %s", got)
	}
	req := restored.GetSearchRequest(5)
	if req.DepartureStationCode == nil || *req.DepartureStationCode != code || req.DateDepart == nil || !req.DateDepart.Equal(date) {
		t.Errorf("unexpected restored request %+v", req)
	}
}

func TestUsersState_MissingFile(t *testing.T) {
	states := NewUsersStateMap(filepath.Join(t.TempDir(), "absent.json"))
	if err := states.LoadFromFile(); err != nil {
		t.Errorf("missing file must not fail, got %v", err)
	}
}

func TestFoundTrains_Copies(t *testing.T) {
	found := NewFoundTrains("")
	offers := []models.TrainOffer{{Number: "083M"}}
	if err := found.SaveFoundTrains(1, offers); err != nil {
		t.Fatalf("save: %v", err)
	}
	offers[0].Number = "changed"

	got := found.GetFoundTrains(1)
	if len(got) != 1 || got[0].Number != "083M" {
		t.Errorf("unexpected trains %+v", got)
	}
	if empty := found.GetFoundTrains(2); empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", empty)
	}
}

func TestStationCache(t *testing.T) {
	cache := NewStationCache()
	cache.AddStation("Москва", 2000000)

	if code, ok := cache.StationCode(" москва "); !ok || code != 2000000 {
		t.Errorf("expected cached code, got %d/%v", code, ok)
	}
	if name, ok := cache.StationName("МОСКВА"); !ok || name != "МОСКВА" {
		t.Errorf("expected cached name, got %q/%v", name, ok)
	}
	if _, ok := cache.StationCode("Тверь"); ok {
		t.Errorf("unexpected hit for unknown station")
	}
}

func TestSnapshot_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "states.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := NewUsersStateMap(path).LoadFromFile(); err == nil {
		t.Error("expected decode error")
	}
}

func TestFoundTrains_FileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trains.json")
	found := NewFoundTrains(path)
	if err := found.SaveFoundTrains(3, []models.TrainOffer{{Number: "016А", Cars: []models.CarClass{{CarType: "Купе", MinimalPrice: 4200}}}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := found.SaveBatchToFile(); err != nil {
		t.Fatalf("save to file: %v", err)
	}

	restored := NewFoundTrains(path)
	if err := restored.LoadFromFile(); err != nil {
		t.Fatalf("load: %v", err)
	}
	got := restored.GetFoundTrains(3)
	if len(got) != 1 || got[0].Number != "016А" || len(got[0].Cars) != 1 || got[0].Cars[0].MinimalPrice != 4200 {
		t.Errorf("unexpected restored trains %+v", got)
	}
}
