package api

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type scriptedGetter struct {
	mu      sync.Mutex
	batches [][]tgbotapi.Update
	errs    []error
	offsets []int
}

func (s *scriptedGetter) GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offsets = append(s.offsets, config.Offset)
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	if len(s.batches) == 0 {
		return nil, nil
	}
	batch := s.batches[0]
	s.batches = s.batches[1:]
	return batch, nil
}

func TestUpdatesPoller_DeliversInOrderAndAdvancesOffset(t *testing.T) {
	getter := &scriptedGetter{
		errs: []error{errors.New("bad gateway"), nil, nil},
		batches: [][]tgbotapi.Update{
			{{UpdateID: 10}, {UpdateID: 11}},
			{{UpdateID: 11}, {UpdateID: 12}},
		},
	}
	poller := NewUpdatesPoller(getter)
	poller.retryDelay = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	updates := poller.Updates(ctx, tgbotapi.NewUpdate(0))

	var got []int
	for len(got) < 3 {
		select {
		case update := <-updates:
			got = append(got, update.UpdateID)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out, got %v", got)
		}
	}
	cancel()

	if got[0] != 10 || got[1] != 11 || got[2] != 12 {
		t.Errorf("unexpected updates %v", got)
	}
	getter.mu.Lock()
	defer getter.mu.Unlock()
	if len(getter.offsets) < 3 || getter.offsets[2] != 12 {
		t.Errorf("offset not advanced: %v", getter.offsets)
	}
}

func TestUpdatesPoller_ClosesOnCancel(t *testing.T) {
	poller := NewUpdatesPoller(&scriptedGetter{})
	ctx, cancel := context.WithCancel(context.Background())
	updates := poller.Updates(ctx, tgbotapi.NewUpdate(0))
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-updates:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after cancel")
		}
	}
}
