package service

import (
	"context"
	"sync"
	"testing"

	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/constant"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeBot struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func TestTgBot_MessageUsesMainMenu(t *testing.T) {
	f := newDialogFixture()
	bot := &fakeBot{}
	tg := NewTgBot(bot, f.dialog, nil)

	tg.UpdateProcessing(context.Background(), &tgbotapi.Update{Message: &tgbotapi.Message{
		Text: constant.COMMAND_START,
		Chat: &tgbotapi.Chat{ID: testChat},
		From: &tgbotapi.User{ID: testUser, UserName: "tester"},
	}})

	if len(bot.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(bot.sent))
	}
	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("unexpected chattable %T", bot.sent[0])
	}
	if msg.ChatID != testChat || msg.Text != constant.REPLY_START {
		t.Errorf("unexpected message %+v", msg)
	}
	if _, ok = msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup); !ok {
		t.Errorf("expected main menu keyboard, got %T", msg.ReplyMarkup)
	}
}

func TestTgBot_CallbackUpdatesButton(t *testing.T) {
	f := newDialogFixture()
	if err := f.found.SaveFoundTrains(testChat, []models.TrainOffer{offer("083M", "29.02.2024", car("Купе", 10, 5000))}); err != nil {
		t.Fatalf("save found trains: %v", err)
	}
	bot := &fakeBot{}
	tg := NewTgBot(bot, f.dialog, nil)

	tg.UpdateProcessing(context.Background(), &tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: testUser},
		Message: &tgbotapi.Message{MessageID: 7, Chat: &tgbotapi.Chat{ID: testChat}},
		Data:    "SUBSCRIBE|083M|29.02.2024",
	}})

	if len(bot.requests) != 2 {
		t.Fatalf("expected callback answer and markup edit, got %d requests", len(bot.requests))
	}
	if _, ok := bot.requests[0].(tgbotapi.CallbackConfig); !ok {
		t.Errorf("expected callback answer first, got %T", bot.requests[0])
	}
	edit, ok := bot.requests[1].(tgbotapi.EditMessageReplyMarkupConfig)
	if !ok {
		t.Fatalf("expected markup edit, got %T", bot.requests[1])
	}
	if edit.MessageID != 7 || edit.ReplyMarkup == nil || edit.ReplyMarkup.InlineKeyboard[0][0].Text != constant.BUTTON_TEXT_UNSUBSCRIBE {
		t.Errorf("unexpected edit %+v", edit)
	}
	if len(bot.sent) != 1 {
		t.Errorf("expected one confirmation message, got %d", len(bot.sent))
	}
}

func TestTgBot_Notify(t *testing.T) {
	bot := &fakeBot{}
	tg := NewTgBot(bot, nil, nil)
	if err := tg.Notify(5, "hello"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	msg := bot.sent[0].(tgbotapi.MessageConfig)
	if msg.ChatID != 5 || msg.Text != "hello" || msg.ReplyMarkup != nil {
		t.Errorf("unexpected message %+v", msg)
	}
}
