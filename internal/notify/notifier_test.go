package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/campusmind/support_server/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type fakeSender struct {
	sent []*bot.SendMessageParams
	err  error
}

func (f *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	f.sent = append(f.sent, params)
	return &models.Message{}, f.err
}

type fakeProfiles map[int64]*model.Profile

func (f fakeProfiles) GetByID(_ context.Context, id int64) (*model.Profile, error) {
	return f[id], nil
}

func chat(id int64) *int64 { return &id }

func TestTelegramBookingCreated(t *testing.T) {
	sender := &fakeSender{}
	profiles := fakeProfiles{
		10: {ID: 10, Role: model.RoleCounselor, TelegramChatID: chat(555)},
	}
	n := NewTelegram(sender, profiles, zap.NewNop())

	booking := &model.Booking{
		ID:                7,
		Requester:         model.AnonymousStudent{DisplayID: "Anonymous_<X>"},
		CounselorID:       10,
		Status:            model.BookingStatusPending,
		CommunicationMode: model.CommunicationChat,
		Reason:            "exam stress & sleep",
	}
	n.BookingCreated(context.Background(), booking)

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.ChatID != int64(555) {
		t.Errorf("chat id = %v, want 555", msg.ChatID)
	}
	text := msg.Text
	if !strings.Contains(text, "Anonymous_&lt;X&gt;") || !strings.Contains(text, "exam stress &amp; sleep") {
		t.Errorf("text not escaped: %q", text)
	}
	kb, ok := msg.ReplyMarkup.(*models.InlineKeyboardMarkup)
	if !ok || kb.InlineKeyboard[0][0].CallbackData != "confirm:7" || kb.InlineKeyboard[0][1].CallbackData != "cancel:7" {
		t.Errorf("unexpected keyboard: %#v", msg.ReplyMarkup)
	}
}

func TestTelegramSkipsUnlinkedAndAnonymous(t *testing.T) {
	sender := &fakeSender{}
	profiles := fakeProfiles{
		10: {ID: 10, Role: model.RoleCounselor},
		20: {ID: 20, Role: model.RoleStudent, TelegramChatID: chat(777)},
	}
	n := NewTelegram(sender, profiles, zap.NewNop())

	n.BookingCreated(context.Background(), &model.Booking{ID: 1, CounselorID: 10})
	n.BookingStatusChanged(context.Background(), &model.Booking{
		ID:        2,
		Requester: model.AnonymousStudent{DisplayID: "Anonymous_1"},
		Status:    model.BookingStatusConfirmed,
	}, model.BookingStatusPending)

	if len(sender.sent) != 0 {
		t.Fatalf("sent %d messages, want 0", len(sender.sent))
	}

	n.BookingStatusChanged(context.Background(), &model.Booking{
		ID:        3,
		Requester: model.IdentifiedStudent{StudentID: 20},
		Status:    model.BookingStatusConfirmed,
	}, model.BookingStatusPending)

	if len(sender.sent) != 1 || sender.sent[0].ChatID != int64(777) {
		t.Fatalf("expected one message to student chat, got %+v", sender.sent)
	}
}

func TestTelegramSendErrorIsSwallowed(t *testing.T) {
	sender := &fakeSender{err: errors.New("forbidden: bot was blocked by the user")}
	profiles := fakeProfiles{10: {ID: 10, TelegramChatID: chat(1)}}

	NewTelegram(sender, profiles, zap.NewNop()).BookingCreated(context.Background(), &model.Booking{ID: 1, CounselorID: 10})

	if len(sender.sent) != 1 {
		t.Fatalf("expected send attempt")
	}
}

func TestParseCallbackID(t *testing.T) {
	tests := []struct {
		data    string
		prefix  string
		want    int64
		wantErr bool
	}{
		{"confirm:42", CallbackConfirm, 42, false},
		{"cancel:7", CallbackCancel, 7, false},
		{"cancel:7", CallbackConfirm, 0, true},
		{"confirm:abc", CallbackConfirm, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			got, err := ParseCallbackID(tt.data, tt.prefix)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}
