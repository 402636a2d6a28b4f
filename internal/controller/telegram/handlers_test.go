package telegram

import (
	"context"
	"strings"
	"testing"

	"github.com/campusmind/support_server/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type fakeAPI struct {
	sent     []*bot.SendMessageParams
	edited   []*bot.EditMessageTextParams
	answered []*bot.AnswerCallbackQueryParams
}

func (f *fakeAPI) SendMessage(_ context.Context, p *bot.SendMessageParams) (*models.Message, error) {
	f.sent = append(f.sent, p)
	return &models.Message{}, nil
}

func (f *fakeAPI) EditMessageText(_ context.Context, p *bot.EditMessageTextParams) (*models.Message, error) {
	f.edited = append(f.edited, p)
	return &models.Message{}, nil
}

func (f *fakeAPI) AnswerCallbackQuery(_ context.Context, p *bot.AnswerCallbackQueryParams) (bool, error) {
	f.answered = append(f.answered, p)
	return true, nil
}

type fakeProfiles struct {
	byChat map[int64]*model.Profile
	codes  map[string]*model.Profile
}

func (f *fakeProfiles) GetByTelegramChatID(_ context.Context, chatID int64) (*model.Profile, error) {
	return f.byChat[chatID], nil
}

func (f *fakeProfiles) RedeemTelegramLink(_ context.Context, code string, chatID int64) (*model.Profile, error) {
	p, ok := f.codes[code]
	if !ok {
		return nil, model.ErrNotFound
	}
	if other := f.byChat[chatID]; other != nil && other.ID != p.ID {
		return nil, model.ErrInvalidInput
	}
	delete(f.codes, code)
	f.byChat[chatID] = p
	return p, nil
}

type fakeBookings struct {
	pending   []*model.Booking
	confirmed []int64
	cancelled []int64
	err       error
}

func (f *fakeBookings) PendingForCounselor(context.Context, int64) ([]*model.Booking, error) {
	return f.pending, nil
}

func (f *fakeBookings) Confirm(_ context.Context, _, id int64) (*model.Booking, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.confirmed = append(f.confirmed, id)
	return &model.Booking{ID: id, Status: model.BookingStatusConfirmed}, nil
}

func (f *fakeBookings) Cancel(_ context.Context, _, id int64) (*model.Booking, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.cancelled = append(f.cancelled, id)
	return &model.Booking{ID: id, Status: model.BookingStatusCancelled}, nil
}

func newController(bookings *fakeBookings) *BotController {
	profiles := &fakeProfiles{
		byChat: map[int64]*model.Profile{
			100: {ID: 1, Role: model.RoleCounselor},
			200: {ID: 2, Role: model.RoleStudent},
		},
		codes: map[string]*model.Profile{
			"fresh": {ID: 3, Role: model.RoleCounselor, DisplayName: "Dr. Iyer"},
		},
	}
	return NewBotController(nil, profiles, bookings, zap.NewNop())
}

func messageUpdate(chatID int64, text string) *models.Update {
	return &models.Update{Message: &models.Message{
		Text: text,
		Chat: models.Chat{ID: chatID},
		From: &models.User{ID: chatID, FirstName: "Asha"},
	}}
}

func callbackUpdate(userID int64, data string) *models.Update {
	return &models.Update{CallbackQuery: &models.CallbackQuery{
		ID:   "cb1",
		Data: data,
		From: models.User{ID: userID},
		Message: models.MaybeInaccessibleMessage{
			Message: &models.Message{ID: 9, Chat: models.Chat{ID: userID}},
		},
	}}
}

func TestHandleStart(t *testing.T) {
	tests := []struct {
		name string
		chat int64
		text string
		want string
	}{
		{name: "no payload", chat: 4242, text: "/start", want: "Connect Telegram"},
		{name: "valid code", chat: 4242, text: "/start fresh", want: "linked to Dr. Iyer"},
		{name: "unknown code", chat: 4242, text: "/start stale", want: "invalid or has expired"},
		{name: "chat taken", chat: 100, text: "/start fresh", want: "already linked"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newController(&fakeBookings{})
			api := &fakeAPI{}
			c.handleStart(context.Background(), api, messageUpdate(tt.chat, tt.text))

			if len(api.sent) != 1 || !strings.Contains(api.sent[0].Text, tt.want) {
				t.Fatalf("unexpected reply: %+v", api.sent)
			}
		})
	}
}

func TestHandleStartLinksChatOnce(t *testing.T) {
	c := newController(&fakeBookings{})
	api := &fakeAPI{}
	ctx := context.Background()

	c.handleStart(ctx, api, messageUpdate(4242, "/start fresh"))
	c.handleStart(ctx, api, messageUpdate(5353, "/start fresh"))

	if len(api.sent) != 2 || !strings.Contains(api.sent[1].Text, "invalid or has expired") {
		t.Fatalf("second redeem should fail: %+v", api.sent)
	}
	if p, _ := c.profiles.GetByTelegramChatID(ctx, 4242); p == nil || p.ID != 3 {
		t.Fatalf("chat 4242 linked to %+v", p)
	}
}

func TestHandlePending(t *testing.T) {
	bookings := &fakeBookings{pending: []*model.Booking{
		{ID: 1, Status: model.BookingStatusPending, Requester: model.IdentifiedStudent{StudentID: 2}},
		{ID: 2, Status: model.BookingStatusPending, Requester: model.AnonymousStudent{DisplayID: "Anonymous_1"}},
	}}
	api := &fakeAPI{}
	newController(bookings).handlePending(context.Background(), api, messageUpdate(100, "/pending"))

	if len(api.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(api.sent))
	}
	if api.sent[1].ReplyMarkup == nil {
		t.Error("pending booking should carry decision keyboard")
	}
}

func TestHandlePendingRejectsNonCounselor(t *testing.T) {
	api := &fakeAPI{}
	newController(&fakeBookings{}).handlePending(context.Background(), api, messageUpdate(200, "/pending"))

	if len(api.sent) != 1 || !strings.Contains(api.sent[0].Text, "not linked to a counselor") {
		t.Fatalf("unexpected reply: %+v", api.sent)
	}
}

func TestHandleCallback(t *testing.T) {
	tests := []struct {
		name          string
		user          int64
		data          string
		err           error
		wantConfirmed int
		wantCancelled int
		wantAlert     bool
		wantEdit      bool
	}{
		{name: "confirm", user: 100, data: "confirm:5", wantConfirmed: 1, wantEdit: true},
		{name: "cancel", user: 100, data: "cancel:5", wantCancelled: 1, wantEdit: true},
		{name: "stale", user: 100, data: "confirm:5", err: model.ErrInvalidTransition, wantAlert: true},
		{name: "not counselor", user: 200, data: "confirm:5", wantAlert: true},
		{name: "bad id", user: 100, data: "confirm:x", wantAlert: true},
		{name: "unknown", user: 100, data: "noop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bookings := &fakeBookings{err: tt.err}
			api := &fakeAPI{}
			newController(bookings).handleCallback(context.Background(), api, callbackUpdate(tt.user, tt.data))

			if len(bookings.confirmed) != tt.wantConfirmed || len(bookings.cancelled) != tt.wantCancelled {
				t.Errorf("confirmed=%v cancelled=%v", bookings.confirmed, bookings.cancelled)
			}
			if len(api.answered) != 1 {
				t.Fatalf("answered %d times, want 1", len(api.answered))
			}
			if api.answered[0].ShowAlert != tt.wantAlert {
				t.Errorf("alert = %v, want %v", api.answered[0].ShowAlert, tt.wantAlert)
			}
			if (len(api.edited) == 1) != tt.wantEdit {
				t.Errorf("edited = %d, wantEdit %v", len(api.edited), tt.wantEdit)
			}
		})
	}
}
