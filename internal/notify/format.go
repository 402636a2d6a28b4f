package notify

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/campusmind/support_server/internal/model"
	"github.com/go-telegram/bot/models"
)

// Префиксы callback data для кнопок под уведомлением
const (
	CallbackConfirm = "confirm:" // confirm:booking_id
	CallbackCancel  = "cancel:"  // cancel:booking_id
	CallbackNoop    = "noop"
)

type statusDisplay struct {
	Emoji string
	Text  string
}

var bookingStatusDisplays = map[model.BookingStatus]statusDisplay{
	model.BookingStatusPending:   {"⏳", "Awaiting confirmation"},
	model.BookingStatusConfirmed: {"✅", "Confirmed"},
	model.BookingStatusCompleted: {"✔️", "Completed"},
	model.BookingStatusCancelled: {"❌", "Cancelled"},
}

// StatusLabel возвращает emoji и подпись статуса бронирования
func StatusLabel(status model.BookingStatus) string {
	d, ok := bookingStatusDisplays[status]
	if !ok {
		return "❓ Unknown"
	}
	return d.Emoji + " " + d.Text
}

func requesterLabel(b *model.Booking) string {
	if name := b.DisplayName(); name != "" {
		return name
	}
	if id, ok := b.StudentID(); ok {
		return "Student #" + strconv.FormatInt(id, 10)
	}
	return "Student"
}

func appointmentLabel(b *model.Booking) string {
	if b.Slot != nil {
		return fmt.Sprintf("%s %s-%s", b.Slot.Date.Format("02 Jan 2006"), b.Slot.StartTime, b.Slot.EndTime)
	}
	return b.AppointmentAt.Format("02 Jan 2006 15:04")
}

// BookingCard форматирует бронирование для консультанта (HTML)
func BookingCard(b *model.Booking) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Booking #%d</b>\n\n", b.ID)
	fmt.Fprintf(&sb, "👤 %s\n", html.EscapeString(requesterLabel(b)))
	fmt.Fprintf(&sb, "📅 %s\n", appointmentLabel(b))
	fmt.Fprintf(&sb, "💬 %s\n", b.CommunicationMode)
	fmt.Fprintf(&sb, "%s\n", StatusLabel(b.Status))
	if b.Reason != "" {
		fmt.Fprintf(&sb, "\n<i>%s</i>\n", html.EscapeString(b.Reason))
	}
	return sb.String()
}

// NewBookingText уведомление консультанту о новой заявке
func NewBookingText(b *model.Booking) string {
	return "🔔 <b>New session request</b>\n\n" + BookingCard(b)
}

// StatusChangedText уведомление студенту о смене статуса
func StatusChangedText(b *model.Booking) string {
	return fmt.Sprintf("Your counseling session on %s is now: %s",
		appointmentLabel(b), StatusLabel(b.Status))
}

// DecisionKeyboard кнопки подтверждения и отмены pending бронирования
func DecisionKeyboard(bookingID int64) *models.InlineKeyboardMarkup {
	id := strconv.FormatInt(bookingID, 10)
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "✅ Confirm", CallbackData: CallbackConfirm + id},
				{Text: "❌ Cancel", CallbackData: CallbackCancel + id},
			},
		},
	}
}

// ParseCallbackID извлекает ID из callback data вида prefix:id
func ParseCallbackID(data, prefix string) (int64, error) {
	raw, ok := strings.CutPrefix(data, prefix)
	if !ok {
		return 0, fmt.Errorf("callback %q has no prefix %q", data, prefix)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse callback id: %w", err)
	}
	return id, nil
}
