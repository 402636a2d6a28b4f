package render

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/campusmind/support_server/internal/model"
)

func TestMondayOf(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2025-06-02", "2025-06-02"}, // понедельник
		{"2025-06-04", "2025-06-02"},
		{"2025-06-08", "2025-06-02"}, // воскресенье
		{"2025-06-09", "2025-06-09"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, _ := time.Parse(model.DateLayout, tt.in)
			if got := MondayOf(d).Format(model.DateLayout); got != tt.want {
				t.Errorf("MondayOf(%s) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestHoursFor(t *testing.T) {
	slots := []*model.TimeSlot{
		{StartTime: model.MustTimeOfDay("09:00"), EndTime: model.MustTimeOfDay("10:00")},
		{StartTime: model.MustTimeOfDay("14:00"), EndTime: model.MustTimeOfDay("14:30")},
	}

	got := hoursFor(slots)
	if got.start != 8 || got.end != 16 || got.total != 8 {
		t.Errorf("hoursFor = %+v, want start 8 end 16 total 8", got)
	}

	if empty := hoursFor(nil); empty.start != defaultMinHour-hourPaddingTop {
		t.Errorf("empty range start = %d", empty.start)
	}
}

func TestWeekImage(t *testing.T) {
	day, _ := time.Parse(model.DateLayout, "2025-06-03")
	slots := []*model.TimeSlot{
		{ID: 1, Date: day, StartTime: model.MustTimeOfDay("09:00"), EndTime: model.MustTimeOfDay("10:00"), Status: model.SlotStatusAvailable},
		{ID: 2, Date: day, StartTime: model.MustTimeOfDay("10:00"), EndTime: model.MustTimeOfDay("11:00"), Status: model.SlotStatusBooked},
		{ID: 3, Date: day.AddDate(0, 0, 1), StartTime: model.MustTimeOfDay("13:00"), EndTime: model.MustTimeOfDay("14:00"), Status: model.SlotStatusBlocked},
	}

	data, err := WeekImage(day, day.Add(9*time.Hour+30*time.Minute), slots, map[int64]string{2: "Anonymous_AB12CD"})
	if err != nil {
		t.Fatalf("WeekImage: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != imageWidth || b.Dy() != imageHeight {
		t.Errorf("image size = %dx%d", b.Dx(), b.Dy())
	}
}
