// Command render_week draws a counselor's week to a PNG file. Without
// -counselor it renders sample slots and needs no database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/campusmind/support_server/internal/config"
	"github.com/campusmind/support_server/internal/model"
	"github.com/campusmind/support_server/internal/render"
	"github.com/campusmind/support_server/internal/repository"
	"github.com/campusmind/support_server/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	counselorID := flag.Int64("counselor", 0, "counselor profile id, 0 renders sample data")
	week := flag.String("week", "", "any date of the week, YYYY-MM-DD (default: this week)")
	out := flag.String("out", "week.png", "output file")
	flag.Parse()

	now := time.Now()
	day := model.DateOnly(now, now.Location())
	if *week != "" {
		d, err := model.ParseDate(*week, now.Location())
		if err != nil {
			fail("bad -week: %v", err)
		}
		day = d
	}
	monday := render.MondayOf(day)

	var (
		slots  []*model.TimeSlot
		labels map[int64]string
		err    error
	)
	if *counselorID == 0 {
		slots, labels = sampleWeek(monday)
	} else {
		slots, labels, err = loadWeek(context.Background(), *counselorID, monday)
		if err != nil {
			fail("load week: %v", err)
		}
	}

	imageData, err := render.WeekImage(monday, now, slots, labels)
	if err != nil {
		fail("render: %v", err)
	}

	if err := os.WriteFile(*out, imageData, 0o644); err != nil {
		fail("write %s: %v", *out, err)
	}

	fmt.Printf("Saved %s\n", *out)
	fmt.Printf("Week: %s - %s\n", monday.Format(model.DateLayout), monday.AddDate(0, 0, 6).Format(model.DateLayout))
	fmt.Printf("Slots: %d\n", len(slots))
}

func loadWeek(ctx context.Context, counselorID int64, monday time.Time) ([]*model.TimeSlot, map[int64]string, error) {
	cfg, _, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		return nil, nil, err
	}
	defer pool.Close()

	db := base.NewRepository(pool)
	monday = model.DateOnly(monday, cfg.Location)

	slots, err := repository.NewSlotRepository(db, cfg.Location).ListByCounselor(ctx, counselorID, monday, monday.AddDate(0, 0, 6))
	if err != nil {
		return nil, nil, err
	}

	bookings, err := repository.NewBookingRepository(db, cfg.Location).GetByCounselorID(ctx, counselorID)
	if err != nil {
		return nil, nil, err
	}

	labels := make(map[int64]string)
	for _, b := range bookings {
		if b.Status == model.BookingStatusCancelled {
			continue
		}
		if name := b.DisplayName(); name != "" {
			labels[b.TimeSlotID] = name
		}
	}
	return slots, labels, nil
}

func sampleWeek(monday time.Time) ([]*model.TimeSlot, map[int64]string) {
	slot := func(id int64, day int, start, end string, status model.SlotStatus) *model.TimeSlot {
		return &model.TimeSlot{
			ID:          id,
			CounselorID: 1,
			Date:        monday.AddDate(0, 0, day),
			StartTime:   model.MustTimeOfDay(start),
			EndTime:     model.MustTimeOfDay(end),
			Status:      status,
		}
	}

	slots := []*model.TimeSlot{
		slot(1, 0, "09:00", "10:00", model.SlotStatusAvailable),
		slot(2, 0, "14:00", "15:00", model.SlotStatusBooked),
		slot(3, 1, "10:00", "11:00", model.SlotStatusAvailable),
		slot(4, 1, "16:00", "17:00", model.SlotStatusBlocked),
		slot(5, 2, "09:00", "10:00", model.SlotStatusBooked),
		slot(6, 2, "15:00", "16:00", model.SlotStatusAvailable),
		slot(7, 4, "11:00", "12:00", model.SlotStatusAvailable),
		slot(8, 4, "13:00", "14:00", model.SlotStatusBooked),
	}
	labels := map[int64]string{
		2: "Anonymous_7F3KQ2",
		5: "Asha",
	}
	return slots, labels
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
