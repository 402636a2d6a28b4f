package service

import (
	"time"

	"github.com/campusmind/support_server/internal/model"
)

const DefaultHorizonDays = 30

// Calendar даёт сервисам "сегодня" в часовом поясе сервиса
type Calendar struct {
	Location    *time.Location
	HorizonDays int
	Now         func() time.Time
}

func NewCalendar(loc *time.Location, horizonDays int) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	return &Calendar{Location: loc, HorizonDays: horizonDays, Now: time.Now}
}

// Today возвращает полночь текущего дня
func (c *Calendar) Today() time.Time {
	return model.DateOnly(c.Now(), c.Location)
}

// Horizon возвращает даты от сегодня на HorizonDays дней вперёд, включая сегодня
func (c *Calendar) Horizon() []time.Time {
	today := c.Today()
	dates := make([]time.Time, 0, c.HorizonDays)
	for i := 0; i < c.HorizonDays; i++ {
		dates = append(dates, today.AddDate(0, 0, i))
	}
	return dates
}
