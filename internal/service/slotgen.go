package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/campusmind/support_server/internal/model"
)

// SlotsForDate разворачивает правила консультанта в слоты на одну дату.
// Учитываются только активные правила с совпадающим днём недели;
// если таких нет, результат пустой.
func SlotsForDate(counselorID int64, date time.Time, rules []*model.AvailabilityRule) []*model.TimeSlot {
	weekday := date.Weekday()

	var slots []*model.TimeSlot
	for _, rule := range rules {
		if !rule.IsActive || rule.Weekday() != weekday {
			continue
		}
		slots = append(slots, &model.TimeSlot{
			CounselorID: counselorID,
			Date:        date,
			StartTime:   rule.StartTime,
			EndTime:     rule.EndTime,
			Status:      model.SlotStatusAvailable,
		})
	}

	sort.Slice(slots, func(i, j int) bool {
		return slots[i].StartTime < slots[j].StartTime
	})
	return slots
}

// ValidateRules проверяет набор правил перед сохранением.
// Пересекающиеся активные правила в один день отклоняются целиком,
// иначе генерация дала бы два пересекающихся слота, доступных независимо.
func ValidateRules(rules []*model.AvailabilityRule) error {
	for i, rule := range rules {
		if rule.DayOfWeek < 0 || rule.DayOfWeek > 6 {
			return fmt.Errorf("rule %d: day_of_week %d out of range: %w", i, rule.DayOfWeek, model.ErrInvalidInput)
		}
		if !rule.StartTime.Valid() || !rule.EndTime.Valid() {
			return fmt.Errorf("rule %d: time out of range: %w", i, model.ErrInvalidInput)
		}
		if rule.StartTime >= rule.EndTime {
			return fmt.Errorf("rule %d: start %s must be before end %s: %w", i, rule.StartTime, rule.EndTime, model.ErrInvalidInput)
		}
	}

	for i := 0; i < len(rules); i++ {
		if !rules[i].IsActive {
			continue
		}
		for j := i + 1; j < len(rules); j++ {
			if rules[j].IsActive && rules[i].Overlaps(rules[j]) {
				return fmt.Errorf("rules %d and %d on day %d (%s-%s, %s-%s): %w",
					i, j, rules[i].DayOfWeek,
					rules[i].StartTime, rules[i].EndTime,
					rules[j].StartTime, rules[j].EndTime,
					model.ErrOverlappingRules)
			}
		}
	}

	return nil
}
