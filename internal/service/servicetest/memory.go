// Package servicetest provides in-memory stores for service and handler tests.
// All stores built from one DB share a single mutex, so conditional updates
// behave like the single-statement updates of the Postgres repositories.
package servicetest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/campusmind/support_server/internal/model"
	"github.com/google/uuid"
)

type DB struct {
	mu     sync.Mutex
	nextID int64

	profiles   map[int64]*model.Profile
	counselors map[int64]*model.CounselorProfile
	rules      map[int64][]*model.AvailabilityRule
	slots      map[int64]*model.TimeSlot
	bookings   map[int64]*model.Booking
	screenings []*model.ScreeningResult
	posts      map[int64]*model.ForumPost
	linkCodes  map[string]*linkCode

	categories   map[int64]*model.ResourceCategory
	resources    map[int64]*model.Resource
	interactions map[interactionKey]*model.ResourceInteraction

	// Now заполняет CreatedAt; по умолчанию time.Now
	Now func() time.Time
}

func NewDB() *DB {
	return &DB{
		profiles:   make(map[int64]*model.Profile),
		counselors: make(map[int64]*model.CounselorProfile),
		rules:      make(map[int64][]*model.AvailabilityRule),
		slots:      make(map[int64]*model.TimeSlot),
		bookings:   make(map[int64]*model.Booking),
		posts:      make(map[int64]*model.ForumPost),
		linkCodes:  make(map[string]*linkCode),

		categories:   make(map[int64]*model.ResourceCategory),
		resources:    make(map[int64]*model.Resource),
		interactions: make(map[interactionKey]*model.ResourceInteraction),
		Now:        time.Now,
	}
}

func (db *DB) id() int64 {
	db.nextID++
	return db.nextID
}

// AddProfile сохраняет профиль с заданным ID
func (db *DB) AddProfile(p *model.Profile) *model.Profile {
	db.mu.Lock()
	defer db.mu.Unlock()
	cp := *p
	db.profiles[p.ID] = &cp
	return p
}

// AddSlot сохраняет слот как есть и назначает ему ID
func (db *DB) AddSlot(s *model.TimeSlot) *model.TimeSlot {
	db.mu.Lock()
	defer db.mu.Unlock()
	s.ID = db.id()
	cp := *s
	db.slots[s.ID] = &cp
	return s
}

// Slot возвращает копию слота, nil если его нет
func (db *DB) Slot(id int64) *model.TimeSlot {
	db.mu.Lock()
	defer db.mu.Unlock()
	if s, ok := db.slots[id]; ok {
		cp := *s
		return &cp
	}
	return nil
}

// SlotCount число сохранённых слотов
func (db *DB) SlotCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.slots)
}

// AllBookings возвращает копии всех бронирований по возрастанию ID
func (db *DB) AllBookings() []*model.Booking {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]*model.Booking, 0, len(db.bookings))
	for _, b := range db.bookings {
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// WithTx просто вызывает fn: каждый метод хранилища атомарен сам по себе
func (db *DB) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (db *DB) Profiles() *Profiles     { return &Profiles{db} }
func (db *DB) Rules() *Rules           { return &Rules{db} }
func (db *DB) Slots() *Slots           { return &Slots{db} }
func (db *DB) Bookings() *Bookings     { return &Bookings{db} }
func (db *DB) Screenings() *Screenings { return &Screenings{db} }
func (db *DB) Forum() *Forum           { return &Forum{db} }
func (db *DB) Resources() *Resources   { return &Resources{db} }

type Profiles struct{ db *DB }

func (r *Profiles) GetByID(_ context.Context, id int64) (*model.Profile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if p, ok := r.db.profiles[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *Profiles) GetByTelegramChatID(_ context.Context, chatID int64) (*model.Profile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.profiles {
		if p.TelegramChatID != nil && *p.TelegramChatID == chatID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

type linkCode struct {
	model.TelegramLinkCode
	used bool
}

// SetTelegramChatID повторяет частичный уникальный индекс по telegram_chat_id
func (r *Profiles) SetTelegramChatID(_ context.Context, id int64, chatID *int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.profiles[id]
	if !ok {
		return model.ErrNotFound
	}
	if chatID != nil && r.db.chatTaken(id, *chatID) {
		return model.ErrInvalidInput
	}
	p.TelegramChatID = chatID
	return nil
}

func (r *Profiles) CreateTelegramLinkCode(_ context.Context, code *model.TelegramLinkCode) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.linkCodes[code.Code]; ok {
		return errors.New("duplicate link code")
	}
	r.db.linkCodes[code.Code] = &linkCode{TelegramLinkCode: *code}
	return nil
}

func (r *Profiles) RedeemTelegramLinkCode(_ context.Context, code string, chatID int64, now time.Time) (*model.Profile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	lc, ok := r.db.linkCodes[code]
	if !ok || lc.used || !lc.ExpiresAt.After(now) {
		return nil, nil
	}
	p, ok := r.db.profiles[lc.ProfileID]
	if !ok {
		return nil, nil
	}
	if r.db.chatTaken(p.ID, chatID) {
		return nil, model.ErrInvalidInput
	}
	lc.used = true
	p.TelegramChatID = &chatID
	cp := *p
	return &cp, nil
}

func (db *DB) chatTaken(profileID, chatID int64) bool {
	for _, other := range db.profiles {
		if other.ID != profileID && other.TelegramChatID != nil && *other.TelegramChatID == chatID {
			return true
		}
	}
	return false
}

func (r *Profiles) GetCounselorProfile(_ context.Context, profileID int64) (*model.CounselorProfile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if cp, ok := r.db.counselors[profileID]; ok {
		c := *cp
		return &c, nil
	}
	return nil, nil
}

func (r *Profiles) ListActiveCounselors(_ context.Context) ([]*model.CounselorProfile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*model.CounselorProfile
	for _, cp := range r.db.counselors {
		if p := r.db.profiles[cp.ProfileID]; cp.IsActive && p != nil && p.IsCounselor() {
			c := *cp
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Profiles) CreateCounselorProfileIfMissing(_ context.Context, cp *model.CounselorProfile) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.counselors[cp.ProfileID]; ok {
		return false, nil
	}
	c := *cp
	c.CreatedAt = r.db.Now()
	r.db.counselors[cp.ProfileID] = &c
	return true, nil
}

type Rules struct{ db *DB }

func (r *Rules) GetByCounselorID(_ context.Context, counselorID int64) ([]*model.AvailabilityRule, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*model.AvailabilityRule
	for _, rule := range r.db.rules[counselorID] {
		cp := *rule
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (r *Rules) Replace(_ context.Context, counselorID int64, rules []*model.AvailabilityRule) (uuid.UUID, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	revision := uuid.New()
	stored := make([]*model.AvailabilityRule, 0, len(rules))
	for _, rule := range rules {
		rule.ID = r.db.id()
		rule.RevisionID = revision
		rule.CounselorID = counselorID
		rule.CreatedAt = r.db.Now()
		cp := *rule
		stored = append(stored, &cp)
	}
	r.db.rules[counselorID] = stored
	return revision, nil
}

func (r *Rules) CounselorsWithActiveRules(_ context.Context) ([]int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var ids []int64
	for id, rules := range r.db.rules {
		for _, rule := range rules {
			if rule.IsActive {
				ids = append(ids, id)
				break
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type Slots struct{ db *DB }

// CreateIfMissing повторяет уникальный ключ и ограничение на пересечение слотов
func (r *Slots) CreateIfMissing(_ context.Context, slot *model.TimeSlot) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, s := range r.db.slots {
		if s.CounselorID == slot.CounselorID && s.DateKey() == slot.DateKey() &&
			s.StartTime < slot.EndTime && slot.StartTime < s.EndTime {
			return false, nil
		}
	}
	slot.ID = r.db.id()
	slot.CreatedAt = r.db.Now()
	slot.UpdatedAt = slot.CreatedAt
	cp := *slot
	r.db.slots[slot.ID] = &cp
	return true, nil
}

func (r *Slots) GetByID(_ context.Context, id int64) (*model.TimeSlot, error) {
	return r.db.Slot(id), nil
}

func (r *Slots) ListByCounselor(_ context.Context, counselorID int64, from, to time.Time) ([]*model.TimeSlot, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	fromKey, toKey := from.Format(model.DateLayout), to.Format(model.DateLayout)
	var out []*model.TimeSlot
	for _, s := range r.db.slots {
		if s.CounselorID == counselorID && s.DateKey() >= fromKey && s.DateKey() <= toKey {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DateKey() != out[j].DateKey() {
			return out[i].DateKey() < out[j].DateKey()
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (r *Slots) CountAvailableByDate(ctx context.Context, counselorID int64, from, to time.Time) ([]model.DateCount, error) {
	slots, _ := r.ListByCounselor(ctx, counselorID, from, to)
	out := []model.DateCount{}
	for _, s := range slots {
		if s.Status != model.SlotStatusAvailable {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Date == s.DateKey() {
			out[n-1].Count++
			continue
		}
		out = append(out, model.DateCount{Date: s.DateKey(), Count: 1})
	}
	return out, nil
}

func (r *Slots) CompareAndSetStatus(_ context.Context, slotID int64, from, to model.SlotStatus) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.slots[slotID]
	if !ok || s.Status != from {
		return false, nil
	}
	s.Status = to
	s.UpdatedAt = r.db.Now()
	return true, nil
}

type Bookings struct{ db *DB }

// CreateClaimingSlot повторяет условие claimed CTE и частичного уникального индекса
func (r *Bookings) CreateClaimingSlot(_ context.Context, booking *model.Booking, now time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	slot, ok := r.db.slots[booking.TimeSlotID]
	if !ok || slot.CounselorID != booking.CounselorID || slot.Status != model.SlotStatusAvailable ||
		!slot.StartsAt().After(now) {
		return model.ErrSlotUnavailable
	}
	for _, b := range r.db.bookings {
		if b.TimeSlotID == slot.ID && b.Status != model.BookingStatusCancelled {
			return model.ErrSlotUnavailable
		}
	}

	created := r.db.Now()
	slot.Status = model.SlotStatusBooked
	slot.UpdatedAt = created

	booking.ID = r.db.id()
	booking.Status = model.BookingStatusPending
	booking.AppointmentAt = slot.StartsAt()
	booking.CreatedAt = created
	booking.UpdatedAt = created
	cp := *booking
	cp.Slot = nil
	r.db.bookings[booking.ID] = &cp
	return nil
}

func (r *Bookings) GetByID(_ context.Context, id int64) (*model.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if b, ok := r.db.bookings[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, nil
}

func (r *Bookings) list(match func(b *model.Booking) bool) []*model.Booking {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*model.Booking
	for _, b := range r.db.bookings {
		if match(b) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AppointmentAt.Equal(out[j].AppointmentAt) {
			return out[i].AppointmentAt.Before(out[j].AppointmentAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *Bookings) GetByCounselorID(_ context.Context, counselorID int64) ([]*model.Booking, error) {
	return r.list(func(b *model.Booking) bool { return b.CounselorID == counselorID }), nil
}

func (r *Bookings) GetByStudentID(_ context.Context, studentID int64) ([]*model.Booking, error) {
	return r.list(func(b *model.Booking) bool {
		id, ok := b.StudentID()
		return ok && id == studentID
	}), nil
}

func (r *Bookings) GetPendingByCounselorID(_ context.Context, counselorID int64) ([]*model.Booking, error) {
	return r.list(func(b *model.Booking) bool {
		return b.CounselorID == counselorID && b.Status == model.BookingStatusPending
	}), nil
}

func (r *Bookings) CompareAndSetStatus(_ context.Context, id, counselorID int64, from, to model.BookingStatus) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.bookings[id]
	if !ok || b.CounselorID != counselorID || b.Status != from {
		return false, nil
	}
	b.Status = to
	b.UpdatedAt = r.db.Now()
	return true, nil
}

func (r *Bookings) SummaryByCounselor(ctx context.Context, counselorID int64) (*model.BookingSummary, error) {
	bookings, _ := r.GetByCounselorID(ctx, counselorID)
	var s model.BookingSummary
	for _, b := range bookings {
		switch b.Status {
		case model.BookingStatusPending:
			s.Pending++
		case model.BookingStatusConfirmed:
			s.Confirmed++
		case model.BookingStatusCompleted:
			s.Completed++
		case model.BookingStatusCancelled:
			s.Cancelled++
		}
	}
	return &s, nil
}

type Screenings struct{ db *DB }

func (r *Screenings) Create(_ context.Context, result *model.ScreeningResult) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	result.ID = r.db.id()
	result.CreatedAt = r.db.Now()
	cp := *result
	r.db.screenings = append(r.db.screenings, &cp)
	return nil
}

func (r *Screenings) GetByUserID(_ context.Context, userID int64) ([]*model.ScreeningResult, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*model.ScreeningResult
	for i := len(r.db.screenings) - 1; i >= 0; i-- {
		if s := r.db.screenings[i]; s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

type Forum struct{ db *DB }

func (r *Forum) Create(_ context.Context, post *model.ForumPost) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	post.ID = r.db.id()
	post.CreatedAt = r.db.Now()
	cp := *post
	r.db.posts[post.ID] = &cp
	return nil
}

func (r *Forum) GetByID(_ context.Context, id int64) (*model.ForumPost, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if p, ok := r.db.posts[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *Forum) ListApprovedTopics(_ context.Context, category string) ([]*model.ForumPost, error) {
	return r.list(func(p *model.ForumPost) bool {
		return p.ParentID == nil && (category == "" || p.Category == category)
	}, true), nil
}

func (r *Forum) ListApprovedReplies(_ context.Context, parentIDs []int64) ([]*model.ForumPost, error) {
	want := make(map[int64]bool, len(parentIDs))
	for _, id := range parentIDs {
		want[id] = true
	}
	return r.list(func(p *model.ForumPost) bool {
		return p.ParentID != nil && want[*p.ParentID]
	}, false), nil
}

func (r *Forum) list(match func(p *model.ForumPost) bool, newestFirst bool) []*model.ForumPost {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*model.ForumPost
	for _, p := range r.db.posts {
		if p.ModerationStatus == model.ModerationApproved && match(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].ID > out[j].ID
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type interactionKey struct{ userID, resourceID int64 }

type Resources struct{ db *DB }

func (r *Resources) ListCategories(_ context.Context) ([]*model.ResourceCategory, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]*model.ResourceCategory, 0, len(r.db.categories))
	for _, c := range r.db.categories {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Resources) CreateCategory(_ context.Context, c *model.ResourceCategory) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, other := range r.db.categories {
		if other.Name == c.Name {
			return fmt.Errorf("category %q: %w", c.Name, model.ErrInvalidInput)
		}
	}
	c.ID = r.db.id()
	cp := *c
	r.db.categories[c.ID] = &cp
	return nil
}

func (r *Resources) List(_ context.Context, f model.ResourceFilter, userID int64) ([]*model.Resource, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	search := strings.ToLower(f.Search)
	var out []*model.Resource
	for _, res := range r.db.resources {
		switch {
		case !f.IncludeInactive && !res.IsActive,
			f.CategoryID != 0 && res.CategoryID != f.CategoryID,
			f.ContentType != "" && res.ContentType != f.ContentType,
			f.Language != "" && res.Language != f.Language,
			search != "" && !strings.Contains(strings.ToLower(res.Title+" "+res.Description), search):
			continue
		}
		full := r.db.withRatings(res, userID)
		if f.BookmarkedOnly && (full.Interaction == nil || !full.Interaction.IsBookmarked) {
			continue
		}
		out = append(out, full)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *Resources) GetByID(_ context.Context, id, userID int64) (*model.Resource, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	res, ok := r.db.resources[id]
	if !ok {
		return nil, nil
	}
	return r.db.withRatings(res, userID), nil
}

func (r *Resources) Create(_ context.Context, res *model.Resource) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.categories[res.CategoryID]; !ok {
		return fmt.Errorf("category %d: %w", res.CategoryID, model.ErrInvalidInput)
	}
	res.ID = r.db.id()
	res.CreatedAt = r.db.Now()
	res.UpdatedAt = res.CreatedAt
	cp := *res
	r.db.resources[res.ID] = &cp
	return nil
}

func (r *Resources) Update(_ context.Context, res *model.Resource) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	old, ok := r.db.resources[res.ID]
	if !ok {
		return model.ErrNotFound
	}
	if _, ok := r.db.categories[res.CategoryID]; !ok {
		return fmt.Errorf("category %d: %w", res.CategoryID, model.ErrInvalidInput)
	}
	res.CreatedBy = old.CreatedBy
	res.CreatedAt = old.CreatedAt
	res.UpdatedAt = r.db.Now()
	cp := *res
	cp.AverageRating, cp.TotalRatings, cp.Interaction = nil, 0, nil
	r.db.resources[res.ID] = &cp
	return nil
}

func (r *Resources) SetActive(_ context.Context, id int64, active bool) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	res, ok := r.db.resources[id]
	if !ok {
		return model.ErrNotFound
	}
	res.IsActive = active
	res.UpdatedAt = r.db.Now()
	return nil
}

func (r *Resources) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.resources[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.db.resources, id)
	for k := range r.db.interactions {
		if k.resourceID == id {
			delete(r.db.interactions, k)
		}
	}
	return nil
}

// UpsertInteraction повторяет ON CONFLICT запроса: прогресс только растёт
func (r *Resources) UpsertInteraction(_ context.Context, userID, resourceID int64, upd model.InteractionUpdate, now time.Time) (*model.ResourceInteraction, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.resources[resourceID]; !ok {
		return nil, model.ErrNotFound
	}
	key := interactionKey{userID, resourceID}
	in, ok := r.db.interactions[key]
	if !ok {
		in = &model.ResourceInteraction{UserID: userID, ResourceID: resourceID}
		r.db.interactions[key] = in
	}
	if upd.IsBookmarked != nil {
		in.IsBookmarked = *upd.IsBookmarked
	}
	if upd.Rating != nil {
		rating := *upd.Rating
		in.Rating = &rating
	}
	if upd.Progress != nil {
		if *upd.Progress > in.ProgressPercentage {
			in.ProgressPercentage = *upd.Progress
		}
		accessed := now
		in.LastAccessedAt = &accessed
	}
	in.UpdatedAt = now
	cp := *in
	return &cp, nil
}

func (db *DB) withRatings(res *model.Resource, userID int64) *model.Resource {
	cp := *res
	sum := 0
	for k, in := range db.interactions {
		if k.resourceID != res.ID {
			continue
		}
		if in.Rating != nil {
			sum += *in.Rating
			cp.TotalRatings++
		}
		if k.userID == userID {
			ic := *in
			cp.Interaction = &ic
		}
	}
	if cp.TotalRatings > 0 {
		avg := float64(sum) / float64(cp.TotalRatings)
		cp.AverageRating = &avg
	}
	return &cp
}
