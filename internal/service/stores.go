package service

import (
	"context"
	"time"

	"github.com/campusmind/support_server/internal/model"
	"github.com/google/uuid"
)

// Интерфейсы хранилищ, которые реализует пакет repository.

type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ProfileStore interface {
	GetByID(ctx context.Context, id int64) (*model.Profile, error)
	GetByTelegramChatID(ctx context.Context, chatID int64) (*model.Profile, error)
	SetTelegramChatID(ctx context.Context, id int64, chatID *int64) error
	CreateTelegramLinkCode(ctx context.Context, code *model.TelegramLinkCode) error
	RedeemTelegramLinkCode(ctx context.Context, code string, chatID int64, now time.Time) (*model.Profile, error)
	GetCounselorProfile(ctx context.Context, profileID int64) (*model.CounselorProfile, error)
	ListActiveCounselors(ctx context.Context) ([]*model.CounselorProfile, error)
	CreateCounselorProfileIfMissing(ctx context.Context, cp *model.CounselorProfile) (bool, error)
}

type AvailabilityStore interface {
	GetByCounselorID(ctx context.Context, counselorID int64) ([]*model.AvailabilityRule, error)
	Replace(ctx context.Context, counselorID int64, rules []*model.AvailabilityRule) (uuid.UUID, error)
	CounselorsWithActiveRules(ctx context.Context) ([]int64, error)
}

type SlotStore interface {
	CreateIfMissing(ctx context.Context, slot *model.TimeSlot) (bool, error)
	GetByID(ctx context.Context, id int64) (*model.TimeSlot, error)
	ListByCounselor(ctx context.Context, counselorID int64, from, to time.Time) ([]*model.TimeSlot, error)
	CountAvailableByDate(ctx context.Context, counselorID int64, from, to time.Time) ([]model.DateCount, error)
	CompareAndSetStatus(ctx context.Context, slotID int64, from, to model.SlotStatus) (bool, error)
}

type BookingStore interface {
	CreateClaimingSlot(ctx context.Context, booking *model.Booking, now time.Time) error
	GetByID(ctx context.Context, id int64) (*model.Booking, error)
	GetByCounselorID(ctx context.Context, counselorID int64) ([]*model.Booking, error)
	GetByStudentID(ctx context.Context, studentID int64) ([]*model.Booking, error)
	GetPendingByCounselorID(ctx context.Context, counselorID int64) ([]*model.Booking, error)
	CompareAndSetStatus(ctx context.Context, id, counselorID int64, from, to model.BookingStatus) (bool, error)
	SummaryByCounselor(ctx context.Context, counselorID int64) (*model.BookingSummary, error)
}

type ScreeningStore interface {
	Create(ctx context.Context, result *model.ScreeningResult) error
	GetByUserID(ctx context.Context, userID int64) ([]*model.ScreeningResult, error)
}

type ResourceStore interface {
	ListCategories(ctx context.Context) ([]*model.ResourceCategory, error)
	CreateCategory(ctx context.Context, c *model.ResourceCategory) error
	List(ctx context.Context, filter model.ResourceFilter, userID int64) ([]*model.Resource, error)
	GetByID(ctx context.Context, id, userID int64) (*model.Resource, error)
	Create(ctx context.Context, res *model.Resource) error
	Update(ctx context.Context, res *model.Resource) error
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) error
	UpsertInteraction(ctx context.Context, userID, resourceID int64, upd model.InteractionUpdate, now time.Time) (*model.ResourceInteraction, error)
}

type ForumStore interface {
	Create(ctx context.Context, post *model.ForumPost) error
	GetByID(ctx context.Context, id int64) (*model.ForumPost, error)
	ListApprovedTopics(ctx context.Context, category string) ([]*model.ForumPost, error)
	ListApprovedReplies(ctx context.Context, parentIDs []int64) ([]*model.ForumPost, error)
}

// Notifier получает изменения бронирований. Ошибки доставки
// обрабатывает сама реализация, бронирование от них не зависит.
type Notifier interface {
	BookingCreated(ctx context.Context, booking *model.Booking)
	BookingStatusChanged(ctx context.Context, booking *model.Booking, from model.BookingStatus)
}

type nopNotifier struct{}

func (nopNotifier) BookingCreated(context.Context, *model.Booking)                            {}
func (nopNotifier) BookingStatusChanged(context.Context, *model.Booking, model.BookingStatus) {}
