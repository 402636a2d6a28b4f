package httpapi

import (
	"time"

	"github.com/campusmind/support_server/internal/model"
)

type telegramLinkResponse struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	Link      string    `json:"link,omitempty"` // пусто, если бот не настроен
}

type ruleRequest struct {
	DayOfWeek int    `json:"day_of_week" validate:"min=0,max=6"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
	EndTime   string `json:"end_time" validate:"required,hhmm"`
	IsActive  *bool  `json:"is_active"`
}

type saveAvailabilityRequest struct {
	Rules []ruleRequest `json:"rules" validate:"max=50,dive"`
}

func (r *saveAvailabilityRequest) toRules() []*model.AvailabilityRule {
	rules := make([]*model.AvailabilityRule, 0, len(r.Rules))
	for _, rr := range r.Rules {
		active := true
		if rr.IsActive != nil {
			active = *rr.IsActive
		}
		// Формат уже проверен валидатором
		start, _ := model.ParseTimeOfDay(rr.StartTime)
		end, _ := model.ParseTimeOfDay(rr.EndTime)
		rules = append(rules, &model.AvailabilityRule{
			DayOfWeek: rr.DayOfWeek,
			StartTime: start,
			EndTime:   end,
			IsActive:  active,
		})
	}
	return rules
}

type generateRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

type createBookingRequest struct {
	CounselorID       int64  `json:"counselor_id" validate:"required,gt=0"`
	TimeSlotID        int64  `json:"time_slot_id" validate:"required,gt=0"`
	Reason            string `json:"reason" validate:"max=1000"`
	CommunicationMode string `json:"communication_mode" validate:"required,oneof=video audio chat"`
	Anonymous         bool   `json:"anonymous"`
	DisplayID         string `json:"display_id" validate:"max=64"`
}

type screeningRequest struct {
	Type      string `json:"screening_type" validate:"required,oneof=phq9 gad7"`
	Responses []int  `json:"responses" validate:"required,dive,min=0,max=3"`
}

type postRequest struct {
	Category string `json:"category" validate:"required"`
	Title    string `json:"title" validate:"required,max=200"`
	Body     string `json:"body" validate:"required,max=5000"`
}

type replyRequest struct {
	Body string `json:"body" validate:"required,max=5000"`
}

type chatRequest struct {
	Message  string           `json:"message" validate:"required,max=4000"`
	Language string           `json:"language" validate:"max=40"`
	History  []model.ChatTurn `json:"history" validate:"max=50,dive"`
}

type resourceRequest struct {
	Title           string `json:"title" validate:"required,max=200"`
	Description     string `json:"description" validate:"max=2000"`
	ContentType     string `json:"content_type" validate:"required,oneof=video audio article link"`
	CategoryID      int64  `json:"category_id" validate:"required,min=1"`
	Language        string `json:"language" validate:"required,oneof=english hindi urdu"`
	DurationMinutes *int   `json:"duration_minutes" validate:"omitempty,min=1"`
	ContentURL      string `json:"content_url" validate:"omitempty,url"`
	ContentText     string `json:"content_text" validate:"max=50000"`
	ThumbnailURL    string `json:"thumbnail_url" validate:"omitempty,url"`
	IsActive        *bool  `json:"is_active"` // nil = опубликован
}

func (r resourceRequest) toResource(id int64) *model.Resource {
	return &model.Resource{
		ID:              id,
		Title:           r.Title,
		Description:     r.Description,
		ContentType:     model.ContentType(r.ContentType),
		CategoryID:      r.CategoryID,
		Language:        model.Language(r.Language),
		DurationMinutes: r.DurationMinutes,
		ContentURL:      r.ContentURL,
		ContentText:     r.ContentText,
		ThumbnailURL:    r.ThumbnailURL,
		IsActive:        r.IsActive == nil || *r.IsActive,
	}
}

type categoryRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Icon        string `json:"icon" validate:"max=40"`
	Color       string `json:"color" validate:"omitempty,hexcolor"`
}

type resourceActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

type interactionRequest struct {
	IsBookmarked *bool `json:"is_bookmarked"`
	Rating       *int  `json:"rating" validate:"omitempty,min=1,max=5"`
	Progress     *int  `json:"progress_percentage" validate:"omitempty,min=0,max=100"`
}

type counselorSlotsResponse struct {
	CounselorID int64             `json:"counselor_id"`
	From        string            `json:"from"`
	To          string            `json:"to"`
	Slots       []*model.TimeSlot `json:"slots"`
}

type meResponse struct {
	Profile   *model.Profile `json:"profile"`
	Timezone  string         `json:"timezone"`
	ServerNow time.Time      `json:"server_now"`
}
