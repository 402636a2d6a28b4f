package model

import "time"

type Role string

const (
	RoleStudent   Role = "student"
	RoleCounselor Role = "counselor"
	RoleAdmin     Role = "admin"
)

type Profile struct {
	ID             int64     `json:"id"`
	Role           Role      `json:"role"`
	DisplayName    string    `json:"display_name"`
	Email          string    `json:"email"`
	TelegramChatID *int64    `json:"telegram_chat_id,omitempty"` // nil = уведомления в Telegram не подключены
	CreatedAt      time.Time `json:"created_at"`
}

func (p *Profile) IsCounselor() bool {
	return p.Role == RoleCounselor
}

// CounselorProfile holds the public details shown on counselor selection.
type CounselorProfile struct {
	ProfileID       int64     `json:"profile_id"`
	Name            string    `json:"name"`
	Specialization  []string  `json:"specialization"`
	Languages       []string  `json:"languages"`
	ExperienceYears int       `json:"experience_years"`
	Bio             string    `json:"bio"`
	HourlyRate      int       `json:"hourly_rate"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

// DefaultCounselorProfile is created the first time a counselor saves availability.
func DefaultCounselorProfile(p *Profile) *CounselorProfile {
	name := p.DisplayName
	if name == "" {
		name = "Counselor"
	}
	return &CounselorProfile{
		ProfileID:       p.ID,
		Name:            name,
		Specialization:  []string{"general-counseling"},
		Languages:       []string{"english"},
		ExperienceYears: 1,
		Bio:             "Professional counselor providing mental health support to students.",
		HourlyRate:      1500,
		IsActive:        true,
	}
}

// TelegramLinkCode одноразовый код привязки чата, передаётся боту через /start
type TelegramLinkCode struct {
	Code      string    `json:"code"`
	ProfileID int64     `json:"profile_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
