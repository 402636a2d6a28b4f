package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/campusmind/support_server/internal/model"
	"github.com/campusmind/support_server/internal/repository/base"
)

type ProfileRepository struct {
	db *base.Repository
}

func NewProfileRepository(db *base.Repository) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByID получает профиль по ID
func (r *ProfileRepository) GetByID(ctx context.Context, id int64) (*model.Profile, error) {
	query := `
		SELECT id, role, display_name, email, telegram_chat_id, created_at
		FROM profiles
		WHERE id = $1
	`

	var profile model.Profile
	err := r.db.DB(ctx).QueryRow(ctx, query, id).Scan(
		&profile.ID,
		&profile.Role,
		&profile.DisplayName,
		&profile.Email,
		&profile.TelegramChatID,
		&profile.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil // Профиль не найден
		}
		return nil, fmt.Errorf("get profile by id: %w", err)
	}

	return &profile, nil
}

// GetByTelegramChatID получает профиль, привязанный к чату Telegram
func (r *ProfileRepository) GetByTelegramChatID(ctx context.Context, chatID int64) (*model.Profile, error) {
	query := `
		SELECT id, role, display_name, email, telegram_chat_id, created_at
		FROM profiles
		WHERE telegram_chat_id = $1
	`

	var profile model.Profile
	err := r.db.DB(ctx).QueryRow(ctx, query, chatID).Scan(
		&profile.ID,
		&profile.Role,
		&profile.DisplayName,
		&profile.Email,
		&profile.TelegramChatID,
		&profile.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile by telegram chat: %w", err)
	}

	return &profile, nil
}

// SetTelegramChatID привязывает чат Telegram к профилю, nil отвязывает
func (r *ProfileRepository) SetTelegramChatID(ctx context.Context, id int64, chatID *int64) error {
	affected, err := r.db.ExecAffected(ctx, `UPDATE profiles SET telegram_chat_id = $1 WHERE id = $2`, chatID, id)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("chat already linked to another profile: %w", model.ErrInvalidInput)
		}
		return fmt.Errorf("update telegram chat id: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("update telegram chat id: %w", model.ErrNotFound)
	}

	return nil
}

// CreateTelegramLinkCode сохраняет одноразовый код привязки
func (r *ProfileRepository) CreateTelegramLinkCode(ctx context.Context, code *model.TelegramLinkCode) error {
	query := `
		INSERT INTO telegram_link_codes (code, profile_id, expires_at)
		VALUES ($1, $2, $3)
	`

	if _, err := r.db.DB(ctx).Exec(ctx, query, code.Code, code.ProfileID, code.ExpiresAt); err != nil {
		return fmt.Errorf("create telegram link code: %w", err)
	}
	return nil
}

// RedeemTelegramLinkCode погашает код и привязывает чат одним запросом.
// Возвращает nil, если код не найден, уже использован или истёк.
// При конфликте чата код остаётся неиспользованным.
func (r *ProfileRepository) RedeemTelegramLinkCode(ctx context.Context, code string, chatID int64, now time.Time) (*model.Profile, error) {
	query := `
		WITH redeemed AS (
			UPDATE telegram_link_codes
			SET used_at = $3
			WHERE code = $1 AND used_at IS NULL AND expires_at > $3
			RETURNING profile_id
		)
		UPDATE profiles p
		SET telegram_chat_id = $2
		FROM redeemed
		WHERE p.id = redeemed.profile_id
		RETURNING p.id, p.role, p.display_name, p.email, p.telegram_chat_id, p.created_at
	`

	var profile model.Profile
	err := r.db.DB(ctx).QueryRow(ctx, query, code, chatID, now).Scan(
		&profile.ID,
		&profile.Role,
		&profile.DisplayName,
		&profile.Email,
		&profile.TelegramChatID,
		&profile.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		if base.IsUniqueViolation(err) {
			return nil, fmt.Errorf("chat already linked to another profile: %w", model.ErrInvalidInput)
		}
		return nil, fmt.Errorf("redeem telegram link code: %w", err)
	}

	return &profile, nil
}

// GetCounselorProfile получает публичные данные консультанта
func (r *ProfileRepository) GetCounselorProfile(ctx context.Context, profileID int64) (*model.CounselorProfile, error) {
	query := `
		SELECT profile_id, name, specialization, languages, experience_years, bio, hourly_rate, is_active, created_at
		FROM counselor_profiles
		WHERE profile_id = $1
	`

	var cp model.CounselorProfile
	err := r.db.DB(ctx).QueryRow(ctx, query, profileID).Scan(
		&cp.ProfileID,
		&cp.Name,
		&cp.Specialization,
		&cp.Languages,
		&cp.ExperienceYears,
		&cp.Bio,
		&cp.HourlyRate,
		&cp.IsActive,
		&cp.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get counselor profile: %w", err)
	}

	return &cp, nil
}

// ListActiveCounselors получает всех активных консультантов
func (r *ProfileRepository) ListActiveCounselors(ctx context.Context) ([]*model.CounselorProfile, error) {
	query := `
		SELECT cp.profile_id, cp.name, cp.specialization, cp.languages, cp.experience_years, cp.bio, cp.hourly_rate, cp.is_active, cp.created_at
		FROM counselor_profiles cp
		JOIN profiles p ON p.id = cp.profile_id
		WHERE cp.is_active = true AND p.role = 'counselor'
		ORDER BY cp.name
	`

	rows, err := r.db.DB(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get active counselors: %w", err)
	}
	defer rows.Close()

	var counselors []*model.CounselorProfile
	for rows.Next() {
		var cp model.CounselorProfile
		err := rows.Scan(
			&cp.ProfileID,
			&cp.Name,
			&cp.Specialization,
			&cp.Languages,
			&cp.ExperienceYears,
			&cp.Bio,
			&cp.HourlyRate,
			&cp.IsActive,
			&cp.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan counselor profile: %w", err)
		}
		counselors = append(counselors, &cp)
	}

	return counselors, rows.Err()
}

// CreateCounselorProfileIfMissing создаёт данные консультанта, если их ещё нет
func (r *ProfileRepository) CreateCounselorProfileIfMissing(ctx context.Context, cp *model.CounselorProfile) (bool, error) {
	query := `
		INSERT INTO counselor_profiles (profile_id, name, specialization, languages, experience_years, bio, hourly_rate, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (profile_id) DO NOTHING
	`

	affected, err := r.db.ExecAffected(
		ctx, query,
		cp.ProfileID,
		cp.Name,
		cp.Specialization,
		cp.Languages,
		cp.ExperienceYears,
		cp.Bio,
		cp.HourlyRate,
		cp.IsActive,
	)
	if err != nil {
		return false, fmt.Errorf("create counselor profile: %w", err)
	}

	return affected == 1, nil
}
