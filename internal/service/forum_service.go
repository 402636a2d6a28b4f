package service

import (
	"context"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/campusmind/support_server/internal/model"
	"github.com/campusmind/support_server/internal/moderation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxTitleLength = 200

var supportiveNames = []string{
	"SupportiveListener", "CaringFriend", "UnderstandingPeer", "CompassionateStudent",
	"HelpfulSoul", "WiseCompanion", "GentleSupporter", "KindListener", "EmpatheticFriend",
	"WarmHeart", "PatientHelper", "ThoughtfulPeer", "EncouragingSoul", "LovingSupporter",
}

// aliasNamespace отделяет псевдонимы форума от других UUID на основе ID
var aliasNamespace = uuid.MustParse("6f1c2a0e-5d7b-4c1e-9a43-2b8d0e6f7a15")

// PostInput данные нового поста или ответа
type PostInput struct {
	AuthorID int64
	Category string
	Title    string
	Body     string
}

// PostResult итог публикации. Post равен nil, если текст отправлен на кризисную поддержку.
type PostResult struct {
	Post       *model.ForumPost           `json:"post,omitempty"`
	Moderation moderation.Result          `json:"moderation"`
	Crisis     *moderation.CrisisResponse `json:"crisis,omitempty"`
}

type ForumService struct {
	forumRepo ForumStore
	logger    *zap.Logger
}

func NewForumService(forumRepo ForumStore, logger *zap.Logger) *ForumService {
	return &ForumService{
		forumRepo: forumRepo,
		logger:    logger,
	}
}

// AuthorAlias возвращает постоянный анонимный псевдоним автора
func AuthorAlias(authorID int64) string {
	id := uuid.NewSHA1(aliasNamespace, []byte(strconv.FormatInt(authorID, 10)))
	n := binary.BigEndian.Uint32(id[:4])
	name := supportiveNames[n%uint32(len(supportiveNames))]
	return fmt.Sprintf("%s%d", name, binary.BigEndian.Uint16(id[4:6])%100+1)
}

// CreatePost публикует новую тему
func (s *ForumService) CreatePost(ctx context.Context, in PostInput) (*PostResult, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || len([]rune(in.Title)) > maxTitleLength {
		return nil, fmt.Errorf("title must be 1..%d characters: %w", maxTitleLength, model.ErrInvalidInput)
	}
	if !model.IsForumCategory(in.Category) {
		return nil, fmt.Errorf("category %q: %w", in.Category, model.ErrInvalidInput)
	}

	return s.publish(ctx, nil, in)
}

// Reply отвечает на одобренную тему
func (s *ForumService) Reply(ctx context.Context, parentID int64, in PostInput) (*PostResult, error) {
	parent, err := s.forumRepo.GetByID(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("get parent post: %w", err)
	}

	// Неодобренные и вложенные посты для ответа не видны
	if parent == nil || parent.ParentID != nil || parent.ModerationStatus != model.ModerationApproved {
		return nil, fmt.Errorf("post %d: %w", parentID, model.ErrNotFound)
	}

	in.Category = parent.Category
	in.Title = ""
	return s.publish(ctx, &parentID, in)
}

func (s *ForumService) publish(ctx context.Context, parentID *int64, in PostInput) (*PostResult, error) {
	in.Body = strings.TrimSpace(in.Body)
	if in.Body == "" {
		return nil, fmt.Errorf("body required: %w", model.ErrInvalidInput)
	}

	alias := AuthorAlias(in.AuthorID)
	verdict := moderation.Moderate(in.Body)
	result := &PostResult{Moderation: verdict}

	if verdict.CrisisDetected {
		crisis := moderation.NewCrisisResponse(alias)
		result.Crisis = &crisis
		s.logger.Warn("Crisis content withheld from forum",
			zap.Int64("author_id", in.AuthorID),
			zap.Strings("flags", verdict.Flags))
		return result, nil
	}

	status := model.ModerationApproved
	if verdict.NeedsReview || !verdict.Approved {
		status = model.ModerationPending
	}

	post := &model.ForumPost{
		ParentID:         parentID,
		AuthorID:         in.AuthorID,
		AuthorAlias:      alias,
		Category:         in.Category,
		Title:            in.Title,
		Body:             in.Body,
		ModerationStatus: status,
		Flags:            verdict.Flags,
	}

	if err := s.forumRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("save post: %w", err)
	}

	if status == model.ModerationPending {
		s.logger.Info("Forum post held for review",
			zap.Int64("post_id", post.ID),
			zap.Strings("flags", verdict.Flags))
	}

	result.Post = post
	return result, nil
}

// ListPosts возвращает одобренные темы с одобренными ответами
func (s *ForumService) ListPosts(ctx context.Context, category string) ([]*model.ForumPost, error) {
	if category != "" && !model.IsForumCategory(category) {
		return nil, fmt.Errorf("category %q: %w", category, model.ErrInvalidInput)
	}

	topics, err := s.forumRepo.ListApprovedTopics(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	if len(topics) == 0 {
		return []*model.ForumPost{}, nil
	}

	ids := make([]int64, 0, len(topics))
	byID := make(map[int64]*model.ForumPost, len(topics))
	for _, t := range topics {
		ids = append(ids, t.ID)
		byID[t.ID] = t
	}

	replies, err := s.forumRepo.ListApprovedReplies(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}

	for _, r := range replies {
		if r.ParentID == nil {
			continue
		}
		if parent, ok := byID[*r.ParentID]; ok {
			parent.Replies = append(parent.Replies, r)
		}
	}

	return topics, nil
}
