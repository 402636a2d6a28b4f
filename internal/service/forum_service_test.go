package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/campusmind/support_server/internal/model"
	"github.com/campusmind/support_server/internal/service/servicetest"
	"go.uber.org/zap"
)

func newForum(t *testing.T) *ForumService {
	t.Helper()
	return NewForumService(servicetest.NewDB().Forum(), zap.NewNop())
}

func TestAuthorAlias(t *testing.T) {
	alias := AuthorAlias(studentID)
	if alias != AuthorAlias(studentID) {
		t.Error("alias must be stable for the same author")
	}
	if !regexp.MustCompile(`^[A-Za-z]+\d{1,3}$`).MatchString(alias) {
		t.Errorf("alias %q has unexpected shape", alias)
	}
}

func TestCreatePostModeration(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus model.ModerationStatus
		wantStored bool
		wantCrisis bool
	}{
		{"supportive", "Talking to a counselor really helped me with exam stress.", model.ModerationApproved, true, false},
		{"needs review", "My roommate keeps calling me a loser and I hate it here.", model.ModerationPending, true, false},
		{"crisis", "I feel hopeless and want to end my life.", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forum := newForum(t)
			res, err := forum.CreatePost(context.Background(), PostInput{
				AuthorID: studentID,
				Category: "academic",
				Title:    "Exams",
				Body:     tt.body,
			})
			if err != nil {
				t.Fatalf("CreatePost: %v", err)
			}

			if (res.Post != nil) != tt.wantStored {
				t.Fatalf("stored = %v, want %v", res.Post != nil, tt.wantStored)
			}
			if tt.wantStored && res.Post.ModerationStatus != tt.wantStatus {
				t.Errorf("status = %s, want %s", res.Post.ModerationStatus, tt.wantStatus)
			}
			if (res.Crisis != nil) != tt.wantCrisis {
				t.Errorf("crisis response = %v, want %v", res.Crisis != nil, tt.wantCrisis)
			}
		})
	}
}

func TestCreatePostValidation(t *testing.T) {
	forum := newForum(t)
	ctx := context.Background()

	cases := []PostInput{
		{AuthorID: studentID, Category: "academic", Title: "", Body: "Some body text here"},
		{AuthorID: studentID, Category: "gossip", Title: "Hi", Body: "Some body text here"},
		{AuthorID: studentID, Category: "academic", Title: "Hi", Body: "   "},
	}
	for _, in := range cases {
		if _, err := forum.CreatePost(ctx, in); !errors.Is(err, model.ErrInvalidInput) {
			t.Errorf("CreatePost(%+v) err = %v, want ErrInvalidInput", in, err)
		}
	}
}

func TestListPostsOnlyApproved(t *testing.T) {
	forum := newForum(t)
	ctx := context.Background()

	topic, err := forum.CreatePost(ctx, PostInput{AuthorID: studentID, Category: "career", Title: "Internships", Body: "Any tips for finding support during placements?"})
	if err != nil || topic.Post == nil {
		t.Fatalf("CreatePost: %+v, %v", topic, err)
	}
	if _, err := forum.CreatePost(ctx, PostInput{AuthorID: studentID, Category: "career", Title: "Rant", Body: "EVERYONE HERE IS A LOSER"}); err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if _, err := forum.CreatePost(ctx, PostInput{AuthorID: otherStudentID, Category: "family", Title: "Home", Body: "How do you talk to parents about therapy?"}); err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	if _, err := forum.Reply(ctx, topic.Post.ID, PostInput{AuthorID: otherStudentID, Body: "The career cell helped me a lot, ask them."}); err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if _, err := forum.Reply(ctx, topic.Post.ID, PostInput{AuthorID: otherStudentID, Body: "ok"}); err != nil {
		t.Fatalf("Reply: %v", err)
	}

	career, err := forum.ListPosts(ctx, "career")
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(career) != 1 || career[0].ID != topic.Post.ID {
		t.Fatalf("career topics = %+v", career)
	}
	if len(career[0].Replies) != 1 {
		t.Errorf("replies = %d, want only the approved one", len(career[0].Replies))
	}
	if career[0].Replies[0].Category != "career" {
		t.Errorf("reply category = %q, want parent's", career[0].Replies[0].Category)
	}

	all, _ := forum.ListPosts(ctx, "")
	if len(all) != 2 {
		t.Errorf("all topics = %d, want 2", len(all))
	}

	if _, err := forum.ListPosts(ctx, "gossip"); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("unknown category err = %v", err)
	}
}

func TestReplyToHiddenPost(t *testing.T) {
	forum := newForum(t)
	ctx := context.Background()

	pending, err := forum.CreatePost(ctx, PostInput{AuthorID: studentID, Category: "campus", Title: "Hostel", Body: "The hostel food is pathetic honestly."})
	if err != nil || pending.Post.ModerationStatus != model.ModerationPending {
		t.Fatalf("setup: %+v, %v", pending, err)
	}

	for _, id := range []int64{pending.Post.ID, 12345} {
		if _, err := forum.Reply(ctx, id, PostInput{AuthorID: otherStudentID, Body: "I understand, that sounds hard."}); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("reply to %d err = %v, want ErrNotFound", id, err)
		}
	}
}
