package moderation

import (
	"strings"
	"testing"
)

func TestModerate(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantApproved bool
		wantCrisis   bool
		wantAction   Action
		wantFlags    []string
	}{
		{
			name:       "crisis language escalates",
			text:       "Some days I feel like I want to die, honestly",
			wantCrisis: true,
			wantAction: ActionEscalate,
			wantFlags:  []string{FlagCrisis},
		},
		{
			name:       "crisis wins over supportive words",
			text:       "I need help, I keep thinking about suicide",
			wantCrisis: true,
			wantAction: ActionEscalate,
			wantFlags:  []string{FlagCrisis},
		},
		{
			name:       "harmful words need review",
			text:       "Everyone in my class is so stupid about exams",
			wantAction: ActionReview,
			wantFlags:  []string{FlagHarmful},
		},
		{
			name:       "short text needs review",
			text:       "ok fine",
			wantAction: ActionReview,
			wantFlags:  []string{FlagTooShort},
		},
		{
			name:       "shouting needs review",
			text:       "WHY IS EVERYTHING SO HARD",
			wantAction: ActionReview,
			wantFlags:  []string{FlagAggressive},
		},
		{
			name:         "ordinary post approved",
			text:         "Exams are next week and I am trying to plan my study time.",
			wantApproved: true,
			wantAction:   ActionApprove,
			wantFlags:    []string{},
		},
		{
			name:         "supportive post approved",
			text:         "Talking to a counselor really made things better for me.",
			wantApproved: true,
			wantAction:   ActionApprove,
			wantFlags:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Moderate(tt.text)
			if got.Approved != tt.wantApproved {
				t.Errorf("Approved = %v, want %v", got.Approved, tt.wantApproved)
			}
			if got.CrisisDetected != tt.wantCrisis {
				t.Errorf("CrisisDetected = %v, want %v", got.CrisisDetected, tt.wantCrisis)
			}
			if got.SuggestedAction != tt.wantAction {
				t.Errorf("SuggestedAction = %q, want %q", got.SuggestedAction, tt.wantAction)
			}
			if strings.Join(got.Flags, ",") != strings.Join(tt.wantFlags, ",") {
				t.Errorf("Flags = %v, want %v", got.Flags, tt.wantFlags)
			}
		})
	}
}

func TestModerateTooLong(t *testing.T) {
	got := Moderate(strings.Repeat("calm words ", 300))
	if got.Approved || !got.NeedsReview {
		t.Fatalf("expected long text to need review, got %+v", got)
	}
}

func TestModerateConfidence(t *testing.T) {
	if c := Moderate("I am going to end it all").Confidence; c != crisisConfidence {
		t.Errorf("crisis confidence = %v, want %v", c, crisisConfidence)
	}
	if c := Moderate("My therapy sessions are going well lately.").Confidence; c != upliftConfidence {
		t.Errorf("supportive confidence = %v, want %v", c, upliftConfidence)
	}
}

func TestNewCrisisResponse(t *testing.T) {
	resp := NewCrisisResponse("Asha")
	if !strings.Contains(resp.Message, "Hi Asha") {
		t.Errorf("message does not greet user: %q", resp.Message)
	}
	if resp.Resources.Helpline.Number != HelplineNumber {
		t.Errorf("helpline = %q, want %q", resp.Resources.Helpline.Number, HelplineNumber)
	}
	if len(resp.Actions) != 4 {
		t.Errorf("len(Actions) = %d, want 4", len(resp.Actions))
	}
}
