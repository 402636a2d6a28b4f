package moderation

import "fmt"

type Contact struct {
	Name      string `json:"name"`
	Number    string `json:"number,omitempty"`
	Available string `json:"available,omitempty"`
	Action    string `json:"action,omitempty"`
}

type Resources struct {
	Helpline  Contact `json:"helpline"`
	Emergency Contact `json:"emergency"`
	Campus    Contact `json:"campus"`
}

type CrisisResponse struct {
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Resources Resources `json:"resources"`
	Actions   []string  `json:"actions"`
}

const HelplineNumber = "1800-599-0019"

// CrisisResources lists who a student in distress can reach right now.
func CrisisResources() Resources {
	return Resources{
		Helpline:  Contact{Name: "KIRAN Mental Health Helpline", Number: HelplineNumber, Available: "24/7"},
		Emergency: Contact{Name: "Emergency Services", Number: "108", Available: "24/7"},
		Campus:    Contact{Name: "Campus Counseling Center", Action: "Book immediate appointment"},
	}
}

func NewCrisisResponse(name string) CrisisResponse {
	if name == "" {
		name = "there"
	}
	return CrisisResponse{
		Title: "We Care About You",
		Message: fmt.Sprintf("Hi %s, we noticed you might be going through a difficult time. "+
			"You're not alone, and there are people who want to help.", name),
		Resources: CrisisResources(),
		Actions: []string{
			"Call KIRAN Helpline: " + HelplineNumber,
			"Contact campus counseling center",
			"Reach out to a trusted friend or family member",
			"Visit the nearest emergency room if in immediate danger",
		},
	}
}
