package generator

import "time"

// Answers is one filled-in career survey.
type Answers struct {
	Experience string   `json:"experience"`
	Interests  []string `json:"interests"`
	Skills     string   `json:"skills,omitempty"`
	Goal       string   `json:"goal"`
	Timeline   string   `json:"timeline,omitempty"`
	Budget     string   `json:"budget,omitempty"`
	Language   string   `json:"language,omitempty"`
}

// Plan is the model's career plan, in the plan Markdown dialect.
type Plan struct {
	Title    string `json:"title"`
	Digest   string `json:"digest"`
	Markdown string `json:"markdown"`
}

// Turn records one generation or revision of a plan.
type Turn struct {
	Comment   string    `json:"comment"`
	Plan      Plan      `json:"plan"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"createdAt"`
}
