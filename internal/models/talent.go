package models

// Talent is a showcased work item. Files are server paths, oldest first.
type Talent struct {
	ID          string   `json:"id"`
	StudentID   string   `json:"studentId"`
	Student     *Student `json:"student,omitempty"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Description string   `json:"description,omitempty"`
	Files       []string `json:"files"`
	CreatedAt   string   `json:"createdAt,omitempty"`
}

// NewestFirstFiles returns the files in display order. The stored order is
// left alone.
func (t Talent) NewestFirstFiles() []string {
	out := make([]string, len(t.Files))
	for i, f := range t.Files {
		out[len(t.Files)-1-i] = f
	}
	return out
}

// TalentInput is the editable part of a Talent plus local files to upload.
type TalentInput struct {
	Title       string
	Category    string
	Description string
	Files       []string // local paths
}

// SocialAction is the body of like/save/collaboration requests.
type SocialAction struct {
	TalentID string `json:"talentId"`
	Message  string `json:"message,omitempty"`
}
