// internal/models/application.go
package models

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "PENDING"
	ApplicationAccepted ApplicationStatus = "ACCEPTED"
	ApplicationRejected ApplicationStatus = "REJECTED"
)

// IsDecided reports whether the status is final. Transitions are enforced
// by the server only.
func (s ApplicationStatus) IsDecided() bool {
	return s == ApplicationAccepted || s == ApplicationRejected
}

type Application struct {
	ID          string            `json:"id"`
	JobID       string            `json:"jobId"`
	StudentID   string            `json:"studentId"`
	Status      ApplicationStatus `json:"status"`
	CoverLetter string            `json:"coverLetter,omitempty"`
	ResumeURL   string            `json:"resumeUrl,omitempty"`
	CreatedAt   string            `json:"createdAt,omitempty"`
	UpdatedAt   string            `json:"updatedAt,omitempty"`
	Job         *Job              `json:"job,omitempty"`
	Student     *Student          `json:"student,omitempty"`
}

type Job struct {
	ID           string    `json:"id"`
	BusinessID   string    `json:"businessId"`
	Business     *Business `json:"business,omitempty"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Location     string    `json:"location,omitempty"`
	Type         string    `json:"type,omitempty"`
	Salary       string    `json:"salary,omitempty"`
	Requirements []string  `json:"requirements,omitempty"`
	CreatedAt    string    `json:"createdAt,omitempty"`
}

type JobApplication struct {
	CoverLetter string `json:"coverLetter,omitempty"`
}
