package models

// Student extends a User with the academic profile.
type Student struct {
	ID           string        `json:"id"`
	UserID       string        `json:"userId"`
	User         *User         `json:"user,omitempty"`
	Major        string        `json:"major,omitempty"`
	Year         int           `json:"year,omitempty"`
	GPA          float64       `json:"gpa,omitempty"`
	Bio          string        `json:"bio,omitempty"`
	Skills       []string      `json:"skills,omitempty"`
	ResumeURL    string        `json:"resumeUrl,omitempty"`
	Talents      []Talent      `json:"talents,omitempty"`
	Projects     []Project     `json:"projects,omitempty"`
	Achievements []Achievement `json:"achievements,omitempty"`
}

// Business extends a User with the company profile.
type Business struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	User        *User  `json:"user,omitempty"`
	CompanyName string `json:"companyName"`
	Industry    string `json:"industry,omitempty"`
	Description string `json:"description,omitempty"`
	Website     string `json:"website,omitempty"`
	Location    string `json:"location,omitempty"`
}

type Project struct {
	ID          string   `json:"id"`
	StudentID   string   `json:"studentId"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Link        string   `json:"link,omitempty"`
	Files       []string `json:"files,omitempty"`
}

type Achievement struct {
	ID          string   `json:"id"`
	StudentID   string   `json:"studentId"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Date        string   `json:"date,omitempty"`
	Files       []string `json:"files,omitempty"`
}
