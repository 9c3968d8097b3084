package models

import "time"

// Job is a listing as returned by the JSearch API. Only the fields the bot
// renders or filters on are decoded; the JSON names follow the provider so a
// stored bookmark payload keeps the provider shape.
type Job struct {
	ID             string   `json:"job_id,omitempty"`
	Title          string   `json:"job_title"`
	EmployerName   string   `json:"employer_name"`
	EmployerLogo   string   `json:"employer_logo,omitempty"`
	City           string   `json:"job_city,omitempty"`
	State          string   `json:"job_state,omitempty"`
	Country        string   `json:"job_country,omitempty"`
	EmploymentType string   `json:"job_employment_type,omitempty"`
	MinSalary      *float64 `json:"job_min_salary,omitempty"`
	MaxSalary      *float64 `json:"job_max_salary,omitempty"`
	SalaryCurrency string   `json:"job_salary_currency,omitempty"`
	SalaryPeriod   string   `json:"job_salary_period,omitempty"`
	Description    string   `json:"job_description,omitempty"`
	PostedAt       string   `json:"job_posted_at_datetime_utc,omitempty"`
	ApplyLink      string   `json:"job_apply_link,omitempty"`
	IsRemote       bool     `json:"job_is_remote,omitempty"`
}

// Employment types reported by the provider
const (
	EmploymentFullTime   = "FULLTIME"
	EmploymentPartTime   = "PARTTIME"
	EmploymentContractor = "CONTRACTOR"
	EmploymentIntern     = "INTERN"
)

// Bookmark is a job saved by a user. JobData holds the serialized Job.
type Bookmark struct {
	ID           uint      `gorm:"primaryKey" json:"id,omitempty"`
	UserID       string    `gorm:"not null;index:idx_bookmarks_user_id;index:idx_bookmarks_identity,priority:1" json:"user_id"`
	JobTitle     string    `gorm:"not null;index:idx_bookmarks_identity,priority:2" json:"job_title"`
	EmployerName string    `gorm:"not null;index:idx_bookmarks_identity,priority:3" json:"employer_name"`
	JobData      string    `gorm:"type:text;not null" json:"job_data"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Bookmark) TableName() string { return "bookmarks" }

// HistoryEntry is one raw search command issued by a user.
type HistoryEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id,omitempty"`
	UserID    string    `gorm:"not null;index:idx_history_user_id" json:"user_id"`
	Query     string    `gorm:"not null" json:"query"`
	Timestamp time.Time `gorm:"autoCreateTime" json:"timestamp"`
}

func (HistoryEntry) TableName() string { return "search_history" }

var employmentLabels = map[string]string{
	EmploymentFullTime:   "Full-time",
	EmploymentPartTime:   "Part-time",
	EmploymentContractor: "Contractor",
	EmploymentIntern:     "Internship",
}

// EmploymentLabel returns a readable label for a provider employment type.
// Unknown values are returned unchanged.
func EmploymentLabel(t string) string {
	if label, ok := employmentLabels[t]; ok {
		return label
	}
	return t
}

// HasMinSalary reports whether the listing carries a non-zero minimum salary.
func (j Job) HasMinSalary() bool {
	return j.MinSalary != nil && *j.MinSalary != 0
}

// HasMaxSalary reports whether the listing carries a non-zero maximum salary.
func (j Job) HasMaxSalary() bool {
	return j.MaxSalary != nil && *j.MaxSalary != 0
}
