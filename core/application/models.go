package application

import (
	"strings"
	"time"
)

type Status string

const (
	StatusDraft       Status = "draft"
	StatusSubmitted   Status = "submitted"
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
)

var AllStatuses = []Status{StatusDraft, StatusSubmitted, StatusUnderReview, StatusApproved, StatusRejected}

func (s Status) IsValid() bool {
	for _, st := range AllStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// Label is the human form of s, e.g. "under review".
func (s Status) Label() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// IsDecided reports whether s is a final review decision.
func (s Status) IsDecided() bool {
	return s == StatusApproved || s == StatusRejected
}

type DocumentType string

const (
	DocPhoto         DocumentType = "photo"
	DocIDProof       DocumentType = "id_proof"
	DocMarksheet10th DocumentType = "marksheet_10th"
	DocMarksheet12th DocumentType = "marksheet_12th"
	DocOther         DocumentType = "other"
)

var AllDocumentTypes = []DocumentType{DocPhoto, DocIDProof, DocMarksheet10th, DocMarksheet12th, DocOther}

func (dt DocumentType) IsValid() bool {
	for _, t := range AllDocumentTypes {
		if dt == t {
			return true
		}
	}
	return false
}

type Application struct {
	ID                string     `json:"id"`
	ApplicationNumber string     `json:"application_number"`
	UserID            string     `json:"user_id"`
	CourseName        string     `json:"course_name"`
	PreferredCollege  *string    `json:"preferred_college"`
	Stream            *string    `json:"stream"`
	Board10th         *string    `json:"board_10th"`
	Percentage10th    *float64   `json:"percentage_10th"`
	Year10th          *int       `json:"year_10th"`
	Board12th         *string    `json:"board_12th"`
	Percentage12th    *float64   `json:"percentage_12th"`
	Year12th          *int       `json:"year_12th"`
	Status            Status     `json:"status"`
	Remarks           *string    `json:"remarks"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	SubmittedAt       *time.Time `json:"submitted_at"`
	ReviewedAt        *time.Time `json:"reviewed_at"`
}

// IsEditable reports whether the applicant may still change the application.
func (app Application) IsEditable() bool {
	return app.Status == StatusDraft
}

type Document struct {
	ID            string       `json:"id"`
	ApplicationID string       `json:"application_id"`
	UserID        string       `json:"user_id"`
	DocumentType  DocumentType `json:"document_type"`
	FileName      string       `json:"file_name"`
	FilePath      string       `json:"file_path"`
	ContentType   string       `json:"content_type"`
	Size          int64        `json:"size"`
	CreatedAt     time.Time    `json:"created_at"`
}

type AdmitCard struct {
	ID              string    `json:"id"`
	ApplicationID   string    `json:"application_id"`
	AdmitCardNumber string    `json:"admit_card_number"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// Applicant is the profile data joined to an application for review.
type Applicant struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Detail is an Application joined with its applicant, documents & admit card.
type Detail struct {
	Application
	Applicant Applicant  `json:"applicant"`
	Documents []Document `json:"documents"`
	AdmitCard *AdmitCard `json:"admit_card"`
}

// QueryFilter is the admin list filter. Search does a case-insensitive match on
// the application number, applicant name, applicant email or course name; Status is
// an exact match ("" or "all" match every status).
type QueryFilter struct {
	Search string `query:"search"`
	Status string `query:"status"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = strings.ToLower(strings.TrimSpace(qf.Search))
	qf.Status = strings.ToLower(strings.TrimSpace(qf.Status))
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && (qf.Status == "" || qf.Status == "all")
}

func (qf *QueryFilter) Match(d Detail) bool {
	if qf.Status != "" && qf.Status != "all" && string(d.Status) != qf.Status {
		return false
	}
	if qf.Search == "" {
		return true
	}
	for _, s := range []string{d.ApplicationNumber, d.Applicant.FullName, d.Applicant.Email, d.CourseName} {
		if strings.Contains(strings.ToLower(s), qf.Search) {
			return true
		}
	}
	return false
}

// Filter returns the details matching qf, keeping their order.
func Filter(details []Detail, qf QueryFilter) []Detail {
	qf.Clean()
	if qf.IsEmpty() {
		return details
	}
	out := make([]Detail, 0, len(details))
	for _, d := range details {
		if qf.Match(d) {
			out = append(out, d)
		}
	}
	return out
}

// Stats are the counts shown alongside the admin list.
type Stats struct {
	Total       int `json:"total"`
	Submitted   int `json:"submitted"`
	UnderReview int `json:"under_review"`
	Approved    int `json:"approved"`
	Rejected    int `json:"rejected"`
}

// ComputeStats scans apps once.
func ComputeStats(apps []Detail) Stats {
	st := Stats{Total: len(apps)}
	for _, app := range apps {
		switch app.Status {
		case StatusSubmitted:
			st.Submitted++
		case StatusUnderReview:
			st.UnderReview++
		case StatusApproved:
			st.Approved++
		case StatusRejected:
			st.Rejected++
		}
	}
	return st
}

// StatusNotice is what the applicant is told after a status change.
type StatusNotice struct {
	StudentEmail      string `json:"studentEmail" validate:"required,email"`
	StudentName       string `json:"studentName"`
	ApplicationNumber string `json:"applicationNumber" validate:"required"`
	CourseName        string `json:"courseName" validate:"required"`
	Status            Status `json:"status" validate:"required,appstatus"`
	AdmitCardNumber   string `json:"admitCardNumber,omitempty"`
	Remarks           string `json:"remarks,omitempty"`
}
