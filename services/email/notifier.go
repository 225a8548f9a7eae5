package emailsvc

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
	"github.com/KushalGupta-07/Smart-Admission-System/core/application"
)

const dateTimeLayout = "Monday, 2 January 2006 at 3:04 pm"

type statusDetails struct {
	Subject string
	Title   string
	Message string
	Color   string
}

var (
	defaultStatusDetails = statusDetails{
		Subject: "Application Status Update",
		Title:   "Application Status Update",
		Message: "Your application status has been updated.",
		Color:   "#6b7280",
	}

	statusDetailsMap = map[application.Status]statusDetails{
		application.StatusSubmitted: {
			Subject: "Application Submitted Successfully",
			Title:   "Your Application Has Been Submitted",
			Message: "Thank you for submitting your application. Our team will review it shortly.",
			Color:   "#3b82f6",
		},
		application.StatusUnderReview: {
			Subject: "Application Under Review",
			Title:   "Your Application is Under Review",
			Message: "Your application is currently being reviewed by our admissions team. We will notify you once a decision has been made.",
			Color:   "#f59e0b",
		},
		application.StatusApproved: {
			Subject: "Congratulations! Application Approved",
			Title:   "Your Application Has Been Approved!",
			Message: "We are pleased to inform you that your application has been approved. Your admit card has been generated and is available for download in your dashboard.",
			Color:   "#10b981",
		},
		application.StatusRejected: {
			Subject: "Application Status Update",
			Title:   "Application Decision",
			Message: "After careful review, we regret to inform you that your application has not been approved at this time.",
			Color:   "#ef4444",
		},
	}
)

func detailsOf(s application.Status) statusDetails {
	if d, ok := statusDetailsMap[s]; ok {
		return d
	}
	return defaultStatusDetails
}

// StatusEmailData feeds the status_update templates.
type StatusEmailData struct {
	statusDetails
	StudentName       string
	ApplicationNumber string
	CourseName        string
	StatusLabel       string
	DateTime          string
	AdmitCardNumber   string
	Remarks           string
	Approved          bool
}

// StatusNotifier emails applicants about their application status.
type StatusNotifier struct {
	mailSvc core.EmailService
	loc     *time.Location
}

var _ application.Notifier = (*StatusNotifier)(nil)

// NewStatusNotifier formats dates in Asia/Kolkata unless loc is given.
func NewStatusNotifier(mailSvc core.EmailService, loc *time.Location) *StatusNotifier {
	if loc == nil {
		loc = IndiaLocation()
	}
	return &StatusNotifier{mailSvc: mailSvc, loc: loc}
}

// IndiaLocation returns Asia/Kolkata, or a fixed +05:30 zone without tzdata.
func IndiaLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", 5*60*60+30*60)
	}
	return loc
}

// StatusMessage builds the email of notice.
func (n *StatusNotifier) StatusMessage(notice application.StatusNotice) *core.EmailMessage {
	details := detailsOf(notice.Status)
	name := notice.StudentName
	if name == "" {
		name = "Student"
	}
	return &core.EmailMessage{
		To:           []mail.Address{{Name: notice.StudentName, Address: notice.StudentEmail}},
		Subject:      details.Subject,
		TemplateName: "status_update",
		TemplateData: StatusEmailData{
			statusDetails:     details,
			StudentName:       name,
			ApplicationNumber: notice.ApplicationNumber,
			CourseName:        notice.CourseName,
			StatusLabel:       notice.Status.Label(),
			DateTime:          core.NowFunc().In(n.loc).Format(dateTimeLayout),
			AdmitCardNumber:   notice.AdmitCardNumber,
			Remarks:           notice.Remarks,
			Approved:          notice.Status == application.StatusApproved,
		},
	}
}

func (n *StatusNotifier) NotifyStatus(ctx context.Context, notice application.StatusNotice) (string, error) {
	id, err := n.mailSvc.Send(ctx, n.StatusMessage(notice))
	return id, errors.Wrap(err, "sending status email")
}
