package application

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
	"github.com/KushalGupta-07/Smart-Admission-System/core/user"
)

const notifyTimeout = 30 * time.Second

// Notifier tells applicants about status changes. It returns the provider message id.
type Notifier interface {
	NotifyStatus(ctx context.Context, notice StatusNotice) (string, error)
}

// NotificationError is a failure of the notification provider.
type NotificationError struct {
	Err error
}

func (e *NotificationError) Error() string {
	return "sending status notification: " + e.Err.Error()
}

// ReviewList is the admin application list with the counts of the whole set.
type ReviewList struct {
	Applications []Detail `json:"applications"`
	Stats        Stats    `json:"stats"`
}

// TransitionResult carries the committed transition and, separately, the outcome
// of the applicant notification.
type TransitionResult struct {
	Application       Application `json:"application"`
	AdmitCard         *AdmitCard  `json:"admit_card"`
	NotificationID    string      `json:"notification_id,omitempty"`
	NotificationError string      `json:"notification_error,omitempty"`
}

// ReviewService serves the admin side of the application lifecycle.
type ReviewService struct {
	repo         Repository
	authz        Authorizer
	notifier     Notifier
	store        core.ObjectStore
	tx           core.Transactor
	validate     *validator.Validate
	logger       core.Logger
	signedURLTTL time.Duration
}

func NewReviewService(
	repo Repository,
	authz Authorizer,
	notifier Notifier,
	store core.ObjectStore,
	tx core.Transactor,
	validate *validator.Validate,
	logger core.Logger,
	conf *core.Config,
) *ReviewService {
	return &ReviewService{
		repo:         repo,
		authz:        authz,
		notifier:     notifier,
		store:        store,
		tx:           tx,
		validate:     validate,
		logger:       logger,
		signedURLTTL: conf.Storage.SignedURLTTL,
	}
}

func (svc *ReviewService) authorize(ctx context.Context, actorID string) error {
	ok, err := svc.authz.HasRole(ctx, actorID, user.RoleAdmin)
	if err != nil {
		return errors.Wrap(err, "checking role")
	}
	if !ok {
		return core.ErrForbidden
	}
	return nil
}

// List returns every application matching qf, with the counts of all applications.
func (svc *ReviewService) List(ctx context.Context, actorID string, qf QueryFilter) (ReviewList, error) {
	if err := svc.authorize(ctx, actorID); err != nil {
		return ReviewList{}, err
	}
	all, err := svc.repo.QueryDetails(ctx, "")
	if err != nil {
		return ReviewList{}, errors.Wrap(err, "querying applications")
	}
	return ReviewList{Applications: Filter(all, qf), Stats: ComputeStats(all)}, nil
}

// Get returns any application with its applicant, documents & admit card.
func (svc *ReviewService) Get(ctx context.Context, actorID, id string) (Detail, error) {
	if err := svc.authorize(ctx, actorID); err != nil {
		return Detail{}, err
	}
	return svc.repo.GetDetail(ctx, id)
}

// Stats counts the applications per status.
func (svc *ReviewService) Stats(ctx context.Context, actorID string) (Stats, error) {
	list, err := svc.List(ctx, actorID, QueryFilter{})
	return list.Stats, err
}

// Transition sets the review status of an application. Concurrent transitions
// are not serialized: the last one wins.
func (svc *ReviewService) Transition(ctx context.Context, actorID, id string, status Status, remarks string) (TransitionResult, error) {
	if err := svc.authorize(ctx, actorID); err != nil {
		return TransitionResult{}, err
	}
	switch status {
	case StatusUnderReview, StatusApproved, StatusRejected:
	default:
		return TransitionResult{}, ErrInvalidTransition
	}

	var res TransitionResult
	err := svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		current, err := svc.repo.GetApplication(ctx, id, exec)
		if err != nil {
			return err
		}
		if current.Status == StatusDraft {
			return ErrInvalidTransition
		}

		app, err := svc.repo.UpdateStatus(ctx, id, status, core.StringPtr(remarks), core.NowFunc().UTC(), exec)
		if err != nil {
			return errors.Wrap(err, "updating status")
		}
		res.Application = app

		if status != StatusApproved {
			return nil
		}
		card, err := svc.repo.GetAdmitCard(ctx, id, exec)
		if errors.Cause(err) == ErrAdmitCardNotFound {
			card, err = svc.repo.CreateAdmitCard(ctx, AdmitCard{
				ApplicationID:   id,
				AdmitCardNumber: NewAdmitCardNumber(),
				GeneratedAt:     core.NowFunc().UTC(),
			}, exec)
		}
		if err != nil {
			return errors.Wrap(err, "generating admit card")
		}
		res.AdmitCard = &card
		return nil
	})
	if err != nil {
		return TransitionResult{}, err
	}

	// the transition is committed: notification failures are only reported
	msgID, err := svc.notifyTransition(ctx, id)
	if err != nil {
		svc.logger.Error("sending status notification", err, res.Application.ApplicationNumber)
		res.NotificationError = errors.Cause(err).Error()
	}
	res.NotificationID = msgID
	return res, nil
}

// notifyTransition emails the applicant about the current status of application id.
func (svc *ReviewService) notifyTransition(ctx context.Context, id string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	d, err := svc.repo.GetDetail(ctx, id)
	if err != nil {
		return "", errors.Wrap(err, "loading application")
	}
	notice := StatusNotice{
		StudentEmail:      d.Applicant.Email,
		StudentName:       d.Applicant.FullName,
		ApplicationNumber: d.ApplicationNumber,
		CourseName:        d.CourseName,
		Status:            d.Status,
		Remarks:           core.StringVal(d.Remarks),
	}
	if d.AdmitCard != nil {
		notice.AdmitCardNumber = d.AdmitCard.AdmitCardNumber
	}
	msgID, err := svc.notifier.NotifyStatus(ctx, notice)
	return msgID, errors.Wrap(err, "notifying applicant")
}

// Notify sends a status notification on behalf of an admin.
func (svc *ReviewService) Notify(ctx context.Context, actorID string, notice StatusNotice) (string, error) {
	if err := svc.authorize(ctx, actorID); err != nil {
		return "", err
	}
	notice.StudentEmail = core.CleanString(notice.StudentEmail, true /* lower */)
	notice.StudentName = core.CleanString(notice.StudentName)
	notice.Remarks = core.CleanString(notice.Remarks)
	if err := svc.validate.Struct(notice); err != nil {
		return "", err
	}
	id, err := svc.notifier.NotifyStatus(ctx, notice)
	if err != nil {
		return "", &NotificationError{Err: err}
	}
	return id, nil
}

// DocumentURL returns a short lived download URL of a document, for admins
// and for the applicant who uploaded it.
func (svc *ReviewService) DocumentURL(ctx context.Context, actorID, docID string) (string, error) {
	doc, err := svc.repo.GetDocument(ctx, docID)
	if err != nil {
		return "", err
	}
	if doc.UserID != actorID {
		if err = svc.authorize(ctx, actorID); err != nil {
			if errors.Cause(err) == core.ErrForbidden {
				return "", ErrDocumentNotFound
			}
			return "", err
		}
	}
	url, err := svc.store.SignedURL(ctx, doc.FilePath, svc.signedURLTTL)
	if err != nil {
		if errors.Cause(err) == core.ErrObjectNotFound {
			return "", ErrDocumentNotFound
		}
		return "", errors.Wrap(err, "signing document url")
	}
	return url, nil
}
