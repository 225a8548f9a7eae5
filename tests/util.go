package testutil

import (
	"context"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
	"github.com/KushalGupta-07/Smart-Admission-System/core/application"
	"github.com/KushalGupta-07/Smart-Admission-System/core/profile"
	"github.com/KushalGupta-07/Smart-Admission-System/core/user"
)

// NewValidator returns a validator with every domain validation registered.
func NewValidator(t *testing.T) (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	profile.InitValidators(validate, translator)
	application.InitValidators(validate, translator)
	if err := user.LoadCommonPasswords(); err != nil {
		t.Fatalf("LoadCommonPasswords() failed: %v", err)
	}
	return validate, translator
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateApplication(
	t *testing.T,
	repo application.Repository,
	userID, course string,
	status application.Status,
	createdAt ...time.Time,
) application.Application {
	ctx := context.Background()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	app, err := repo.CreateApplication(ctx, application.Application{
		ApplicationNumber: application.NewApplicationNumber(),
		UserID:            userID,
		CourseName:        course,
		Status:            application.StatusDraft,
		CreatedAt:         tstamp,
		UpdatedAt:         tstamp,
	})
	if err != nil {
		t.Fatalf("CreateApplication() failed: %v", err)
	}
	if status == application.StatusDraft {
		return app
	}

	app.Status = application.StatusSubmitted
	app.SubmittedAt = &tstamp
	if app, err = repo.UpdateApplication(ctx, app); err != nil {
		t.Fatalf("CreateApplication() failed: %v", err)
	}
	if status != application.StatusSubmitted {
		if app, err = repo.UpdateStatus(ctx, app.ID, status, nil, tstamp); err != nil {
			t.Fatalf("CreateApplication() failed: %v", err)
		}
	}
	return app
}
