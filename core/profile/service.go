package profile

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
)

var ErrNotFound = errors.New("profile not found")

type (
	Repository interface {
		GetProfile(ctx context.Context, userID string, exec ...core.DBExecutor) (Profile, error)
		// UpsertProfile creates the profile on first save, updates it afterwards.
		UpsertProfile(ctx context.Context, p Profile, exec ...core.DBExecutor) (Profile, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

// Get returns the profile of userID, an empty one if it was never saved.
func (svc *Service) Get(ctx context.Context, userID string) (Profile, error) {
	p, err := svc.repo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Profile{UserID: userID}, nil
		}
		return Profile{}, errors.Wrap(err, "getting profile")
	}
	return p, nil
}

// Save validates & stores the Personal step for userID.
func (svc *Service) Save(ctx context.Context, userID string, info PersonalInfo, exec ...core.DBExecutor) (Profile, error) {
	if err := info.Validate(svc.validate); err != nil {
		return Profile{}, err
	}
	return svc.Store(ctx, userID, info, exec...)
}

// Store saves the Personal step without validating it (drafts). Values that
// cannot be stored are blanked or cut to the column width.
func (svc *Service) Store(ctx context.Context, userID string, info PersonalInfo, exec ...core.DBExecutor) (Profile, error) {
	info.Clean()
	if _, err := time.Parse(dateLayout, info.DateOfBirth); err != nil {
		info.DateOfBirth = "" // drafts may hold partial dates
	}
	if !phoneRegex.MatchString(info.Phone) {
		info.Phone = ""
	}
	if !pincodeRegex.MatchString(info.Pincode) {
		info.Pincode = ""
	}
	info.FullName = core.TruncateString(info.FullName, maxNameChars)
	info.Gender = core.TruncateString(info.Gender, maxGenderChars)
	info.Address = core.TruncateString(info.Address, maxAddressChars)
	info.City = core.TruncateString(info.City, maxPlaceChars)
	info.State = core.TruncateString(info.State, maxPlaceChars)
	now := core.NowFunc().UTC()
	p, err := svc.repo.UpsertProfile(ctx, Profile{
		UserID:      userID,
		FullName:    info.FullName,
		Phone:       info.Phone,
		DateOfBirth: info.DateOfBirth,
		Gender:      info.Gender,
		Address:     info.Address,
		City:        info.City,
		State:       info.State,
		Pincode:     info.Pincode,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, exec...)
	return p, errors.Wrap(err, "saving profile")
}
