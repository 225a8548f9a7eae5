package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
	"github.com/KushalGupta-07/Smart-Admission-System/core/profile"
)

const profileColumns = `p.user_id, p.full_name, u.email, p.phone,
	to_char(p.date_of_birth, 'YYYY-MM-DD') AS date_of_birth,
	p.gender, p.address, p.city, p.state, p.pincode, p.created_at, p.updated_at`

type profileRow struct {
	UserID      string      `db:"user_id"`
	FullName    string      `db:"full_name"`
	Email       string      `db:"email"`
	Phone       string      `db:"phone"`
	DateOfBirth null.String `db:"date_of_birth"`
	Gender      string      `db:"gender"`
	Address     string      `db:"address"`
	City        string      `db:"city"`
	State       string      `db:"state"`
	Pincode     string      `db:"pincode"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (r profileRow) profile() profile.Profile {
	return profile.Profile{
		UserID:      r.UserID,
		FullName:    r.FullName,
		Email:       r.Email,
		Phone:       r.Phone,
		DateOfBirth: r.DateOfBirth.String,
		Gender:      r.Gender,
		Address:     r.Address,
		City:        r.City,
		State:       r.State,
		Pincode:     r.Pincode,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type profileRepository struct {
	repository
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db core.DBExecutor) *profileRepository {
	return &profileRepository{repository{db: db}}
}

func (repo profileRepository) GetProfile(ctx context.Context, userID string, exec ...core.DBExecutor) (profile.Profile, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return profile.Profile{}, profile.ErrNotFound
	}
	var r profileRow
	err := repo.getExec(exec).GetContext(ctx, &r,
		`SELECT `+profileColumns+` FROM profile p JOIN "user" u ON u.id = p.user_id WHERE p.user_id = $1`,
		userID,
	)
	if err != nil {
		return profile.Profile{}, trapNoRowsErr(err, profile.ErrNotFound, "finding profile")
	}
	return r.profile(), nil
}

func (repo profileRepository) UpsertProfile(ctx context.Context, p profile.Profile, exec ...core.DBExecutor) (profile.Profile, error) {
	db := repo.getExec(exec)
	_, err := db.ExecContext(ctx,
		`INSERT INTO profile (user_id, full_name, phone, date_of_birth, gender, address, city, state, pincode, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, '')::date, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			phone = EXCLUDED.phone,
			date_of_birth = EXCLUDED.date_of_birth,
			gender = EXCLUDED.gender,
			address = EXCLUDED.address,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			pincode = EXCLUDED.pincode,
			updated_at = EXCLUDED.updated_at`,
		p.UserID, p.FullName, p.Phone, p.DateOfBirth, p.Gender, p.Address, p.City, p.State, p.Pincode,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return profile.Profile{}, trapNoRowsErr(err, profile.ErrNotFound, "upserting profile")
	}
	return repo.GetProfile(ctx, p.UserID, db)
}
