package profile

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
)

const dateLayout = "2006-01-02"

// Column widths of the profile table.
const (
	maxNameChars    = 100
	maxGenderChars  = 20
	maxAddressChars = 500
	maxPlaceChars   = 50
)

type Profile struct {
	UserID      string    `json:"user_id"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	DateOfBirth string    `json:"date_of_birth"` // YYYY-MM-DD
	Gender      string    `json:"gender"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	Pincode     string    `json:"pincode"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PersonalInfo is the Personal step of the application form.
type PersonalInfo struct {
	FullName    string `json:"full_name" validate:"required,maxchars=100"`
	Phone       string `json:"phone" validate:"omitempty,phone10"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,dob"`
	Gender      string `json:"gender" validate:"maxchars=20"`
	Address     string `json:"address" validate:"maxchars=500"`
	City        string `json:"city" validate:"maxchars=50"`
	State       string `json:"state" validate:"maxchars=50"`
	Pincode     string `json:"pincode" validate:"omitempty,pincode6"`
}

func (pi *PersonalInfo) Clean() {
	pi.FullName = core.CleanString(pi.FullName)
	pi.Phone = core.CleanString(pi.Phone)
	pi.DateOfBirth = core.CleanString(pi.DateOfBirth)
	pi.Gender = core.CleanString(pi.Gender)
	pi.Address = core.CleanString(pi.Address)
	pi.City = core.CleanString(pi.City)
	pi.State = core.CleanString(pi.State)
	pi.Pincode = core.CleanString(pi.Pincode)
}

func (pi *PersonalInfo) Validate(validate *validator.Validate) error {
	pi.Clean()
	return validate.Struct(pi)
}

// FromProfile pre-fills the Personal step from a saved Profile.
func FromProfile(p Profile) PersonalInfo {
	return PersonalInfo{
		FullName:    p.FullName,
		Phone:       p.Phone,
		DateOfBirth: p.DateOfBirth,
		Gender:      p.Gender,
		Address:     p.Address,
		City:        p.City,
		State:       p.State,
		Pincode:     p.Pincode,
	}
}
