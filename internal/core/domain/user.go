package domain

import (
	"fmt"
	"time"
)

// Gender is stored as a single character: m, f or o.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Code returns the CHAR(1) column value.
func (g Gender) Code() string {
	switch g {
	case GenderMale:
		return "m"
	case GenderFemale:
		return "f"
	default:
		return "o"
	}
}

// ParseGenderCode maps the stored column value back to a Gender.
func ParseGenderCode(code string) (Gender, error) {
	switch code {
	case "m":
		return GenderMale, nil
	case "f":
		return GenderFemale, nil
	case "o":
		return GenderOther, nil
	}
	return "", fmt.Errorf("unknown gender code %q", code)
}

// User is the owner of a company profile. Rows are written by the auth
// service; this service only references them through owner_id.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Gender    Gender    `json:"gender"`
	MobileNo  string    `json:"mobile_no"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
