package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of founded_date.
const DateLayout = "2006-01-02"

// CompanyProfile is the single company profile owned by a user.
type CompanyProfile struct {
	ID          int64        `json:"id"`
	OwnerID     int64        `json:"owner_id"`
	CompanyName string       `json:"company_name"`
	Address     string       `json:"address"`
	City        string       `json:"city"`
	State       string       `json:"state"`
	Country     string       `json:"country"`
	PostalCode  string       `json:"postal_code"`
	Website     *string      `json:"website"`
	Industry    string       `json:"industry"`
	FoundedDate *Date        `json:"founded_date"`
	Description *string      `json:"description"`
	LogoURL     *string      `json:"logo_url"`
	BannerURL   *string      `json:"banner_url"`
	SocialLinks []SocialLink `json:"social_links"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// SocialLink is one entry of a profile's social_links list.
type SocialLink struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// CompanyInput carries the mutable profile fields of an upsert.
// Nil optional fields are stored as NULL.
type CompanyInput struct {
	CompanyName string
	Address     string
	City        string
	State       string
	Country     string
	PostalCode  string
	Website     *string
	Industry    string
	FoundedDate *Date
	Description *string
	SocialLinks []SocialLink
}

// UpsertResult identifies the written row.
type UpsertResult struct {
	ID      int64
	Created bool
}

// Validate checks that every required field is present and not blank.
func (in CompanyInput) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"company_name", in.CompanyName},
		{"address", in.Address},
		{"city", in.City},
		{"state", in.State},
		{"country", in.Country},
		{"postal_code", in.PostalCode},
		{"industry", in.Industry},
	}

	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing, Message: "All required fields must be provided"}
	}
	return nil
}

// EncodeSocialLinks returns the TEXT column value, nil when no list was given.
func EncodeSocialLinks(links []SocialLink) (*string, error) {
	if links == nil {
		return nil, nil
	}
	b, err := json.Marshal(links)
	if err != nil {
		return nil, fmt.Errorf("encode social links: %w", err)
	}
	s := string(b)
	return &s, nil
}

// DecodeSocialLinks parses the stored column. NULL stays nil; text that
// does not parse as a link list becomes an empty list.
func DecodeSocialLinks(raw *string) []SocialLink {
	if raw == nil {
		return nil
	}
	links := []SocialLink{}
	if err := json.Unmarshal([]byte(*raw), &links); err != nil || links == nil {
		return []SocialLink{}
	}
	return links
}

// ImageKind selects which profile image URL an upload updates.
type ImageKind string

const (
	ImageLogo   ImageKind = "logo"
	ImageBanner ImageKind = "banner"
)

// ParseImageKind accepts "logo" or "banner".
func ParseImageKind(s string) (ImageKind, error) {
	switch ImageKind(s) {
	case ImageLogo, ImageBanner:
		return ImageKind(s), nil
	}
	return "", fmt.Errorf("image kind %q: %w", s, ErrInvalidImageKind)
}

// Date is a calendar day without time of day.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day in UTC.
func NewDate(t time.Time) Date {
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, &ValidationError{Fields: []string{"founded_date"}, Message: "Date must use the YYYY-MM-DD format"}
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
