package v1

import (
	"strings"

	"github.com/duynhne/company-service/internal/core/domain"
)

// UpsertCompanyRequest is the JSON body of POST/PUT /api/company/profile.
type UpsertCompanyRequest struct {
	CompanyName string              `json:"company_name"`
	Address     string              `json:"address"`
	City        string              `json:"city"`
	State       string              `json:"state"`
	Country     string              `json:"country"`
	PostalCode  string              `json:"postal_code"`
	Website     *string             `json:"website"`
	Industry    string              `json:"industry"`
	FoundedDate *string             `json:"founded_date"`
	Description *string             `json:"description"`
	SocialLinks []domain.SocialLink `json:"social_links"`
}

// ToInput converts the request into the domain input. An empty founded_date
// counts as absent; any other value must be YYYY-MM-DD.
func (r UpsertCompanyRequest) ToInput() (domain.CompanyInput, error) {
	in := domain.CompanyInput{
		CompanyName: r.CompanyName,
		Address:     r.Address,
		City:        r.City,
		State:       r.State,
		Country:     r.Country,
		PostalCode:  r.PostalCode,
		Website:     r.Website,
		Industry:    r.Industry,
		Description: r.Description,
		SocialLinks: r.SocialLinks,
	}

	if r.FoundedDate != nil && strings.TrimSpace(*r.FoundedDate) != "" {
		d, err := domain.ParseDate(strings.TrimSpace(*r.FoundedDate))
		if err != nil {
			return domain.CompanyInput{}, err
		}
		in.FoundedDate = &d
	}

	return in, nil
}

// sanitizeValidationError returns a user-friendly message for validation/binding errors.
// Never expose raw gin/go validation errors to clients (security + UX).
func sanitizeValidationError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	// Raw decoder errors expose internal structure - return generic message
	if strings.Contains(msg, "validation") ||
		strings.Contains(msg, "cannot unmarshal") ||
		strings.Contains(msg, "invalid character") ||
		strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "Key:") {
		return "Invalid request"
	}
	// Short, safe messages can pass through
	if len(msg) < 100 && !strings.Contains(msg, "Error:") {
		return msg
	}
	return "Invalid request"
}
