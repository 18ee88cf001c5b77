package user

import (
	"errors"
	"strings"
	"time"
)

type Profile struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Country     string    `json:"country,omitempty"`
	Sex         string    `json:"sex,omitempty"`
	Language    string    `json:"language,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PublicProfile is the subset exposed to other users.
type PublicProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Country     string `json:"country,omitempty"`
	Bio         string `json:"bio,omitempty"`
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName"`
	Country     *string `json:"country"`
	Sex         *string `json:"sex"`
	Language    *string `json:"language"`
	Bio         *string `json:"bio"`
}

func (r *UpdateProfileRequest) Validate() error {
	if r.DisplayName != nil {
		dn := strings.TrimSpace(*r.DisplayName)
		if dn == "" || len(dn) > 100 {
			return errors.New("displayName must be between 1 and 100 characters")
		}
	}
	if r.Country != nil && len(strings.TrimSpace(*r.Country)) > 100 {
		return errors.New("country is too long")
	}
	if r.Sex != nil {
		switch strings.ToLower(strings.TrimSpace(*r.Sex)) {
		case "", "male", "female", "other":
		default:
			return errors.New(`sex must be "male", "female" or "other"`)
		}
	}
	if r.Language != nil && len(strings.TrimSpace(*r.Language)) > 32 {
		return errors.New("language is too long")
	}
	if r.Bio != nil && len(strings.TrimSpace(*r.Bio)) > 500 {
		return errors.New("bio is too long")
	}
	return nil
}
