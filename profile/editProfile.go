package profile

import (
	"context"
	"log"
	"strings"
	"time"

	"caintamart/filemgr"
	"caintamart/models"
)

// Submission is the profile form.
type Submission struct {
	FullName string `json:"fullName"`
	Birthday string `json:"birthday"`
	Phone    string `json:"phone"`
	Street   string `json:"street"`
	Barangay string `json:"barangay"`
	City     string `json:"city"`
	Province string `json:"province"`
	IDType   string `json:"idType"`
}

func (sub Submission) trimmed() Submission {
	return Submission{
		FullName: strings.TrimSpace(sub.FullName),
		Birthday: strings.TrimSpace(sub.Birthday),
		Phone:    strings.TrimSpace(sub.Phone),
		Street:   strings.TrimSpace(sub.Street),
		Barangay: strings.TrimSpace(sub.Barangay),
		City:     strings.TrimSpace(sub.City),
		Province: strings.TrimSpace(sub.Province),
		IDType:   strings.TrimSpace(sub.IDType),
	}
}

func (sub Submission) validate(now time.Time) error {
	if sub.FullName == "" {
		return models.Invalid("fullName", "is required")
	}
	birth, err := time.Parse(birthdayLayout, sub.Birthday)
	if err != nil {
		return models.Invalid("birthday", "use YYYY-MM-DD")
	}
	if ageOn(birth, now) < MinAge {
		return models.Invalid("birthday", "you must be at least 18 years old")
	}
	switch {
	case sub.Street == "":
		return models.Invalid("street", "is required")
	case !models.IsServiceableBarangay(sub.Barangay):
		return models.Invalid("barangay", "choose a barangay in "+models.ServiceCity)
	case sub.City == "":
		return models.Invalid("city", "is required")
	case sub.Province == "":
		return models.Invalid("province", "is required")
	case !validIDType(sub.IDType):
		return models.Invalid("idType", "choose one of the accepted IDs")
	}
	return nil
}

// Submit sends uid's profile for review. A new ID upload replaces the one
// on file; without one the previous ID is reused. Submitting clears any
// earlier verification or denial.
func (s *Service) Submit(ctx context.Context, uid string, sub Submission, upload *filemgr.Upload) (models.Profile, error) {
	u, err := s.user(ctx, uid)
	if err != nil {
		return models.Profile{}, err
	}
	now := s.now()
	sub = sub.trimmed()
	if err := sub.validate(now); err != nil {
		return u.Profile, err
	}

	idURL := u.Profile.IDURL
	if upload != nil && upload.URL != "" {
		idURL = upload.URL
	}
	if idURL == "" {
		return u.Profile, models.Invalid("idFile", ErrNoIDDocument.Error())
	}

	p := models.Profile{
		FullName:    sub.FullName,
		Birthday:    sub.Birthday,
		Phone:       sub.Phone,
		Street:      sub.Street,
		Barangay:    sub.Barangay,
		City:        sub.City,
		Province:    sub.Province,
		IDType:      sub.IDType,
		IDURL:       idURL,
		SubmittedAt: &now,
	}
	if err := s.saveProfile(ctx, uid, p); err != nil {
		return u.Profile, err
	}
	log.Printf("[profile] %s submitted %s for verification", uid, sub.IDType)
	return p, nil
}
