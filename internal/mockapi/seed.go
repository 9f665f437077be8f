package mockapi

import (
	"fmt"

	"github.com/roktofy/client/internal/model"
)

// Demo accounts created by Seed
const (
	DemoEmail         = "demo@roktofy.com"
	DemoPassword      = "demo1234"
	AdminEmail        = "admin@roktofy.com"
	AdminPassword     = "admin1234"
	RecipientEmail    = "recipient@roktofy.com"
	RecipientPassword = "recipient1234"
)

// Seed fills the store with active demo accounts and a few postings
func (s *Store) Seed() error {
	_, err := s.CreateUser(model.Registration{
		Email: DemoEmail, FirstName: "Demo", LastName: "Donor",
		UserType: model.UserTypeDonor, BloodType: "O+", Address: "Dhaka", Password: DemoPassword,
	}, true, false)
	if err != nil {
		return fmt.Errorf("seed demo donor: %w", err)
	}
	if _, err := s.CreateUser(model.Registration{
		Email: AdminEmail, FirstName: "Site", LastName: "Admin",
		UserType: model.UserTypeBoth, BloodType: "A+", Password: AdminPassword,
	}, true, true); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	recipient, err := s.CreateUser(model.Registration{
		Email: RecipientEmail, FirstName: "Rina", LastName: "Rahman",
		UserType: model.UserTypeRecipient, BloodType: "B-", Address: "Chattogram", Password: RecipientPassword,
	}, true, false)
	if err != nil {
		return fmt.Errorf("seed recipient: %w", err)
	}

	date := s.now().AddDate(0, 0, 14).Format(dateLayout)
	if _, err := s.CreateEvent(recipient.ID, model.NewBloodEvent{
		Title: "Community blood drive", Description: "Walk-ins welcome",
		BloodType: "B-", UnitsNeeded: 3, Location: "Chattogram Medical College", EventDate: date,
	}); err != nil {
		return fmt.Errorf("seed event: %w", err)
	}
	if _, err := s.CreateRequest(recipient.ID, model.NewBloodRequest{
		BloodType: "B-", UnitsNeeded: 1, Hospital: "Chattogram General Hospital", Message: "Needed for a scheduled surgery",
	}); err != nil {
		return fmt.Errorf("seed request: %w", err)
	}
	return nil
}
