package database

import (
	"time"

	"ticket_engine/constants"
	"ticket_engine/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Fixed ids of the demo catalog so that local tokens and URLs stay stable.
const (
	SeedAdminID      = "00000000-0000-4000-8000-000000000001"
	SeedOwnerID      = "00000000-0000-4000-8000-000000000002"
	SeedBuyerID      = "00000000-0000-4000-8000-000000000003"
	SeedOrgID        = "00000000-0000-4000-8000-000000000010"
	SeedConcertID    = "00000000-0000-4000-8000-000000000020"
	SeedSessionID    = "00000000-0000-4000-8000-000000000030"
	SeedTicketTypeID = "00000000-0000-4000-8000-000000000040"
)

// SeedData creates a demo catalog when it does not exist yet.
func SeedData(db *gorm.DB, log *zap.Logger) {
	now := time.Now()

	users := []model.User{
		{DTO: model.DTO{ID: SeedAdminID}, Name: "Administration", Email: "admin@example.com", Role: constants.ROLE_ADMIN},
		{DTO: model.DTO{ID: SeedOwnerID}, Name: "Organizer", Email: "owner@example.com", Role: constants.ROLE_USER},
		{DTO: model.DTO{ID: SeedBuyerID}, Name: "Buyer", Email: "buyer@example.com", Role: constants.ROLE_USER},
	}
	for _, user := range users {
		if err := db.Where(model.User{DTO: model.DTO{ID: user.ID}}).FirstOrCreate(&user).Error; err != nil {
			log.Warn("failed to seed user", zap.String("email", user.Email), zap.Error(err))
		}
	}

	records := []any{
		&model.Organization{DTO: model.DTO{ID: SeedOrgID}, Name: "Demo Live", OwnerID: SeedOwnerID},
		&model.Concert{DTO: model.DTO{ID: SeedConcertID}, OrganizationID: SeedOrgID, Title: "Demo Concert", Description: "Demo night"},
		&model.Session{DTO: model.DTO{ID: SeedSessionID}, ConcertID: SeedConcertID, Title: "Night 1", StartTime: now.Add(7 * 24 * time.Hour), Venue: "Taipei Arena"},
		&model.TicketType{
			DTO: model.DTO{ID: SeedTicketTypeID}, SessionID: SeedSessionID, Name: "General Admission",
			TotalQuantity: 100, RemainingQuantity: 100, UnitPrice: 1200,
			SaleBegin: now.Add(-time.Hour), SaleEnd: now.Add(6 * 24 * time.Hour),
		},
	}
	for _, record := range records {
		if err := db.FirstOrCreate(record).Error; err != nil {
			log.Warn("failed to seed catalog", zap.Error(err))
		}
	}
}
