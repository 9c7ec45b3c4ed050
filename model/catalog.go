package model

import "time"

type Organization struct {
	DTO
	Name    string `gorm:"size:255;not null" json:"name"`
	OwnerID string `gorm:"size:36;not null;index" json:"ownerId"`
}

type Concert struct {
	DTO
	OrganizationID string `gorm:"size:36;not null;index" json:"organizationId"`
	Title          string `gorm:"size:255;not null" json:"title"`
	Description    string `gorm:"type:text" json:"description"`

	Organization Organization `gorm:"foreignKey:OrganizationID" json:"-"`
}

type Session struct {
	DTO
	ConcertID string    `gorm:"size:36;not null;index" json:"concertId"`
	Title     string    `gorm:"size:255" json:"title"`
	StartTime time.Time `gorm:"not null" json:"startTime"`
	Venue     string    `gorm:"size:255" json:"venue"`

	Concert Concert `gorm:"foreignKey:ConcertID" json:"-"`
}

type TicketType struct {
	DTO
	SessionID         string    `gorm:"size:36;not null;index" json:"sessionId"`
	Name              string    `gorm:"size:255;not null" json:"name"`
	TotalQuantity     int       `gorm:"not null" json:"totalQuantity"`
	RemainingQuantity int       `gorm:"not null" json:"remainingQuantity"`
	UnitPrice         int64     `gorm:"not null" json:"unitPrice"`
	SaleBegin         time.Time `gorm:"not null" json:"saleBegin"`
	SaleEnd           time.Time `gorm:"not null" json:"saleEnd"`

	Session Session `gorm:"foreignKey:SessionID" json:"-"`
}

// OnSale reports whether now falls within [SaleBegin, SaleEnd].
func (t *TicketType) OnSale(now time.Time) bool {
	return !now.Before(t.SaleBegin) && !now.After(t.SaleEnd)
}

type User struct {
	DTO
	Name  string `gorm:"size:255" json:"name"`
	Email string `gorm:"size:255;uniqueIndex" json:"email"`
	Role  string `gorm:"size:16;not null;default:user" json:"role"`
}
