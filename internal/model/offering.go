package model

import (
	"marketplace/pkg/storage"
)

// Customer owns offerings. A blocked customer's offerings take no CREATE or UPDATE orders.
type Customer struct {
	storage.Base
	Name    string `json:"name" gorm:"type:varchar(150);not null"`
	Blocked bool   `json:"blocked" gorm:"not null;default:false"`
}

func (Customer) TableName() string {
	return "marketplace_customer"
}

// Offering is a catalog entry; Type selects the registered processors.
type Offering struct {
	storage.Base
	Name       string        `json:"name" gorm:"type:varchar(150);not null"`
	Type       string        `json:"type" gorm:"type:varchar(100);not null;index"`
	State      OfferingState `json:"state" gorm:"type:varchar(16);not null"`
	CustomerID string        `json:"customer_id" gorm:"type:char(36);not null;index"`
	// SecretCode is the bcrypt hash of the secret authenticating provider callbacks; never serialized.
	SecretCode string `json:"-" gorm:"type:varchar(64)"`
}

func (Offering) TableName() string {
	return "marketplace_offering"
}

type Plan struct {
	storage.Base
	OfferingID string `json:"offering_id" gorm:"type:char(36);not null;index"`
	Name       string `json:"name" gorm:"type:varchar(150);not null"`
	Archived   bool   `json:"archived" gorm:"not null;default:false"`
}

func (Plan) TableName() string {
	return "marketplace_plan"
}
