package storage

import (
	"time"

	uuid "github.com/satori/go.uuid"
	"gorm.io/gorm"

	"marketplace/pkg/idx"
)

// UUID is the primary key of externally addressable records.
type UUID struct {
	ID string `json:"id" gorm:"primaryKey;type:char(36)"`
}

func (b *UUID) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = NewUUID()
	}
	return nil
}

func NewUUID() string {
	return uuid.NewV4().String()
}

// SnowID is the primary key of internal, append-mostly records.
type SnowID struct {
	ID uint64 `json:"id,string" gorm:"primaryKey;autoIncrement:false"`
}

func (b *SnowID) BeforeCreate(*gorm.DB) error {
	if b.ID == 0 {
		id, err := idx.NextID()
		if err != nil {
			return err
		}
		b.ID = id
	}
	return nil
}

type Time struct {
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;not null;index"`
}

type Base struct {
	UUID
	Time
}
