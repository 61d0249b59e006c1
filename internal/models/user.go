package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is the player aggregate. CoinsBalance is mutated only through atomic
// increments at the repository layer, never read-modify-write.
type User struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	ExternalID string `gorm:"type:varchar(100);uniqueIndex;not null"`
	Username   string `gorm:"type:varchar(100)"`
	AvatarURL  string `gorm:"type:varchar(500)"`

	CoinsBalance decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
