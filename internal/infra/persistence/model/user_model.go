// Package model holds the GORM persistence models.
package model

import (
	"time"
)

// UserModel mirrors the 'users' table. PostgreSQL assigns the numeric id from a sequence.
// It is an exported type so it can be used by the GORM Gen tool from other packages.
type UserModel struct {
	ID             int64     `gorm:"primaryKey;autoIncrement"`
	Email          string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	FirstName      string    `gorm:"type:varchar(100);not null;default:''"`
	LastName       string    `gorm:"type:varchar(100);not null;default:''"`
	HashedPassword *string   `gorm:"type:varchar(255)"`
	IsOAuth        bool      `gorm:"column:is_oauth;not null;default:false"`
	IsActive       bool      `gorm:"not null"`
	PictureURL     string    `gorm:"type:varchar(1024);not null;default:''"`
	Bio            *string   `gorm:"type:text"`
	JoinedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time

	RefreshTokens []RefreshTokenModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}

// RefreshTokenModel mirrors the 'refresh_tokens' table.
// The partial unique index allows at most one non-revoked token per user.
type RefreshTokenModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Token     string    `gorm:"type:text;uniqueIndex;not null"`
	UserID    int64     `gorm:"not null;index;uniqueIndex:idx_refresh_tokens_active_user,where:is_revoked = false"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time
	IsRevoked bool `gorm:"not null;default:false"`
}

// TableName explicitly sets the table name for GORM.
func (RefreshTokenModel) TableName() string {
	return "refresh_tokens"
}

// All returns every model managed by the service, in dependency order.
func All() []any {
	return []any{&UserModel{}, &RefreshTokenModel{}}
}
