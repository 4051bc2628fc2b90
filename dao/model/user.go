package model

import "time"

// User is an account of the build tracker.
type User struct {
	ID          uint      `gorm:"primaryKey"`
	Username    string    `gorm:"uniqueIndex;type:varchar(150);not null;comment:用户名"`
	Email       string    `gorm:"type:varchar(254);not null;default:'';comment:邮箱"`
	FirstName   string    `gorm:"type:varchar(150);not null;default:''"`
	LastName    string    `gorm:"type:varchar(150);not null;default:''"`
	Password    *string   `gorm:"type:varchar(128);comment:密码哈希"`
	IsStaff     bool      `gorm:"not null;default:false"`
	IsSuperuser bool      `gorm:"not null;default:false"`
	LastLogin   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BlacklistedToken records a refresh token that may no longer be used.
type BlacklistedToken struct {
	ID        uint      `gorm:"primaryKey"`
	JTI       string    `gorm:"uniqueIndex;type:varchar(64);not null"`
	UserID    uint      `gorm:"index"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}
