package model

import "time"

// PLO is the business owner requesting builds.
type PLO struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(30);not null;comment:负责人名称" json:"name"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (PLO) TableName() string { return "plos" }

// Processor is the team member doing the provisioning work.
type Processor struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(30);not null;comment:处理人名称" json:"name"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

const MaxLookupNameLength = 30
