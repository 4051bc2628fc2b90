package model

import "time"

// Forecast is a planned future build request tied to an Item.
type Forecast struct {
	ID                 uint       `gorm:"primaryKey"`
	ItemID             uint       `gorm:"index;not null"`
	Item               *Item      `gorm:"foreignKey:ItemID"`
	SID                string     `gorm:"column:sid;type:varchar(3);not null"`
	Clients            *int
	BFS                BFS        `gorm:"type:varchar(10);not null"`
	SystemDescription  string     `gorm:"type:varchar(300);not null"`
	TimeWeeks          *int       `gorm:"comment:预计耗时(周)"`
	Landscape          string     `gorm:"type:varchar(300);not null"`
	Frontend           string     `gorm:"type:varchar(100);not null"`
	RequesterID        *uint      `gorm:"index"`
	Requester          *PLO       `gorm:"foreignKey:RequesterID;constraint:OnDelete:SET NULL"`
	AssignedTo         AssignedTo `gorm:"type:varchar(3);not null;default:TBD"`
	ParallelProcessing bool       `gorm:"not null;default:false"`
	CWRequestPLO       *int       `gorm:"column:cw_request_plo"`
	CWDelivered        *int       `gorm:"column:cw_delivered"`
	Comments           *string    `gorm:"type:varchar(400)"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// DefaultForecastClients is used when a new forecast does not mention clients.
const DefaultForecastClients = 0

func (f *Forecast) ApplyDefaults() {
	if f.AssignedTo == "" {
		f.AssignedTo = AssignedTBD
	}
}
