package model

import "time"

// Item is a tracked system build, identified by its SID.
type Item struct {
	ID                  uint       `gorm:"primaryKey"`
	SID                 string     `gorm:"column:sid;uniqueIndex;type:varchar(3);not null;comment:系统标识"`
	RequestedDate       Date       `gorm:"not null"`
	Flavour             Flavour    `gorm:"type:varchar(30);not null"`
	EstimatedClients    int        `gorm:"not null;default:0"`
	DeliveredClients    *int       `gorm:"comment:已交付客户端数"`
	BFS                 BFS        `gorm:"type:varchar(10);not null"`
	TShirtSize          TShirtSize `gorm:"type:varchar(10);not null"`
	SystemType          string     `gorm:"type:varchar(300);not null"`
	Hardware            Hardware   `gorm:"type:varchar(10);not null"`
	Setup               string     `gorm:"type:varchar(100);not null"`
	PLOID               uint       `gorm:"index;not null"`
	PLO                 *PLO       `gorm:"foreignKey:PLOID;constraint:OnDelete:CASCADE"`
	Processor1ID        uint       `gorm:"index;not null"`
	Processor1          *Processor `gorm:"foreignKey:Processor1ID;constraint:OnDelete:CASCADE"`
	Processor2ID        *uint      `gorm:"index"`
	Processor2          *Processor `gorm:"foreignKey:Processor2ID;constraint:OnDelete:CASCADE"`
	Status              ItemStatus `gorm:"type:varchar(50);not null;index"`
	Landscape           string     `gorm:"type:varchar(300);not null"`
	Description         string     `gorm:"type:varchar(500);not null"`
	ExpectedDelivery    *Date
	RevisedDeliveryDate *Date
	DeliveryDate        Date       `gorm:"not null;index:idx_items_delivery_date"`
	DeliveryDelayReason *string    `gorm:"type:varchar(500)"`
	ServiceNow          string     `gorm:"column:servicenow;type:varchar(800)"`
	Comments            *string    `gorm:"type:varchar(400)"`
	Forecasts           []Forecast `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ApplyDefaults fills the declared defaults for fields left unset.
func (i *Item) ApplyDefaults() {
	if i.DeliveryDate.IsZero() {
		i.DeliveryDate = FarFutureDate
	}
}

func (i *Item) PLOName() string {
	if i.PLO == nil {
		return ""
	}
	return i.PLO.Name
}

func (i *Item) Processor1Name() string {
	if i.Processor1 == nil {
		return ""
	}
	return i.Processor1.Name
}

func (i *Item) Processor2Name() string {
	if i.Processor2 == nil {
		return ""
	}
	return i.Processor2.Name
}
