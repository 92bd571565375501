package models

import "time"

// ReservationStatus represents the status of a reservation
type ReservationStatus string

const (
	ReservationStatusNew       ReservationStatus = "new"
	ReservationStatusModified  ReservationStatus = "modified"
	ReservationStatusAccepted  ReservationStatus = "accepted"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusDeclined  ReservationStatus = "declined"
	ReservationStatusExpired   ReservationStatus = "expired"
)

// ActiveReservationStatuses 视为有效预订的状态集合（排除已取消/已拒绝等）
var ActiveReservationStatuses = []ReservationStatus{
	ReservationStatusNew,
	ReservationStatusModified,
	ReservationStatusAccepted,
}

// Reservation 表示预订记录（来自预订同步，本服务只读）
type Reservation struct {
	BaseModel
	PropertyID    uint              `gorm:"index;not null" json:"property_id"`
	GuestName     string            `gorm:"type:varchar(100)" json:"guest_name"`
	Phone         string            `gorm:"type:varchar(30)" json:"phone"`
	ArrivalDate   time.Time         `gorm:"index;not null" json:"arrival_date"`
	DepartureDate *time.Time        `json:"departure_date,omitempty"`
	Status        ReservationStatus `gorm:"type:varchar(20);index;default:'new'" json:"status"`

	// 关联关系
	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
}
