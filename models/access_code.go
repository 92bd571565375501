package models

import "time"

// AccessCodeStatus represents the lifecycle status of an access code
type AccessCodeStatus string

const (
	AccessCodeStatusScheduled AccessCodeStatus = "scheduled" // 自动流程创建，等待激活任务下发
	AccessCodeStatusPending   AccessCodeStatus = "pending"   // 手动流程创建，等待立即下发
	AccessCodeStatusSet       AccessCodeStatus = "set"       // 厂商已确认下发成功
	AccessCodeStatusFailed    AccessCodeStatus = "failed"    // 厂商下发失败，可在后续任务中重试
)

// AccessCodeSource represents how the access code was created
type AccessCodeSource string

const (
	AccessCodeSourceAutomatic AccessCodeSource = "automatic"
	AccessCodeSourceManual    AccessCodeSource = "manual"
)

// AccessCode 表示下发到智能锁的临时门禁码
// (device_id, reservation_id)组合唯一，编排逻辑先查后建，数据库唯一索引兜底并发
type AccessCode struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	Provider         LockProviderName `gorm:"type:varchar(20);not null" json:"provider"`
	DeviceID         uint             `gorm:"not null;uniqueIndex:idx_device_reservation" json:"device_id"`
	PropertyID       uint             `gorm:"index;not null" json:"property_id"`
	ReservationID    *uint            `gorm:"uniqueIndex:idx_device_reservation" json:"reservation_id,omitempty"`
	GuestName        string           `gorm:"type:varchar(100)" json:"guest_name"`
	GuestPhone       string           `gorm:"type:varchar(30)" json:"guest_phone"`
	Code             string           `gorm:"type:varchar(20);not null" json:"code"`
	CodeName         string           `gorm:"type:varchar(100)" json:"code_name"`
	Status           AccessCodeStatus `gorm:"type:varchar(20);index;default:'scheduled'" json:"status"`
	ScheduledAt      *time.Time       `json:"scheduled_at,omitempty"` // 有效期开始（入住时间提前若干小时）
	SetAt            *time.Time       `json:"set_at,omitempty"`       // 厂商确认下发成功的时间
	ExpiresAt        *time.Time       `json:"expires_at,omitempty"`   // 有效期结束，退房时间未知时为空（永久码）
	CheckInDate      *time.Time       `json:"check_in_date,omitempty"`
	CheckOutDate     *time.Time       `json:"check_out_date,omitempty"`
	Source           AccessCodeSource `gorm:"type:varchar(20);default:'automatic'" json:"source"`
	ExternalCodeID   string           `gorm:"type:varchar(100)" json:"external_code_id"` // 厂商分配的门禁码ID，下发确认后才有值
	ProviderStatus   string           `gorm:"type:varchar(50)" json:"provider_status"`
	ErrorMessage     string           `gorm:"type:text" json:"error_message"`
	ProviderMetadata string           `gorm:"type:text" json:"provider_metadata"` // 厂商原始响应(JSON)
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`

	// 关联关系
	Device      *LockDevice  `gorm:"foreignKey:DeviceID" json:"device,omitempty"`
	Property    *Property    `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	Reservation *Reservation `gorm:"foreignKey:ReservationID" json:"reservation,omitempty"`
}
