package models

import "time"

// LockProviderName represents a supported smart lock vendor
type LockProviderName string

const (
	LockProviderSeam   LockProviderName = "seam"
	LockProviderTTLock LockProviderName = "ttlock"
)

// LockDevice represents a vendor-neutral smart lock device.
// 同步厂商设备列表时按(provider, external_device_id)进行upsert。
type LockDevice struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	Provider         LockProviderName `gorm:"type:varchar(20);not null;uniqueIndex:idx_provider_external" json:"provider"`
	ExternalDeviceID string           `gorm:"type:varchar(100);not null;uniqueIndex:idx_provider_external" json:"external_device_id"`
	AccountID        string           `gorm:"type:varchar(100)" json:"account_id"`                  // 厂商侧关联账户/连接标识
	Name             string           `gorm:"type:varchar(100)" json:"name"`
	Model            string           `gorm:"type:varchar(100)" json:"model"`
	SerialNumber     string           `gorm:"type:varchar(100)" json:"serial_number"`
	IsOnline         bool             `gorm:"default:false" json:"is_online"`
	BatteryLevel     float64          `gorm:"type:decimal(4,3);default:0" json:"battery_level"`     // 统一归一化为0~1
	Properties       string           `gorm:"type:text" json:"properties"`                          // 厂商原始能力/元数据(JSON)
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`

	// 关联关系
	DeviceMappings []DeviceMapping `gorm:"foreignKey:DeviceID" json:"device_mappings,omitempty"`
	AccessCodes    []AccessCode    `gorm:"foreignKey:DeviceID" json:"access_codes,omitempty"`
}

// DeviceMapping 表示房源与锁设备的绑定关系
type DeviceMapping struct {
	BaseModel
	PropertyID uint   `gorm:"index;not null" json:"property_id"`
	DeviceID   uint   `gorm:"index;not null" json:"device_id"`
	IsActive   bool   `gorm:"default:true" json:"is_active"`
	Location   string `gorm:"type:varchar(100)" json:"location"` // 安装位置描述，如"前门"

	// 关联关系
	Property *Property   `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	Device   *LockDevice `gorm:"foreignKey:DeviceID" json:"device,omitempty"`
}
