package models

// Property 表示短租房源（来自房源同步，本服务只读）
type Property struct {
	BaseModel
	Name            string  `gorm:"type:varchar(100);not null" json:"name"`
	Address         string  `gorm:"type:varchar(200)" json:"address"`
	TimeZoneName    *string `gorm:"type:varchar(64)" json:"time_zone_name,omitempty"`     // IANA时区名称，如"America/New_York"
	CheckInTimeStart *int   `gorm:"type:int" json:"check_in_time_start,omitempty"`        // 入住开始时间(当地小时0-23)，未设置时默认0点
	CheckOutTime    *int    `gorm:"type:int" json:"check_out_time,omitempty"`             // 退房时间(当地小时0-23)，未设置时默认23点
	Status          string  `gorm:"type:varchar(20);default:'active'" json:"status"`      // 状态：active, inactive

	// 关联关系
	DeviceMappings []DeviceMapping `gorm:"foreignKey:PropertyID" json:"device_mappings,omitempty"` // 房源绑定的锁设备（一对多）
	Reservations   []Reservation   `gorm:"foreignKey:PropertyID" json:"reservations,omitempty"`    // 房源的预订记录（一对多）
	LockPolicy     *LockPolicy     `gorm:"foreignKey:PropertyID" json:"lock_policy,omitempty"`     // 房源的门禁码策略（一对一）
}
