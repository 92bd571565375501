package models

// CodeGenerationMode represents how the access code value is derived
type CodeGenerationMode string

const (
	CodeGenerationModePhone   CodeGenerationMode = "phone"   // 使用客人手机号后四位
	CodeGenerationModeRandom  CodeGenerationMode = "random"  // 随机四位数字
	CodeGenerationModeDefault CodeGenerationMode = "default" // 使用房源配置的固定码
)

// LockPolicy 表示房源的门禁码策略，首次访问时按默认值懒创建
type LockPolicy struct {
	BaseModel
	PropertyID         uint               `gorm:"uniqueIndex;not null" json:"property_id"`
	AutoGenerateCodes  bool               `gorm:"default:false" json:"auto_generate_codes"`                  // 是否自动为预订生成门禁码
	CodeGenerationMode CodeGenerationMode `gorm:"type:varchar(20);default:'phone'" json:"code_generation_mode"`
	DefaultAccessCode  *string            `gorm:"type:varchar(20)" json:"default_access_code,omitempty"`     // default模式下使用的固定码
	HoursBeforeCheckin int                `gorm:"default:3" json:"hours_before_checkin"`                     // 入住前提前生效小时数
	HoursAfterCheckout int                `gorm:"default:3" json:"hours_after_checkout"`                     // 退房后延迟失效小时数
}

// NewDefaultLockPolicy 按安全默认值创建策略（phone模式，生效窗口由配置给定）
func NewDefaultLockPolicy(propertyID uint, hoursBeforeCheckin, hoursAfterCheckout int) *LockPolicy {
	return &LockPolicy{
		PropertyID:         propertyID,
		AutoGenerateCodes:  false,
		CodeGenerationMode: CodeGenerationModePhone,
		HoursBeforeCheckin: hoursBeforeCheckin,
		HoursAfterCheckout: hoursAfterCheckout,
	}
}
