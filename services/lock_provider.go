package services

import (
	"fmt"
	"time"

	"github.com/dnovakovic099/secure-stay-server-sub000/models"
)

// ProviderDevice 表示从厂商API拉取的设备，已转换为厂商无关的结构
type ProviderDevice struct {
	ExternalDeviceID string                 `json:"external_device_id"`
	AccountID        string                 `json:"account_id"`
	Name             string                 `json:"name"`
	Model            string                 `json:"model"`
	SerialNumber     string                 `json:"serial_number"`
	IsOnline         bool                   `json:"is_online"`
	BatteryLevel     float64                `json:"battery_level"` // 统一归一化为0~1
	Locked           *bool                  `json:"locked,omitempty"`
	DoorOpen         *bool                  `json:"door_open,omitempty"`
	Properties       map[string]interface{} `json:"properties,omitempty"`
}

// ProviderCodeResult 表示厂商对门禁码操作的确认结果
type ProviderCodeResult struct {
	ExternalCodeID string                 `json:"external_code_id"`
	Status         string                 `json:"status"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// ProviderAccessCode 表示厂商侧已存在的一条门禁码
type ProviderAccessCode struct {
	ExternalCodeID string     `json:"external_code_id"`
	Code           string     `json:"code"`
	Name           string     `json:"name"`
	Status         string     `json:"status"`
	StartsAt       *time.Time `json:"starts_at,omitempty"`
	EndsAt         *time.Time `json:"ends_at,omitempty"`
}

// InterfaceLockProvider 定义锁服务商适配器的统一能力集合，
// 系统其余部分只依赖该接口，不感知具体厂商的协议差异
type InterfaceLockProvider interface {
	Name() models.LockProviderName
	CreateConnectionURL(redirectURL string) (string, error)
	GetConnectionStatus(accountID string) (string, error)
	ListDevices(accountID string) ([]ProviderDevice, error)
	GetDevice(externalID string) (*ProviderDevice, error)
	CreateAccessCode(externalDeviceID, code, name string, startsAt, endsAt *time.Time) (*ProviderCodeResult, error)
	UpdateAccessCode(externalDeviceID, externalCodeID, code, name string, startsAt, endsAt *time.Time) (*ProviderCodeResult, error)
	DeleteAccessCode(externalDeviceID, externalCodeID string) error
	ListAccessCodes(externalDeviceID string) ([]ProviderAccessCode, error)
}

// ProviderRegistry 按厂商名称持有所有适配器实例，
// 在服务容器启动时构造一次并注入，避免模块级可变状态
type ProviderRegistry struct {
	providers map[models.LockProviderName]InterfaceLockProvider
}

// NewProviderRegistry 创建锁服务商注册表
func NewProviderRegistry(providers ...InterfaceLockProvider) *ProviderRegistry {
	m := make(map[models.LockProviderName]InterfaceLockProvider, len(providers))
	for _, p := range providers {
		m[p.Name()] = p
	}
	return &ProviderRegistry{providers: m}
}

// Get 按名称获取适配器
func (r *ProviderRegistry) Get(name models.LockProviderName) (InterfaceLockProvider, error) {
	if p, ok := r.providers[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("不支持的锁服务商: %s", name)
}

// Names 返回所有已注册的厂商名称
func (r *ProviderRegistry) Names() []models.LockProviderName {
	names := make([]models.LockProviderName, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
