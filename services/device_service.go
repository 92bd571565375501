package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/dnovakovic099/secure-stay-server-sub000/config"
	"github.com/dnovakovic099/secure-stay-server-sub000/models"
	"github.com/dnovakovic099/secure-stay-server-sub000/utils"

	"gorm.io/gorm"
)

// deviceTelemetryCacheTTL 设备遥测缓存时长
const deviceTelemetryCacheTTL = 10 * time.Minute

// InterfaceDeviceService defines the lock device service interface
type InterfaceDeviceService interface {
	SyncDevices(provider models.LockProviderName, accountID string) (int, error)
	GetAllDevices() ([]models.LockDevice, error)
	GetDeviceByID(id uint) (*models.LockDevice, error)
	GetDeviceByExternalID(provider models.LockProviderName, externalID string) (*models.LockDevice, error)
	GetActiveMappingsByProperty(propertyID uint) ([]models.DeviceMapping, error)
	GetMappedPropertyIDs() ([]uint, error)
	CreateDeviceMapping(mapping *models.DeviceMapping) error
	CreateConnectionURL(provider models.LockProviderName, redirectURL string) (string, error)
	GetConnectionStatus(provider models.LockProviderName, accountID string) (string, error)
}

// DeviceService 提供锁设备相关的服务
type DeviceService struct {
	DB        *gorm.DB
	Config    *config.Config
	Providers *ProviderRegistry
	Redis     InterfaceRedisService // 可为nil，缓存仅为加速
}

// NewDeviceService 创建一个新的设备服务
func NewDeviceService(db *gorm.DB, cfg *config.Config, providers *ProviderRegistry, redisService InterfaceRedisService) InterfaceDeviceService {
	return &DeviceService{
		DB:        db,
		Config:    cfg,
		Providers: providers,
		Redis:     redisService,
	}
}

// 1 SyncDevices 从厂商拉取设备列表并upsert到本地，按(provider, external_device_id)去重
func (s *DeviceService) SyncDevices(provider models.LockProviderName, accountID string) (int, error) {
	adapter, err := s.Providers.Get(provider)
	if err != nil {
		return 0, err
	}

	providerDevices, err := adapter.ListDevices(accountID)
	if err != nil {
		return 0, fmt.Errorf("拉取%s设备列表失败: %w", provider, err)
	}

	synced := 0
	for _, pd := range providerDevices {
		var device models.LockDevice
		err := s.DB.Where("provider = ? AND external_device_id = ?", provider, pd.ExternalDeviceID).
			First(&device).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return synced, err
		}

		propsJSON := utils.ToJSONString(pd.Properties)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			device = models.LockDevice{
				Provider:         provider,
				ExternalDeviceID: pd.ExternalDeviceID,
				AccountID:        pd.AccountID,
				Name:             pd.Name,
				Model:            pd.Model,
				SerialNumber:     pd.SerialNumber,
				IsOnline:         pd.IsOnline,
				BatteryLevel:     pd.BatteryLevel,
				Properties:       propsJSON,
			}
			if err := s.DB.Create(&device).Error; err != nil {
				return synced, err
			}
		} else {
			updates := map[string]interface{}{
				"account_id":    pd.AccountID,
				"name":          pd.Name,
				"model":         pd.Model,
				"serial_number": pd.SerialNumber,
				"is_online":     pd.IsOnline,
				"battery_level": pd.BatteryLevel,
				"properties":    propsJSON,
			}
			if err := s.DB.Model(&device).Updates(updates).Error; err != nil {
				return synced, err
			}
		}

		// 缓存遥测数据供前端快速展示，缓存失败不影响同步
		if s.Redis != nil {
			cacheKey := fmt.Sprintf("device_telemetry:%s:%s", provider, pd.ExternalDeviceID)
			if err := s.Redis.Set(cacheKey, pd, deviceTelemetryCacheTTL); err != nil {
				config.Warning("缓存设备遥测失败: %v", err)
			}
		}
		synced++
	}

	return synced, nil
}

// 2 GetAllDevices 获取所有设备列表
func (s *DeviceService) GetAllDevices() ([]models.LockDevice, error) {
	var devices []models.LockDevice
	if err := s.DB.Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

// 3 GetDeviceByID 根据ID获取设备
func (s *DeviceService) GetDeviceByID(id uint) (*models.LockDevice, error) {
	var device models.LockDevice
	if err := s.DB.First(&device, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("设备不存在")
		}
		return nil, err
	}
	return &device, nil
}

// 4 GetDeviceByExternalID 根据厂商与外部ID获取设备
func (s *DeviceService) GetDeviceByExternalID(provider models.LockProviderName, externalID string) (*models.LockDevice, error) {
	var device models.LockDevice
	err := s.DB.Where("provider = ? AND external_device_id = ?", provider, externalID).
		First(&device).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("设备不存在")
		}
		return nil, err
	}
	return &device, nil
}

// 5 GetActiveMappingsByProperty 获取房源所有启用中的设备绑定
func (s *DeviceService) GetActiveMappingsByProperty(propertyID uint) ([]models.DeviceMapping, error) {
	var mappings []models.DeviceMapping
	err := s.DB.Where("property_id = ? AND is_active = ?", propertyID, true).
		Preload("Device").
		Find(&mappings).Error
	if err != nil {
		return nil, err
	}
	return mappings, nil
}

// 6 GetMappedPropertyIDs 获取所有至少绑定了一台启用设备的房源ID
func (s *DeviceService) GetMappedPropertyIDs() ([]uint, error) {
	var propertyIDs []uint
	err := s.DB.Model(&models.DeviceMapping{}).
		Where("is_active = ?", true).
		Distinct("property_id").
		Pluck("property_id", &propertyIDs).Error
	if err != nil {
		return nil, err
	}
	return propertyIDs, nil
}

// 7 CreateDeviceMapping 绑定设备到房源
func (s *DeviceService) CreateDeviceMapping(mapping *models.DeviceMapping) error {
	// 校验设备存在
	if _, err := s.GetDeviceByID(mapping.DeviceID); err != nil {
		return err
	}
	return s.DB.Create(mapping).Error
}

// 8 CreateConnectionURL 创建厂商账户授权链接
func (s *DeviceService) CreateConnectionURL(provider models.LockProviderName, redirectURL string) (string, error) {
	adapter, err := s.Providers.Get(provider)
	if err != nil {
		return "", err
	}
	return adapter.CreateConnectionURL(redirectURL)
}

// 9 GetConnectionStatus 查询厂商账户连接状态
func (s *DeviceService) GetConnectionStatus(provider models.LockProviderName, accountID string) (string, error) {
	adapter, err := s.Providers.Get(provider)
	if err != nil {
		return "", err
	}
	return adapter.GetConnectionStatus(accountID)
}
