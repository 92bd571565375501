package services

import (
	"errors"

	"github.com/dnovakovic099/secure-stay-server-sub000/config"
	"github.com/dnovakovic099/secure-stay-server-sub000/models"

	"gorm.io/gorm"
)

// InterfaceLockPolicyService defines the lock policy service interface
type InterfaceLockPolicyService interface {
	GetOrCreatePolicy(propertyID uint) (*models.LockPolicy, error)
	GetPoliciesByProperties(propertyIDs []uint) ([]models.LockPolicy, error)
	UpdatePolicy(propertyID uint, updates map[string]interface{}) (*models.LockPolicy, error)
}

// LockPolicyService 提供房源门禁码策略相关的服务
type LockPolicyService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewLockPolicyService 创建一个新的策略服务
func NewLockPolicyService(db *gorm.DB, cfg *config.Config) InterfaceLockPolicyService {
	return &LockPolicyService{
		DB:     db,
		Config: cfg,
	}
}

// 1 GetOrCreatePolicy 获取房源的门禁码策略，不存在时按安全默认值懒创建
func (s *LockPolicyService) GetOrCreatePolicy(propertyID uint) (*models.LockPolicy, error) {
	var policy models.LockPolicy
	err := s.DB.Where("property_id = ?", propertyID).First(&policy).Error
	if err == nil {
		return &policy, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 首次访问时按配置的生效窗口创建默认策略
	defaultPolicy := models.NewDefaultLockPolicy(propertyID,
		s.Config.HoursBeforeCheckin, s.Config.HoursAfterCheckout)
	if err := s.DB.Create(defaultPolicy).Error; err != nil {
		// 并发创建时可能撞上唯一索引，重新读取即可
		if readErr := s.DB.Where("property_id = ?", propertyID).First(&policy).Error; readErr == nil {
			return &policy, nil
		}
		return nil, err
	}
	return defaultPolicy, nil
}

// 2 GetPoliciesByProperties 批量获取多个房源的策略
func (s *LockPolicyService) GetPoliciesByProperties(propertyIDs []uint) ([]models.LockPolicy, error) {
	var policies []models.LockPolicy
	if len(propertyIDs) == 0 {
		return policies, nil
	}
	if err := s.DB.Where("property_id IN ?", propertyIDs).Find(&policies).Error; err != nil {
		return nil, err
	}
	return policies, nil
}

// 3 UpdatePolicy 更新房源策略（管理端显式修改）
func (s *LockPolicyService) UpdatePolicy(propertyID uint, updates map[string]interface{}) (*models.LockPolicy, error) {
	policy, err := s.GetOrCreatePolicy(propertyID)
	if err != nil {
		return nil, err
	}

	if err := s.DB.Model(policy).Updates(updates).Error; err != nil {
		return nil, err
	}

	return s.GetOrCreatePolicy(propertyID)
}
