package container

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/dnovakovic099/secure-stay-server-sub000/config"
	"github.com/dnovakovic099/secure-stay-server-sub000/services"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// ServiceContainer 管理所有服务的依赖注入
type ServiceContainer struct {
	db     *gorm.DB
	config *config.Config
	redis  *redis.Client

	// 基础服务
	jwtService   services.InterfaceJWTService
	adminService services.InterfaceAdminService

	// 数据存储服务
	redisService services.InterfaceRedisService

	// MQTT事件服务
	mqttEventService services.InterfaceMQTTEventService

	// 锁服务商注册表，启动时构造一次
	providerRegistry *services.ProviderRegistry

	// 业务服务
	deviceService     services.InterfaceDeviceService
	lockPolicyService services.InterfaceLockPolicyService
	accessCodeService services.InterfaceAccessCodeService
	schedulerService  services.InterfaceSchedulerService

	mu sync.RWMutex
}

// NewServiceContainer 创建新的服务容器
func NewServiceContainer(db *gorm.DB, cfg *config.Config, redisClient *redis.Client) *ServiceContainer {
	if db == nil {
		panic("数据库连接为空")
	}

	if cfg == nil {
		panic("配置为空")
	}

	// 测试Redis连接
	if redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Redis连接测试失败: %v，将不使用Redis缓存", err)
		}
	}

	container := &ServiceContainer{
		db:     db,
		config: cfg,
		redis:  redisClient,
	}
	container.initializeServices()
	return container
}

// initializeServices 初始化所有服务
func (c *ServiceContainer) initializeServices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 初始化基础服务
	c.jwtService = services.NewJWTService(c.config)
	c.adminService = services.NewAdminService(c.db, c.config)

	// 初始化Redis服务
	if c.redis != nil {
		c.redisService = services.NewRedisService(c.config)
	}

	// 初始化MQTT事件服务
	c.mqttEventService = services.NewMQTTEventService(c.config)
	if err := c.mqttEventService.Connect(); err != nil {
		log.Printf("MQTT事件服务连接失败: %v", err)
	}

	// 初始化锁服务商注册表，两个适配器各自持有私有的认证状态
	c.providerRegistry = services.NewProviderRegistry(
		services.NewSeamService(c.config),
		services.NewTTLockService(c.config),
	)

	// 初始化业务服务
	c.deviceService = services.NewDeviceService(c.db, c.config, c.providerRegistry, c.redisService)
	c.lockPolicyService = services.NewLockPolicyService(c.db, c.config)
	c.accessCodeService = services.NewAccessCodeService(
		c.db, c.config, c.providerRegistry,
		c.lockPolicyService, c.deviceService, c.mqttEventService,
	)
	c.schedulerService = services.NewSchedulerService(
		c.db, c.config,
		c.deviceService, c.lockPolicyService, c.accessCodeService,
	)
}

// GetService 获取指定名称的服务
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "config":
		return c.config
	case "db":
		return c.db
	case "jwt":
		return c.jwtService
	case "admin":
		return c.adminService
	case "redis":
		return c.redisService
	case "mqtt_event":
		return c.mqttEventService
	case "providers":
		return c.providerRegistry
	case "device":
		return c.deviceService
	case "lock_policy":
		return c.lockPolicyService
	case "access_code":
		return c.accessCodeService
	case "scheduler":
		return c.schedulerService
	default:
		return nil
	}
}

// GetDB 获取数据库连接
func (c *ServiceContainer) GetDB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}
