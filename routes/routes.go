package routes

import (
	"github.com/dnovakovic099/secure-stay-server-sub000/config"
	"github.com/dnovakovic099/secure-stay-server-sub000/controllers"
	_ "github.com/dnovakovic099/secure-stay-server-sub000/docs"
	"github.com/dnovakovic099/secure-stay-server-sub000/middleware"
	"github.com/dnovakovic099/secure-stay-server-sub000/services/container"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// SetupRouter 初始化并返回配置好的路由和服务容器
func SetupRouter(db *gorm.DB, cfg *config.Config, redisClient *redis.Client) (*gin.Engine, *container.ServiceContainer) {
	// 初始化 Gin
	r := gin.Default()

	// 添加 CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
	// 设置正确的Content-Type，确保UTF-8编码
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
		c.Next()
	})
	// 创建服务容器
	serviceContainer := container.NewServiceContainer(db, cfg, redisClient)
	// 初始化中间件
	middleware.InitAuthMiddleware(cfg)
	// 添加 Swagger 文档路由
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 注册路由
	registerRoutes(r, serviceContainer)
	return r, serviceContainer
}

// registerRoutes 配置所有API路由
func registerRoutes(
	r *gin.Engine,
	container *container.ServiceContainer,
) {
	// API 路由根路径
	api := r.Group("/api")
	// 注册公共路由
	registerPublicRoutes(api, container)
	// 注册需要认证的路由
	registerAuthenticatedRoutes(api, container)
}

// registerPublicRoutes 注册公共路由
func registerPublicRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	// 健康检查
	healthController := controllers.NewHealthCheckController()
	api.GET("/ping", healthController.Ping)

	// 认证路由
	api.POST("/auth/login", controllers.HandleJWTFunc(container, "login"))
}

// registerAuthenticatedRoutes 注册需要认证的路由
func registerAuthenticatedRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	// 添加认证中间件
	auth := api.Group("/")
	auth.Use(middleware.AuthenticateSystemAdmin())

	// 设备路由
	auth.Group("/devices").GET("", controllers.HandleDeviceFunc(container, "getDevices"))
	auth.Group("/devices").GET("/:id", controllers.HandleDeviceFunc(container, "getDevice"))
	auth.Group("/devices").POST("/sync", controllers.HandleDeviceFunc(container, "syncDevices"))
	auth.Group("/devices").POST("/mappings", controllers.HandleDeviceFunc(container, "createDeviceMapping"))
	auth.Group("/devices").GET("/:id/access_codes", controllers.HandleAccessCodeFunc(container, "getByDevice"))

	// 厂商账户连接路由
	auth.Group("/connect").POST("/webview", controllers.HandleDeviceFunc(container, "createConnectionURL"))
	auth.Group("/connect").GET("/status", controllers.HandleDeviceFunc(container, "getConnectionStatus"))

	// 门禁码路由
	auth.Group("/access_codes").POST("", controllers.HandleAccessCodeFunc(container, "createManual"))
	auth.Group("/access_codes").DELETE("/:id", controllers.HandleAccessCodeFunc(container, "delete"))
	// 手动触发定时任务的路由，限流防止重复触发
	jobs := auth.Group("/access_codes/jobs")
	jobs.Use(middleware.RateLimitByIP(1, 3))
	jobs.POST("/scan", controllers.HandleAccessCodeFunc(container, "triggerScan"))
	jobs.POST("/activate", controllers.HandleAccessCodeFunc(container, "triggerActivation"))

	// 房源路由
	auth.Group("/properties").GET("/:id/access_codes", controllers.HandleAccessCodeFunc(container, "getByProperty"))
	auth.Group("/properties").GET("/:id/lock_policy", controllers.HandleLockPolicyFunc(container, "getPolicy"))
	auth.Group("/properties").PUT("/:id/lock_policy", controllers.HandleLockPolicyFunc(container, "updatePolicy"))
}
