package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

var (
	config     *Config
	configOnce sync.Once
)

// Config stores all configuration of the application
type Config struct {
	// Environment type
	EnvType string

	// Database
	DBHost          string
	DBUser          string
	DBPassword      string
	DBName          string
	DBPort          string
	DBMigrationMode string // 数据库迁移模式: "auto"(默认), "alter"(修改), "drop"(删除重建)

	// Server
	ServerPort string

	// Redis
	RedisHost string
	RedisPort string
	RedisDB   int

	// MQTT 事件推送
	MQTTBrokerURL string
	MQTTUsername  string
	MQTTPassword  string

	// Seam 锁服务商
	SeamAPIURL string
	SeamAPIKey string

	// TTLock 锁服务商
	TTLockAPIURL       string
	TTLockClientID     string
	TTLockClientSecret string
	TTLockUsername     string
	TTLockPassword     string

	// 门禁码默认参数
	DefaultTimeZone        string // 房源未配置时区时使用的默认时区
	ReservationLookahead   int    // 自动扫描的预订提前天数
	HoursBeforeCheckin     int    // 默认入住前提前生效小时数
	HoursAfterCheckout     int    // 默认退房后延迟失效小时数
	AccessCodeCronSpec     string // 自动生成门禁码任务的cron表达式
	ActivationCronSpec     string // 下发已排期门禁码任务的cron表达式
	EnableScheduler        bool   // 是否在进程内启动定时任务
	VendorRequestTimeoutMS int    // 调用锁服务商API的超时时间(毫秒)

	// JWT Authentication
	JWTSecretKey string

	// Admin
	DefaultAdminPassword string
}

// LoadConfig loads config from environment variables based on ENV_TYPE
func LoadConfig() *Config {
	// Get environment type (default to LOCAL if not set)
	envType := getEnv("ENV_TYPE", "LOCAL")
	prefix := ""

	// Set prefix based on environment type
	if strings.ToUpper(envType) == "LOCAL" {
		prefix = "LOCAL_"
	} else if strings.ToUpper(envType) == "SERVER" {
		prefix = "SERVER_"
	} else {
		fmt.Printf("Warning: Unknown ENV_TYPE '%s', defaulting to LOCAL environment\n", envType)
		prefix = "LOCAL_"
		envType = "LOCAL"
	}

	fmt.Printf("Loading configuration for environment: %s\n", envType)

	return &Config{
		// Environment type
		EnvType: envType,

		// Database config - use environment-specific variables if available
		DBHost:          getEnv(prefix+"DB_HOST", getEnv("DB_HOST", "localhost")),
		DBUser:          getEnv(prefix+"DB_USER", getEnv("DB_USER", "root")),
		DBPassword:      getEnv(prefix+"DB_PASSWORD", getEnv("DB_PASSWORD", "")),
		DBName:          getEnv(prefix+"DB_NAME", getEnv("DB_NAME", "securestay_db")),
		DBPort:          getEnv(prefix+"DB_PORT", getEnv("DB_PORT", "3306")),
		DBMigrationMode: getEnv(prefix+"DB_MIGRATION_MODE", getEnv("DB_MIGRATION_MODE", "auto")),

		// Server config
		ServerPort: getEnv(prefix+"SERVER_PORT", getEnv("SERVER_PORT", "8080")),

		// Redis config
		RedisHost: getEnv(prefix+"REDIS_HOST", getEnv("REDIS_HOST", "localhost")),
		RedisPort: getEnv(prefix+"REDIS_PORT", getEnv("REDIS_PORT", "6379")),
		RedisDB:   getEnvAsInt("REDIS_DB", 0),

		// MQTT config
		MQTTBrokerURL: getEnv("MQTT_BROKER_URL", ""),
		MQTTUsername:  getEnv("MQTT_USERNAME", ""),
		MQTTPassword:  getEnv("MQTT_PASSWORD", ""),

		// Seam config
		SeamAPIURL: getEnv("SEAM_API_URL", "https://connect.getseam.com"),
		SeamAPIKey: getEnv("SEAM_API_KEY", ""),

		// TTLock config
		TTLockAPIURL:       getEnv("TTLOCK_API_URL", "https://euapi.ttlock.com"),
		TTLockClientID:     getEnv("TTLOCK_CLIENT_ID", ""),
		TTLockClientSecret: getEnv("TTLOCK_CLIENT_SECRET", ""),
		TTLockUsername:     getEnv("TTLOCK_USERNAME", ""),
		TTLockPassword:     getEnv("TTLOCK_PASSWORD", ""),

		// Access code defaults
		DefaultTimeZone:        getEnv("DEFAULT_TIME_ZONE", "America/New_York"),
		ReservationLookahead:   getEnvAsInt("RESERVATION_LOOKAHEAD_DAYS", 7),
		HoursBeforeCheckin:     getEnvAsInt("HOURS_BEFORE_CHECKIN", 3),
		HoursAfterCheckout:     getEnvAsInt("HOURS_AFTER_CHECKOUT", 3),
		AccessCodeCronSpec:     getEnv("ACCESS_CODE_CRON", "0 2 * * *"),
		ActivationCronSpec:     getEnv("ACTIVATION_CRON", "30 2 * * *"),
		EnableScheduler:        getEnvAsBool("ENABLE_SCHEDULER", true),
		VendorRequestTimeoutMS: getEnvAsInt("VENDOR_REQUEST_TIMEOUT_MS", 15000),

		// JWT Config
		JWTSecretKey: getEnv("JWT_SECRET_KEY", "securestay-secret-key-change-in-production"),

		// Admin Config
		DefaultAdminPassword: getEnv("DEFAULT_ADMIN_PASSWORD", "admin123"),
	}
}

// GetConfig returns the application configuration as a singleton
func GetConfig() *Config {
	configOnce.Do(func() {
		config = LoadConfig()
	})
	return config
}

// GetDSN returns the database connection string
func (c *Config) GetDSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?charset=utf8mb4&parseTime=True&loc=Local&allowNativePasswords=true&multiStatements=true"
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// Helper function to get environment variable with default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variable as integer with default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variable as boolean with default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
