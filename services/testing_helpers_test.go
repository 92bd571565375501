package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dnovakovic099/secure-stay-server-sub000/config"
	"github.com/dnovakovic099/secure-stay-server-sub000/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB 创建内存数据库并迁移所有模型
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开内存数据库失败: %v", err)
	}

	err = db.AutoMigrate(
		&models.Admin{},
		&models.Property{},
		&models.Reservation{},
		&models.LockPolicy{},
		&models.LockDevice{},
		&models.DeviceMapping{},
		&models.AccessCode{},
		&models.JobRunLog{},
	)
	if err != nil {
		t.Fatalf("迁移测试数据库失败: %v", err)
	}
	return db
}

// newTestConfig 构造测试用配置，不读取环境变量
func newTestConfig() *config.Config {
	return &config.Config{
		DefaultTimeZone:        "America/New_York",
		ReservationLookahead:   7,
		HoursBeforeCheckin:     3,
		HoursAfterCheckout:     3,
		AccessCodeCronSpec:     "0 2 * * *",
		ActivationCronSpec:     "30 2 * * *",
		VendorRequestTimeoutMS: 2000,
		JWTSecretKey:           "test-secret",
	}
}

// fakeLockProvider 是测试中使用的内存锁服务商适配器，
// 可通过FailFor让指定设备的下发调用固定失败
type fakeLockProvider struct {
	mu           sync.Mutex
	providerName models.LockProviderName
	FailFor      map[string]bool  // externalDeviceID -> 是否下发失败
	DeviceList   []ProviderDevice // ListDevices返回的设备
	Created      []string         // 按调用顺序记录下发过的externalDeviceID
	Deleted      []string         // 记录撤销过的externalCodeID
	nextCodeID   int
}

func newFakeProvider(name models.LockProviderName) *fakeLockProvider {
	return &fakeLockProvider{
		providerName: name,
		FailFor:      map[string]bool{},
	}
}

func (f *fakeLockProvider) Name() models.LockProviderName {
	return f.providerName
}

func (f *fakeLockProvider) CreateConnectionURL(redirectURL string) (string, error) {
	return "https://connect.example.com/webview", nil
}

func (f *fakeLockProvider) GetConnectionStatus(accountID string) (string, error) {
	return "connected", nil
}

func (f *fakeLockProvider) ListDevices(accountID string) ([]ProviderDevice, error) {
	return f.DeviceList, nil
}

func (f *fakeLockProvider) GetDevice(externalID string) (*ProviderDevice, error) {
	return &ProviderDevice{ExternalDeviceID: externalID}, nil
}

func (f *fakeLockProvider) CreateAccessCode(externalDeviceID, code, name string, startsAt, endsAt *time.Time) (*ProviderCodeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailFor[externalDeviceID] {
		return nil, fmt.Errorf("设备 %s 离线", externalDeviceID)
	}

	f.nextCodeID++
	f.Created = append(f.Created, externalDeviceID)
	return &ProviderCodeResult{
		ExternalCodeID: fmt.Sprintf("ext-code-%d", f.nextCodeID),
		Status:         "set",
	}, nil
}

func (f *fakeLockProvider) UpdateAccessCode(externalDeviceID, externalCodeID, code, name string, startsAt, endsAt *time.Time) (*ProviderCodeResult, error) {
	return &ProviderCodeResult{ExternalCodeID: externalCodeID, Status: "set"}, nil
}

func (f *fakeLockProvider) DeleteAccessCode(externalDeviceID, externalCodeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailFor[externalDeviceID] {
		return fmt.Errorf("设备 %s 离线", externalDeviceID)
	}
	f.Deleted = append(f.Deleted, externalCodeID)
	return nil
}

func (f *fakeLockProvider) ListAccessCodes(externalDeviceID string) ([]ProviderAccessCode, error) {
	return []ProviderAccessCode{}, nil
}

// testFixture 把常用的服务和数据装配在一起
type testFixture struct {
	DB       *gorm.DB
	Config   *config.Config
	Provider *fakeLockProvider
	Devices  InterfaceDeviceService
	Policies InterfaceLockPolicyService
	Codes    InterfaceAccessCodeService
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()

	db := newTestDB(t)
	cfg := newTestConfig()
	provider := newFakeProvider(models.LockProviderSeam)
	registry := NewProviderRegistry(provider)
	deviceService := NewDeviceService(db, cfg, registry, nil)
	policyService := NewLockPolicyService(db, cfg)
	codeService := NewAccessCodeService(db, cfg, registry, policyService, deviceService, nil)

	return &testFixture{
		DB:       db,
		Config:   cfg,
		Provider: provider,
		Devices:  deviceService,
		Policies: policyService,
		Codes:    codeService,
	}
}

// mustCreate 落库失败直接终止测试
func mustCreate(t *testing.T, db *gorm.DB, value interface{}) {
	t.Helper()
	if err := db.Create(value).Error; err != nil {
		t.Fatalf("创建测试数据失败: %v", err)
	}
}

// seedProperty 创建一个带时区的房源
func seedProperty(t *testing.T, db *gorm.DB, tz string, checkInHour, checkOutHour *int) *models.Property {
	t.Helper()
	property := &models.Property{
		Name:             "Lakeview Cabin",
		TimeZoneName:     &tz,
		CheckInTimeStart: checkInHour,
		CheckOutTime:     checkOutHour,
	}
	mustCreate(t, db, property)
	return property
}

// seedDevice 创建一台设备并绑定到房源
func seedDevice(t *testing.T, db *gorm.DB, propertyID uint, externalID string) *models.LockDevice {
	t.Helper()
	device := &models.LockDevice{
		Provider:         models.LockProviderSeam,
		ExternalDeviceID: externalID,
		Name:             "Front Door " + externalID,
		IsOnline:         true,
	}
	mustCreate(t, db, device)
	mustCreate(t, db, &models.DeviceMapping{
		PropertyID: propertyID,
		DeviceID:   device.ID,
		IsActive:   true,
	})
	return device
}

func intPtr(v int) *int          { return &v }
func strPtr(v string) *string    { return &v }
func timePtr(v time.Time) *time.Time { return &v }
