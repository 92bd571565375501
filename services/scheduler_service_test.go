package services

import (
	"testing"
	"time"

	"github.com/dnovakovic099/secure-stay-server-sub000/models"
)

// newSchedulerFixture 在通用fixture上装配调度服务
func newSchedulerFixture(t *testing.T) (*testFixture, InterfaceSchedulerService) {
	t.Helper()
	f := newTestFixture(t)
	scheduler := NewSchedulerService(f.DB, f.Config, f.Devices, f.Policies, f.Codes)
	return f, scheduler
}

// enableAutoGenerate 为房源开启自动生成
func enableAutoGenerate(t *testing.T, f *testFixture, propertyID uint) {
	t.Helper()
	if _, err := f.Policies.UpdatePolicy(propertyID, map[string]interface{}{
		"auto_generate_codes": true,
	}); err != nil {
		t.Fatalf("开启自动生成失败: %v", err)
	}
}

func TestProcessAutomatedAccessCodes(t *testing.T) {
	f, scheduler := newSchedulerFixture(t)
	property := seedProperty(t, f.DB, "America/New_York", intPtr(15), intPtr(10))
	seedDevice(t, f.DB, property.ID, "seam-dev-1")
	enableAutoGenerate(t, f, property.ID)

	arrival := time.Now().AddDate(0, 0, 2)
	departure := arrival.AddDate(0, 0, 3)
	mustCreate(t, f.DB, &models.Reservation{
		PropertyID:    property.ID,
		GuestName:     "Alice Chen",
		Phone:         "5550106789",
		ArrivalDate:   arrival,
		DepartureDate: &departure,
		Status:        models.ReservationStatusAccepted,
	})

	t.Run("首次扫描生成门禁码", func(t *testing.T) {
		result, err := scheduler.ProcessAutomatedAccessCodes()
		if err != nil {
			t.Fatalf("扫描失败: %v", err)
		}
		if result.Processed != 1 || result.Skipped != 0 || result.Failed != 0 {
			t.Errorf("期望processed=1/skipped=0/failed=0，实际为%+v", result)
		}

		var count int64
		f.DB.Model(&models.AccessCode{}).Count(&count)
		if count != 1 {
			t.Errorf("期望1条门禁码，实际为%d", count)
		}
	})

	t.Run("重复扫描跳过已处理的预订", func(t *testing.T) {
		result, err := scheduler.ProcessAutomatedAccessCodes()
		if err != nil {
			t.Fatalf("扫描失败: %v", err)
		}
		if result.Processed != 0 || result.Skipped != 1 {
			t.Errorf("期望processed=0/skipped=1，实际为%+v", result)
		}

		var count int64
		f.DB.Model(&models.AccessCode{}).Count(&count)
		if count != 1 {
			t.Errorf("重复扫描不应产生新记录，实际为%d条", count)
		}
	})

	t.Run("每次执行都落日志", func(t *testing.T) {
		var logs []models.JobRunLog
		f.DB.Where("job_name = ?", JobNameAccessCodeScan).Find(&logs)
		if len(logs) != 2 {
			t.Errorf("期望2条任务日志，实际为%d", len(logs))
		}
	})
}

func TestScanFiltersReservations(t *testing.T) {
	f, scheduler := newSchedulerFixture(t)
	property := seedProperty(t, f.DB, "America/New_York", nil, nil)
	seedDevice(t, f.DB, property.ID, "seam-dev-1")
	enableAutoGenerate(t, f, property.ID)

	// 已取消的预订
	mustCreate(t, f.DB, &models.Reservation{
		PropertyID:  property.ID,
		GuestName:   "Cancelled Guest",
		ArrivalDate: time.Now().AddDate(0, 0, 1),
		Status:      models.ReservationStatusCancelled,
	})
	// 到达日期超出扫描窗口的预订
	mustCreate(t, f.DB, &models.Reservation{
		PropertyID:  property.ID,
		GuestName:   "Far Future Guest",
		ArrivalDate: time.Now().AddDate(0, 0, f.Config.ReservationLookahead+10),
		Status:      models.ReservationStatusAccepted,
	})
	// 已经过去的预订
	mustCreate(t, f.DB, &models.Reservation{
		PropertyID:  property.ID,
		GuestName:   "Past Guest",
		ArrivalDate: time.Now().AddDate(0, 0, -3),
		Status:      models.ReservationStatusAccepted,
	})

	result, err := scheduler.ProcessAutomatedAccessCodes()
	if err != nil {
		t.Fatalf("扫描失败: %v", err)
	}
	if result.Processed != 0 {
		t.Errorf("取消/过期/超窗的预订都不应被处理，实际processed=%d", result.Processed)
	}

	var count int64
	f.DB.Model(&models.AccessCode{}).Count(&count)
	if count != 0 {
		t.Errorf("不应生成任何门禁码，实际为%d条", count)
	}
}

func TestScanRespectsAutoGenerateFlag(t *testing.T) {
	f, scheduler := newSchedulerFixture(t)
	property := seedProperty(t, f.DB, "America/New_York", nil, nil)
	seedDevice(t, f.DB, property.ID, "seam-dev-1")
	// 策略默认auto_generate_codes=false，不开启

	mustCreate(t, f.DB, &models.Reservation{
		PropertyID:  property.ID,
		GuestName:   "Alice",
		ArrivalDate: time.Now().AddDate(0, 0, 2),
		Status:      models.ReservationStatusAccepted,
	})
	// 先触发一次策略懒创建
	if _, err := f.Policies.GetOrCreatePolicy(property.ID); err != nil {
		t.Fatalf("创建策略失败: %v", err)
	}

	result, err := scheduler.ProcessAutomatedAccessCodes()
	if err != nil {
		t.Fatalf("扫描失败: %v", err)
	}
	if result.Processed != 0 {
		t.Errorf("未开启自动生成的房源不应被处理，实际processed=%d", result.Processed)
	}
}

func TestProcessScheduledCodes(t *testing.T) {
	f, scheduler := newSchedulerFixture(t)
	property := seedProperty(t, f.DB, "America/New_York", nil, nil)
	seedDevice(t, f.DB, property.ID, "seam-dev-1")
	seedDevice(t, f.DB, property.ID, "seam-dev-2")
	seedDevice(t, f.DB, property.ID, "seam-dev-3")
	enableAutoGenerate(t, f, property.ID)

	mustCreate(t, f.DB, &models.Reservation{
		PropertyID:  property.ID,
		GuestName:   "Alice Chen",
		Phone:       "5550106789",
		ArrivalDate: time.Now().AddDate(0, 0, 2),
		Status:      models.ReservationStatusAccepted,
	})
	if _, err := scheduler.ProcessAutomatedAccessCodes(); err != nil {
		t.Fatalf("扫描失败: %v", err)
	}

	t.Run("单台设备失败不影响其余设备", func(t *testing.T) {
		f.Provider.FailFor["seam-dev-2"] = true

		result, err := scheduler.ProcessScheduledCodes()
		if err != nil {
			t.Fatalf("激活任务失败: %v", err)
		}
		if result.Processed != 2 || result.Failed != 1 {
			t.Errorf("期望processed=2/failed=1，实际为%+v", result)
		}

		var setCount, failedCount int64
		f.DB.Model(&models.AccessCode{}).Where("status = ?", models.AccessCodeStatusSet).Count(&setCount)
		f.DB.Model(&models.AccessCode{}).Where("status = ?", models.AccessCodeStatusFailed).Count(&failedCount)
		if setCount != 2 || failedCount != 1 {
			t.Errorf("期望2条set/1条failed，实际为%d/%d", setCount, failedCount)
		}
	})

	t.Run("failed不是终态_下次执行重试成功", func(t *testing.T) {
		f.Provider.FailFor["seam-dev-2"] = false

		result, err := scheduler.ProcessScheduledCodes()
		if err != nil {
			t.Fatalf("激活任务失败: %v", err)
		}
		if result.Processed != 1 || result.Failed != 0 {
			t.Errorf("期望仅重试1条失败记录，实际为%+v", result)
		}

		var setCount int64
		f.DB.Model(&models.AccessCode{}).Where("status = ?", models.AccessCodeStatusSet).Count(&setCount)
		if setCount != 3 {
			t.Errorf("期望3条set，实际为%d", setCount)
		}
	})
}

func TestProcessScheduledCodesPicksUpPendingManualCodes(t *testing.T) {
	f, scheduler := newSchedulerFixture(t)
	property := seedProperty(t, f.DB, "America/New_York", nil, nil)
	device := seedDevice(t, f.DB, property.ID, "seam-dev-1")

	code, err := f.Codes.CreateManualAccessCode(ManualAccessCodeInput{
		DeviceID: device.ID,
		Code:     "2468",
		CodeName: "Cleaner",
	})
	if err != nil {
		t.Fatalf("手动创建门禁码失败: %v", err)
	}
	if code.Status != models.AccessCodeStatusPending {
		t.Fatalf("期望状态为pending，实际为%s", code.Status)
	}

	result, err := scheduler.ProcessScheduledCodes()
	if err != nil {
		t.Fatalf("激活任务失败: %v", err)
	}
	if result.Processed != 1 || result.Failed != 0 {
		t.Errorf("期望processed=1/failed=0，实际为%+v", result)
	}

	var updated models.AccessCode
	if err := f.DB.First(&updated, code.ID).Error; err != nil {
		t.Fatalf("查询门禁码失败: %v", err)
	}
	if updated.Status != models.AccessCodeStatusSet {
		t.Errorf("期望pending记录被下发后转为set，实际为%s", updated.Status)
	}
}

func TestStartCronRejectsInvalidSpec(t *testing.T) {
	f, scheduler := newSchedulerFixture(t)
	f.Config.AccessCodeCronSpec = "not a cron spec"

	if err := scheduler.StartCron(); err == nil {
		scheduler.StopCron()
		t.Fatal("无效的cron表达式应报错")
	}
}
