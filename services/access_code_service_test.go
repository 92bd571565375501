package services

import (
	"strconv"
	"testing"
	"time"

	"github.com/dnovakovic099/secure-stay-server-sub000/models"
)

func TestGenerateCodeValue(t *testing.T) {
	f := newTestFixture(t)
	svc := f.Codes

	t.Run("default模式使用固定码", func(t *testing.T) {
		policy := &models.LockPolicy{
			CodeGenerationMode: models.CodeGenerationModeDefault,
			DefaultAccessCode:  strPtr("8642"),
		}
		if got := svc.GenerateCodeValue(policy, "+1 (555) 010-1234"); got != "8642" {
			t.Errorf("期望固定码8642，实际为%s", got)
		}
	})

	t.Run("phone模式取手机号后四位", func(t *testing.T) {
		policy := &models.LockPolicy{CodeGenerationMode: models.CodeGenerationModePhone}
		if got := svc.GenerateCodeValue(policy, "+1 (555) 010-1234"); got != "1234" {
			t.Errorf("期望手机号后四位1234，实际为%s", got)
		}
	})

	t.Run("手机号数字不足四位时回退随机码", func(t *testing.T) {
		policy := &models.LockPolicy{CodeGenerationMode: models.CodeGenerationModePhone}
		got := svc.GenerateCodeValue(policy, "x12")
		assertFourDigits(t, got)
	})

	t.Run("random模式忽略手机号", func(t *testing.T) {
		policy := &models.LockPolicy{CodeGenerationMode: models.CodeGenerationModeRandom}
		got := svc.GenerateCodeValue(policy, "+1 (555) 010-1234")
		assertFourDigits(t, got)
	})

	t.Run("default模式未配置固定码时仍可生成", func(t *testing.T) {
		policy := &models.LockPolicy{CodeGenerationMode: models.CodeGenerationModeDefault}
		got := svc.GenerateCodeValue(policy, "+1 (555) 010-1234")
		if got != "1234" {
			t.Errorf("固定码缺失时期望回退手机号后四位，实际为%s", got)
		}
	})
}

func assertFourDigits(t *testing.T, code string) {
	t.Helper()
	if len(code) != 4 {
		t.Fatalf("期望四位码，实际为%q", code)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			t.Fatalf("期望纯数字码，实际为%q", code)
		}
	}
}

func TestCreateAccessCodesForReservation(t *testing.T) {
	f := newTestFixture(t)
	property := seedProperty(t, f.DB, "America/New_York", intPtr(16), intPtr(11))
	device := seedDevice(t, f.DB, property.ID, "seam-dev-1")

	checkIn := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)

	codes, err := f.Codes.CreateAccessCodesForReservation(CreateAccessCodesInput{
		ReservationID: 101,
		PropertyID:    property.ID,
		GuestName:     "Alice Chen",
		GuestPhone:    "+1 (555) 010-6789",
		CheckInDate:   checkIn,
		CheckOutDate:  &checkOut,
		CheckInHour:   intPtr(16),
		CheckOutHour:  intPtr(11),
	})
	if err != nil {
		t.Fatalf("编排门禁码失败: %v", err)
	}
	if len(codes) != 1 {
		t.Fatalf("期望1条门禁码，实际为%d", len(codes))
	}

	code := codes[0]
	if code.DeviceID != device.ID {
		t.Errorf("门禁码应归属设备%d，实际为%d", device.ID, code.DeviceID)
	}
	if code.Code != "6789" {
		t.Errorf("phone模式下期望码值6789，实际为%s", code.Code)
	}
	if code.Status != models.AccessCodeStatusScheduled {
		t.Errorf("新建门禁码状态应为scheduled，实际为%s", code.Status)
	}
	if code.CodeName != "Alice Chen Jun 10 - Jun 12" {
		t.Errorf("显示名称不符: %s", code.CodeName)
	}

	// 6月纽约为夏令时(UTC-4)：当地16:00=UTC 20:00，提前3小时即UTC 17:00
	wantStart := time.Date(2024, 6, 10, 17, 0, 0, 0, time.UTC)
	if code.ScheduledAt == nil || !code.ScheduledAt.Equal(wantStart) {
		t.Errorf("生效时间期望%v，实际为%v", wantStart, code.ScheduledAt)
	}
	// 当地11:00退房，延后3小时即当地14:00=UTC 18:00
	wantEnd := time.Date(2024, 6, 12, 18, 0, 0, 0, time.UTC)
	if code.ExpiresAt == nil || !code.ExpiresAt.Equal(wantEnd) {
		t.Errorf("失效时间期望%v，实际为%v", wantEnd, code.ExpiresAt)
	}
}

func TestCreateAccessCodesWinterOffset(t *testing.T) {
	// 同一房源在标准时间(UTC-5)下偏移量不同，固定偏移量的实现会在这里出错
	f := newTestFixture(t)
	property := seedProperty(t, f.DB, "America/New_York", intPtr(16), intPtr(11))
	seedDevice(t, f.DB, property.ID, "seam-dev-1")

	checkIn := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	codes, err := f.Codes.CreateAccessCodesForReservation(CreateAccessCodesInput{
		ReservationID: 102,
		PropertyID:    property.ID,
		GuestName:     "Bob",
		GuestPhone:    "5550104321",
		CheckInDate:   checkIn,
		CheckInHour:   intPtr(16),
	})
	if err != nil {
		t.Fatalf("编排门禁码失败: %v", err)
	}
	if len(codes) != 1 {
		t.Fatalf("期望1条门禁码，实际为%d", len(codes))
	}

	// 1月纽约为标准时间(UTC-5)：当地16:00=UTC 21:00，提前3小时即UTC 18:00
	wantStart := time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC)
	if codes[0].ScheduledAt == nil || !codes[0].ScheduledAt.Equal(wantStart) {
		t.Errorf("生效时间期望%v，实际为%v", wantStart, codes[0].ScheduledAt)
	}
	// 退房日期未知，不设置失效时间（永久码）
	if codes[0].ExpiresAt != nil {
		t.Errorf("退房日期未知时失效时间应为空，实际为%v", codes[0].ExpiresAt)
	}
}

func TestCreateAccessCodesIdempotent(t *testing.T) {
	f := newTestFixture(t)
	property := seedProperty(t, f.DB, "America/New_York", nil, nil)
	seedDevice(t, f.DB, property.ID, "seam-dev-1")
	seedDevice(t, f.DB, property.ID, "seam-dev-2")

	input := CreateAccessCodesInput{
		ReservationID: 103,
		PropertyID:    property.ID,
		GuestName:     "Carol",
		GuestPhone:    "5550107777",
		CheckInDate:   time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
	}

	first, err := f.Codes.CreateAccessCodesForReservation(input)
	if err != nil {
		t.Fatalf("第一次编排失败: %v", err)
	}
	second, err := f.Codes.CreateAccessCodesForReservation(input)
	if err != nil {
		t.Fatalf("第二次编排失败: %v", err)
	}

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("两台设备各应有1条门禁码，实际为%d/%d", len(first), len(second))
	}

	var count int64
	f.DB.Model(&models.AccessCode{}).Count(&count)
	if count != 2 {
		t.Errorf("重复编排不应产生新记录，期望2行，实际为%d", count)
	}
	if first[0].ID != second[0].ID || first[1].ID != second[1].ID {
		t.Errorf("重复编排应复用已有记录")
	}
}

func TestCreateAccessCodesNoDevices(t *testing.T) {
	f := newTestFixture(t)
	property := seedProperty(t, f.DB, "America/New_York", nil, nil)

	codes, err := f.Codes.CreateAccessCodesForReservation(CreateAccessCodesInput{
		ReservationID: 104,
		PropertyID:    property.ID,
		GuestName:     "Dave",
		CheckInDate:   time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("无设备房源不应报错: %v", err)
	}
	if len(codes) != 0 {
		t.Errorf("无设备时应返回空结果，实际为%d条", len(codes))
	}
}

func TestCreateAccessCodesInvalidTimezone(t *testing.T) {
	// 房源时区无效时回退到默认时区，不中断编排
	f := newTestFixture(t)
	property := seedProperty(t, f.DB, "Not/AZone", nil, nil)
	seedDevice(t, f.DB, property.ID, "seam-dev-1")

	codes, err := f.Codes.CreateAccessCodesForReservation(CreateAccessCodesInput{
		ReservationID: 105,
		PropertyID:    property.ID,
		GuestName:     "Eve",
		GuestPhone:    "5550102222",
		CheckInDate:   time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("无效时区应回退默认值: %v", err)
	}
	// 默认时区America/New_York，默认0点入住，提前3小时：6月9日21:00当地=UTC 6月10日01:00
	wantStart := time.Date(2024, 6, 10, 1, 0, 0, 0, time.UTC)
	if codes[0].ScheduledAt == nil || !codes[0].ScheduledAt.Equal(wantStart) {
		t.Errorf("生效时间期望%v，实际为%v", wantStart, codes[0].ScheduledAt)
	}
}

func TestActivateAccessCode(t *testing.T) {
	f := newTestFixture(t)
	property := seedProperty(t, f.DB, "America/New_York", nil, nil)
	seedDevice(t, f.DB, property.ID, "seam-dev-1")

	codes, err := f.Codes.CreateAccessCodesForReservation(CreateAccessCodesInput{
		ReservationID: 106,
		PropertyID:    property.ID,
		GuestName:     "Frank",
		GuestPhone:    "5550103333",
		CheckInDate:   time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
	})
	if err != nil || len(codes) != 1 {
		t.Fatalf("准备门禁码失败: %v", err)
	}

	t.Run("下发失败转为failed并保留错误信息", func(t *testing.T) {
		f.Provider.FailFor["seam-dev-1"] = true
		if err := f.Codes.ActivateAccessCode(&codes[0]); err == nil {
			t.Fatal("下发失败时应返回错误")
		}

		var row models.AccessCode
		f.DB.First(&row, codes[0].ID)
		if row.Status != models.AccessCodeStatusFailed {
			t.Errorf("状态期望failed，实际为%s", row.Status)
		}
		if row.ErrorMessage == "" {
			t.Error("失败原因应写入error_message")
		}
	})

	t.Run("重试成功后转为set并清空错误", func(t *testing.T) {
		f.Provider.FailFor["seam-dev-1"] = false
		if err := f.Codes.ActivateAccessCode(&codes[0]); err != nil {
			t.Fatalf("重试下发失败: %v", err)
		}

		var row models.AccessCode
		f.DB.First(&row, codes[0].ID)
		if row.Status != models.AccessCodeStatusSet {
			t.Errorf("状态期望set，实际为%s", row.Status)
		}
		if row.ExternalCodeID == "" {
			t.Error("下发成功后应记录厂商门禁码ID")
		}
		if row.ErrorMessage != "" {
			t.Errorf("重试成功后错误信息应清空，实际为%q", row.ErrorMessage)
		}
		if row.SetAt == nil {
			t.Error("下发成功后应记录set_at")
		}
	})
}

func TestDeleteAccessCode(t *testing.T) {
	f := newTestFixture(t)
	property := seedProperty(t, f.DB, "America/New_York", nil, nil)
	seedDevice(t, f.DB, property.ID, "seam-dev-1")

	codes, err := f.Codes.CreateAccessCodesForReservation(CreateAccessCodesInput{
		ReservationID: 107,
		PropertyID:    property.ID,
		GuestName:     "Grace",
		GuestPhone:    "5550104444",
		CheckInDate:   time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
	})
	if err != nil || len(codes) != 1 {
		t.Fatalf("准备门禁码失败: %v", err)
	}
	if err := f.Codes.ActivateAccessCode(&codes[0]); err != nil {
		t.Fatalf("下发失败: %v", err)
	}

	t.Run("已下发的门禁码删除时先撤销厂商侧", func(t *testing.T) {
		if err := f.Codes.DeleteAccessCode(codes[0].ID); err != nil {
			t.Fatalf("删除失败: %v", err)
		}
		if len(f.Provider.Deleted) != 1 {
			t.Errorf("期望撤销1次厂商侧密码，实际为%d次", len(f.Provider.Deleted))
		}

		var count int64
		f.DB.Model(&models.AccessCode{}).Where("id = ?", codes[0].ID).Count(&count)
		if count != 0 {
			t.Error("本地记录应被删除")
		}
	})

	t.Run("撤销失败时仍删除本地记录", func(t *testing.T) {
		more, err := f.Codes.CreateAccessCodesForReservation(CreateAccessCodesInput{
			ReservationID: 108,
			PropertyID:    property.ID,
			GuestName:     "Heidi",
			GuestPhone:    "5550105555",
			CheckInDate:   time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		})
		if err != nil || len(more) != 1 {
			t.Fatalf("准备门禁码失败: %v", err)
		}
		if err := f.Codes.ActivateAccessCode(&more[0]); err != nil {
			t.Fatalf("下发失败: %v", err)
		}

		f.Provider.FailFor["seam-dev-1"] = true
		if err := f.Codes.DeleteAccessCode(more[0].ID); err != nil {
			t.Fatalf("厂商撤销失败不应阻止本地删除: %v", err)
		}

		var count int64
		f.DB.Model(&models.AccessCode{}).Where("id = ?", more[0].ID).Count(&count)
		if count != 0 {
			t.Error("本地记录应被删除")
		}
	})
}

func TestCreateManualAccessCode(t *testing.T) {
	f := newTestFixture(t)
	property := seedProperty(t, f.DB, "America/New_York", nil, nil)
	device := seedDevice(t, f.DB, property.ID, "seam-dev-1")

	code, err := f.Codes.CreateManualAccessCode(ManualAccessCodeInput{
		DeviceID:       device.ID,
		Code:           "2468",
		CodeName:       "Cleaner",
		GuestName:      "Cleaning Crew",
		SetImmediately: true,
	})
	if err != nil {
		t.Fatalf("手动创建门禁码失败: %v", err)
	}

	var row models.AccessCode
	f.DB.First(&row, code.ID)
	if row.Source != models.AccessCodeSourceManual {
		t.Errorf("来源期望manual，实际为%s", row.Source)
	}
	if row.Status != models.AccessCodeStatusSet {
		t.Errorf("立即下发后状态期望set，实际为%s", row.Status)
	}
	if row.PropertyID != property.ID {
		t.Errorf("手动码应归属设备绑定的房源%d，实际为%d", property.ID, row.PropertyID)
	}
}

func TestGetAccessCodesByPropertyPagination(t *testing.T) {
	f := newTestFixture(t)
	property := seedProperty(t, f.DB, "America/New_York", nil, nil)
	device := seedDevice(t, f.DB, property.ID, "seam-dev-1")

	for i := 0; i < 5; i++ {
		mustCreate(t, f.DB, &models.AccessCode{
			Provider:   device.Provider,
			DeviceID:   device.ID,
			PropertyID: property.ID,
			Code:       "100" + strconv.Itoa(i),
			CodeName:   "Guest " + strconv.Itoa(i),
			Status:     models.AccessCodeStatusSet,
			Source:     models.AccessCodeSourceManual,
		})
	}

	t.Run("默认分页返回全部", func(t *testing.T) {
		codes, pagination, err := f.Codes.GetAccessCodesByProperty(property.ID, nil)
		if err != nil {
			t.Fatalf("查询失败: %v", err)
		}
		if len(codes) != 5 || pagination.Total != 5 {
			t.Errorf("期望5条记录/total=5，实际为%d/%d", len(codes), pagination.Total)
		}
		if pagination.PageNum != 1 || pagination.PageSize != 20 {
			t.Errorf("期望默认pageNum=1/pageSize=20，实际为%d/%d", pagination.PageNum, pagination.PageSize)
		}
	})

	t.Run("按页截取", func(t *testing.T) {
		codes, pagination, err := f.Codes.GetAccessCodesByProperty(property.ID, &models.PaginationQuery{
			PageNum:  3,
			PageSize: 2,
		})
		if err != nil {
			t.Fatalf("查询失败: %v", err)
		}
		if len(codes) != 1 {
			t.Errorf("第3页期望1条记录，实际为%d", len(codes))
		}
		if pagination.Total != 5 || pagination.PageNum != 3 || pagination.PageSize != 2 {
			t.Errorf("分页信息不符: %+v", pagination)
		}
	})

	t.Run("不统计其他房源", func(t *testing.T) {
		other := seedProperty(t, f.DB, "America/New_York", nil, nil)
		codes, pagination, err := f.Codes.GetAccessCodesByProperty(other.ID, nil)
		if err != nil {
			t.Fatalf("查询失败: %v", err)
		}
		if len(codes) != 0 || pagination.Total != 0 {
			t.Errorf("其他房源期望0条记录，实际为%d/total=%d", len(codes), pagination.Total)
		}
	})
}
