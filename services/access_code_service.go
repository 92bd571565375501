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

// CreateAccessCodesInput 自动编排门禁码的输入参数
type CreateAccessCodesInput struct {
	ReservationID uint
	PropertyID    uint
	GuestName     string
	GuestPhone    string
	CheckInDate   time.Time
	CheckOutDate  *time.Time
	CheckInHour   *int // 入住当地小时，nil时默认0点
	CheckOutHour  *int // 退房当地小时，nil时默认23点
	Source        models.AccessCodeSource
}

// ManualAccessCodeInput 手动创建门禁码的输入参数
type ManualAccessCodeInput struct {
	DeviceID       uint
	Code           string
	CodeName       string
	GuestName      string
	GuestPhone     string
	ReservationID  *uint
	SetImmediately bool
}

// InterfaceAccessCodeService defines the access code service interface
type InterfaceAccessCodeService interface {
	CreateAccessCodesForReservation(input CreateAccessCodesInput) ([]models.AccessCode, error)
	CreateManualAccessCode(input ManualAccessCodeInput) (*models.AccessCode, error)
	ActivateAccessCode(accessCode *models.AccessCode) error
	DeleteAccessCode(id uint) error
	GetAccessCodeByID(id uint) (*models.AccessCode, error)
	GetAccessCodesByProperty(propertyID uint, query *models.PaginationQuery) ([]models.AccessCode, models.PaginationResult, error)
	GetAccessCodesByDevice(deviceID uint) ([]models.AccessCode, error)
	ExistsForReservation(reservationID uint) (bool, error)
	GenerateCodeValue(policy *models.LockPolicy, guestPhone string) string
}

// AccessCodeService 负责门禁码的生成、时区换算、幂等落库与厂商下发
type AccessCodeService struct {
	DB            *gorm.DB
	Config        *config.Config
	Providers     *ProviderRegistry
	PolicyService InterfaceLockPolicyService
	DeviceService InterfaceDeviceService
	Events        InterfaceMQTTEventService // 可为nil，事件推送仅为运维观测
}

// NewAccessCodeService 创建一个新的门禁码服务
func NewAccessCodeService(
	db *gorm.DB,
	cfg *config.Config,
	providers *ProviderRegistry,
	policyService InterfaceLockPolicyService,
	deviceService InterfaceDeviceService,
	events InterfaceMQTTEventService,
) InterfaceAccessCodeService {
	return &AccessCodeService{
		DB:            db,
		Config:        cfg,
		Providers:     providers,
		PolicyService: policyService,
		DeviceService: deviceService,
		Events:        events,
	}
}

// 1 CreateAccessCodesForReservation 为一个预订在房源绑定的每台设备上编排门禁码。
// 同一(reservation_id, device_id)已存在记录时直接复用，不产生重复行和重复厂商调用。
func (s *AccessCodeService) CreateAccessCodesForReservation(input CreateAccessCodesInput) ([]models.AccessCode, error) {
	policy, err := s.PolicyService.GetOrCreatePolicy(input.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("获取门禁码策略失败: %w", err)
	}

	loc, err := s.resolvePropertyTimezone(input.PropertyID)
	if err != nil {
		return nil, err
	}

	mappings, err := s.DeviceService.GetActiveMappingsByProperty(input.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("获取设备绑定失败: %w", err)
	}
	// 没有绑定设备不是错误，只是无事可做
	if len(mappings) == 0 {
		return []models.AccessCode{}, nil
	}

	codeValue := s.GenerateCodeValue(policy, input.GuestPhone)
	codeName := buildCodeName(input.GuestName, input.CheckInDate, input.CheckOutDate)

	checkInHour := 0
	if input.CheckInHour != nil {
		checkInHour = *input.CheckInHour
	}
	checkOutHour := 23
	if input.CheckOutHour != nil {
		checkOutHour = *input.CheckOutHour
	}

	// 有效期按房源当地时区逐日期计算，夏令时前后偏移量不同
	scheduledAt := utils.LocalInstant(input.CheckInDate, checkInHour, loc).
		Add(-time.Duration(policy.HoursBeforeCheckin) * time.Hour)
	var expiresAt *time.Time
	if input.CheckOutDate != nil {
		t := utils.LocalInstant(*input.CheckOutDate, checkOutHour, loc).
			Add(time.Duration(policy.HoursAfterCheckout) * time.Hour)
		expiresAt = &t
	}

	source := input.Source
	if source == "" {
		source = models.AccessCodeSourceAutomatic
	}

	result := make([]models.AccessCode, 0, len(mappings))
	for _, mapping := range mappings {
		if mapping.Device == nil {
			config.Warning("设备绑定 %d 缺少设备记录，跳过", mapping.ID)
			continue
		}

		// 幂等检查：同一预订同一设备只允许一条记录
		var existing models.AccessCode
		err := s.DB.Where("reservation_id = ? AND device_id = ?", input.ReservationID, mapping.DeviceID).
			First(&existing).Error
		if err == nil {
			result = append(result, existing)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return result, err
		}

		reservationID := input.ReservationID
		checkInDate := input.CheckInDate
		accessCode := models.AccessCode{
			Provider:      mapping.Device.Provider,
			DeviceID:      mapping.DeviceID,
			PropertyID:    input.PropertyID,
			ReservationID: &reservationID,
			GuestName:     input.GuestName,
			GuestPhone:    input.GuestPhone,
			Code:          codeValue,
			CodeName:      codeName,
			Status:        models.AccessCodeStatusScheduled,
			ScheduledAt:   &scheduledAt,
			ExpiresAt:     expiresAt,
			CheckInDate:   &checkInDate,
			CheckOutDate:  input.CheckOutDate,
			Source:        source,
		}
		if err := s.DB.Create(&accessCode).Error; err != nil {
			// 并发执行时可能撞上(device_id, reservation_id)唯一索引，视为已存在
			var conflict models.AccessCode
			if readErr := s.DB.Where("reservation_id = ? AND device_id = ?", input.ReservationID, mapping.DeviceID).
				First(&conflict).Error; readErr == nil {
				result = append(result, conflict)
				continue
			}
			return result, err
		}

		s.publishEvent(AccessCodeEventCreated, &accessCode)
		result = append(result, accessCode)
	}

	return result, nil
}

// 2 GenerateCodeValue 按策略生成门禁码值，优先级：
// 固定码(default模式) > 手机号后四位(非random模式) > 随机四位数字
func (s *AccessCodeService) GenerateCodeValue(policy *models.LockPolicy, guestPhone string) string {
	if policy.CodeGenerationMode == models.CodeGenerationModeDefault &&
		policy.DefaultAccessCode != nil && *policy.DefaultAccessCode != "" {
		return *policy.DefaultAccessCode
	}

	if policy.CodeGenerationMode != models.CodeGenerationModeRandom {
		digits := utils.StripNonDigits(guestPhone)
		if len(digits) >= 4 {
			return digits[len(digits)-4:]
		}
	}

	return utils.RandomDigits(4)
}

// 3 CreateManualAccessCode 手动创建一条门禁码，状态为pending，
// setImmediately时立即尝试下发
func (s *AccessCodeService) CreateManualAccessCode(input ManualAccessCodeInput) (*models.AccessCode, error) {
	device, err := s.DeviceService.GetDeviceByID(input.DeviceID)
	if err != nil {
		return nil, err
	}

	if input.ReservationID != nil {
		var existing models.AccessCode
		err := s.DB.Where("reservation_id = ? AND device_id = ?", *input.ReservationID, input.DeviceID).
			First(&existing).Error
		if err == nil {
			return &existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	accessCode := models.AccessCode{
		Provider:      device.Provider,
		DeviceID:      device.ID,
		GuestName:     input.GuestName,
		GuestPhone:    input.GuestPhone,
		ReservationID: input.ReservationID,
		Code:          input.Code,
		CodeName:      input.CodeName,
		Status:        models.AccessCodeStatusPending,
		Source:        models.AccessCodeSourceManual,
	}

	// 手动码也归属设备绑定的房源，便于按房源查询
	var mapping models.DeviceMapping
	if err := s.DB.Where("device_id = ? AND is_active = ?", device.ID, true).First(&mapping).Error; err == nil {
		accessCode.PropertyID = mapping.PropertyID
	}

	if err := s.DB.Create(&accessCode).Error; err != nil {
		return nil, err
	}
	s.publishEvent(AccessCodeEventCreated, &accessCode)

	if input.SetImmediately {
		if err := s.ActivateAccessCode(&accessCode); err != nil {
			// 下发失败不回滚记录，失败状态已写入行内，后续任务可重试
			config.Error("手动门禁码 %d 立即下发失败: %v", accessCode.ID, err)
		}
	}

	return &accessCode, nil
}

// 4 ActivateAccessCode 把一条门禁码下发到厂商设备并更新状态。
// 成功转为set，失败转为failed并记录错误信息；failed不是终态，后续任务可重试。
func (s *AccessCodeService) ActivateAccessCode(accessCode *models.AccessCode) error {
	adapter, err := s.Providers.Get(accessCode.Provider)
	if err != nil {
		return s.markFailed(accessCode, err)
	}

	device, err := s.DeviceService.GetDeviceByID(accessCode.DeviceID)
	if err != nil {
		return s.markFailed(accessCode, err)
	}

	// 历史数据或手动创建的记录可能缺少有效期，按同一时区契约补算
	if accessCode.ScheduledAt == nil && accessCode.CheckInDate != nil {
		if err := s.recomputeWindow(accessCode); err != nil {
			return s.markFailed(accessCode, err)
		}
	}

	result, err := adapter.CreateAccessCode(
		device.ExternalDeviceID,
		accessCode.Code,
		accessCode.CodeName,
		accessCode.ScheduledAt,
		accessCode.ExpiresAt,
	)
	if err != nil {
		return s.markFailed(accessCode, err)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":            models.AccessCodeStatusSet,
		"external_code_id":  result.ExternalCodeID,
		"provider_status":   result.Status,
		"set_at":            now,
		"error_message":     "",
		"provider_metadata": utils.ToJSONString(result.Metadata),
	}
	if err := s.DB.Model(accessCode).Updates(updates).Error; err != nil {
		return err
	}
	accessCode.Status = models.AccessCodeStatusSet
	accessCode.ExternalCodeID = result.ExternalCodeID
	accessCode.ProviderStatus = result.Status
	accessCode.SetAt = &now
	accessCode.ErrorMessage = ""

	s.publishEvent(AccessCodeEventSet, accessCode)
	return nil
}

// 5 DeleteAccessCode 删除门禁码。已下发成功的先尽力撤销厂商侧密码，
// 撤销失败只记录日志，本地记录仍然删除。
func (s *AccessCodeService) DeleteAccessCode(id uint) error {
	accessCode, err := s.GetAccessCodeByID(id)
	if err != nil {
		return err
	}

	if accessCode.Status == models.AccessCodeStatusSet && accessCode.ExternalCodeID != "" {
		if err := s.revokeOnVendor(accessCode); err != nil {
			config.Warning("撤销厂商侧门禁码失败（继续删除本地记录）: %v", err)
		}
	}

	if err := s.DB.Delete(&models.AccessCode{}, id).Error; err != nil {
		return err
	}
	s.publishEvent(AccessCodeEventDeleted, accessCode)
	return nil
}

// 6 GetAccessCodeByID 根据ID获取门禁码
func (s *AccessCodeService) GetAccessCodeByID(id uint) (*models.AccessCode, error) {
	var accessCode models.AccessCode
	if err := s.DB.First(&accessCode, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("门禁码不存在")
		}
		return nil, err
	}
	return &accessCode, nil
}

// 7 GetAccessCodesByProperty 分页获取房源的门禁码
func (s *AccessCodeService) GetAccessCodesByProperty(propertyID uint, query *models.PaginationQuery) ([]models.AccessCode, models.PaginationResult, error) {
	pageNum, pageSize := 1, 20
	order := "created_at ASC"
	if query != nil {
		if query.PageNum > 0 {
			pageNum = query.PageNum
		}
		if query.PageSize > 0 && query.PageSize <= 100 {
			pageSize = query.PageSize
		}
		if query.Desc {
			order = "created_at DESC"
		}
	}

	var total int64
	base := s.DB.Model(&models.AccessCode{}).Where("property_id = ?", propertyID)
	if err := base.Count(&total).Error; err != nil {
		return nil, models.PaginationResult{}, err
	}

	var codes []models.AccessCode
	err := s.DB.Where("property_id = ?", propertyID).
		Order(order).
		Limit(pageSize).
		Offset((pageNum - 1) * pageSize).
		Find(&codes).Error
	if err != nil {
		return nil, models.PaginationResult{}, err
	}
	return codes, models.NewPaginationResult(int(total), pageNum, pageSize), nil
}

// 8 GetAccessCodesByDevice 获取设备的所有门禁码
func (s *AccessCodeService) GetAccessCodesByDevice(deviceID uint) ([]models.AccessCode, error) {
	var codes []models.AccessCode
	if err := s.DB.Where("device_id = ?", deviceID).Order("created_at DESC").Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

// 9 ExistsForReservation 判断预订是否已经生成过门禁码（扫描任务的幂等检查点）
func (s *AccessCodeService) ExistsForReservation(reservationID uint) (bool, error) {
	var count int64
	err := s.DB.Model(&models.AccessCode{}).
		Where("reservation_id = ?", reservationID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// resolvePropertyTimezone 解析房源时区，未配置或无效时回退默认时区
func (s *AccessCodeService) resolvePropertyTimezone(propertyID uint) (*time.Location, error) {
	var property models.Property
	if err := s.DB.First(&property, propertyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("房源不存在")
		}
		return nil, err
	}

	tzName := ""
	if property.TimeZoneName != nil {
		tzName = *property.TimeZoneName
	}
	return utils.LoadLocationOrDefault(tzName, s.Config.DefaultTimeZone), nil
}

// recomputeWindow 按房源时区和策略补算缺失的有效期
func (s *AccessCodeService) recomputeWindow(accessCode *models.AccessCode) error {
	policy, err := s.PolicyService.GetOrCreatePolicy(accessCode.PropertyID)
	if err != nil {
		return err
	}
	loc, err := s.resolvePropertyTimezone(accessCode.PropertyID)
	if err != nil {
		return err
	}

	var property models.Property
	if err := s.DB.First(&property, accessCode.PropertyID).Error; err != nil {
		return err
	}
	checkInHour := 0
	if property.CheckInTimeStart != nil {
		checkInHour = *property.CheckInTimeStart
	}
	checkOutHour := 23
	if property.CheckOutTime != nil {
		checkOutHour = *property.CheckOutTime
	}

	scheduledAt := utils.LocalInstant(*accessCode.CheckInDate, checkInHour, loc).
		Add(-time.Duration(policy.HoursBeforeCheckin) * time.Hour)
	accessCode.ScheduledAt = &scheduledAt
	if accessCode.ExpiresAt == nil && accessCode.CheckOutDate != nil {
		expiresAt := utils.LocalInstant(*accessCode.CheckOutDate, checkOutHour, loc).
			Add(time.Duration(policy.HoursAfterCheckout) * time.Hour)
		accessCode.ExpiresAt = &expiresAt
	}

	return s.DB.Model(accessCode).Updates(map[string]interface{}{
		"scheduled_at": accessCode.ScheduledAt,
		"expires_at":   accessCode.ExpiresAt,
	}).Error
}

// markFailed 把下发失败写回行内并返回原始错误
func (s *AccessCodeService) markFailed(accessCode *models.AccessCode, cause error) error {
	updates := map[string]interface{}{
		"status":        models.AccessCodeStatusFailed,
		"error_message": cause.Error(),
	}
	if err := s.DB.Model(accessCode).Updates(updates).Error; err != nil {
		config.Error("更新门禁码 %d 失败状态出错: %v", accessCode.ID, err)
	}
	accessCode.Status = models.AccessCodeStatusFailed
	accessCode.ErrorMessage = cause.Error()

	s.publishEvent(AccessCodeEventFailed, accessCode)
	return cause
}

// revokeOnVendor 尽力撤销厂商侧已生效的门禁码
func (s *AccessCodeService) revokeOnVendor(accessCode *models.AccessCode) error {
	adapter, err := s.Providers.Get(accessCode.Provider)
	if err != nil {
		return err
	}
	device, err := s.DeviceService.GetDeviceByID(accessCode.DeviceID)
	if err != nil {
		return err
	}
	return adapter.DeleteAccessCode(device.ExternalDeviceID, accessCode.ExternalCodeID)
}

// publishEvent 推送生命周期事件，事件服务未配置时直接跳过
func (s *AccessCodeService) publishEvent(eventType string, accessCode *models.AccessCode) {
	if s.Events != nil {
		s.Events.PublishAccessCodeEvent(eventType, accessCode)
	}
}

// buildCodeName 生成门禁码显示名称，客人姓名或退房日期缺失时优雅降级
func buildCodeName(guestName string, checkIn time.Time, checkOut *time.Time) string {
	name := guestName
	if name == "" {
		name = "Guest"
	}
	if checkOut != nil {
		return fmt.Sprintf("%s %s - %s", name, utils.FormatShortDate(checkIn), utils.FormatShortDate(*checkOut))
	}
	return fmt.Sprintf("%s from %s", name, utils.FormatShortDate(checkIn))
}
