package services

import (
	"fmt"
	"time"

	"github.com/dnovakovic099/secure-stay-server-sub000/config"
	"github.com/dnovakovic099/secure-stay-server-sub000/models"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// 定时任务名称
const (
	JobNameAccessCodeScan       = "access_code_scan"
	JobNameAccessCodeActivation = "access_code_activation"
)

// ScanResult 自动扫描任务的聚合结果
type ScanResult struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// ActivationResult 激活任务的聚合结果
type ActivationResult struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// InterfaceSchedulerService defines the scheduler service interface
type InterfaceSchedulerService interface {
	ProcessAutomatedAccessCodes() (*ScanResult, error)
	ProcessScheduledCodes() (*ActivationResult, error)
	StartCron() error
	StopCron()
}

// SchedulerService 承载两个批处理任务：
// 扫描任务找到启用自动生成的房源上即将到来的预订并编排门禁码；
// 激活任务把待下发的门禁码推送到厂商设备。
type SchedulerService struct {
	DB                *gorm.DB
	Config            *config.Config
	DeviceService     InterfaceDeviceService
	PolicyService     InterfaceLockPolicyService
	AccessCodeService InterfaceAccessCodeService

	cron *cron.Cron
}

// NewSchedulerService 创建一个新的调度服务
func NewSchedulerService(
	db *gorm.DB,
	cfg *config.Config,
	deviceService InterfaceDeviceService,
	policyService InterfaceLockPolicyService,
	accessCodeService InterfaceAccessCodeService,
) InterfaceSchedulerService {
	return &SchedulerService{
		DB:                db,
		Config:            cfg,
		DeviceService:     deviceService,
		PolicyService:     policyService,
		AccessCodeService: accessCodeService,
	}
}

// 1 ProcessAutomatedAccessCodes 扫描未来若干天内到达的预订并生成门禁码。
// 单个预订出错只计入failed，批处理从不因单项失败而中止。
func (s *SchedulerService) ProcessAutomatedAccessCodes() (*ScanResult, error) {
	startedAt := time.Now()
	result := &ScanResult{}

	// (1) 找到至少绑定一台启用设备的房源
	propertyIDs, err := s.DeviceService.GetMappedPropertyIDs()
	if err != nil {
		return nil, fmt.Errorf("查询已绑定设备的房源失败: %w", err)
	}
	if len(propertyIDs) == 0 {
		s.recordJobRun(JobNameAccessCodeScan, result.Processed, result.Skipped, result.Failed, startedAt)
		return result, nil
	}

	// (2) 只保留启用了自动生成的房源
	policies, err := s.PolicyService.GetPoliciesByProperties(propertyIDs)
	if err != nil {
		return nil, fmt.Errorf("查询门禁码策略失败: %w", err)
	}
	enabledIDs := make([]uint, 0, len(policies))
	for _, policy := range policies {
		if policy.AutoGenerateCodes {
			enabledIDs = append(enabledIDs, policy.PropertyID)
		}
	}
	if len(enabledIDs) == 0 {
		s.recordJobRun(JobNameAccessCodeScan, result.Processed, result.Skipped, result.Failed, startedAt)
		return result, nil
	}

	// (3) 查询到达日期在[今天, 今天+lookahead]内的有效预订
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	windowEnd := today.AddDate(0, 0, s.Config.ReservationLookahead+1)

	var reservations []models.Reservation
	err = s.DB.Where("property_id IN ?", enabledIDs).
		Where("arrival_date >= ? AND arrival_date < ?", today, windowEnd).
		Where("status IN ?", models.ActiveReservationStatuses).
		Preload("Property").
		Find(&reservations).Error
	if err != nil {
		return nil, fmt.Errorf("查询预订失败: %w", err)
	}

	for _, reservation := range reservations {
		// (4) 幂等检查点：已处理过的预订直接跳过，不再展开到设备
		exists, err := s.AccessCodeService.ExistsForReservation(reservation.ID)
		if err != nil {
			config.Error("检查预订 %d 的门禁码记录失败: %v", reservation.ID, err)
			result.Failed++
			continue
		}
		if exists {
			result.Skipped++
			continue
		}

		// (5) 从房源解析入住/退房当地小时，缺省0点/23点
		var checkInHour, checkOutHour *int
		if reservation.Property != nil {
			checkInHour = reservation.Property.CheckInTimeStart
			checkOutHour = reservation.Property.CheckOutTime
		}

		// (6) 委托编排服务，单个预订失败记录日志后继续
		_, err = s.AccessCodeService.CreateAccessCodesForReservation(CreateAccessCodesInput{
			ReservationID: reservation.ID,
			PropertyID:    reservation.PropertyID,
			GuestName:     reservation.GuestName,
			GuestPhone:    reservation.Phone,
			CheckInDate:   reservation.ArrivalDate,
			CheckOutDate:  reservation.DepartureDate,
			CheckInHour:   checkInHour,
			CheckOutHour:  checkOutHour,
			Source:        models.AccessCodeSourceAutomatic,
		})
		if err != nil {
			config.Error("为预订 %d 编排门禁码失败: %v", reservation.ID, err)
			result.Failed++
			continue
		}
		result.Processed++
	}

	s.recordJobRun(JobNameAccessCodeScan, result.Processed, result.Skipped, result.Failed, startedAt)
	config.Info("自动门禁码扫描完成: processed=%d, skipped=%d, failed=%d",
		result.Processed, result.Skipped, result.Failed)
	return result, nil
}

// 2 ProcessScheduledCodes 把待下发的门禁码逐条推送到厂商设备。
// pending（手动创建未立即下发）与scheduled一并拾起；
// failed不是终态，之前下发失败的记录也会被重新拾起重试；
// 单条厂商失败写入该行后继续处理下一条。
func (s *SchedulerService) ProcessScheduledCodes() (*ActivationResult, error) {
	startedAt := time.Now()
	result := &ActivationResult{}

	var codes []models.AccessCode
	err := s.DB.Where("status IN ?", []models.AccessCodeStatus{
		models.AccessCodeStatusScheduled,
		models.AccessCodeStatusPending,
		models.AccessCodeStatusFailed,
	}).Find(&codes).Error
	if err != nil {
		return nil, fmt.Errorf("查询待下发门禁码失败: %w", err)
	}

	for i := range codes {
		if err := s.AccessCodeService.ActivateAccessCode(&codes[i]); err != nil {
			config.Error("门禁码 %d 下发失败: %v", codes[i].ID, err)
			result.Failed++
			continue
		}
		result.Processed++
	}

	s.recordJobRun(JobNameAccessCodeActivation, result.Processed, 0, result.Failed, startedAt)
	config.Info("门禁码激活任务完成: processed=%d, failed=%d", result.Processed, result.Failed)
	return result, nil
}

// 3 StartCron 在进程内启动定时任务
func (s *SchedulerService) StartCron() error {
	if s.cron != nil {
		return nil
	}
	c := cron.New()

	if _, err := c.AddFunc(s.Config.AccessCodeCronSpec, func() {
		if _, err := s.ProcessAutomatedAccessCodes(); err != nil {
			config.Error("自动门禁码扫描任务执行失败: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("注册扫描任务失败: %w", err)
	}

	if _, err := c.AddFunc(s.Config.ActivationCronSpec, func() {
		if _, err := s.ProcessScheduledCodes(); err != nil {
			config.Error("门禁码激活任务执行失败: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("注册激活任务失败: %w", err)
	}

	c.Start()
	s.cron = c
	config.Info("定时任务已启动: scan=%q, activation=%q",
		s.Config.AccessCodeCronSpec, s.Config.ActivationCronSpec)
	return nil
}

// 4 StopCron 停止定时任务
func (s *SchedulerService) StopCron() {
	if s.cron != nil {
		s.cron.Stop()
		s.cron = nil
	}
}

// recordJobRun 把任务执行结果落库，便于运维查询历史
func (s *SchedulerService) recordJobRun(jobName string, processed, skipped, failed int, startedAt time.Time) {
	logEntry := models.JobRunLog{
		JobName:    jobName,
		Processed:  processed,
		Skipped:    skipped,
		Failed:     failed,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
	}
	if err := s.DB.Create(&logEntry).Error; err != nil {
		config.Warning("记录任务执行日志失败: %v", err)
	}
}
