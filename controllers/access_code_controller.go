package controllers

import (
	"strconv"

	"github.com/dnovakovic099/secure-stay-server-sub000/internal/error/code"
	"github.com/dnovakovic099/secure-stay-server-sub000/internal/error/response"
	"github.com/dnovakovic099/secure-stay-server-sub000/models"
	"github.com/dnovakovic099/secure-stay-server-sub000/services"
	"github.com/dnovakovic099/secure-stay-server-sub000/services/container"

	"github.com/gin-gonic/gin"
)

// InterfaceAccessCodeController 定义门禁码控制器接口
type InterfaceAccessCodeController interface {
	GetAccessCodesByProperty()
	GetAccessCodesByDevice()
	CreateManualAccessCode()
	DeleteAccessCode()
	TriggerScan()
	TriggerActivation()
}

// AccessCodeController 处理门禁码相关的请求
type AccessCodeController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewAccessCodeController 创建一个新的门禁码控制器
func NewAccessCodeController(ctx *gin.Context, container *container.ServiceContainer) *AccessCodeController {
	return &AccessCodeController{
		Ctx:       ctx,
		Container: container,
	}
}

// ManualAccessCodeRequest 手动创建门禁码请求
type ManualAccessCodeRequest struct {
	DeviceID       uint   `json:"device_id" binding:"required" example:"1"`
	Code           string `json:"code" binding:"required" example:"4521"`
	CodeName       string `json:"code_name" binding:"required" example:"维修人员临时码"`
	GuestName      string `json:"guest_name" example:"张师傅"`
	GuestPhone     string `json:"guest_phone" example:"+1 555 867 5309"`
	ReservationID  *uint  `json:"reservation_id" example:"10"`
	SetImmediately bool   `json:"set_immediately" example:"true"`
}

// HandleAccessCodeFunc 返回一个处理门禁码请求的Gin处理函数
func HandleAccessCodeFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewAccessCodeController(ctx, container)

		switch method {
		case "getByProperty":
			controller.GetAccessCodesByProperty()
		case "getByDevice":
			controller.GetAccessCodesByDevice()
		case "createManual":
			controller.CreateManualAccessCode()
		case "delete":
			controller.DeleteAccessCode()
		case "triggerScan":
			controller.TriggerScan()
		case "triggerActivation":
			controller.TriggerActivation()
		default:
			response.ParamError(ctx, "无效的方法")
		}
	}
}

// 1. GetAccessCodesByProperty 分页获取房源的门禁码
// @Summary 获取房源门禁码
// @Description 分页获取指定房源下的门禁码记录
// @Tags access_code
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "房源ID"
// @Param pageNum query int false "页码，默认1"
// @Param pageSize query int false "每页条数，默认20，上限100"
// @Param desc query bool false "按创建时间倒序"
// @Success 200 {array} models.AccessCode
// @Failure 500 {object} ErrorResponse
// @Router /properties/{id}/access_codes [get]
func (c *AccessCodeController) GetAccessCodesByProperty() {
	idStr := c.Ctx.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的房源ID")
		return
	}

	var query models.PaginationQuery
	if err := c.Ctx.ShouldBindQuery(&query); err != nil {
		response.ParamError(c.Ctx, "无效的分页参数")
		return
	}

	accessCodeService := c.Container.GetService("access_code").(services.InterfaceAccessCodeService)
	codes, pagination, err := accessCodeService.GetAccessCodesByProperty(uint(id), &query)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取门禁码失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"access_codes": codes,
		"pagination":   pagination,
	})
}

// 2. GetAccessCodesByDevice 获取设备的所有门禁码
// @Summary 获取设备门禁码
// @Description 获取指定设备下的所有门禁码记录
// @Tags access_code
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "设备ID"
// @Success 200 {array} models.AccessCode
// @Failure 500 {object} ErrorResponse
// @Router /devices/{id}/access_codes [get]
func (c *AccessCodeController) GetAccessCodesByDevice() {
	idStr := c.Ctx.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的设备ID")
		return
	}

	accessCodeService := c.Container.GetService("access_code").(services.InterfaceAccessCodeService)
	codes, err := accessCodeService.GetAccessCodesByDevice(uint(id))
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取门禁码失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, codes)
}

// 3. CreateManualAccessCode 手动创建门禁码
// @Summary 手动创建门禁码
// @Description 在指定设备上手动创建门禁码，可选择立即下发
// @Tags access_code
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ManualAccessCodeRequest true "创建请求参数"
// @Success 200 {object} models.AccessCode
// @Failure 400 {object} ErrorResponse
// @Router /access_codes [post]
func (c *AccessCodeController) CreateManualAccessCode() {
	var req ManualAccessCodeRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "Invalid request parameters")
		return
	}

	accessCodeService := c.Container.GetService("access_code").(services.InterfaceAccessCodeService)
	accessCode, err := accessCodeService.CreateManualAccessCode(services.ManualAccessCodeInput{
		DeviceID:       req.DeviceID,
		Code:           req.Code,
		CodeName:       req.CodeName,
		GuestName:      req.GuestName,
		GuestPhone:     req.GuestPhone,
		ReservationID:  req.ReservationID,
		SetImmediately: req.SetImmediately,
	})
	if err != nil {
		// 最常见的失败是设备ID不存在
		response.FailWithMessage(c.Ctx, code.ErrDeviceNotFound, "创建门禁码失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, accessCode)
}

// 4. DeleteAccessCode 删除门禁码
// @Summary 删除门禁码
// @Description 删除门禁码，已生效的先尽力撤销厂商侧密码
// @Tags access_code
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "门禁码ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /access_codes/{id} [delete]
func (c *AccessCodeController) DeleteAccessCode() {
	idStr := c.Ctx.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的门禁码ID")
		return
	}

	accessCodeService := c.Container.GetService("access_code").(services.InterfaceAccessCodeService)
	if err := accessCodeService.DeleteAccessCode(uint(id)); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrAccessCodeNotFound, "删除门禁码失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, nil)
}

// 5. TriggerScan 手动触发自动门禁码扫描任务
// @Summary 触发扫描任务
// @Description 立即执行一次自动门禁码扫描（与定时任务相同逻辑）
// @Tags access_code
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.ScanResult
// @Failure 500 {object} ErrorResponse
// @Router /access_codes/jobs/scan [post]
func (c *AccessCodeController) TriggerScan() {
	schedulerService := c.Container.GetService("scheduler").(services.InterfaceSchedulerService)

	result, err := schedulerService.ProcessAutomatedAccessCodes()
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrUnknown, "扫描任务执行失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, result)
}

// 6. TriggerActivation 手动触发门禁码激活任务
// @Summary 触发激活任务
// @Description 立即执行一次门禁码下发（与定时任务相同逻辑）
// @Tags access_code
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.ActivationResult
// @Failure 500 {object} ErrorResponse
// @Router /access_codes/jobs/activate [post]
func (c *AccessCodeController) TriggerActivation() {
	schedulerService := c.Container.GetService("scheduler").(services.InterfaceSchedulerService)

	result, err := schedulerService.ProcessScheduledCodes()
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrUnknown, "激活任务执行失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, result)
}
