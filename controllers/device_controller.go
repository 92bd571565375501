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

// InterfaceDeviceController 定义设备控制器接口
type InterfaceDeviceController interface {
	GetDevices()
	GetDevice()
	SyncDevices()
	CreateDeviceMapping()
	CreateConnectionURL()
	GetConnectionStatus()
}

// DeviceController 处理锁设备相关的请求
type DeviceController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewDeviceController 创建一个新的设备控制器
func NewDeviceController(ctx *gin.Context, container *container.ServiceContainer) *DeviceController {
	return &DeviceController{
		Ctx:       ctx,
		Container: container,
	}
}

// SyncDevicesRequest 设备同步请求
type SyncDevicesRequest struct {
	Provider  string `json:"provider" binding:"required" example:"seam"` // seam, ttlock
	AccountID string `json:"account_id" example:"acct_123"`
}

// DeviceMappingRequest 设备绑定请求
type DeviceMappingRequest struct {
	PropertyID uint   `json:"property_id" binding:"required" example:"1"`
	DeviceID   uint   `json:"device_id" binding:"required" example:"1"`
	IsActive   *bool  `json:"is_active" example:"true"`
	Location   string `json:"location" example:"前门"`
}

// ConnectionURLRequest 授权链接请求
type ConnectionURLRequest struct {
	Provider    string `json:"provider" binding:"required" example:"seam"`
	RedirectURL string `json:"redirect_url" example:"https://app.example.com/locks/connected"`
}

// HandleDeviceFunc 返回一个处理设备请求的Gin处理函数
func HandleDeviceFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewDeviceController(ctx, container)

		switch method {
		case "getDevices":
			controller.GetDevices()
		case "getDevice":
			controller.GetDevice()
		case "syncDevices":
			controller.SyncDevices()
		case "createDeviceMapping":
			controller.CreateDeviceMapping()
		case "createConnectionURL":
			controller.CreateConnectionURL()
		case "getConnectionStatus":
			controller.GetConnectionStatus()
		default:
			response.ParamError(ctx, "无效的方法")
		}
	}
}

// 1. GetDevices 获取所有锁设备列表
// @Summary 获取所有锁设备
// @Description 获取已同步的所有厂商锁设备
// @Tags device
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.LockDevice
// @Failure 500 {object} ErrorResponse
// @Router /devices [get]
func (c *DeviceController) GetDevices() {
	deviceService := c.Container.GetService("device").(services.InterfaceDeviceService)

	devices, err := deviceService.GetAllDevices()
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取设备列表失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, devices)
}

// 2. GetDevice 获取单个设备详情
// @Summary 获取单个锁设备
// @Description 根据ID获取锁设备信息
// @Tags device
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "设备ID"
// @Success 200 {object} models.LockDevice
// @Failure 404 {object} ErrorResponse
// @Router /devices/{id} [get]
func (c *DeviceController) GetDevice() {
	idStr := c.Ctx.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的设备ID")
		return
	}

	deviceService := c.Container.GetService("device").(services.InterfaceDeviceService)
	device, err := deviceService.GetDeviceByID(uint(id))
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDeviceNotFound, err.Error(), nil)
		return
	}

	response.Success(c.Ctx, device)
}

// 3. SyncDevices 从厂商同步设备列表
// @Summary 同步厂商设备
// @Description 从指定锁服务商拉取设备列表并更新本地记录
// @Tags device
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SyncDevicesRequest true "同步请求参数"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} ErrorResponse
// @Router /devices/sync [post]
func (c *DeviceController) SyncDevices() {
	var req SyncDevicesRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "Invalid request parameters")
		return
	}

	deviceService := c.Container.GetService("device").(services.InterfaceDeviceService)
	synced, err := deviceService.SyncDevices(models.LockProviderName(req.Provider), req.AccountID)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrProviderRequestFailed, "同步设备失败: "+err.Error(), gin.H{"synced": synced})
		return
	}

	response.Success(c.Ctx, gin.H{"synced": synced})
}

// 4. CreateDeviceMapping 绑定设备到房源
// @Summary 绑定设备到房源
// @Description 创建房源与锁设备的绑定关系
// @Tags device
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body DeviceMappingRequest true "绑定请求参数"
// @Success 200 {object} models.DeviceMapping
// @Failure 400 {object} ErrorResponse
// @Router /devices/mappings [post]
func (c *DeviceController) CreateDeviceMapping() {
	var req DeviceMappingRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "Invalid request parameters")
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	mapping := &models.DeviceMapping{
		PropertyID: req.PropertyID,
		DeviceID:   req.DeviceID,
		IsActive:   isActive,
		Location:   req.Location,
	}

	deviceService := c.Container.GetService("device").(services.InterfaceDeviceService)
	if err := deviceService.CreateDeviceMapping(mapping); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDeviceNotFound, "绑定设备失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, mapping)
}

// 5. CreateConnectionURL 创建厂商账户授权链接
// @Summary 创建厂商授权链接
// @Description 为支持网页授权的厂商创建connect webview链接
// @Tags device
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ConnectionURLRequest true "授权链接请求参数"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} ErrorResponse
// @Router /connect/webview [post]
func (c *DeviceController) CreateConnectionURL() {
	var req ConnectionURLRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "Invalid request parameters")
		return
	}

	deviceService := c.Container.GetService("device").(services.InterfaceDeviceService)
	url, err := deviceService.CreateConnectionURL(models.LockProviderName(req.Provider), req.RedirectURL)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrProviderRequestFailed, "创建授权链接失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{"url": url})
}

// 6. GetConnectionStatus 查询厂商账户连接状态
// @Summary 查询厂商连接状态
// @Description 查询指定厂商账户的连接状态
// @Tags device
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param provider query string true "厂商名称"
// @Param account_id query string false "账户ID"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} ErrorResponse
// @Router /connect/status [get]
func (c *DeviceController) GetConnectionStatus() {
	provider := c.Ctx.Query("provider")
	accountID := c.Ctx.Query("account_id")

	deviceService := c.Container.GetService("device").(services.InterfaceDeviceService)
	status, err := deviceService.GetConnectionStatus(models.LockProviderName(provider), accountID)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrProviderRequestFailed, "查询连接状态失败: "+err.Error(), gin.H{"status": status})
		return
	}

	response.Success(c.Ctx, gin.H{"status": status})
}
