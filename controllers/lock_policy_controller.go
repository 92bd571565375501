package controllers

import (
	"strconv"

	"github.com/dnovakovic099/secure-stay-server-sub000/internal/error/code"
	"github.com/dnovakovic099/secure-stay-server-sub000/internal/error/response"
	"github.com/dnovakovic099/secure-stay-server-sub000/services"
	"github.com/dnovakovic099/secure-stay-server-sub000/services/container"

	"github.com/gin-gonic/gin"
)

// InterfaceLockPolicyController 定义策略控制器接口
type InterfaceLockPolicyController interface {
	GetPolicy()
	UpdatePolicy()
}

// LockPolicyController 处理房源门禁码策略相关的请求
type LockPolicyController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewLockPolicyController 创建一个新的策略控制器
func NewLockPolicyController(ctx *gin.Context, container *container.ServiceContainer) *LockPolicyController {
	return &LockPolicyController{
		Ctx:       ctx,
		Container: container,
	}
}

// LockPolicyRequest 策略更新请求
type LockPolicyRequest struct {
	AutoGenerateCodes  *bool   `json:"auto_generate_codes" example:"true"`
	CodeGenerationMode *string `json:"code_generation_mode" example:"phone"` // phone, random, default
	DefaultAccessCode  *string `json:"default_access_code" example:"1234"`
	HoursBeforeCheckin *int    `json:"hours_before_checkin" example:"3"`
	HoursAfterCheckout *int    `json:"hours_after_checkout" example:"3"`
}

// HandleLockPolicyFunc 返回一个处理策略请求的Gin处理函数
func HandleLockPolicyFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewLockPolicyController(ctx, container)

		switch method {
		case "getPolicy":
			controller.GetPolicy()
		case "updatePolicy":
			controller.UpdatePolicy()
		default:
			response.ParamError(ctx, "无效的方法")
		}
	}
}

// 1. GetPolicy 获取房源门禁码策略
// @Summary 获取房源策略
// @Description 获取房源的门禁码策略，不存在时按默认值创建
// @Tags lock_policy
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "房源ID"
// @Success 200 {object} models.LockPolicy
// @Failure 500 {object} ErrorResponse
// @Router /properties/{id}/lock_policy [get]
func (c *LockPolicyController) GetPolicy() {
	idStr := c.Ctx.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的房源ID")
		return
	}

	policyService := c.Container.GetService("lock_policy").(services.InterfaceLockPolicyService)
	policy, err := policyService.GetOrCreatePolicy(uint(id))
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取策略失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, policy)
}

// 2. UpdatePolicy 更新房源门禁码策略
// @Summary 更新房源策略
// @Description 管理端显式更新房源的门禁码策略
// @Tags lock_policy
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "房源ID"
// @Param request body LockPolicyRequest true "策略更新参数"
// @Success 200 {object} models.LockPolicy
// @Failure 400 {object} ErrorResponse
// @Router /properties/{id}/lock_policy [put]
func (c *LockPolicyController) UpdatePolicy() {
	idStr := c.Ctx.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的房源ID")
		return
	}

	var req LockPolicyRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "Invalid request parameters")
		return
	}

	updates := map[string]interface{}{}
	if req.AutoGenerateCodes != nil {
		updates["auto_generate_codes"] = *req.AutoGenerateCodes
	}
	if req.CodeGenerationMode != nil {
		updates["code_generation_mode"] = *req.CodeGenerationMode
	}
	if req.DefaultAccessCode != nil {
		updates["default_access_code"] = *req.DefaultAccessCode
	}
	if req.HoursBeforeCheckin != nil {
		updates["hours_before_checkin"] = *req.HoursBeforeCheckin
	}
	if req.HoursAfterCheckout != nil {
		updates["hours_after_checkout"] = *req.HoursAfterCheckout
	}

	policyService := c.Container.GetService("lock_policy").(services.InterfaceLockPolicyService)
	policy, err := policyService.UpdatePolicy(uint(id), updates)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrPolicyNotFound, "更新策略失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, policy)
}
