package code

// 错误码消息映射
var codeMessageMap = map[int]string{
	// 通用错误码
	ErrSuccess:          "成功",
	ErrUnknown:          "未知错误",
	ErrBind:             "请求参数绑定错误",
	ErrValidation:       "请求参数验证错误",
	ErrTokenInvalid:     "无效的认证令牌",
	ErrTooManyRequests:  "请求频率过高",
	ErrPermissionDenied: "权限不足",

	// 用户相关错误码
	ErrUserNotFound:          "用户不存在",
	ErrUserAlreadyExist:      "用户已存在",
	ErrUserPasswordIncorrect: "用户密码错误",

	// 设备相关错误码
	ErrDeviceNotFound:     "设备不存在",
	ErrDeviceAlreadyExist: "设备已存在",
	ErrDeviceOffline:      "设备当前离线",
	ErrDeviceNotMapped:    "设备未绑定房源",

	// 门禁码相关错误码
	ErrAccessCodeNotFound:       "门禁码不存在",
	ErrAccessCodeAlreadyExist:   "门禁码已存在",
	ErrAccessCodeDispatchFailed: "门禁码下发失败",

	// 锁服务商相关错误码
	ErrProviderNotFound:      "不支持的锁服务商",
	ErrProviderNotConfigured: "锁服务商凭证未配置",
	ErrProviderRequestFailed: "锁服务商接口调用失败",

	// 策略/预订相关错误码
	ErrPolicyNotFound:      "门禁码策略不存在",
	ErrPropertyNotFound:    "房源不存在",
	ErrReservationNotFound: "预订记录不存在",

	// 数据库相关错误码
	ErrDatabase:       "数据库错误",
	ErrRecordNotFound: "记录不存在",
}

// 错误码HTTP状态码映射
var codeStatusMap = map[int]int{
	// 通用错误码
	ErrSuccess:          StatusOK,
	ErrUnknown:          StatusInternalServerError,
	ErrBind:             StatusBadRequest,
	ErrValidation:       StatusBadRequest,
	ErrTokenInvalid:     StatusUnauthorized,
	ErrTooManyRequests:  StatusTooManyRequests,
	ErrPermissionDenied: StatusForbidden,

	// 用户相关错误码
	ErrUserNotFound:          StatusNotFound,
	ErrUserAlreadyExist:      StatusBadRequest,
	ErrUserPasswordIncorrect: StatusUnauthorized,

	// 设备相关错误码
	ErrDeviceNotFound:     StatusNotFound,
	ErrDeviceAlreadyExist: StatusBadRequest,
	ErrDeviceOffline:      StatusBadRequest,
	ErrDeviceNotMapped:    StatusBadRequest,

	// 门禁码相关错误码
	ErrAccessCodeNotFound:       StatusNotFound,
	ErrAccessCodeAlreadyExist:   StatusBadRequest,
	ErrAccessCodeDispatchFailed: StatusInternalServerError,

	// 锁服务商相关错误码
	ErrProviderNotFound:      StatusNotFound,
	ErrProviderNotConfigured: StatusInternalServerError,
	ErrProviderRequestFailed: StatusInternalServerError,

	// 策略/预订相关错误码
	ErrPolicyNotFound:      StatusNotFound,
	ErrPropertyNotFound:    StatusNotFound,
	ErrReservationNotFound: StatusNotFound,

	// 数据库相关错误码
	ErrDatabase:       StatusInternalServerError,
	ErrRecordNotFound: StatusNotFound,
}

// GetMessage 获取错误码对应的消息
func GetMessage(code int) string {
	if msg, ok := codeMessageMap[code]; ok {
		return msg
	}
	return "未知错误"
}

// GetStatus 获取错误码对应的HTTP状态码
func GetStatus(code int) int {
	if status, ok := codeStatusMap[code]; ok {
		return status
	}
	return StatusInternalServerError
}
