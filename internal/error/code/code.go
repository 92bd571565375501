package code

// HTTP状态码.
const (
	// StatusOK - 200: 成功.
	StatusOK = 200
	// StatusBadRequest - 400: 请求参数错误.
	StatusBadRequest = 400
	// StatusUnauthorized - 401: 未授权.
	StatusUnauthorized = 401
	// StatusForbidden - 403: 禁止访问.
	StatusForbidden = 403
	// StatusNotFound - 404: 资源不存在.
	StatusNotFound = 404
	// StatusInternalServerError - 500: 服务器内部错误.
	StatusInternalServerError = 500
	// StatusTooManyRequests - 429: 请求过多.
	StatusTooManyRequests = 429
)

// 通用错误码 (100xxx).
const (
	// ErrSuccess - 200: 成功.
	ErrSuccess int = iota + 100000
	// ErrUnknown - 500: 未知错误.
	ErrUnknown
	// ErrBind - 400: 请求参数绑定错误.
	ErrBind
	// ErrValidation - 400: 请求参数验证错误.
	ErrValidation
	// ErrTokenInvalid - 401: 令牌无效.
	ErrTokenInvalid
	// ErrTooManyRequests - 429: 请求频率过高.
	ErrTooManyRequests
	// ErrPermissionDenied - 403: 权限不足.
	ErrPermissionDenied
)

// 用户相关错误码 (101xxx).
const (
	// ErrUserNotFound - 404: 用户不存在.
	ErrUserNotFound int = iota + 101000
	// ErrUserAlreadyExist - 400: 用户已存在.
	ErrUserAlreadyExist
	// ErrUserPasswordIncorrect - 401: 用户密码错误.
	ErrUserPasswordIncorrect
)

// 设备相关错误码 (102xxx).
const (
	// ErrDeviceNotFound - 404: 设备不存在.
	ErrDeviceNotFound int = iota + 102000
	// ErrDeviceAlreadyExist - 400: 设备已存在.
	ErrDeviceAlreadyExist
	// ErrDeviceOffline - 400: 设备离线.
	ErrDeviceOffline
	// ErrDeviceNotMapped - 400: 设备未绑定房源.
	ErrDeviceNotMapped
)

// 门禁码相关错误码 (103xxx).
const (
	// ErrAccessCodeNotFound - 404: 门禁码不存在.
	ErrAccessCodeNotFound int = iota + 103000
	// ErrAccessCodeAlreadyExist - 400: 门禁码已存在.
	ErrAccessCodeAlreadyExist
	// ErrAccessCodeDispatchFailed - 500: 门禁码下发失败.
	ErrAccessCodeDispatchFailed
)

// 锁服务商相关错误码 (104xxx).
const (
	// ErrProviderNotFound - 404: 不支持的锁服务商.
	ErrProviderNotFound int = iota + 104000
	// ErrProviderNotConfigured - 500: 锁服务商凭证未配置.
	ErrProviderNotConfigured
	// ErrProviderRequestFailed - 500: 锁服务商接口调用失败.
	ErrProviderRequestFailed
)

// 策略/预订相关错误码 (105xxx).
const (
	// ErrPolicyNotFound - 404: 门禁码策略不存在.
	ErrPolicyNotFound int = iota + 105000
	// ErrPropertyNotFound - 404: 房源不存在.
	ErrPropertyNotFound
	// ErrReservationNotFound - 404: 预订记录不存在.
	ErrReservationNotFound
)

// 数据库相关错误码 (106xxx).
const (
	// ErrDatabase - 500: 数据库错误.
	ErrDatabase int = iota + 106000
	// ErrRecordNotFound - 404: 记录不存在.
	ErrRecordNotFound
)
