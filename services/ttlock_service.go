package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/dnovakovic099/secure-stay-server-sub000/config"
	"github.com/dnovakovic099/secure-stay-server-sub000/models"
	"github.com/dnovakovic099/secure-stay-server-sub000/utils"
)

// tokenExpiryBuffer 令牌过期安全缓冲，剩余有效期低于该值时提前刷新
const tokenExpiryBuffer = 5 * time.Minute

// TTLockService 是TTLock锁服务商的适配器。
// TTLock使用静态凭证登录（密码需要MD5），每个响应都可能携带业务错误码errcode，
// 必须逐个检查，不能依赖HTTP状态码。适配器自己维护access/refresh令牌的生命周期。
type TTLockService struct {
	Config *config.Config
	Client *http.Client

	// 令牌状态，mu保证并发调用时刷新单飞
	mu             sync.Mutex
	accessToken    string
	refreshToken   string
	tokenExpiresAt time.Time
}

// NewTTLockService 创建一个新的TTLock适配器
func NewTTLockService(cfg *config.Config) *TTLockService {
	return &TTLockService{
		Config: cfg,
		Client: &http.Client{
			Timeout: time.Duration(cfg.VendorRequestTimeoutMS) * time.Millisecond,
		},
	}
}

// ttlockError TTLock业务错误响应
type ttlockError struct {
	ErrCode     int    `json:"errcode"`
	ErrMsg      string `json:"errmsg"`
	Description string `json:"description"`
}

// ttlockTokenResponse 登录/刷新令牌响应
type ttlockTokenResponse struct {
	ttlockError
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UID          int64  `json:"uid"`
	ExpiresIn    int64  `json:"expires_in"`
}

// ttlockLock TTLock设备原始结构
type ttlockLock struct {
	LockID           int64  `json:"lockId"`
	LockName         string `json:"lockName"`
	LockAlias        string `json:"lockAlias"`
	LockMac          string `json:"lockMac"`
	ElectricQuantity int    `json:"electricQuantity"` // 电量为0~100整数百分比
	LockVersion      struct {
		ShowAdminKbpwdFlag bool `json:"showAdminKbpwdFlag"`
	} `json:"lockVersion"`
	HasGateway int `json:"hasGateway"`
}

// ttlockKeyboardPwd TTLock键盘密码原始结构
type ttlockKeyboardPwd struct {
	KeyboardPwdID   int64  `json:"keyboardPwdId"`
	KeyboardPwd     string `json:"keyboardPwd"`
	KeyboardPwdName string `json:"keyboardPwdName"`
	StartDate       int64  `json:"startDate"`
	EndDate         int64  `json:"endDate"`
	Status          int    `json:"status"`
}

// Name 返回厂商名称
func (s *TTLockService) Name() models.LockProviderName {
	return models.LockProviderTTLock
}

// checkCredentials 校验静态凭证是否已配置
func (s *TTLockService) checkCredentials() error {
	if s.Config.TTLockClientID == "" || s.Config.TTLockClientSecret == "" ||
		s.Config.TTLockUsername == "" || s.Config.TTLockPassword == "" {
		return fmt.Errorf("TTLock凭证未设置，请检查环境变量TTLOCK_CLIENT_ID/TTLOCK_CLIENT_SECRET/TTLOCK_USERNAME/TTLOCK_PASSWORD")
	}
	return nil
}

// postForm 发送表单请求并解析响应
func (s *TTLockService) postForm(path string, form url.Values, out interface{}) error {
	resp, err := s.Client.PostForm(s.Config.TTLockAPIURL+path, form)
	if err != nil {
		return fmt.Errorf("请求TTLock API失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取TTLock响应失败: %w", err)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("解析TTLock响应失败: %w", err)
	}
	return nil
}

// login 使用静态凭证登录，密码按TTLock要求先做MD5
func (s *TTLockService) login() error {
	form := url.Values{}
	form.Set("clientId", s.Config.TTLockClientID)
	form.Set("clientSecret", s.Config.TTLockClientSecret)
	form.Set("username", s.Config.TTLockUsername)
	form.Set("password", utils.MD5Hex(s.Config.TTLockPassword))
	form.Set("grant_type", "password")

	var result ttlockTokenResponse
	if err := s.postForm("/oauth2/token", form, &result); err != nil {
		return err
	}
	if result.ErrCode != 0 {
		return fmt.Errorf("TTLock登录失败: %s (errcode: %d)", result.ErrMsg, result.ErrCode)
	}
	if result.AccessToken == "" {
		return fmt.Errorf("TTLock登录响应缺少access_token")
	}

	s.accessToken = result.AccessToken
	s.refreshToken = result.RefreshToken
	s.tokenExpiresAt = time.Now().Add(time.Duration(result.ExpiresIn) * time.Second)
	return nil
}

// refresh 使用refresh_token刷新访问令牌
func (s *TTLockService) refresh() error {
	form := url.Values{}
	form.Set("clientId", s.Config.TTLockClientID)
	form.Set("clientSecret", s.Config.TTLockClientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", s.refreshToken)

	var result ttlockTokenResponse
	if err := s.postForm("/oauth2/token", form, &result); err != nil {
		return err
	}
	if result.ErrCode != 0 || result.AccessToken == "" {
		return fmt.Errorf("TTLock刷新令牌失败: %s (errcode: %d)", result.ErrMsg, result.ErrCode)
	}

	s.accessToken = result.AccessToken
	if result.RefreshToken != "" {
		s.refreshToken = result.RefreshToken
	}
	s.tokenExpiresAt = time.Now().Add(time.Duration(result.ExpiresIn) * time.Second)
	return nil
}

// ensureToken 确保访问令牌有效，刷新失败时回退到重新登录。
// 整个过程持有互斥锁，并发调用共享一个适配器实例时不会重复登录。
func (s *TTLockService) ensureToken() (string, error) {
	if err := s.checkCredentials(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken != "" && time.Now().Before(s.tokenExpiresAt.Add(-tokenExpiryBuffer)) {
		return s.accessToken, nil
	}

	if s.refreshToken != "" {
		if err := s.refresh(); err == nil {
			return s.accessToken, nil
		}
		// 刷新失败时清空旧令牌，回退到重新登录
		s.accessToken = ""
		s.refreshToken = ""
	}

	if err := s.login(); err != nil {
		return "", err
	}
	return s.accessToken, nil
}

// callAPI 调用TTLock业务接口，自动附加公共参数并检查业务错误码
func (s *TTLockService) callAPI(path string, params url.Values, out interface{}) error {
	token, err := s.ensureToken()
	if err != nil {
		return err
	}

	form := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			form.Add(k, v)
		}
	}
	form.Set("clientId", s.Config.TTLockClientID)
	form.Set("accessToken", token)
	form.Set("date", strconv.FormatInt(time.Now().UnixMilli(), 10))

	resp, err := s.Client.PostForm(s.Config.TTLockAPIURL+path, form)
	if err != nil {
		return fmt.Errorf("请求TTLock API失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取TTLock响应失败: %w", err)
	}

	// TTLock在HTTP 200里返回业务错误码，必须显式检查
	var bizErr ttlockError
	if err := json.Unmarshal(respBody, &bizErr); err == nil && bizErr.ErrCode != 0 {
		msg := bizErr.ErrMsg
		if msg == "" {
			msg = bizErr.Description
		}
		return fmt.Errorf("TTLock API返回业务错误: %s (errcode: %d)", msg, bizErr.ErrCode)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("解析TTLock响应失败: %w", err)
		}
	}
	return nil
}

// toProviderDevice 把TTLock设备转换为厂商无关结构，电量归一化为0~1
func (s *TTLockService) toProviderDevice(lock ttlockLock) ProviderDevice {
	battery := float64(lock.ElectricQuantity) / 100.0
	name := lock.LockAlias
	if name == "" {
		name = lock.LockName
	}
	return ProviderDevice{
		ExternalDeviceID: strconv.FormatInt(lock.LockID, 10),
		AccountID:        s.Config.TTLockUsername,
		Name:             name,
		Model:            lock.LockName,
		SerialNumber:     lock.LockMac,
		IsOnline:         lock.HasGateway == 1,
		BatteryLevel:     battery,
		Properties: map[string]interface{}{
			"lock_mac":    lock.LockMac,
			"has_gateway": lock.HasGateway == 1,
		},
	}
}

// CreateConnectionURL TTLock使用静态凭证，没有网页授权流程
func (s *TTLockService) CreateConnectionURL(redirectURL string) (string, error) {
	return "", fmt.Errorf("TTLock使用静态凭证连接，无需授权链接")
}

// GetConnectionStatus 通过确保令牌可用来验证凭证连接状态
func (s *TTLockService) GetConnectionStatus(accountID string) (string, error) {
	if _, err := s.ensureToken(); err != nil {
		return "error", err
	}
	return "connected", nil
}

// ListDevices 拉取账户下的所有锁设备
func (s *TTLockService) ListDevices(accountID string) ([]ProviderDevice, error) {
	params := url.Values{}
	params.Set("pageNo", "1")
	params.Set("pageSize", "100")

	var result struct {
		ttlockError
		List []ttlockLock `json:"list"`
	}
	if err := s.callAPI("/v3/lock/list", params, &result); err != nil {
		return nil, err
	}

	devices := make([]ProviderDevice, 0, len(result.List))
	for _, lock := range result.List {
		devices = append(devices, s.toProviderDevice(lock))
	}
	return devices, nil
}

// GetDevice 获取单个锁设备详情
func (s *TTLockService) GetDevice(externalID string) (*ProviderDevice, error) {
	params := url.Values{}
	params.Set("lockId", externalID)

	var result struct {
		ttlockError
		ttlockLock
	}
	if err := s.callAPI("/v3/lock/detail", params, &result); err != nil {
		return nil, err
	}

	device := s.toProviderDevice(result.ttlockLock)
	return &device, nil
}

// CreateAccessCode 在锁上添加自定义键盘密码，endsAt为空时创建永久码
func (s *TTLockService) CreateAccessCode(externalDeviceID, code, name string, startsAt, endsAt *time.Time) (*ProviderCodeResult, error) {
	params := url.Values{}
	params.Set("lockId", externalDeviceID)
	params.Set("keyboardPwd", code)
	params.Set("keyboardPwdName", name)
	params.Set("addType", "2") // 通过网关下发
	if startsAt != nil {
		params.Set("startDate", strconv.FormatInt(startsAt.UnixMilli(), 10))
	} else {
		params.Set("startDate", strconv.FormatInt(time.Now().UnixMilli(), 10))
	}
	if endsAt != nil {
		params.Set("endDate", strconv.FormatInt(endsAt.UnixMilli(), 10))
	} else {
		params.Set("endDate", "0") // 0表示永久有效
	}

	var result struct {
		ttlockError
		KeyboardPwdID int64 `json:"keyboardPwdId"`
	}
	if err := s.callAPI("/v3/keyboardPwd/add", params, &result); err != nil {
		return nil, err
	}

	return &ProviderCodeResult{
		ExternalCodeID: strconv.FormatInt(result.KeyboardPwdID, 10),
		Status:         "set",
		Metadata: map[string]interface{}{
			"keyboard_pwd_id": result.KeyboardPwdID,
		},
	}, nil
}

// UpdateAccessCode 修改已存在的键盘密码
func (s *TTLockService) UpdateAccessCode(externalDeviceID, externalCodeID, code, name string, startsAt, endsAt *time.Time) (*ProviderCodeResult, error) {
	params := url.Values{}
	params.Set("lockId", externalDeviceID)
	params.Set("keyboardPwdId", externalCodeID)
	params.Set("changeType", "2")
	if code != "" {
		params.Set("newKeyboardPwd", code)
	}
	if startsAt != nil {
		params.Set("startDate", strconv.FormatInt(startsAt.UnixMilli(), 10))
	}
	if endsAt != nil {
		params.Set("endDate", strconv.FormatInt(endsAt.UnixMilli(), 10))
	}

	var result ttlockError
	if err := s.callAPI("/v3/keyboardPwd/change", params, &result); err != nil {
		return nil, err
	}

	return &ProviderCodeResult{
		ExternalCodeID: externalCodeID,
		Status:         "set",
	}, nil
}

// DeleteAccessCode 删除键盘密码
func (s *TTLockService) DeleteAccessCode(externalDeviceID, externalCodeID string) error {
	params := url.Values{}
	params.Set("lockId", externalDeviceID)
	params.Set("keyboardPwdId", externalCodeID)
	params.Set("deleteType", "2")

	var result ttlockError
	return s.callAPI("/v3/keyboardPwd/delete", params, &result)
}

// ListAccessCodes 列出锁上的所有键盘密码
func (s *TTLockService) ListAccessCodes(externalDeviceID string) ([]ProviderAccessCode, error) {
	params := url.Values{}
	params.Set("lockId", externalDeviceID)
	params.Set("pageNo", "1")
	params.Set("pageSize", "100")

	var result struct {
		ttlockError
		List []ttlockKeyboardPwd `json:"list"`
	}
	if err := s.callAPI("/v3/lock/listKeyboardPwd", params, &result); err != nil {
		return nil, err
	}

	codes := make([]ProviderAccessCode, 0, len(result.List))
	for _, pwd := range result.List {
		item := ProviderAccessCode{
			ExternalCodeID: strconv.FormatInt(pwd.KeyboardPwdID, 10),
			Code:           pwd.KeyboardPwd,
			Name:           pwd.KeyboardPwdName,
			Status:         strconv.Itoa(pwd.Status),
		}
		if pwd.StartDate > 0 {
			t := time.UnixMilli(pwd.StartDate)
			item.StartsAt = &t
		}
		if pwd.EndDate > 0 {
			t := time.UnixMilli(pwd.EndDate)
			item.EndsAt = &t
		}
		codes = append(codes, item)
	}
	return codes, nil
}
