package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dnovakovic099/secure-stay-server-sub000/config"
	"github.com/dnovakovic099/secure-stay-server-sub000/models"
)

// SeamService 是Seam锁服务商的适配器。
// Seam使用API Key认证，通过connect webview完成账户授权，失败时按HTTP状态码处理。
type SeamService struct {
	Config *config.Config
	Client *http.Client
}

// NewSeamService 创建一个新的Seam适配器
func NewSeamService(cfg *config.Config) *SeamService {
	return &SeamService{
		Config: cfg,
		Client: &http.Client{
			Timeout: time.Duration(cfg.VendorRequestTimeoutMS) * time.Millisecond,
		},
	}
}

// seamDevice Seam设备原始结构
type seamDevice struct {
	DeviceID           string `json:"device_id"`
	DeviceType         string `json:"device_type"`
	ConnectedAccountID string `json:"connected_account_id"`
	Properties         struct {
		Name         string  `json:"name"`
		Online       bool    `json:"online"`
		BatteryLevel float64 `json:"battery_level"` // Seam直接给出0~1
		Locked       *bool   `json:"locked"`
		DoorOpen     *bool   `json:"door_open"`
		SerialNumber string  `json:"serial_number"`
		Manufacturer string  `json:"manufacturer"`
		Model        struct {
			DisplayName string `json:"display_name"`
		} `json:"model"`
	} `json:"properties"`
}

// seamAccessCode Seam门禁码原始结构
type seamAccessCode struct {
	AccessCodeID string  `json:"access_code_id"`
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Status       string  `json:"status"`
	StartsAt     *string `json:"starts_at"`
	EndsAt       *string `json:"ends_at"`
}

// Name 返回厂商名称
func (s *SeamService) Name() models.LockProviderName {
	return models.LockProviderSeam
}

// request 发送Seam API请求并解析响应，非2xx状态码视为失败
func (s *SeamService) request(method, path string, payload interface{}, out interface{}) error {
	if s.Config.SeamAPIKey == "" {
		return fmt.Errorf("Seam API凭证未设置，请检查环境变量SEAM_API_KEY")
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("序列化请求失败: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.Config.SeamAPIURL+path, body)
	if err != nil {
		return fmt.Errorf("构造请求失败: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.Config.SeamAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("请求Seam API失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取Seam响应失败: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("Seam API返回状态码 %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("解析Seam响应失败: %w", err)
		}
	}
	return nil
}

// toProviderDevice 把Seam设备转换为厂商无关结构
func (s *SeamService) toProviderDevice(d seamDevice) ProviderDevice {
	props := map[string]interface{}{
		"device_type":  d.DeviceType,
		"manufacturer": d.Properties.Manufacturer,
	}
	return ProviderDevice{
		ExternalDeviceID: d.DeviceID,
		AccountID:        d.ConnectedAccountID,
		Name:             d.Properties.Name,
		Model:            d.Properties.Model.DisplayName,
		SerialNumber:     d.Properties.SerialNumber,
		IsOnline:         d.Properties.Online,
		BatteryLevel:     d.Properties.BatteryLevel,
		Locked:           d.Properties.Locked,
		DoorOpen:         d.Properties.DoorOpen,
		Properties:       props,
	}
}

// CreateConnectionURL 创建connect webview授权链接，操作员在网页中完成账户连接
func (s *SeamService) CreateConnectionURL(redirectURL string) (string, error) {
	payload := map[string]interface{}{
		"accepted_providers": []string{"august", "schlage", "yale", "smartthings"},
	}
	if redirectURL != "" {
		payload["custom_redirect_url"] = redirectURL
	}

	var result struct {
		ConnectWebview struct {
			ConnectWebviewID string `json:"connect_webview_id"`
			URL              string `json:"url"`
		} `json:"connect_webview"`
	}
	if err := s.request(http.MethodPost, "/connect_webviews/create", payload, &result); err != nil {
		return "", err
	}
	return result.ConnectWebview.URL, nil
}

// GetConnectionStatus 查询已连接账户的状态
func (s *SeamService) GetConnectionStatus(accountID string) (string, error) {
	payload := map[string]interface{}{"connected_account_id": accountID}

	var result struct {
		ConnectedAccount struct {
			ConnectedAccountID string `json:"connected_account_id"`
			Errors             []struct {
				ErrorCode string `json:"error_code"`
			} `json:"errors"`
		} `json:"connected_account"`
	}
	if err := s.request(http.MethodPost, "/connected_accounts/get", payload, &result); err != nil {
		return "", err
	}

	if len(result.ConnectedAccount.Errors) > 0 {
		return "error", nil
	}
	return "connected", nil
}

// ListDevices 拉取设备列表，accountID为空时返回所有已连接账户的设备
func (s *SeamService) ListDevices(accountID string) ([]ProviderDevice, error) {
	payload := map[string]interface{}{}
	if accountID != "" {
		payload["connected_account_id"] = accountID
	}

	var result struct {
		Devices []seamDevice `json:"devices"`
	}
	if err := s.request(http.MethodPost, "/devices/list", payload, &result); err != nil {
		return nil, err
	}

	devices := make([]ProviderDevice, 0, len(result.Devices))
	for _, d := range result.Devices {
		devices = append(devices, s.toProviderDevice(d))
	}
	return devices, nil
}

// GetDevice 获取单个设备详情
func (s *SeamService) GetDevice(externalID string) (*ProviderDevice, error) {
	payload := map[string]interface{}{"device_id": externalID}

	var result struct {
		Device seamDevice `json:"device"`
	}
	if err := s.request(http.MethodPost, "/devices/get", payload, &result); err != nil {
		return nil, err
	}

	device := s.toProviderDevice(result.Device)
	return &device, nil
}

// CreateAccessCode 在设备上创建门禁码，时间窗为空时创建永久码
func (s *SeamService) CreateAccessCode(externalDeviceID, code, name string, startsAt, endsAt *time.Time) (*ProviderCodeResult, error) {
	payload := map[string]interface{}{
		"device_id": externalDeviceID,
		"code":      code,
		"name":      name,
	}
	if startsAt != nil {
		payload["starts_at"] = startsAt.UTC().Format(time.RFC3339)
	}
	if endsAt != nil {
		payload["ends_at"] = endsAt.UTC().Format(time.RFC3339)
	}

	var result struct {
		AccessCode seamAccessCode `json:"access_code"`
	}
	if err := s.request(http.MethodPost, "/access_codes/create", payload, &result); err != nil {
		return nil, err
	}

	return &ProviderCodeResult{
		ExternalCodeID: result.AccessCode.AccessCodeID,
		Status:         result.AccessCode.Status,
		Metadata: map[string]interface{}{
			"code": result.AccessCode.Code,
			"name": result.AccessCode.Name,
		},
	}, nil
}

// UpdateAccessCode 更新已存在的门禁码
func (s *SeamService) UpdateAccessCode(externalDeviceID, externalCodeID, code, name string, startsAt, endsAt *time.Time) (*ProviderCodeResult, error) {
	payload := map[string]interface{}{
		"access_code_id": externalCodeID,
		"device_id":      externalDeviceID,
	}
	if code != "" {
		payload["code"] = code
	}
	if name != "" {
		payload["name"] = name
	}
	if startsAt != nil {
		payload["starts_at"] = startsAt.UTC().Format(time.RFC3339)
	}
	if endsAt != nil {
		payload["ends_at"] = endsAt.UTC().Format(time.RFC3339)
	}

	var result struct {
		AccessCode seamAccessCode `json:"access_code"`
	}
	if err := s.request(http.MethodPost, "/access_codes/update", payload, &result); err != nil {
		return nil, err
	}

	return &ProviderCodeResult{
		ExternalCodeID: result.AccessCode.AccessCodeID,
		Status:         result.AccessCode.Status,
	}, nil
}

// DeleteAccessCode 删除厂商侧门禁码
func (s *SeamService) DeleteAccessCode(externalDeviceID, externalCodeID string) error {
	payload := map[string]interface{}{"access_code_id": externalCodeID}
	return s.request(http.MethodPost, "/access_codes/delete", payload, nil)
}

// ListAccessCodes 列出设备上的所有门禁码
func (s *SeamService) ListAccessCodes(externalDeviceID string) ([]ProviderAccessCode, error) {
	payload := map[string]interface{}{"device_id": externalDeviceID}

	var result struct {
		AccessCodes []seamAccessCode `json:"access_codes"`
	}
	if err := s.request(http.MethodPost, "/access_codes/list", payload, &result); err != nil {
		return nil, err
	}

	codes := make([]ProviderAccessCode, 0, len(result.AccessCodes))
	for _, ac := range result.AccessCodes {
		item := ProviderAccessCode{
			ExternalCodeID: ac.AccessCodeID,
			Code:           ac.Code,
			Name:           ac.Name,
			Status:         ac.Status,
		}
		if ac.StartsAt != nil {
			if t, err := time.Parse(time.RFC3339, *ac.StartsAt); err == nil {
				item.StartsAt = &t
			}
		}
		if ac.EndsAt != nil {
			if t, err := time.Parse(time.RFC3339, *ac.EndsAt); err == nil {
				item.EndsAt = &t
			}
		}
		codes = append(codes, item)
	}
	return codes, nil
}
