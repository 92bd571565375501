package services

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dnovakovic099/secure-stay-server-sub000/config"
	"github.com/dnovakovic099/secure-stay-server-sub000/utils"
)

// newTTLockTestService 构造指向测试服务器的TTLock适配器
func newTTLockTestService(serverURL string) *TTLockService {
	cfg := &config.Config{
		TTLockAPIURL:           serverURL,
		TTLockClientID:         "client-1",
		TTLockClientSecret:     "secret-1",
		TTLockUsername:         "ops@example.com",
		TTLockPassword:         "lockpass",
		VendorRequestTimeoutMS: 2000,
	}
	return NewTTLockService(cfg)
}

func TestTTLockLoginHashesPassword(t *testing.T) {
	var gotPassword, gotGrantType string
	loginCalls := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth2/token":
			loginCalls++
			r.ParseForm()
			gotPassword = r.PostFormValue("password")
			gotGrantType = r.PostFormValue("grant_type")
			fmt.Fprint(w, `{"access_token":"tok-1","refresh_token":"ref-1","uid":1,"expires_in":7200}`)
		case "/v3/lock/list":
			r.ParseForm()
			if r.PostFormValue("accessToken") != "tok-1" {
				t.Errorf("业务请求应携带accessToken，实际为%q", r.PostFormValue("accessToken"))
			}
			fmt.Fprint(w, `{"list":[{"lockId":12345,"lockName":"S31","lockAlias":"Front Door","lockMac":"AA:BB:CC","electricQuantity":85,"hasGateway":1}]}`)
		default:
			t.Errorf("未预期的请求路径: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	svc := newTTLockTestService(server.URL)

	devices, err := svc.ListDevices("")
	if err != nil {
		t.Fatalf("拉取设备列表失败: %v", err)
	}

	// TTLock要求密码先做MD5
	if want := utils.MD5Hex("lockpass"); gotPassword != want {
		t.Errorf("登录密码应为MD5摘要%s，实际为%s", want, gotPassword)
	}
	if gotGrantType != "password" {
		t.Errorf("grant_type期望password，实际为%s", gotGrantType)
	}

	if len(devices) != 1 {
		t.Fatalf("期望1台设备，实际为%d", len(devices))
	}
	device := devices[0]
	if device.ExternalDeviceID != "12345" {
		t.Errorf("外部设备ID期望12345，实际为%s", device.ExternalDeviceID)
	}
	if device.Name != "Front Door" {
		t.Errorf("设备名称应优先使用别名，实际为%s", device.Name)
	}
	// 电量0~100需归一化为0~1
	if device.BatteryLevel != 0.85 {
		t.Errorf("电量期望0.85，实际为%v", device.BatteryLevel)
	}
	if !device.IsOnline {
		t.Error("有网关的锁应视为在线")
	}

	// 令牌在有效期内应被复用，不应重复登录
	if _, err := svc.ListDevices(""); err != nil {
		t.Fatalf("第二次拉取失败: %v", err)
	}
	if loginCalls != 1 {
		t.Errorf("有效期内令牌应复用，实际登录%d次", loginCalls)
	}
}

func TestTTLockBusinessErrorCode(t *testing.T) {
	// TTLock在HTTP 200里返回业务错误码，必须显式检查
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth2/token" {
			fmt.Fprint(w, `{"access_token":"tok-1","refresh_token":"ref-1","expires_in":7200}`)
			return
		}
		fmt.Fprint(w, `{"errcode":10003,"errmsg":"invalid accessToken"}`)
	}))
	defer server.Close()

	svc := newTTLockTestService(server.URL)

	_, err := svc.ListDevices("")
	if err == nil {
		t.Fatal("业务错误码非0时应返回错误")
	}
	if want := "errcode: 10003"; !strings.Contains(err.Error(), want) {
		t.Errorf("错误信息应包含%q，实际为%q", want, err.Error())
	}
}

func TestTTLockLoginFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errcode":10000,"errmsg":"invalid client"}`)
	}))
	defer server.Close()

	svc := newTTLockTestService(server.URL)

	if _, err := svc.ListDevices(""); err == nil {
		t.Fatal("登录失败时应返回错误")
	}
}

func TestTTLockMissingCredentials(t *testing.T) {
	svc := NewTTLockService(&config.Config{
		TTLockAPIURL:           "http://localhost:1",
		VendorRequestTimeoutMS: 100,
	})

	if _, err := svc.ListDevices(""); err == nil {
		t.Fatal("凭证缺失时应直接报错，不发起请求")
	}
}

func TestTTLockCreateAccessCodeDates(t *testing.T) {
	var gotStartDate, gotEndDate, gotPwd string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth2/token":
			fmt.Fprint(w, `{"access_token":"tok-1","refresh_token":"ref-1","expires_in":7200}`)
		case "/v3/keyboardPwd/add":
			r.ParseForm()
			gotStartDate = r.PostFormValue("startDate")
			gotEndDate = r.PostFormValue("endDate")
			gotPwd = r.PostFormValue("keyboardPwd")
			fmt.Fprint(w, `{"keyboardPwdId":777}`)
		default:
			t.Errorf("未预期的请求路径: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	svc := newTTLockTestService(server.URL)

	t.Run("带时间窗的门禁码用毫秒时间戳", func(t *testing.T) {
		startsAt := time.Date(2024, 6, 10, 17, 0, 0, 0, time.UTC)
		endsAt := time.Date(2024, 6, 12, 18, 0, 0, 0, time.UTC)

		result, err := svc.CreateAccessCode("12345", "6789", "Alice", &startsAt, &endsAt)
		if err != nil {
			t.Fatalf("创建门禁码失败: %v", err)
		}
		if result.ExternalCodeID != "777" {
			t.Errorf("厂商门禁码ID期望777，实际为%s", result.ExternalCodeID)
		}
		if gotPwd != "6789" {
			t.Errorf("码值期望6789，实际为%s", gotPwd)
		}
		if want := fmt.Sprintf("%d", startsAt.UnixMilli()); gotStartDate != want {
			t.Errorf("startDate期望%s，实际为%s", want, gotStartDate)
		}
		if want := fmt.Sprintf("%d", endsAt.UnixMilli()); gotEndDate != want {
			t.Errorf("endDate期望%s，实际为%s", want, gotEndDate)
		}
	})

	t.Run("失效时间为空时endDate为0表示永久码", func(t *testing.T) {
		if _, err := svc.CreateAccessCode("12345", "6789", "Alice", nil, nil); err != nil {
			t.Fatalf("创建永久码失败: %v", err)
		}
		if gotEndDate != "0" {
			t.Errorf("永久码endDate期望0，实际为%s", gotEndDate)
		}
	})
}

func TestTTLockConnectionURLUnsupported(t *testing.T) {
	svc := newTTLockTestService("http://localhost:1")
	if _, err := svc.CreateConnectionURL(""); err == nil {
		t.Fatal("TTLock不支持网页授权流程，应返回错误")
	}
}
