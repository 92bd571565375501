package services

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dnovakovic099/secure-stay-server-sub000/config"
	"github.com/dnovakovic099/secure-stay-server-sub000/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// 门禁码生命周期事件类型
const (
	AccessCodeEventCreated = "created"
	AccessCodeEventSet     = "set"
	AccessCodeEventFailed  = "failed"
	AccessCodeEventDeleted = "deleted"
)

// InterfaceMQTTEventService defines the MQTT event service interface
type InterfaceMQTTEventService interface {
	Connect() error
	Disconnect()
	PublishAccessCodeEvent(eventType string, accessCode *models.AccessCode)
}

// AccessCodeEvent 表示推送到MQTT的门禁码生命周期事件，
// 供现场控制器和运维工具订阅，不承担住客通知职责
type AccessCodeEvent struct {
	EventID      string    `json:"event_id"`
	EventType    string    `json:"event_type"`
	AccessCodeID uint      `json:"access_code_id"`
	Provider     string    `json:"provider"`
	DeviceID     uint      `json:"device_id"`
	PropertyID   uint      `json:"property_id"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// MQTTEventService 通过MQTT推送门禁码生命周期事件
type MQTTEventService struct {
	Config *config.Config
	Client mqtt.Client

	connectedMutex sync.RWMutex
	IsConnected    bool
}

// NewMQTTEventService 创建一个新的MQTT事件服务
func NewMQTTEventService(cfg *config.Config) InterfaceMQTTEventService {
	service := &MQTTEventService{
		Config: cfg,
	}

	// 设置MQTT客户端
	service.setupMQTTClient()

	return service
}

// setupMQTTClient 配置MQTT客户端选项
func (s *MQTTEventService) setupMQTTClient() {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.Config.MQTTBrokerURL)
	opts.SetClientID(fmt.Sprintf("securestay-events-%s-%d", uuid.New().String()[:8], time.Now().UnixNano()))
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(time.Second * 30)
	opts.SetKeepAlive(time.Second * 60)
	opts.SetPingTimeout(time.Second * 10)
	opts.SetCleanSession(true)

	if s.Config.MQTTUsername != "" {
		opts.SetUsername(s.Config.MQTTUsername)
		opts.SetPassword(s.Config.MQTTPassword)
	}

	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		s.connectedMutex.Lock()
		s.IsConnected = false
		s.connectedMutex.Unlock()
		log.Printf("[MQTT] 连接断开: %v", err)
	})

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		s.connectedMutex.Lock()
		s.IsConnected = true
		s.connectedMutex.Unlock()
		log.Printf("[MQTT] 已连接到 %s", s.Config.MQTTBrokerURL)
	})

	s.Client = mqtt.NewClient(opts)
}

// Connect 连接到MQTT服务器，未配置broker时跳过
func (s *MQTTEventService) Connect() error {
	if s.Config.MQTTBrokerURL == "" {
		log.Printf("[MQTT] 未配置MQTT_BROKER_URL，事件推送已禁用")
		return nil
	}

	s.connectedMutex.RLock()
	isConnected := s.IsConnected && s.Client.IsConnected()
	s.connectedMutex.RUnlock()
	if isConnected {
		return nil
	}

	token := s.Client.Connect()
	if token.WaitTimeout(5*time.Second) && token.Error() == nil {
		s.connectedMutex.Lock()
		s.IsConnected = true
		s.connectedMutex.Unlock()
		return nil
	}
	return fmt.Errorf("[MQTT] 连接失败: %v", token.Error())
}

// Disconnect 断开MQTT连接
func (s *MQTTEventService) Disconnect() {
	if s.Client != nil && s.Client.IsConnected() {
		s.Client.Disconnect(250)
	}
}

// PublishAccessCodeEvent 推送门禁码生命周期事件。
// 推送失败只记录日志，不影响门禁码主流程。
func (s *MQTTEventService) PublishAccessCodeEvent(eventType string, accessCode *models.AccessCode) {
	if s.Config.MQTTBrokerURL == "" || accessCode == nil {
		return
	}

	s.connectedMutex.RLock()
	isConnected := s.IsConnected && s.Client.IsConnected()
	s.connectedMutex.RUnlock()
	if !isConnected {
		return
	}

	event := AccessCodeEvent{
		EventID:      uuid.New().String(),
		EventType:    eventType,
		AccessCodeID: accessCode.ID,
		Provider:     string(accessCode.Provider),
		DeviceID:     accessCode.DeviceID,
		PropertyID:   accessCode.PropertyID,
		Status:       string(accessCode.Status),
		ErrorMessage: accessCode.ErrorMessage,
		Timestamp:    time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		config.Error("序列化门禁码事件失败: %v", err)
		return
	}

	topic := fmt.Sprintf("securestay/access_codes/%d/%s", accessCode.DeviceID, eventType)
	token := s.Client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(3*time.Second) || token.Error() != nil {
		config.Warning("推送门禁码事件失败: topic=%s, err=%v", topic, token.Error())
	}
}
