package tele

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/temoto/panel/helpers"
	"github.com/temoto/panel/log2"
	tele_config "github.com/temoto/panel/tele/config"
)

const (
	DefaultClientID = "panel"

	topicConnect  = "c"
	topicState    = "w/state"
	topicActivity = "w/activity"
	topicError    = "w/error"
	topicCommand  = "r/c"

	payloadOnline byte = 0x01
)

func Topic(clientID, suffix string) string { return fmt.Sprintf("%s/%s", clientID, suffix) }

type transportMqtt struct {
	log       *log2.Log
	onCommand func([]byte) bool
	m         mqtt.Client
	mopt      *mqtt.ClientOptions
	timeout   time.Duration

	topicConnect  string
	topicState    string
	topicActivity string
	topicError    string
	topicCommand  string
}

// mqttLogger adapts log2 to paho logger interface.
type mqttLogger struct {
	log   *log2.Log
	level log2.Level
}

func (self mqttLogger) Println(v ...interface{}) {
	self.log.Log(self.level, "mqtt "+fmt.Sprint(v...))
}
func (self mqttLogger) Printf(format string, v ...interface{}) {
	self.log.Logf(self.level, "mqtt "+format, v...)
}

func (self *transportMqtt) Init(ctx context.Context, log *log2.Log, teleConfig tele_config.Config, onCommand CommandCallback, willPayload []byte) error {
	self.log = log
	mqtt.ERROR = mqttLogger{log, log2.LError}
	mqtt.CRITICAL = mqttLogger{log, log2.LError}
	mqtt.WARN = mqttLogger{log, log2.LInfo}
	if teleConfig.LogDebug {
		mqtt.DEBUG = mqttLogger{log, log2.LDebug}
	}

	clientID := teleConfig.ClientID
	if clientID == "" {
		clientID = DefaultClientID
	}
	credFun := func() (string, string) {
		return clientID, teleConfig.MqttPassword
	}

	self.onCommand = func(payload []byte) bool {
		return onCommand(ctx, payload)
	}
	self.topicConnect = Topic(clientID, topicConnect)
	self.topicState = Topic(clientID, topicState)
	self.topicActivity = Topic(clientID, topicActivity)
	self.topicError = Topic(clientID, topicError)
	self.topicCommand = Topic(clientID, topicCommand)
	keepAlive := helpers.IntSecondDefault(teleConfig.KeepaliveSec, 60*time.Second)
	pingTimeout := helpers.IntSecondDefault(teleConfig.PingTimeoutSec, 30*time.Second)
	retryInterval := helpers.IntSecondDefault(teleConfig.KeepaliveSec/2, 30*time.Second)
	self.timeout = DefaultNetworkTimeout

	self.mopt = mqtt.NewClientOptions().
		AddBroker(teleConfig.MqttBroker).
		SetBinaryWill(self.topicConnect, willPayload, 1, true).
		SetClientID(clientID).
		SetCredentialsProvider(credFun).
		SetDefaultPublishHandler(self.messageHandler).
		SetKeepAlive(keepAlive).
		SetPingTimeout(pingTimeout).
		SetOrderMatters(false).
		SetResumeSubs(true).SetCleanSession(false).
		SetConnectRetryInterval(retryInterval).
		SetOnConnectHandler(self.onConnectHandler).
		SetConnectionLostHandler(self.connectLostHandler).
		SetConnectRetry(true)
	if teleConfig.StorePath != "" {
		self.mopt.SetStore(mqtt.NewFileStore(teleConfig.StorePath))
	}
	self.m = mqtt.NewClient(self.mopt)
	// network errors are not fatal, client reconnects in background
	if token := self.m.Connect(); token.Error() != nil {
		self.log.Errorf("mqtt connect err=%v", token.Error())
	}
	return nil
}

func (self *transportMqtt) Close() {
	self.log.Infof("mqtt unsubscribe")
	if token := self.m.Unsubscribe(self.topicCommand); token.WaitTimeout(self.timeout) && token.Error() != nil {
		self.log.Errorf("mqtt unsubscribe err=%v", token.Error())
	}
	self.m.Disconnect(uint(time.Second / time.Millisecond))
}

func (self *transportMqtt) SendState(payload []byte) bool {
	return self.publish(self.topicState, payload)
}

func (self *transportMqtt) SendActivity(payload []byte) bool {
	return self.publish(self.topicActivity, payload)
}

func (self *transportMqtt) SendError(payload []byte) bool {
	return self.publish(self.topicError, payload)
}

func (self *transportMqtt) publish(topic string, payload []byte) bool {
	token := self.m.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(self.timeout) {
		self.log.Debugf("mqtt publish topic=%s timeout", topic)
		return false
	}
	if err := token.Error(); err != nil {
		self.log.Errorf("mqtt publish topic=%s err=%v", topic, err)
		return false
	}
	return true
}

func (self *transportMqtt) messageHandler(c mqtt.Client, msg mqtt.Message) {
	payload := msg.Payload()
	self.log.Debugf("mqtt income message topic=%s (%x)", msg.Topic(), payload)
	if msg.Topic() != self.topicCommand {
		return
	}
	self.onCommand(payload)
}

func (self *transportMqtt) connectLostHandler(c mqtt.Client, err error) {
	self.log.Infof("mqtt disconnect err=%v", err)
}

func (self *transportMqtt) onConnectHandler(c mqtt.Client) {
	self.log.Infof("mqtt connect")
	if token := c.Subscribe(self.topicCommand, 1, nil); token.Wait() && token.Error() != nil {
		self.log.Errorf("mqtt subscribe err=%v", token.Error())
	} else {
		c.Publish(self.topicConnect, 1, true, []byte{payloadOnline})
	}
}
