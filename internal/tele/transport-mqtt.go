package tele

import (
	"context"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/hpcguemes/totem/helpers"
	"github.com/hpcguemes/totem/log2"
	tele_config "github.com/hpcguemes/totem/tele/config"
	"github.com/juju/errors"
)

const (
	defaultKeepaliveSec   = 60
	defaultPingTimeoutSec = 30
	closeQuiesceMs        = 1000
)

type transportMqtt struct {
	log  *log2.Log
	m    mqtt.Client
	mopt *mqtt.ClientOptions

	topicPrefix    string
	topicConnect   string
	topicState     string
	topicTelemetry string
}

func (self *transportMqtt) Init(ctx context.Context, log *log2.Log, teleConfig tele_config.Config, willPayload []byte) error {
	self.log = log
	mqtt.ERROR = log
	mqtt.CRITICAL = log
	mqtt.WARN = log

	mopt, err := self.options(teleConfig, willPayload)
	if err != nil {
		return err
	}
	self.mopt = mopt
	self.m = mqtt.NewClient(self.mopt)
	// ConnectRetry: token completes only after first successful connect, do not wait
	if token := self.m.Connect(); token.Error() != nil {
		self.log.Errorf("mqtt connect err=%v", token.Error())
	}
	return nil
}

func (self *transportMqtt) options(teleConfig tele_config.Config, willPayload []byte) (*mqtt.ClientOptions, error) {
	if teleConfig.MqttBroker == "" {
		return nil, errors.NotValidf("tele.mqtt_broker empty")
	}
	clientId := "totem-" + teleConfig.KioskId
	self.topicPrefix = fmt.Sprintf("totem/%s", teleConfig.KioskId)
	self.topicConnect = self.topicPrefix + "/c"
	self.topicState = self.topicPrefix + "/state"
	self.topicTelemetry = self.topicPrefix + "/event"
	keepAlive := helpers.IntSecondDefault(teleConfig.KeepaliveSec, defaultKeepaliveSec)
	pingTimeout := helpers.IntSecondDefault(teleConfig.PingTimeoutSec, defaultPingTimeoutSec)
	retryInterval := helpers.IntSecondDefault(teleConfig.KeepaliveSec/2, defaultPingTimeoutSec)

	mopt := mqtt.NewClientOptions().
		AddBroker(teleConfig.MqttBroker).
		SetClientID(clientId).
		SetUsername(clientId).
		SetPassword(teleConfig.MqttPassword).
		SetBinaryWill(self.topicConnect, willPayload, 1, true).
		SetCleanSession(false).
		SetKeepAlive(keepAlive).
		SetPingTimeout(pingTimeout).
		SetOrderMatters(false).
		SetConnectRetry(true).
		SetConnectRetryInterval(retryInterval).
		SetAutoReconnect(true).
		SetOnConnectHandler(self.onConnectHandler).
		SetConnectionLostHandler(self.connectLostHandler)
	if teleConfig.StorePath != "" {
		mopt.SetStore(mqtt.NewFileStore(teleConfig.StorePath))
	}
	return mopt, nil
}

func (self *transportMqtt) Close() {
	if self.m == nil {
		return
	}
	self.log.Infof("mqtt disconnect")
	self.m.Disconnect(closeQuiesceMs)
}

func (self *transportMqtt) SendState(payload []byte) bool {
	self.log.Debugf("mqtt publish topic=%s payload=%s", self.topicState, payload)
	self.m.Publish(self.topicState, 1, true, payload)
	return true
}

func (self *transportMqtt) SendTelemetry(payload []byte) bool {
	self.m.Publish(self.topicTelemetry, 1, false, payload)
	return true
}

func (self *transportMqtt) connectLostHandler(c mqtt.Client, err error) {
	self.log.Infof("mqtt connection lost err=%v", err)
}

func (self *transportMqtt) onConnectHandler(c mqtt.Client) {
	self.log.Infof("mqtt connect")
	c.Publish(self.topicConnect, 1, true, []byte(`{"state":"connected"}`))
}
