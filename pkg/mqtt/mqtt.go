// Package mqtt publishes moderation events and answers status requests over
// MQTT. Requests and responses are correlated by id.
package mqtt

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PancyStudios/MarvinGo/pkg/errors"
	"github.com/PancyStudios/MarvinGo/pkg/logger"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Topic roots
const (
	Root          = "marvin"
	EventsTopic   = Root + "/events"
	RequestTopic  = Root + "/request"
	ResponseTopic = Root + "/response"
)

// ErrNotConnected is returned when publishing without a broker connection
var ErrNotConnected = errors.New("mqtt: not connected")

// MqttRequest is a request received on marvin/request/<name>
type MqttRequest struct {
	CorrelationID string      `json:"correlationId"`
	Payload       interface{} `json:"payload,omitempty"`
}

// MqttResponse represents an MQTT response message
type MqttResponse struct {
	CorrelationID string      `json:"correlationId"`
	Data          interface{} `json:"data"`
	Error         string      `json:"error,omitempty"`
}

// Event is the envelope of everything published under marvin/events
type Event struct {
	ID      string      `json:"id"`
	Kind    string      `json:"kind"`
	At      time.Time   `json:"at"`
	Payload interface{} `json:"payload,omitempty"`
}

// MqttCommunicator handles MQTT communication
type MqttCommunicator struct {
	client   mqtt.Client
	clientID string
}

var (
	communicator *MqttCommunicator
	once         sync.Once
)

// Init initializes the global MQTT communicator
func Init(broker, username, password, clientID string) *MqttCommunicator {
	once.Do(func() {
		communicator = NewMqttCommunicator(broker, username, password, clientID)
	})
	return communicator
}

// NewMqttCommunicator connects to broker ("tcp://host:port"). A failed first
// connection is retried in the background.
func NewMqttCommunicator(broker, username, password, clientID string) *MqttCommunicator {
	mc := &MqttCommunicator{clientID: clientID}

	uniqueID := fmt.Sprintf("%s_%s", clientID, uuid.New().String())

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(uniqueID).
		SetUsername(username).
		SetPassword(password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(c mqtt.Client) {
			logger.Success(fmt.Sprintf("Connected to the MQTT broker as %s", clientID), "MQTT")
		}).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			logger.Error(fmt.Sprintf("MQTT connection lost: %v", err), "MQTT")
		})

	mc.client = mqtt.NewClient(opts)

	token := mc.client.Connect()
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		logger.Error(fmt.Sprintf("MQTT connection error: %v", token.Error()), "MQTT")
	}

	return mc
}

// Destroy closes the MQTT connection
func (mc *MqttCommunicator) Destroy() {
	if mc.IsConnected() {
		mc.client.Disconnect(250)
		logger.System("MQTT connection closed.", "MQTT")
	} else {
		logger.Warn("MQTT client was not connected, nothing to close.", "MQTT")
	}
}

// IsConnected returns true if connected to the broker
func (mc *MqttCommunicator) IsConnected() bool {
	return mc != nil && mc.client != nil && mc.client.IsConnected()
}

// Publish sends payload as JSON to topic
func (mc *MqttCommunicator) Publish(topic string, payload interface{}) error {
	if !mc.IsConnected() {
		return ErrNotConnected
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	token := mc.client.Publish(topic, 0, false, jsonData)
	token.Wait()
	return token.Error()
}

// PublishEvent publishes a moderation event on marvin/events/<kind>
func (mc *MqttCommunicator) PublishEvent(kind string, payload interface{}) error {
	return mc.Publish(EventTopic(kind), NewEvent(kind, payload))
}

// NewEvent wraps payload in an Event envelope
func NewEvent(kind string, payload interface{}) Event {
	return Event{
		ID:      uuid.NewString(),
		Kind:    kind,
		At:      time.Now().UTC(),
		Payload: payload,
	}
}

// EventTopic is the topic events of kind are published on
func EventTopic(kind string) string {
	return EventsTopic + "/" + kind
}

// RequestHandler is a function type for handling MQTT requests
type RequestHandler func(payload map[string]interface{}) (interface{}, error)

// On registers a handler answering requests on marvin/request/<requestTopic>
func (mc *MqttCommunicator) On(requestTopic string, callback RequestHandler) {
	topic := RequestTopic + "/" + requestTopic

	token := mc.client.Subscribe(topic, 0, func(c mqtt.Client, msg mqtt.Message) {
		responseTopic, response, err := handleRequest(msg.Topic(), msg.Payload(), callback)
		if err != nil {
			logger.Error(fmt.Sprintf("Error parsing MQTT request: %v", err), "MQTT")
			return
		}
		if err := mc.Publish(responseTopic, response); err != nil {
			logger.Warn(fmt.Sprintf("Could not answer %s: %v", responseTopic, err), "MQTT")
		}
	})

	if token.Wait() && token.Error() != nil {
		logger.Error(fmt.Sprintf("Error subscribing to topic %s: %v", topic, token.Error()), "MQTT")
	}
}

// handleRequest decodes a request received on topic, runs callback and
// builds the response with the topic it must be published on
func handleRequest(topic string, raw []byte, callback RequestHandler) (string, MqttResponse, error) {
	var request MqttRequest
	if err := json.Unmarshal(raw, &request); err != nil {
		return "", MqttResponse{}, err
	}

	actualTopic := strings.TrimPrefix(topic, RequestTopic+"/")

	payloadMap := make(map[string]interface{})
	if pm, ok := request.Payload.(map[string]interface{}); ok {
		payloadMap = pm
	}
	payloadMap["_topic"] = actualTopic

	response := MqttResponse{CorrelationID: request.CorrelationID}
	data, err := callback(payloadMap)
	if err != nil {
		response.Error = err.Error()
	} else {
		response.Data = data
	}
	return responseTopicFor(actualTopic, request.CorrelationID), response, nil
}

func responseTopicFor(topic, correlationID string) string {
	return fmt.Sprintf("%s/%s/%s", ResponseTopic, topic, correlationID)
}
