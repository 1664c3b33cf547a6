// Package mqtt is the server transport (spec.md §4.13/§6): a status
// publisher and a command request/reply channel, both over
// github.com/eclipse/paho.mqtt.golang. It substitutes for the
// original's raw ZeroMQ PUB/REP sockets (original_source/Utilities/
// include/RimoServer.hpp) since no ZeroMQ binding exists anywhere in
// the retrieval pack (see SPEC_FULL.md's "Transport technology" Open
// Question resolution); connection setup is grounded on
// Sioux-Steel-Solutions-raptor-core/main.go's paho usage
// (mqtt.NewClientOptions, AutoReconnect, QoS-1 Subscribe/Publish).
package mqtt

import (
	"encoding/json"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/snappy"

	"rimoserver/command"
	"rimoserver/config"
	"rimoserver/logx"
	"rimoserver/rmerrors"
	"rimoserver/types"
)

// Dial connects a paho client configured from cfg. clientID should be
// stable across restarts of the same deployment (the broker uses it to
// detect a duplicate session).
func Dial(cfg config.RimoServer, clientID string) (paho.Client, error) {
	opts := paho.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetOrderMatters(false)
	if cfg.MQTTUsername != "" {
		opts.SetUsername(cfg.MQTTUsername)
		opts.SetPassword(cfg.MQTTPassword)
	}

	client := paho.NewClient(opts)
	tok := client.Connect()
	if !tok.WaitTimeout(10*time.Second) || tok.Error() != nil {
		return nil, rmerrors.Wrap(rmerrors.TransportError, tok.Error(), "connecting to MQTT broker %s", cfg.BrokerURL)
	}
	return client, nil
}

// StatusPublisher publishes a Snappy-compressed JSON RobotStatus to
// the status topic on every update tick (spec.md §4.13's pub socket).
type StatusPublisher struct {
	client paho.Client
	topic  string
	log    *logx.Logger
}

// NewStatusPublisher builds a StatusPublisher against an already-connected client.
func NewStatusPublisher(client paho.Client, topic string) *StatusPublisher {
	return &StatusPublisher{client: client, topic: topic, log: logx.New("transport.mqtt")}
}

// Publish marshals, Snappy-compresses, and publishes status at QoS 0 —
// the next update tick supersedes a dropped one, so at-most-once
// delivery is adequate (status is a stream of snapshots, not events).
func (p *StatusPublisher) Publish(status *types.RobotStatus) error {
	raw, err := json.Marshal(status)
	if err != nil {
		return rmerrors.Wrap(rmerrors.OperationRejected, err, "marshalling RobotStatus")
	}
	compressed := snappy.Encode(nil, raw)
	tok := p.client.Publish(p.topic, 0, false, compressed)
	if !tok.WaitTimeout(2 * time.Second) {
		return rmerrors.New(rmerrors.Timeout, "status publish to %s timed out", p.topic)
	}
	if err := tok.Error(); err != nil {
		return rmerrors.Wrap(rmerrors.TransportError, err, "publishing status to %s", p.topic)
	}
	return nil
}

// Channel implements command.Channel over a request/reply topic pair:
// clients publish a JSON command document to requestTopic and listen
// on requestTopic+"/reply" for the response, replacing the original's
// synchronous ZeroMQ REP socket with the closest MQTT analogue (see
// SPEC_FULL.md's Open Question resolution).
type Channel struct {
	client         paho.Client
	requestTopic   string
	replyTopic     string
	receiveTimeout time.Duration

	incoming chan map[string]any
	log      *logx.Logger
}

// NewChannel subscribes to requestTopic at QoS 1 and returns a Channel
// ready for command.Server.RunLoop.
func NewChannel(client paho.Client, requestTopic string, receiveTimeout time.Duration) (*Channel, error) {
	ch := &Channel{
		client: client, requestTopic: requestTopic, replyTopic: requestTopic + "/reply",
		receiveTimeout: receiveTimeout,
		incoming:       make(chan map[string]any, 16),
		log:            logx.New("transport.mqtt"),
	}
	tok := client.Subscribe(requestTopic, 1, ch.onMessage)
	if !tok.WaitTimeout(5*time.Second) || tok.Error() != nil {
		return nil, rmerrors.Wrap(rmerrors.TransportError, tok.Error(), "subscribing to %s", requestTopic)
	}
	return ch, nil
}

func (ch *Channel) onMessage(_ paho.Client, msg paho.Message) {
	var doc map[string]any
	if err := json.Unmarshal(msg.Payload(), &doc); err != nil {
		ch.log.Warn("malformed command payload on %s: %v", ch.requestTopic, err)
		return
	}
	select {
	case ch.incoming <- doc:
	default:
		ch.log.Warn("command backlog full on %s, dropping message", ch.requestTopic)
	}
}

// Receive implements command.Channel, blocking up to receiveTimeout so
// CommandServer's loop periodically re-checks running (spec.md §4.10).
func (ch *Channel) Receive() (map[string]any, bool) {
	select {
	case doc := <-ch.incoming:
		return doc, true
	case <-time.After(ch.receiveTimeout):
		return nil, false
	}
}

// Send publishes resp to the reply topic at QoS 1. A publish failure
// is logged, not returned — CommandServer has no reply-channel of its
// own to surface it through.
func (ch *Channel) Send(resp command.Response) {
	payload, err := json.Marshal(resp)
	if err != nil {
		ch.log.Error(err, "marshalling command response")
		return
	}
	tok := ch.client.Publish(ch.replyTopic, 1, false, payload)
	if !tok.WaitTimeout(5*time.Second) || tok.Error() != nil {
		ch.log.Error(tok.Error(), "publishing reply to %s", ch.replyTopic)
	}
}
