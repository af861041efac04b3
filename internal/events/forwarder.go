// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package events

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/soapbox/internal/models"
	"github.com/tomtom215/soapbox/internal/websocket"
)

// Broadcaster receives forwarded events. *websocket.Hub implements it.
type Broadcaster interface {
	BroadcastJSON(messageType string, data interface{})
}

// forwardedTopics maps bus topics to websocket message types.
var forwardedTopics = map[string]string{
	models.TopicStoryRotated: websocket.MessageTypeStoryRotated,
	models.TopicFleetSynced:  websocket.MessageTypeFleetSynced,
}

// RegisterWebSocketForwarder adds one consumer per forwarded topic that
// relays each payload to b unchanged.
func RegisterWebSocketForwarder(r *Router, b Broadcaster) {
	for topic, msgType := range forwardedTopics {
		r.AddConsumer("ws-forward-"+topic, topic, forwardHandler(r.bus, msgType, b))
	}
}

func forwardHandler(bus *Bus, msgType string, b Broadcaster) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		// Malformed payloads are acked: retrying cannot fix them.
		if !json.Valid(msg.Payload) {
			bus.Logger().Error("Dropping malformed event payload", nil, LogFields(msg))
			return nil
		}
		b.BroadcastJSON(msgType, json.RawMessage(msg.Payload))
		return nil
	}
}
