// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package models

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Registration API push channel
// Endpoint: wss://{api_host}/ws/discord/
//
// Every frame is an envelope whose "message" field is itself a JSON document:
//
//	{"message": "{\"action\":\"register\",\"discord_user_id\":\"1\",...}"}
//
// The inner document carries an optional "action" discriminator. Frames
// without an action are full-record updates.

// PushEnvelope is the outer push frame.
type PushEnvelope struct {
	Message string `json:"message"`
}

// ActionKind is the closed set of push actions.
type ActionKind string

const (
	ActionRegister      ActionKind = "register"
	ActionDelete        ActionKind = "delete"
	ActionDiscordSwitch ActionKind = "discord_switch"
	// ActionUpdate is assigned to frames that carry no action field.
	ActionUpdate ActionKind = "update"
)

// ParseActionKind maps the wire discriminator onto ActionKind.
func ParseActionKind(s string) (ActionKind, error) {
	switch ActionKind(strings.TrimSpace(s)) {
	case ActionRegister:
		return ActionRegister, nil
	case ActionDelete:
		return ActionDelete, nil
	case ActionDiscordSwitch:
		return ActionDiscordSwitch, nil
	case "":
		return ActionUpdate, nil
	default:
		return "", fmt.Errorf("unknown push action %q", s)
	}
}

// PushMessage is a decoded push frame: the action and the raw inner document
// the action handler decodes into its own payload type.
type PushMessage struct {
	Action ActionKind
	Raw    json.RawMessage
}

type actionHeader struct {
	Action *string `json:"action"`
}

// DecodePushMessage unwraps a raw websocket frame.
func DecodePushMessage(frame []byte) (*PushMessage, error) {
	var env PushEnvelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Message == "" {
		return nil, fmt.Errorf("envelope has no message")
	}

	inner := []byte(env.Message)
	var head actionHeader
	if err := json.Unmarshal(inner, &head); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}

	action := ActionUpdate
	if head.Action != nil {
		kind, err := ParseActionKind(*head.Action)
		if err != nil {
			return nil, err
		}
		action = kind
	}
	return &PushMessage{Action: action, Raw: json.RawMessage(inner)}, nil
}
