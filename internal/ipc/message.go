// Package ipc carries the gaze tracker protocol. Every message is a JSON
// envelope {"channel": "...", "data": {...}}; the websocket Hub and the NATS
// bridge both speak it.
package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bryanchriswhite/EyeFocus/internal/focus"
)

// Channels.
const (
	ChannelElements = "eye-elements"
	ChannelSettings = "eye-settings"
	ChannelEnter    = "eye-enter"
	ChannelExit     = "eye-exit"
	ChannelStay     = "eye-stay"
)

var (
	// ErrUnknownChannel is returned by Dispatch for channels it does not handle.
	ErrUnknownChannel = errors.New("unknown channel")

	// ErrMalformed is returned for messages that do not decode.
	ErrMalformed = errors.New("malformed message")
)

// Envelope is the frame around every message.
type Envelope struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// GazeEvent is the payload of eye-enter, eye-exit and eye-stay. Time is
// only set on eye-stay, in milliseconds.
type GazeEvent struct {
	ID           string  `json:"id"`
	ElementIndex *int    `json:"elementIndex"`
	Time         float64 `json:"time,omitempty"`
}

// Settings is the payload of eye-settings, in milliseconds.
type Settings struct {
	Timeout     int64 `json:"timeout"`
	ExitTimeout int64 `json:"exitTimeout"`
}

// SettingsFrom converts navigator settings to their wire form.
func SettingsFrom(s focus.Settings) Settings {
	return Settings{
		Timeout:     s.DwellTimeout.Milliseconds(),
		ExitTimeout: s.ExitTimeout.Milliseconds(),
	}
}

// Handler receives decoded gaze events. *focus.Navigator implements it.
type Handler interface {
	Enter(id string, index int)
	Exit(id string, index int)
	Stay(id string, index int, dwell time.Duration)
}

// Navigator is a Handler that also exposes its settings.
type Navigator interface {
	Handler
	Settings() focus.Settings
}

// Encode wraps v in an envelope for channel.
func Encode(channel string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", channel, err)
	}
	return json.Marshal(Envelope{Channel: channel, Data: data})
}

// Decode parses an envelope.
func Decode(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Channel == "" {
		return Envelope{}, fmt.Errorf("%w: missing channel", ErrMalformed)
	}
	return env, nil
}

// Dispatch decodes an inbound gaze envelope and calls the matching handler
// method.
func Dispatch(h Handler, env Envelope) error {
	switch env.Channel {
	case ChannelEnter, ChannelExit, ChannelStay:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownChannel, env.Channel)
	}

	var ev GazeEvent
	if err := json.Unmarshal(env.Data, &ev); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, env.Channel, err)
	}
	if ev.ElementIndex == nil {
		return fmt.Errorf("%w: %s: missing elementIndex", ErrMalformed, env.Channel)
	}

	switch env.Channel {
	case ChannelEnter:
		h.Enter(ev.ID, *ev.ElementIndex)
	case ChannelExit:
		h.Exit(ev.ID, *ev.ElementIndex)
	case ChannelStay:
		h.Stay(ev.ID, *ev.ElementIndex, time.Duration(ev.Time*float64(time.Millisecond)))
	}
	return nil
}
