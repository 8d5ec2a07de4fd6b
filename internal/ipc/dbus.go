package ipc

import (
	"fmt"
	"time"

	"github.com/bryanchriswhite/EyeFocus/internal/focus"
	"github.com/bryanchriswhite/EyeFocus/internal/logger"
	"github.com/bryanchriswhite/EyeFocus/internal/registry"
	"github.com/godbus/dbus/v5"
)

// Session bus object and interface the focus signals are emitted on.
const (
	DBusPath      = dbus.ObjectPath("/org/eyefocus/Focus")
	DBusInterface = "org.eyefocus.Focus"
)

type signalEmitter interface {
	Emit(path dbus.ObjectPath, name string, values ...interface{}) error
	Close() error
}

// DBusSink implements focus.Sink by emitting session bus signals:
// Enter(key, source), Exit(key, source), Stay(key, ms) and Activate(key).
type DBusSink struct {
	conn signalEmitter
}

// NewDBusSink connects to the session bus.
func NewDBusSink() (*DBusSink, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &DBusSink{conn: conn}, nil
}

func (s *DBusSink) Enter(el registry.Element, src focus.Source) {
	s.emit("Enter", el.Key(), string(src))
}

func (s *DBusSink) Exit(el registry.Element, src focus.Source) {
	s.emit("Exit", el.Key(), string(src))
}

func (s *DBusSink) Stay(el registry.Element, dwell time.Duration) {
	s.emit("Stay", el.Key(), dwell.Milliseconds())
}

func (s *DBusSink) Activate(el registry.Element) {
	s.emit("Activate", el.Key())
}

func (s *DBusSink) emit(member string, values ...interface{}) {
	if err := s.conn.Emit(DBusPath, DBusInterface+"."+member, values...); err != nil {
		logger.WithComponent("ipc-dbus").Warn().Err(err).Str("signal", member).Msg("Failed to emit signal")
	}
}

// Close closes the bus connection.
func (s *DBusSink) Close() error {
	return s.conn.Close()
}
