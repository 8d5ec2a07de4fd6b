package ipc

import (
	"fmt"
	"strings"
	"time"

	"github.com/bryanchriswhite/EyeFocus/internal/logger"
	"github.com/bryanchriswhite/EyeFocus/internal/registry"
	"github.com/nats-io/nats.go"
)

// ConnectNATS dials a NATS server with unlimited reconnects.
func ConnectNATS(url, name string) (*nats.Conn, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.Timeout(5*time.Second),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}

// NATSBridge speaks the tracker protocol over NATS. Each channel maps to the
// subject "<prefix>.<channel>". A request on "<prefix>.eye-settings" is
// answered with the current settings.
type NATSBridge struct {
	conn   *nats.Conn
	prefix string
	nav    Navigator
	subs   []*nats.Subscription
}

// NewNATSBridge subscribes to the inbound gaze subjects and announces the
// current settings.
func NewNATSBridge(conn *nats.Conn, prefix string, nav Navigator) (*NATSBridge, error) {
	b := &NATSBridge{conn: conn, prefix: prefix, nav: nav}

	for _, ch := range []string{ChannelEnter, ChannelExit, ChannelStay, ChannelSettings} {
		sub, err := conn.Subscribe(b.subject(ch), b.handle)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("nats subscribe %s: %w", b.subject(ch), err)
		}
		b.subs = append(b.subs, sub)
	}

	if err := b.PublishSettings(); err != nil {
		b.Close()
		return nil, err
	}

	logger.WithComponent("ipc-nats").Info().
		Str("url", conn.ConnectedUrl()).
		Str("prefix", prefix).
		Msg("NATS bridge ready")
	return b, nil
}

func (b *NATSBridge) subject(channel string) string {
	return b.prefix + "." + channel
}

// PublishElements implements registry.Publisher.
func (b *NATSBridge) PublishElements(p registry.Payload) error {
	msg, err := Encode(ChannelElements, p)
	if err != nil {
		return err
	}
	return b.conn.Publish(b.subject(ChannelElements), msg)
}

// PublishSettings announces the navigator's current settings.
func (b *NATSBridge) PublishSettings() error {
	msg, err := Encode(ChannelSettings, SettingsFrom(b.nav.Settings()))
	if err != nil {
		return err
	}
	return b.conn.Publish(b.subject(ChannelSettings), msg)
}

func (b *NATSBridge) handle(msg *nats.Msg) {
	log := logger.WithComponent("ipc-nats")
	channel := strings.TrimPrefix(msg.Subject, b.prefix+".")

	if channel == ChannelSettings {
		// Our own announcements arrive here too; only requests get an answer.
		if msg.Reply == "" {
			return
		}
		reply, err := Encode(ChannelSettings, SettingsFrom(b.nav.Settings()))
		if err == nil {
			err = msg.Respond(reply)
		}
		if err != nil {
			log.Warn().Err(err).Msg("Failed to answer settings request")
		}
		return
	}

	env, err := Decode(msg.Data)
	if err == nil && env.Channel != channel {
		err = fmt.Errorf("%w: channel %q on subject %q", ErrMalformed, env.Channel, msg.Subject)
	}
	if err == nil {
		err = Dispatch(b.nav, env)
	}
	if err != nil {
		metricMessages.WithLabelValues("nats", "dropped").Inc()
		log.Debug().Err(err).Str("subject", msg.Subject).Msg("Dropping tracker message")
		return
	}
	metricMessages.WithLabelValues("nats", channel).Inc()
}

// Close unsubscribes. The connection stays open.
func (b *NATSBridge) Close() {
	for _, sub := range b.subs {
		if err := sub.Unsubscribe(); err != nil {
			logger.WithComponent("ipc-nats").Debug().Err(err).Msg("Unsubscribe failed")
		}
	}
	b.subs = nil
}
