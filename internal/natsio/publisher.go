package natsio

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/poselink/poselink/internal/livelink"
)

// Publisher republishes decoded pose data on NATS subjects. It satisfies
// publisher.Publisher. Pushes are fire-and-forget; NATS handles buffering
// and reconnects.
type Publisher struct {
	url    string
	conn   *nats.Conn
	logger *slog.Logger
}

// NewPublisher creates a NATS publisher for the given server URL.
func NewPublisher(url string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		url:    url,
		logger: logger.With("component", "nats-publisher"),
	}
}

// SetURL changes the server URL. Must be called before Connect; the embedded
// server's client URL is only known once it has started.
func (p *Publisher) SetURL(url string) {
	p.url = url
}

// IsConnected reports whether the NATS connection is currently up.
func (p *Publisher) IsConnected() bool {
	return p.conn != nil && p.conn.IsConnected()
}

// Connect establishes the NATS connection with infinite reconnects.
func (p *Publisher) Connect() error {
	conn, err := nats.Connect(p.url,
		nats.Name("poselink-publisher"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				p.logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			p.logger.Info("NATS reconnected")
		}),
	)
	if err != nil {
		return fmt.Errorf("connect to NATS at %s: %w", p.url, err)
	}

	p.conn = conn
	p.logger.Info("Connected to NATS", "url", p.url)
	return nil
}

// Close flushes and closes the connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}

// PushStaticData implements publisher.Publisher.
func (p *Publisher) PushStaticData(key livelink.SubjectKey, role livelink.Role, data livelink.SkeletonStaticData) error {
	msg := StaticMessage{
		Source:        key.Source.String(),
		Subject:       key.Subject,
		Role:          string(role),
		BoneNames:     data.BoneNames,
		BoneParents:   data.BoneParents,
		PropertyNames: data.PropertyNames,
		Timestamp:     time.Now().UTC().Format(time.RFC3339Nano),
	}
	body, err := msg.Marshal()
	if err != nil {
		return fmt.Errorf("marshal static message: %w", err)
	}
	return p.publish(StaticSubject(key.Subject), body)
}

// PushFrameData implements publisher.Publisher.
func (p *Publisher) PushFrameData(key livelink.SubjectKey, data livelink.AnimationFrameData) error {
	msg := FrameMessage{
		Source:         key.Source.String(),
		Subject:        key.Subject,
		Transforms:     data.Transforms,
		PropertyValues: data.PropertyValues,
		Timestamp:      time.Now().UTC().Format(time.RFC3339Nano),
	}
	body, err := msg.Marshal()
	if err != nil {
		return fmt.Errorf("marshal frame message: %w", err)
	}
	return p.publish(FrameSubject(key.Subject), body)
}

func (p *Publisher) publish(subject string, body []byte) error {
	if p.conn == nil {
		return fmt.Errorf("publish %s: not connected", subject)
	}
	if err := p.conn.Publish(subject, body); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}
