// Package publisher defines the push surface into the downstream animation
// subsystem. Implementations take ownership of the passed data; callers must
// not retain or mutate it after a push.
package publisher

import (
	"log/slog"

	"github.com/poselink/poselink/internal/livelink"
)

// Publisher receives decoded subject data. Both calls happen on the consumer
// goroutine; implementations need not be safe for concurrent use.
type Publisher interface {
	// PushStaticData delivers a freshly built skeleton description. It is
	// called on every sighting, not just the first; consumers are expected
	// to treat redundant static pushes as cheap or idempotent.
	PushStaticData(key livelink.SubjectKey, role livelink.Role, data livelink.SkeletonStaticData) error
	// PushFrameData delivers one animation frame, positionally aligned with
	// the most recent static description for the same key.
	PushFrameData(key livelink.SubjectKey, data livelink.AnimationFrameData) error
}

// LogPublisher writes pushes to the log. It is the fallback when no
// republish transport is configured, and doubles as a debugging tap.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a publisher that logs pushes at debug level.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

// PushStaticData implements Publisher.
func (p *LogPublisher) PushStaticData(key livelink.SubjectKey, role livelink.Role, data livelink.SkeletonStaticData) error {
	p.logger.Debug("Static data",
		"subject", key.Subject,
		"role", string(role),
		"bones", len(data.BoneNames),
		"properties", len(data.PropertyNames))
	return nil
}

// PushFrameData implements Publisher.
func (p *LogPublisher) PushFrameData(key livelink.SubjectKey, data livelink.AnimationFrameData) error {
	p.logger.Debug("Frame data",
		"subject", key.Subject,
		"transforms", len(data.Transforms),
		"values", len(data.PropertyValues))
	return nil
}
