// Package bridge owns the decode pipeline between the UDP listener and the
// publisher. Datagrams are handed off through a bounded FIFO and processed by
// a single consumer goroutine, so the decoder, registry, and publisher never
// see concurrent access.
package bridge

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/poselink/poselink/internal/events"
	"github.com/poselink/poselink/internal/livelink"
	"github.com/poselink/poselink/internal/metrics"
	"github.com/poselink/poselink/internal/publisher"
)

// DefaultQueueSize bounds the dispatch FIFO. The listener drops datagrams
// rather than block when the consumer falls behind.
const DefaultQueueSize = 256

// SubjectInfo is a point-in-time view of one subject for the status API.
type SubjectInfo struct {
	Name          string    `json:"name" example:"Performer01" doc:"Subject name"`
	BoneCount     int       `json:"bone_count" doc:"Bones in the last static description"`
	PropertyCount int       `json:"property_count" doc:"Scalar properties, synthesized head angles included"`
	Frames        uint64    `json:"frames" doc:"Animation frames pushed since discovery"`
	FirstSeen     time.Time `json:"first_seen" doc:"When the subject was first decoded"`
	LastSeen      time.Time `json:"last_seen" doc:"When the subject last produced a frame"`
}

// Options configures a Bridge. Publisher is required; everything else has a
// working default.
type Options struct {
	Publisher publisher.Publisher
	Bus       *events.Bus
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Source    uuid.UUID
	HeadBone  string
	QueueSize int
}

// Bridge runs the consumer side of the datagram pipeline.
type Bridge struct {
	decoder  *livelink.Decoder
	registry *livelink.SubjectRegistry
	pub      publisher.Publisher
	bus      *events.Bus
	metrics  *metrics.Metrics
	logger   *slog.Logger
	source   uuid.UUID

	queue    chan []byte
	stop     chan struct{}
	done     chan struct{}
	started  atomic.Bool
	stopping atomic.Bool
	once     sync.Once

	mu       sync.RWMutex
	subjects map[string]*SubjectInfo
}

// New creates a Bridge. Call Start to launch the consumer goroutine.
func New(opts Options) *Bridge {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Source == uuid.Nil {
		opts.Source = uuid.New()
	}
	dec := livelink.NewDecoder(opts.Logger)
	if opts.HeadBone != "" {
		dec.SelectHeadBone(opts.HeadBone)
	}
	return &Bridge{
		decoder:  dec,
		registry: livelink.NewSubjectRegistry(),
		pub:      opts.Publisher,
		bus:      opts.Bus,
		metrics:  opts.Metrics,
		logger:   opts.Logger.With("component", "bridge"),
		source:   opts.Source,
		queue:    make(chan []byte, opts.QueueSize),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		subjects: make(map[string]*SubjectInfo),
	}
}

// Start launches the consumer goroutine. Calling it again is a no-op.
func (b *Bridge) Start() {
	if b.started.CompareAndSwap(false, true) {
		go b.run()
	}
}

// SetHeadBone changes which bone the synthesized head angles derive from; an
// empty name restores the last-bone default. Takes effect from the next
// datagram and is safe to call while the consumer is running.
func (b *Bridge) SetHeadBone(name string) {
	b.decoder.SelectHeadBone(name)
}

// Enqueue hands one datagram to the consumer. Ownership of buf transfers to
// the bridge. It never blocks; a full queue drops the datagram and returns
// false. Safe to call from the listener goroutine.
func (b *Bridge) Enqueue(buf []byte) bool {
	if b.stopping.Load() {
		return false
	}
	select {
	case b.queue <- buf:
		return true
	default:
		if b.metrics != nil {
			b.metrics.DatagramsDropped.Inc()
		}
		return false
	}
}

// Close stops the consumer and waits for it to finish. Datagrams still queued
// are processed before shutdown completes.
func (b *Bridge) Close() {
	b.once.Do(func() {
		b.stopping.Store(true)
		close(b.stop)
		// done is only closed by the consumer goroutine; don't wait for a
		// goroutine that was never started.
		if b.started.Load() {
			<-b.done
		}
	})
}

// Source returns the bridge's source identity.
func (b *Bridge) Source() uuid.UUID {
	return b.source
}

// Subjects returns a snapshot of all subjects seen so far, ordered by first
// sighting. Safe for concurrent use.
func (b *Bridge) Subjects() []SubjectInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]SubjectInfo, 0, len(b.subjects))
	for _, info := range b.subjects {
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FirstSeen.Before(out[j].FirstSeen)
	})
	return out
}

func (b *Bridge) run() {
	defer close(b.done)
	for {
		select {
		case buf := <-b.queue:
			b.process(buf)
		case <-b.stop:
			// Drain whatever the listener managed to enqueue.
			for {
				select {
				case buf := <-b.queue:
					b.process(buf)
				default:
					return
				}
			}
		}
	}
}

func (b *Bridge) process(buf []byte) {
	if b.metrics != nil {
		b.metrics.DatagramsReceived.Inc()
		b.metrics.BytesReceived.Add(float64(len(buf)))
	}

	subjects, err := b.decoder.DecodeDatagram(buf)
	if err != nil {
		if b.metrics != nil {
			b.metrics.DecodeFailures.Inc()
		}
		b.logger.Warn("Datagram aborted", "error", err, "bytes", len(buf))
		b.publishEvent(events.DecodeErrorEvent{
			Reason:    err.Error(),
			Bytes:     len(buf),
			Timestamp: timestamp(),
		})
	}

	// Subjects decoded before the abort point still publish.
	for i := range subjects {
		b.publishSubject(&subjects[i])
	}
}

func (b *Bridge) publishSubject(sub *livelink.Subject) {
	key := livelink.SubjectKey{Source: b.source, Subject: sub.Name}

	// Static data goes out on every sighting; downstream treats repeats as
	// idempotent. The registry only gates the discovery event.
	if err := b.pub.PushStaticData(key, livelink.RoleAnimation, sub.Static); err != nil {
		if b.metrics != nil {
			b.metrics.PublishErrors.Inc()
		}
		b.logger.Warn("Static push failed", "subject", sub.Name, "error", err)
	} else if b.metrics != nil {
		b.metrics.StaticPushes.WithLabelValues(sub.Name).Inc()
	}

	if !b.registry.Contains(sub.Name) {
		b.registry.Insert(sub.Name)
		if b.metrics != nil {
			b.metrics.SubjectsKnown.Set(float64(b.registry.Len()))
		}
		b.logger.Info("Subject discovered",
			"subject", sub.Name,
			"bones", len(sub.Static.BoneNames),
			"properties", len(sub.Static.PropertyNames))
		b.publishEvent(events.SubjectDiscoveredEvent{
			Subject:   sub.Name,
			Source:    b.source.String(),
			BoneCount: len(sub.Static.BoneNames),
			Timestamp: timestamp(),
		})
	}

	if err := b.pub.PushFrameData(key, sub.Frame); err != nil {
		if b.metrics != nil {
			b.metrics.PublishErrors.Inc()
		}
		b.logger.Warn("Frame push failed", "subject", sub.Name, "error", err)
	} else if b.metrics != nil {
		b.metrics.FramePushes.WithLabelValues(sub.Name).Inc()
	}

	b.publishEvent(events.FrameDecodedEvent{
		Subject:    sub.Name,
		Bones:      len(sub.Frame.Transforms),
		Properties: len(sub.Frame.PropertyValues),
		Timestamp:  timestamp(),
	})

	b.recordSighting(sub)
}

func (b *Bridge) recordSighting(sub *livelink.Subject) {
	now := time.Now().UTC()
	b.mu.Lock()
	defer b.mu.Unlock()
	info, ok := b.subjects[sub.Name]
	if !ok {
		info = &SubjectInfo{Name: sub.Name, FirstSeen: now}
		b.subjects[sub.Name] = info
	}
	info.BoneCount = len(sub.Static.BoneNames)
	info.PropertyCount = len(sub.Static.PropertyNames)
	info.Frames++
	info.LastSeen = now
}

func (b *Bridge) publishEvent(ev events.Event) {
	if b.bus != nil {
		b.bus.Publish(ev)
	}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
