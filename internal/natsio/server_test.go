package natsio

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/poselink/poselink/internal/livelink"
)

func TestServerStartStop(t *testing.T) {
	srv := NewServer(ServerOptions{Port: -1})
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Stop()

	if !srv.IsRunning() {
		t.Error("Expected server to be running")
	}
	if srv.ClientURL() == "" {
		t.Error("Expected non-empty client URL")
	}
}

func TestPublisherRoundTrip(t *testing.T) {
	srv := NewServer(ServerOptions{Port: -1})
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Stop()

	sub, err := nats.Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("Connect subscriber: %v", err)
	}
	defer sub.Close()

	statics := make(chan *nats.Msg, 1)
	frames := make(chan *nats.Msg, 1)
	if _, err := sub.ChanSubscribe(StaticSubject("Performer01"), statics); err != nil {
		t.Fatalf("Subscribe static: %v", err)
	}
	if _, err := sub.ChanSubscribe(FrameSubject("Performer01"), frames); err != nil {
		t.Fatalf("Subscribe frame: %v", err)
	}
	if err := sub.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	pub := NewPublisher(srv.ClientURL(), nil)
	if err := pub.Connect(); err != nil {
		t.Fatalf("Connect publisher: %v", err)
	}
	defer pub.Close()

	key := livelink.SubjectKey{Source: uuid.New(), Subject: "Performer01"}
	static := livelink.SkeletonStaticData{
		BoneNames:     []string{"root", "head"},
		BoneParents:   []int{-1, 0},
		PropertyNames: []string{"headRoll", "headPitch", "headYaw"},
	}
	if err := pub.PushStaticData(key, livelink.RoleAnimation, static); err != nil {
		t.Fatalf("PushStaticData: %v", err)
	}
	frame := livelink.AnimationFrameData{
		Transforms:     []livelink.Transform{{Rotation: livelink.Identity(), Scale: livelink.Vec3{X: 1, Y: 1, Z: 1}}},
		PropertyValues: []float64{0, 0, 0},
	}
	if err := pub.PushFrameData(key, frame); err != nil {
		t.Fatalf("PushFrameData: %v", err)
	}

	select {
	case msg := <-statics:
		got, err := UnmarshalStatic(msg.Data)
		if err != nil {
			t.Fatalf("UnmarshalStatic: %v", err)
		}
		if got.Subject != "Performer01" || len(got.BoneNames) != 2 {
			t.Errorf("Unexpected static message: %+v", got)
		}
		if got.Source != key.Source.String() {
			t.Errorf("Source = %s, want %s", got.Source, key.Source)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for static message")
	}

	select {
	case msg := <-frames:
		got, err := UnmarshalFrame(msg.Data)
		if err != nil {
			t.Fatalf("UnmarshalFrame: %v", err)
		}
		if len(got.Transforms) != 1 || len(got.PropertyValues) != 3 {
			t.Errorf("Unexpected frame message: %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for frame message")
	}
}

func TestPublishNotConnected(t *testing.T) {
	pub := NewPublisher("nats://127.0.0.1:4222", nil)
	key := livelink.SubjectKey{Source: uuid.New(), Subject: "X"}
	if err := pub.PushFrameData(key, livelink.AnimationFrameData{}); err == nil {
		t.Error("Expected error when not connected")
	}
}
