package events

// Event type constants for kelindar/event.
const (
	TypeSubjectDiscovered uint32 = iota + 1
	TypeFrameDecoded
	TypeDecodeError
	TypeListenerState
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// SubjectDiscoveredEvent fires the first time a subject name appears on the
// stream during this listener's lifetime.
type SubjectDiscoveredEvent struct {
	Subject   string `json:"subject" example:"Performer01" doc:"Subject name from the datagram"`
	Source    string `json:"source" doc:"Listener source identity"`
	BoneCount int    `json:"bone_count" example:"52" doc:"Number of bones in the static description"`
	Timestamp string `json:"timestamp" example:"2026-08-31T10:30:00Z" doc:"Discovery timestamp"`
}

// Type returns the event type identifier for SubjectDiscoveredEvent.
func (e SubjectDiscoveredEvent) Type() uint32 { return TypeSubjectDiscovered }

// FrameDecodedEvent fires for every published animation frame.
type FrameDecodedEvent struct {
	Subject    string `json:"subject" example:"Performer01" doc:"Subject name"`
	Bones      int    `json:"bones" doc:"Transforms in the frame"`
	Properties int    `json:"properties" doc:"Scalar parameter values, synthesized head angles included"`
	Timestamp  string `json:"timestamp" doc:"Decode timestamp"`
}

// Type returns the event type identifier for FrameDecodedEvent.
func (e FrameDecodedEvent) Type() uint32 { return TypeFrameDecoded }

// DecodeErrorEvent fires when a datagram was dropped part-way or entirely.
type DecodeErrorEvent struct {
	Reason    string `json:"reason" example:"bone missing integer field Parent" doc:"Why decoding stopped"`
	Bytes     int    `json:"bytes" doc:"Size of the offending datagram"`
	Timestamp string `json:"timestamp" doc:"Error timestamp"`
}

// Type returns the event type identifier for DecodeErrorEvent.
func (e DecodeErrorEvent) Type() uint32 { return TypeDecodeError }

// ListenerStateEvent reports listener lifecycle transitions.
type ListenerStateEvent struct {
	Status    string `json:"status" example:"Receiving" doc:"Listener status"`
	Endpoint  string `json:"endpoint" example:"239.255.0.1:54321" doc:"Configured endpoint"`
	Timestamp string `json:"timestamp" doc:"Transition timestamp"`
}

// Type returns the event type identifier for ListenerStateEvent.
func (e ListenerStateEvent) Type() uint32 { return TypeListenerState }

// LogEntryEvent carries one log line for SSE streaming.
type LogEntryEvent struct {
	Timestamp  string         `json:"timestamp" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"bridge" doc:"Module that emitted the entry"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
