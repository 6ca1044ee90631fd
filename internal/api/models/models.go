package models

import "time"

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Bridge status models
type StatusData struct {
	ListenerStatus string `json:"listener_status" example:"Receiving" doc:"Listener lifecycle state"`
	Endpoint       string `json:"endpoint" example:"0.0.0.0:54321" doc:"Bound UDP endpoint"`
	Source         string `json:"source" example:"7c9e6679-7425-40de-944b-e07fc1f90ae7" doc:"Source identity attached to published subjects"`
	SubjectCount   int    `json:"subject_count" example:"2" doc:"Distinct subjects seen since startup"`
	NATSConnected  bool   `json:"nats_connected" doc:"Whether the republish transport is connected"`
	Uptime         string `json:"uptime" example:"1h23m45s" doc:"Time since the bridge started"`
}

type StatusResponse struct {
	Body StatusData
}

// Subject models
type SubjectData struct {
	Name          string    `json:"name" example:"Performer01" doc:"Subject name from the wire"`
	BoneCount     int       `json:"bone_count" example:"52" doc:"Bones in the last static description"`
	PropertyCount int       `json:"property_count" example:"5" doc:"Scalar properties, synthesized head angles included"`
	Frames        uint64    `json:"frames" example:"18000" doc:"Animation frames pushed since discovery"`
	FirstSeen     time.Time `json:"first_seen" doc:"When the subject was first decoded"`
	LastSeen      time.Time `json:"last_seen" doc:"When the subject last produced a frame"`
}

type SubjectListData struct {
	Subjects []SubjectData `json:"subjects" doc:"Subjects in discovery order"`
	Count    int           `json:"count" example:"2" doc:"Number of subjects"`
}

type SubjectListResponse struct {
	Body SubjectListData
}

// Log history models
type LogEntryData struct {
	Timestamp  time.Time      `json:"timestamp" doc:"When the entry was logged"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"bridge" doc:"Module that emitted the entry"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured attributes"`
}

type LogListData struct {
	Entries []LogEntryData `json:"entries" doc:"Buffered entries, oldest first"`
	Count   int            `json:"count" example:"128" doc:"Number of entries"`
}

type LogListResponse struct {
	Body LogListData
}

// Error response
type ErrorData struct {
	Status  string `json:"status" example:"error" doc:"Error status"`
	Message string `json:"message" example:"Subject not found" doc:"Error message"`
}

type ErrorResponse struct {
	Body ErrorData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit SHA"`
	BuildDate string `json:"build_date" example:"2024-12-15 14:30" doc:"Build timestamp"`
	BuildID   string `json:"build_id" example:"a1b2c3d4" doc:"Unique build identifier"`
	GoVersion string `json:"go_version" example:"go1.24.0" doc:"Go compiler version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Compiler used"`
	Platform  string `json:"platform" example:"linux/amd64" doc:"Platform"`
}

type VersionResponse struct {
	Body VersionData
}
