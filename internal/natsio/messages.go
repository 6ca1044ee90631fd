package natsio

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/poselink/poselink/internal/livelink"
)

// SubjectPrefix is the NATS subject namespace for republished pose data.
const SubjectPrefix = "poselink.subjects"

// StaticSubject returns the NATS subject carrying a subject's skeleton
// static descriptions.
func StaticSubject(name string) string {
	return fmt.Sprintf("%s.%s.static", SubjectPrefix, Token(name))
}

// FrameSubject returns the NATS subject carrying a subject's animation
// frames.
func FrameSubject(name string) string {
	return fmt.Sprintf("%s.%s.frame", SubjectPrefix, Token(name))
}

// Token turns an arbitrary subject name into a valid NATS subject token.
// NATS tokens cannot contain whitespace, dots, or wildcard characters.
func Token(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '.', '*', '>':
			return '_'
		default:
			return r
		}
	}, name)
	if mapped == "" {
		return "_"
	}
	return mapped
}

// StaticMessage is the JSON body published per static description push.
type StaticMessage struct {
	Source        string   `json:"source"`
	Subject       string   `json:"subject"`
	Role          string   `json:"role"`
	BoneNames     []string `json:"bone_names"`
	BoneParents   []int    `json:"bone_parents"`
	PropertyNames []string `json:"property_names"`
	Timestamp     string   `json:"timestamp"`
}

// Marshal serializes the message to JSON.
func (m StaticMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// UnmarshalStatic parses a StaticMessage from JSON.
func UnmarshalStatic(data []byte) (StaticMessage, error) {
	var m StaticMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("invalid static message: %w", err)
	}
	return m, nil
}

// FrameMessage is the JSON body published per frame push.
type FrameMessage struct {
	Source         string               `json:"source"`
	Subject        string               `json:"subject"`
	Transforms     []livelink.Transform `json:"transforms"`
	PropertyValues []float64            `json:"property_values"`
	Timestamp      string               `json:"timestamp"`
}

// Marshal serializes the message to JSON.
func (m FrameMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// UnmarshalFrame parses a FrameMessage from JSON.
func UnmarshalFrame(data []byte) (FrameMessage, error) {
	var m FrameMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("invalid frame message: %w", err)
	}
	return m, nil
}
