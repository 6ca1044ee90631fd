package livelink

import "github.com/google/uuid"

// Role identifies how a downstream consumer should interpret a subject.
type Role string

// RoleAnimation marks a subject as a skeletal animation subject.
const RoleAnimation Role = "animation"

// NoParent is the parent index senders use for a root bone.
const NoParent = -1

// Vec3 is a 3-component vector (X, Y, Z).
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quat is a rotation quaternion in X, Y, Z, W component order,
// matching the wire format's "Rotation" array.
type Quat struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Identity returns the identity rotation.
func Identity() Quat {
	return Quat{W: 1}
}

// Transform is a bone-local transform.
type Transform struct {
	Location Vec3 `json:"location"`
	Rotation Quat `json:"rotation"`
	Scale    Vec3 `json:"scale"`
}

// SubjectKey identifies a subject within one listener instance.
// Source is the stable identity assigned to the listener at construction;
// Subject is the JSON object key the subject's payload appeared under.
type SubjectKey struct {
	Source  uuid.UUID `json:"source"`
	Subject string    `json:"subject"`
}

// SkeletonStaticData is the time-invariant part of a subject: bone names,
// hierarchy, and the parameter name list. BoneNames and BoneParents are
// positionally aligned; PropertyNames aligns with AnimationFrameData.PropertyValues.
type SkeletonStaticData struct {
	BoneNames     []string `json:"bone_names"`
	BoneParents   []int    `json:"bone_parents"`
	PropertyNames []string `json:"property_names"`
}

// AnimationFrameData is the time-varying part of a subject. Transforms aligns
// positionally with SkeletonStaticData.BoneNames, PropertyValues with
// SkeletonStaticData.PropertyNames.
type AnimationFrameData struct {
	Transforms     []Transform `json:"transforms"`
	PropertyValues []float64   `json:"property_values"`
}

// Subject is one decoded subject from a datagram: the freshly built static
// description plus the frame payload. Both are handed to the publisher by
// value; the decoder retains nothing.
type Subject struct {
	Name   string
	Static SkeletonStaticData
	Frame  AnimationFrameData
}

// boneRecord pairs name, parent and transform for one bone so the positional
// alignment between the static and frame sequences cannot drift. The parallel
// wire-compatible slices are produced from these records in one place.
type boneRecord struct {
	Name      string
	Parent    int
	Transform Transform
}

// parameterRecord pairs a parameter name with its value.
type parameterRecord struct {
	Name  string
	Value float64
}
