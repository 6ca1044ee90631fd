// Package livelink interprets the JSON pose wire format: one JSON object per
// UDP datagram, mapping subject names to bone arrays and named scalar
// parameters. It produces per-subject static skeleton descriptions and
// animation frames for the publisher.
package livelink

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Decode errors. All of them mean "stop processing this datagram"; subjects
// decoded before the failure stand, nothing after it is produced.
var (
	ErrNotObject      = errors.New("datagram is not a JSON object")
	ErrSubjectPayload = errors.New("subject payload is not a JSON object")
	ErrBoneName       = errors.New("bone missing string field Name")
	ErrBoneParent     = errors.New("bone missing integer field Parent")
	ErrBoneLocation   = errors.New("bone Location is not a 3-element number array")
	ErrBoneRotation   = errors.New("bone Rotation is not a 4-element number array")
	ErrBoneScale      = errors.New("bone Scale is not a 3-element number array")
	ErrParameterName  = errors.New("parameter missing string field Name")
	ErrParameterValue = errors.New("parameter missing numeric field Value")
)

// Decoder turns one datagram's bytes into decoded subjects.
//
// By default the synthesized head angles come from whichever bone is iterated
// last in a subject's bone array, mirroring the sender's established
// behavior. SelectHeadBone pins them to a named bone instead.
type Decoder struct {
	mu       sync.RWMutex
	headBone string
	logger   *slog.Logger
}

// NewDecoder creates a decoder. logger may be nil.
func NewDecoder(logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{logger: logger}
}

// SelectHeadBone makes the decoder derive head angles from the named bone
// instead of the last-iterated one. An empty name restores the default. Safe
// to call concurrently with decoding; the change applies per datagram.
func (d *Decoder) SelectHeadBone(name string) {
	d.mu.Lock()
	d.headBone = name
	d.mu.Unlock()
}

func (d *Decoder) headBoneName() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.headBone
}

// DecodeDatagram parses one datagram. Subjects are returned in document
// order. On a structural error the subjects decoded so far are returned
// together with a non-nil error; the failing subject and everything after it
// in the same datagram are discarded.
func (d *Decoder) DecodeDatagram(data []byte) ([]Subject, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotObject, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, ErrNotObject
	}

	var subjects []Subject
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return subjects, fmt.Errorf("%w: %v", ErrNotObject, err)
		}
		name, ok := keyTok.(string)
		if !ok {
			return subjects, ErrNotObject
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return subjects, fmt.Errorf("subject %q: %w: %v", name, ErrSubjectPayload, err)
		}

		subject, err := d.decodeSubject(name, raw)
		if err != nil {
			d.logger.Debug("Dropping remainder of datagram", "subject", name, "error", err)
			return subjects, err
		}
		subjects = append(subjects, subject)
	}

	return subjects, nil
}

// subjectPayload keeps both sections raw so a missing or non-array section
// can be skipped instead of failing the whole payload.
type subjectPayload struct {
	Bone      json.RawMessage `json:"Bone"`
	Parameter json.RawMessage `json:"Parameter"`
}

// boneTransformFields is one element of the "Bone" array as seen by the
// transform pass. Name and Parent are validated separately in the first pass
// so a malformed transform cannot shadow a malformed name and vice versa.
type boneTransformFields struct {
	Location json.RawMessage `json:"Location"`
	Rotation json.RawMessage `json:"Rotation"`
	Scale    json.RawMessage `json:"Scale"`
}

func (d *Decoder) decodeSubject(name string, raw json.RawMessage) (Subject, error) {
	var payload subjectPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Subject{}, fmt.Errorf("subject %q: %w", name, ErrSubjectPayload)
	}

	bones, headQuat, err := d.decodeBones(payload.Bone)
	if err != nil {
		return Subject{}, fmt.Errorf("subject %q: %w", name, err)
	}

	headRoll, headPitch, headYaw := HeadAngles(headQuat)

	params, err := decodeParameters(payload.Parameter)
	if err != nil {
		return Subject{}, fmt.Errorf("subject %q: %w", name, err)
	}
	params = append(params,
		parameterRecord{Name: PropHeadRoll, Value: headRoll},
		parameterRecord{Name: PropHeadPitch, Value: headPitch},
		parameterRecord{Name: PropHeadYaw, Value: headYaw},
	)

	subject := Subject{
		Name: name,
		Static: SkeletonStaticData{
			BoneNames:     make([]string, len(bones)),
			BoneParents:   make([]int, len(bones)),
			PropertyNames: make([]string, len(params)),
		},
		Frame: AnimationFrameData{
			Transforms:     make([]Transform, len(bones)),
			PropertyValues: make([]float64, len(params)),
		},
	}
	for i, b := range bones {
		subject.Static.BoneNames[i] = b.Name
		subject.Static.BoneParents[i] = b.Parent
		subject.Frame.Transforms[i] = b.Transform
	}
	for i, p := range params {
		subject.Static.PropertyNames[i] = p.Name
		subject.Frame.PropertyValues[i] = p.Value
	}
	return subject, nil
}

// decodeBones walks the "Bone" array twice: first names and parent indices,
// then transforms. The returned quaternion is the head-angle source rotation:
// the selected bone's if a head bone is configured, otherwise the last one
// iterated. A missing or non-array Bone section yields an empty skeleton.
func (d *Decoder) decodeBones(raw json.RawMessage) ([]boneRecord, Quat, error) {
	headQuat := Identity()
	headBone := d.headBoneName()

	elements, ok := asArray(raw)
	if !ok {
		return nil, headQuat, nil
	}

	bones := make([]boneRecord, len(elements))
	for i, el := range elements {
		// Parent arrives as a JSON number; a fractional literal is truncated.
		var nameField struct {
			Name *string `json:"Name"`
		}
		if err := json.Unmarshal(el, &nameField); err != nil || nameField.Name == nil {
			return nil, headQuat, ErrBoneName
		}
		var parentField struct {
			Parent *float64 `json:"Parent"`
		}
		if err := json.Unmarshal(el, &parentField); err != nil || parentField.Parent == nil {
			return nil, headQuat, ErrBoneParent
		}
		bones[i].Name = *nameField.Name
		bones[i].Parent = int(*parentField.Parent)
	}

	headSeen := false
	for i, el := range elements {
		var bf boneTransformFields
		if err := json.Unmarshal(el, &bf); err != nil {
			return nil, headQuat, ErrBoneLocation
		}

		loc, ok := asVec3(bf.Location)
		if !ok {
			return nil, headQuat, ErrBoneLocation
		}
		rot, ok := asQuat(bf.Rotation)
		if !ok {
			return nil, headQuat, ErrBoneRotation
		}
		scale, ok := asVec3(bf.Scale)
		if !ok {
			return nil, headQuat, ErrBoneScale
		}

		bones[i].Transform = Transform{Location: loc, Rotation: rot, Scale: scale}

		switch {
		case headBone == "":
			// Last bone iterated wins.
			headQuat = rot
		case bones[i].Name == headBone:
			headQuat = rot
			headSeen = true
		}
	}

	if headBone != "" && !headSeen && len(elements) > 0 {
		d.logger.Debug("Configured head bone not present in subject", "bone", headBone)
	}
	return bones, headQuat, nil
}

// decodeParameters walks the "Parameter" array. A missing or non-array
// section yields no sender parameters; the caller appends the synthesized
// head angles either way.
func decodeParameters(raw json.RawMessage) ([]parameterRecord, error) {
	elements, ok := asArray(raw)
	if !ok {
		return nil, nil
	}

	params := make([]parameterRecord, len(elements))
	for i, el := range elements {
		var nameField struct {
			Name *string `json:"Name"`
		}
		if err := json.Unmarshal(el, &nameField); err != nil || nameField.Name == nil {
			return nil, ErrParameterName
		}
		params[i].Name = *nameField.Name
	}
	for i, el := range elements {
		var valueField struct {
			Value *float64 `json:"Value"`
		}
		if err := json.Unmarshal(el, &valueField); err != nil || valueField.Value == nil {
			return nil, ErrParameterValue
		}
		params[i].Value = *valueField.Value
	}
	return params, nil
}

// asArray reports whether raw holds a JSON array, returning its elements.
// nil raw (field absent) and non-array values both report false.
func asArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	if raw == nil {
		return nil, false
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, false
	}
	return elements, true
}

func asVec3(raw json.RawMessage) (Vec3, bool) {
	if raw == nil {
		return Vec3{}, false
	}
	var nums []float64
	if err := json.Unmarshal(raw, &nums); err != nil || len(nums) != 3 {
		return Vec3{}, false
	}
	return Vec3{X: nums[0], Y: nums[1], Z: nums[2]}, true
}

func asQuat(raw json.RawMessage) (Quat, bool) {
	if raw == nil {
		return Quat{}, false
	}
	var nums []float64
	if err := json.Unmarshal(raw, &nums); err != nil || len(nums) != 4 {
		return Quat{}, false
	}
	return Quat{X: nums[0], Y: nums[1], Z: nums[2], W: nums[3]}, true
}
