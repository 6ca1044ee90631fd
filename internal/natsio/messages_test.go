package natsio

import "testing"

func TestToken(t *testing.T) {
	cases := map[string]string{
		"Performer01":   "Performer01",
		"Performer 01":  "Performer_01",
		"a.b":           "a_b",
		"wild*card>":    "wild_card_",
		"":              "_",
		"tab\tseparate": "tab_separate",
	}
	for in, want := range cases {
		if got := Token(in); got != want {
			t.Errorf("Token(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSubjectNames(t *testing.T) {
	if got := StaticSubject("Performer 01"); got != "poselink.subjects.Performer_01.static" {
		t.Errorf("Unexpected static subject: %s", got)
	}
	if got := FrameSubject("Performer 01"); got != "poselink.subjects.Performer_01.frame" {
		t.Errorf("Unexpected frame subject: %s", got)
	}
}

func TestMessageRoundTrip(t *testing.T) {
	msg := StaticMessage{
		Source:        "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		Subject:       "Performer01",
		Role:          "animation",
		BoneNames:     []string{"root", "head"},
		BoneParents:   []int{-1, 0},
		PropertyNames: []string{"smile", "headRoll", "headPitch", "headYaw"},
		Timestamp:     "2026-08-31T10:30:00Z",
	}

	body, err := msg.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	got, err := UnmarshalStatic(body)
	if err != nil {
		t.Fatalf("UnmarshalStatic: %v", err)
	}
	if got.Subject != msg.Subject || len(got.BoneNames) != 2 || got.BoneParents[0] != -1 {
		t.Errorf("Round trip mismatch: %+v", got)
	}

	if _, err := UnmarshalFrame([]byte("not json")); err == nil {
		t.Error("Expected error for invalid frame message")
	}
}
