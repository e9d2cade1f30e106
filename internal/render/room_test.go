package render

import (
	"math"
	"testing"
)

func TestRoomGenerateIsDeterministicAndNormalized(t *testing.T) {
	room := DefaultRoom(48000, 0.4)
	l1, r1, err := room.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	l2, r2, err := room.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if want := int(math.Round(room.Length * 48000)); len(l1) != want || len(r1) != want {
		t.Fatalf("length: got=%d/%d want=%d", len(l1), len(r1), want)
	}
	if maxAbsDiff(l1, l2) != 0 || maxAbsDiff(r1, r2) != 0 {
		t.Fatalf("same seed produced different responses")
	}
	if p := Peak(l1, r1); math.Abs(float64(p)-room.Wet) > 1e-5 {
		t.Fatalf("peak: got=%f want=%f", p, room.Wet)
	}
	if math.Abs(float64(l1[len(l1)-1])) > 1e-4 || math.Abs(float64(r1[len(r1)-1])) > 1e-4 {
		t.Fatalf("tail not faded to zero: %g %g", l1[len(l1)-1], r1[len(r1)-1])
	}
	if maxAbsDiff(l1, r1) == 0 {
		t.Fatalf("expected decorrelated stereo channels")
	}
}

func TestRoomRejectsInvalidSettings(t *testing.T) {
	for name, mut := range map[string]func(*Room){
		"sample rate": func(r *Room) { r.SampleRate = 100 },
		"length":      func(r *Room) { r.Length = 0 },
		"decay":       func(r *Room) { r.Decay = 0 },
		"wet":         func(r *Room) { r.Wet = -1 },
	} {
		r := DefaultRoom(48000, 0.5)
		mut(&r)
		if _, _, err := r.Generate(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
