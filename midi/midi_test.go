package midi

import (
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"
)

func TestPadNoteMapping(t *testing.T) {
	for row := 0; row < GridSize; row++ {
		for col := 0; col <= GridSize; col++ {
			r, c, ok := noteToPad(padToNote(row, col))
			if !ok || r != row || c != col {
				t.Fatalf("round trip %d,%d -> %d,%d ok=%v", row, col, r, c, ok)
			}
		}
	}
	if _, _, ok := noteToPad(91); ok {
		t.Fatal("note 91 is not a grid pad")
	}
	if _, _, ok := noteToPad(10); ok {
		t.Fatal("note 10 is not a grid pad")
	}
}

func TestPadEventFromMessages(t *testing.T) {
	ev, ok := padEvent(gomidi.NoteOn(0, 11, 100))
	if !ok || ev.Row != 0 || ev.Col != 0 {
		t.Fatalf("note 11 -> %+v ok=%v", ev, ok)
	}

	ev, ok = padEvent(gomidi.ControlChange(0, 94, 127))
	if !ok || ev.Row != TopRow || ev.Col != 3 {
		t.Fatalf("cc 94 -> %+v ok=%v", ev, ok)
	}

	if _, ok := padEvent(gomidi.NoteOn(0, 11, 0)); ok {
		t.Fatal("zero velocity is a release")
	}
	if _, ok := padEvent(gomidi.ControlChange(0, 94, 0)); ok {
		t.Fatal("cc release should be ignored")
	}
	if _, ok := padEvent(gomidi.ControlChange(0, 1, 64)); ok {
		t.Fatal("cc 1 is not a pad")
	}
}

func TestControlEvent(t *testing.T) {
	ev, ok := controlEvent(gomidi.ControlChange(2, 1, 64))
	if !ok {
		t.Fatal("expected control change")
	}
	if ev.Channel != 2 || ev.Controller != 1 || ev.Value != 64 {
		t.Fatalf("got %+v", ev)
	}
	if _, ok := controlEvent(gomidi.NoteOn(0, 60, 100)); ok {
		t.Fatal("note on is not a control change")
	}
}

func TestNearestPaletteColor(t *testing.T) {
	cases := []struct {
		rgb  [3]uint8
		want uint8
	}{
		{[3]uint8{0, 0, 0}, 0},
		{[3]uint8{250, 250, 250}, 3},
		{[3]uint8{0, 250, 10}, 21},
		{[3]uint8{0, 35, 0}, 23},
		{[3]uint8{240, 10, 0}, 5},
	}
	for _, tc := range cases {
		if got := nearestPaletteColor(tc.rgb); got != tc.want {
			t.Errorf("nearestPaletteColor(%v) = %d, want %d", tc.rgb, got, tc.want)
		}
	}
}

func TestClassifyPort(t *testing.T) {
	cases := []struct {
		name, knob string
		want       ControllerType
	}{
		{"Launchpad X LPX MIDI", "", ControllerLaunchpad},
		{"Launchpad X LPX MIDI", "launchpad", ControllerLaunchpad},
		{"Launchpad X LPX DAW", "", ControllerUnknown},
		{"Arturia BeatStep", "beatstep", ControllerTempoKnob},
		{"Arturia BeatStep", "", ControllerUnknown},
		{"IAC Driver Bus 1", "beatstep", ControllerUnknown},
	}
	for _, tc := range cases {
		if got := classifyPort(tc.name, tc.knob); got != tc.want {
			t.Errorf("classifyPort(%q, %q) = %v, want %v", tc.name, tc.knob, got, tc.want)
		}
	}
}

func TestIgnorePort(t *testing.T) {
	dm := NewDeviceManager("")
	dm.Ignore("Launchpad X LPX MIDI")
	if !dm.ignored["launchpad x lpx midi"] {
		t.Fatal("port not ignored")
	}
	if len(dm.Controllers()) != 0 {
		t.Fatal("ignoring opened a controller")
	}
}
