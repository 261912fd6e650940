package timeline

import "testing"

func TestNextCameraNumber(t *testing.T) {
	tests := []struct {
		name   string
		tracks []*Track
		want   int
	}{
		{"empty sector", nil, 1},
		{"single camera", []*Track{{Name: "Camera 1"}}, 2},
		{"gap is not reused", []*Track{{Name: "Camera 1"}, {Name: "Camera 3"}}, 4},
		{"non-matching names ignored", []*Track{{Name: "Camera 2"}, {Name: "Ambience"}, {Name: "Camera 10 (old)"}}, 3},
		{"double digits", []*Track{{Name: "Camera 12"}}, 13},
		{"audio tracks still scanned", []*Track{{Name: "Camera 5", Type: TrackAudio}}, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextCameraNumber(tt.tracks); got != tt.want {
				t.Errorf("NextCameraNumber() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNextTrackIndex(t *testing.T) {
	tracks := []*Track{{Index: 0}, {Index: 4}, {Index: 2}}
	if got := NextTrackIndex(tracks); got != 5 {
		t.Errorf("NextTrackIndex() = %d, want 5", got)
	}
	if got := NextTrackIndex(nil); got != 0 {
		t.Errorf("NextTrackIndex(nil) = %d, want 0", got)
	}
}

func TestPrinterLabeler(t *testing.T) {
	labels := NewPrinterLabeler()
	if got := labels.Label(7); got != "Camera 7" {
		t.Errorf("Label(7) = %q, want Camera 7", got)
	}
}
