package library

import "testing"

func TestIsVideoFile(t *testing.T) {
	videos := []string{"a.mp4", "b.MOV", "c.mkv", "clip.MTS", "d.m4v", "/deep/path/e.mp4"}
	for _, name := range videos {
		if !IsVideoFile(name) {
			t.Errorf("IsVideoFile(%q) = false, want true", name)
		}
	}

	others := []string{"a.txt", "b.jpg", "c.wav", "noext", "d.mp4.bak", ".mp4.tmp"}
	for _, name := range others {
		if IsVideoFile(name) {
			t.Errorf("IsVideoFile(%q) = true, want false", name)
		}
	}
}
