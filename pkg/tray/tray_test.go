package tray

import (
	"bytes"
	"image/png"
	"testing"
)

func TestPauseLabel(t *testing.T) {
	if got := pauseLabel(false); got != "Pause" {
		t.Errorf("got %q, want Pause", got)
	}
	if got := pauseLabel(true); got != "Resume" {
		t.Errorf("got %q, want Resume", got)
	}
}

func TestIcon(t *testing.T) {
	img, err := png.Decode(bytes.NewReader(icon()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 22 || b.Dy() != 22 {
		t.Errorf("got %v, want 22x22", b)
	}
	if _, _, _, a := img.At(7, 8).RGBA(); a == 0 {
		t.Error("eye pixel is transparent")
	}
	if _, _, _, a := img.At(10, 4).RGBA(); a != 0 {
		t.Error("forehead pixel should be transparent")
	}
}
