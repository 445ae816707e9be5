package capture

import (
	"image"
	"testing"
)

func TestParseGeometry(t *testing.T) {
	cases := []struct {
		in   string
		want image.Rectangle
		ok   bool
	}{
		{"640x480+10+20", image.Rect(10, 20, 650, 500), true},
		{" 100x50+0+0 \n", image.Rect(0, 0, 100, 50), true},
		{"100x50+-20+5", image.Rect(-20, 5, 80, 55), true},
		{"100x50-20-5", image.Rect(-20, -5, 80, 45), true},
		{"0x50+1+1", image.Rectangle{}, false},
		{"100x50", image.Rectangle{}, false},
		{"garbage", image.Rectangle{}, false},
	}
	for _, c := range cases {
		got, ok := ParseGeometry(c.in)
		if ok != c.ok || got != c.want {
			t.Fatalf("ParseGeometry(%q) = %v,%v want %v,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestFormatGeometry_RoundTrip(t *testing.T) {
	r := image.Rect(30, 40, 330, 240)
	got, ok := ParseGeometry(FormatGeometry(r))
	if !ok || got != r {
		t.Fatalf("round trip %v -> %v (%v)", r, got, ok)
	}
}
