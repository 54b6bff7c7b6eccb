package report

import (
	"testing"
)

func TestDrift(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		previous     string
		current      string
		wantDistance int
		wantWER      float64
		wantChanged  bool
	}{
		{
			name:     "identical",
			previous: "A person using a laptop.",
			current:  "A person using a laptop.",
		},
		{
			name:         "punctuation and case only",
			previous:     "A diagram.",
			current:      "a diagram",
			wantDistance: 2,
			wantChanged:  true,
		},
		{
			name:         "one word substituted",
			previous:     "A person using a laptop.",
			current:      "A person using a phone.",
			wantDistance: 5,
			wantWER:      0.2,
			wantChanged:  true,
		},
		{
			name:         "from empty",
			previous:     "",
			current:      "An image.",
			wantDistance: 9,
			wantWER:      1,
			wantChanged:  true,
		},
		{
			name: "both empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := Drift(tt.previous, tt.current)
			if d.Distance != tt.wantDistance {
				t.Errorf("Distance = %d, want %d", d.Distance, tt.wantDistance)
			}
			if d.WordErrorRate != tt.wantWER {
				t.Errorf("WordErrorRate = %v, want %v", d.WordErrorRate, tt.wantWER)
			}
			if d.Changed() != tt.wantChanged {
				t.Errorf("Changed() = %v, want %v", d.Changed(), tt.wantChanged)
			}
		})
	}
}
