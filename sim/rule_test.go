package sim

import (
	"testing"

	"github.com/gogpu/cells"
)

func TestParseRule(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"B3/S23", "B3/S23", false},
		{"b36/s23", "B36/S23", false},
		{"S23/B3", "B3/S23", false},
		{"B/S", "B/S", false},
		{"B3", "", true},
		{"B9/S23", "", true},
		{"X3/S23", "", true},
		{"B3/", "", true},
		{"B3/B23", "", true},
		{"S23/S3", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			r, err := ParseRule(tt.in)
			if tt.wantErr {
				if !cells.IsConfiguration(err) {
					t.Errorf("ParseRule(%q) error = %v, want a configuration error", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRule(%q): %v", tt.in, err)
			}
			if r.String() != tt.want {
				t.Errorf("String() = %q, want %q", r.String(), tt.want)
			}
			if r.Decay != DefaultDecay {
				t.Errorf("Decay = %v, want %v", r.Decay, DefaultDecay)
			}
		})
	}
}

func TestConwayNext(t *testing.T) {
	r := Conway()
	for n := 0; n <= 8; n++ {
		wantBirth := n == 3
		wantSurvive := n == 2 || n == 3
		if r.Next(false, n) != wantBirth {
			t.Errorf("Next(dead, %d) = %v, want %v", n, !wantBirth, wantBirth)
		}
		if r.Next(true, n) != wantSurvive {
			t.Errorf("Next(live, %d) = %v, want %v", n, !wantSurvive, wantSurvive)
		}
	}
	if decodeRule(r.Bytes()) != r {
		t.Error("Rule encoding does not survive a decode")
	}
}
