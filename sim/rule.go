package sim

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/gogpu/cells"
)

// RuleSize is the size of the encoded Rule uniform in bytes.
const RuleSize = 16

// DefaultDecay is the factor a dead cell's trail is multiplied by each
// generation.
const DefaultDecay = 0.92

// Rule is a life-like transition rule. Bit n of Birth is set when a dead
// cell with n live neighbours becomes live; bit n of Survive is set when a
// live cell with n live neighbours stays live.
//
//	struct Rule { birth: u32, survive: u32, decay: f32, _pad: u32 }
type Rule struct {
	Birth   uint16
	Survive uint16
	Decay   float32
}

// Conway returns B3/S23.
func Conway() Rule {
	return Rule{Birth: 1 << 3, Survive: 1<<2 | 1<<3, Decay: DefaultDecay}
}

// ParseRule parses a rule in B/S notation such as "B3/S23" or "B36/S23".
// The decay is DefaultDecay.
func ParseRule(s string) (Rule, error) {
	r := Rule{Decay: DefaultDecay}
	parts := strings.Split(strings.ToUpper(strings.TrimSpace(s)), "/")
	if len(parts) != 2 {
		return Rule{}, fmt.Errorf("sim: rule %q: want B<digits>/S<digits>: %w", s, cells.ErrConfiguration)
	}
	var seen [2]bool
	for _, p := range parts {
		if p == "" {
			return Rule{}, fmt.Errorf("sim: rule %q: empty part: %w", s, cells.ErrConfiguration)
		}
		var mask *uint16
		var part int
		switch p[0] {
		case 'B':
			mask, part = &r.Birth, 0
		case 'S':
			mask, part = &r.Survive, 1
		default:
			return Rule{}, fmt.Errorf("sim: rule %q: part %q must start with B or S: %w", s, p, cells.ErrConfiguration)
		}
		if seen[part] {
			return Rule{}, fmt.Errorf("sim: rule %q: repeated %c part: %w", s, p[0], cells.ErrConfiguration)
		}
		seen[part] = true
		for _, c := range p[1:] {
			if c < '0' || c > '8' {
				return Rule{}, fmt.Errorf("sim: rule %q: neighbour count %q out of range: %w", s, c, cells.ErrConfiguration)
			}
			*mask |= 1 << (c - '0')
		}
	}
	return r, nil
}

// String returns the rule in B/S notation.
func (r Rule) String() string {
	var b strings.Builder
	b.WriteByte('B')
	for n := 0; n <= 8; n++ {
		if r.Birth&(1<<n) != 0 {
			b.WriteByte(byte('0' + n))
		}
	}
	b.WriteString("/S")
	for n := 0; n <= 8; n++ {
		if r.Survive&(1<<n) != 0 {
			b.WriteByte(byte('0' + n))
		}
	}
	return b.String()
}

// Next returns the next state of a cell given its state and live neighbour
// count.
func (r Rule) Next(alive bool, neighbours int) bool {
	if alive {
		return r.Survive&(1<<neighbours) != 0
	}
	return r.Birth&(1<<neighbours) != 0
}

// Bytes returns the uniform encoding.
func (r Rule) Bytes() []byte {
	out := make([]byte, RuleSize)
	binary.LittleEndian.PutUint32(out[0:], uint32(r.Birth))
	binary.LittleEndian.PutUint32(out[4:], uint32(r.Survive))
	binary.LittleEndian.PutUint32(out[8:], math.Float32bits(r.Decay))
	return out
}

func decodeRule(b []byte) Rule {
	return Rule{
		Birth:   uint16(binary.LittleEndian.Uint32(b[0:])),
		Survive: uint16(binary.LittleEndian.Uint32(b[4:])),
		Decay:   math.Float32frombits(binary.LittleEndian.Uint32(b[8:])),
	}
}
