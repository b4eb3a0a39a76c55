package anb

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const quietNaN = 0x7fc00000

// Float32 is an f32 body field. Its JSON form keeps NaN, infinities and
// NaN payload bits, which plain JSON numbers cannot carry:
//
//	1.5  "Infinity"  "-Infinity"  "NaN"  "NaN:0x7fc00001"
type Float32 float32

func (f Float32) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsInf(v, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Infinity"`), nil
	case math.IsNaN(v):
		bits := math.Float32bits(float32(f))
		if bits == quietNaN {
			return []byte(`"NaN"`), nil
		}
		return []byte(fmt.Sprintf(`"NaN:%#08x"`, bits)), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 32), nil
}

func (f *Float32) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) == 0 || b[0] != '"' {
		v, err := strconv.ParseFloat(string(b), 32)
		if err != nil {
			return fmt.Errorf("anb: bad float %s", b)
		}
		*f = Float32(v)
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "Infinity":
		*f = Float32(math.Inf(1))
	case "-Infinity":
		*f = Float32(math.Inf(-1))
	case "NaN":
		*f = Float32(math.Float32frombits(quietNaN))
	default:
		hex, ok := strings.CutPrefix(s, "NaN:")
		if !ok {
			return fmt.Errorf("anb: bad float %q", s)
		}
		bits, err := strconv.ParseUint(hex, 0, 32)
		if err != nil || !math.IsNaN(float64(math.Float32frombits(uint32(bits)))) {
			return fmt.Errorf("anb: bad NaN %q", s)
		}
		*f = Float32(math.Float32frombits(uint32(bits)))
	}
	return nil
}
