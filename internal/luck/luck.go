package luck

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Oracle maps a key tuple to a reproducible number in [0,1).
// Luck is the production oracle; tests swap in fixed tables.
type Oracle func(parts ...any) float64

// 2^-53: the top 53 bits of the hash fill a float64 mantissa exactly.
const unit = 1.0 / (1 << 53)

// Luck hashes the comma-joined key and maps it into [0,1).
// Pure: no state, no seeding, identical across processes.
func Luck(parts ...any) float64 {
	h := xxhash.Sum64String(Key(parts...))
	return float64(h>>11) * unit
}

// Key renders parts the way the draws are keyed: decimal integers,
// verbatim strings, shortest floats, joined with ",".
func Key(parts ...any) string {
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteByte(',')
		}
		switch v := p.(type) {
		case string:
			b.WriteString(v)
		case int:
			b.WriteString(strconv.Itoa(v))
		case int32:
			b.WriteString(strconv.FormatInt(int64(v), 10))
		case int64:
			b.WriteString(strconv.FormatInt(v, 10))
		case uint64:
			b.WriteString(strconv.FormatUint(v, 10))
		case float64:
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		case bool:
			b.WriteString(strconv.FormatBool(v))
		case fmt.Stringer:
			b.WriteString(v.String())
		default:
			b.WriteString("?")
		}
	}
	return b.String()
}
