// Package scan turns the raw report stream of a badge reader into discrete
// card tokens and hands them to the consumer through a bounded queue.
package scan

import "strings"

// DefaultMinLength is the shortest trimmed segment accepted as a card token.
const DefaultMinLength = 6

// Decoder accumulates printable bytes from raw device reports and emits a
// token for every CR/LF-terminated segment. A token split across several
// reports is reassembled: the trailing unterminated segment stays buffered
// until its terminator arrives.
type Decoder struct {
	rem    string
	minLen int
}

// NewDecoder creates a decoder. minLen <= 0 selects DefaultMinLength.
func NewDecoder(minLen int) *Decoder {
	if minLen <= 0 {
		minLen = DefaultMinLength
	}
	return &Decoder{minLen: minLen}
}

// Feed processes one raw report and returns zero or more completed tokens.
// All-zero reports (idle polls) are dropped, as is every byte outside
// printable ASCII other than CR/LF. Malformed input never produces an
// error, only fewer tokens.
func (d *Decoder) Feed(report []byte) []string {
	idle := true
	for _, b := range report {
		if b != 0 {
			idle = false
			break
		}
	}
	if idle {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(d.rem)
	for _, b := range report {
		if (b >= 32 && b <= 126) || b == '\r' || b == '\n' {
			sb.WriteByte(b)
		}
	}

	var tokens []string
	s := sb.String()
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] != '\r' && s[i] != '\n' {
			continue
		}
		if seg := strings.TrimSpace(s[start:i]); len(seg) >= d.minLen {
			tokens = append(tokens, seg)
		}
		start = i + 1
	}
	d.rem = s[start:]

	return tokens
}

// Pending returns the buffered unterminated segment. Mostly useful for
// diagnostics.
func (d *Decoder) Pending() string {
	return d.rem
}
