package domain

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DecodeTelemetry turns a notification payload into an integer reading.
//
// A single-byte payload is the reading itself (0-255). Longer payloads are
// a UTF-8 decimal number, optionally surrounded by whitespace, as sent by
// the controller firmware. Anything else wraps ErrMalformedTelemetry.
func DecodeTelemetry(payload []byte) (int, error) {
	switch len(payload) {
	case 0:
		return 0, fmt.Errorf("%w: empty payload", ErrMalformedTelemetry)
	case 1:
		return int(payload[0]), nil
	}
	if !utf8.Valid(payload) {
		return 0, fmt.Errorf("%w: invalid utf-8 % x", ErrMalformedTelemetry, payload)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(payload)))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTelemetry, payload)
	}
	return v, nil
}
