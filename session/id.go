package session

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
)

// idScale is the exclusive upper bound packet ids are scaled into
// (spec.md §3: "scaled into the range [0, 10^9)").
const idScale = 1_000_000_000

// nextPacketID draws a fresh packet id from a CSPRNG, scaled into
// [0, 10^9). Zero is never returned: a draw that scales to zero is
// retried. A failed read, or a raw CSPRNG draw of zero, is reported as
// RandomnessUnavailable.
func nextPacketID() (uint32, error) {
	for {
		var raw [4]byte
		if _, err := rand.Read(raw[:]); err != nil {
			return 0, &RandomnessUnavailable{Err: err}
		}
		r := binary.BigEndian.Uint32(raw[:])
		if r == 0 {
			return 0, &RandomnessUnavailable{Err: errors.New("CSPRNG returned zero")}
		}
		v := r % idScale
		if v != 0 {
			return v, nil
		}
	}
}
