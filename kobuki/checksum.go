package kobuki

import (
	"fmt"
	"strings"
)

// ChecksumPolicy selects how the trailing checksum byte is filled
type ChecksumPolicy int

const (
	// ChecksumXOR is the XOR of every byte after the two header bytes
	ChecksumXOR ChecksumPolicy = iota
	// ChecksumZero always writes 0x00
	ChecksumZero
)

func (p ChecksumPolicy) String() string {
	switch p {
	case ChecksumXOR:
		return "xor"
	case ChecksumZero:
		return "zero"
	default:
		return fmt.Sprintf("ChecksumPolicy(%d)", int(p))
	}
}

// ParseChecksumPolicy maps a config value to a policy
func ParseChecksumPolicy(s string) (ChecksumPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "xor":
		return ChecksumXOR, nil
	case "zero", "none":
		return ChecksumZero, nil
	default:
		return ChecksumXOR, fmt.Errorf("unknown checksum policy %q (must be 'xor' or 'zero')", s)
	}
}

// CalculateChecksum XORs data together.
// data starts at the payload length byte and ends before the checksum.
func CalculateChecksum(data []byte) byte {
	var cs byte
	for _, b := range data {
		cs ^= b
	}
	return cs
}

// checksumFor returns the checksum byte for a frame body (headers included, checksum excluded)
func (p ChecksumPolicy) checksumFor(body []byte) byte {
	if p == ChecksumZero || len(body) <= headerSize {
		return 0
	}
	return CalculateChecksum(body[headerSize:])
}

// VerifyChecksum checks the trailing byte of a complete frame against policy
func (p ChecksumPolicy) VerifyChecksum(frame []byte) error {
	if len(frame) < headerSize+1 {
		return ErrShortFrame
	}
	last := len(frame) - 1
	if frame[last] != p.checksumFor(frame[:last]) {
		return ErrChecksumMismatch
	}
	return nil
}
