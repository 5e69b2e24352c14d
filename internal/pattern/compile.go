package pattern

import (
	"fmt"
	"strconv"
	"strings"
)

// Compile parses a textual pattern (§4.1) into a CompiledPattern.
//
// Accepted tokens, read two source characters at a time after stripping an
// optional leading "0x":
//
//	XX    - two hex digits: Exact(0xXX)
//	X?    - hex digit + '?': Masked(expected=X<<4, mask=0xF0)
//	?X    - '?' + hex digit: Masked(expected=X, mask=0x0F)
//	??    - two '?': AnyByte
//	..    - a pair of dots: AnyByte (a trailing unpaired dot is ignored)
//
// Mixed '?'/'.' within one byte (e.g. "?.") is not well-formed input; it is
// treated as AnyByte rather than rejected, since the catalog is static and
// authored, not user-supplied.
func Compile(text string) (CompiledPattern, error) {
	var out CompiledPattern

	text = strings.TrimPrefix(text, "0x")
	text = strings.TrimPrefix(text, "0X")

	runes := []rune(text)
	i := 0
	for i < len(runes) {
		if out.Len >= MaxPatternLen {
			return out, fmt.Errorf("pattern exceeds max length %d", MaxPatternLen)
		}

		a := runes[i]

		// A run of dots: consume in pairs, one AnyByte cell per pair.
		if a == '.' {
			j := i
			for j < len(runes) && runes[j] == '.' {
				j++
			}
			dots := j - i
			pairs := dots / 2
			for k := 0; k < pairs; k++ {
				if out.Len >= MaxPatternLen {
					return out, fmt.Errorf("pattern exceeds max length %d", MaxPatternLen)
				}
				out.Cells[out.Len] = MatchCell{Kind: KindAny}
				out.Len++
			}
			i = j
			continue
		}

		if i+1 >= len(runes) {
			return out, fmt.Errorf("dangling token %q at position %d", string(a), i)
		}
		b := runes[i+1]
		cell, err := compileByteToken(a, b)
		if err != nil {
			return out, err
		}
		out.Cells[out.Len] = cell
		out.Len++
		i += 2
	}

	return out, nil
}

// compileByteToken turns a two-character token into one MatchCell.
func compileByteToken(a, b rune) (MatchCell, error) {
	switch {
	case a == '?' && b == '?':
		return MatchCell{Kind: KindAny}, nil
	case a == '?' && isHexDigit(b):
		lo, _ := hexNibble(b)
		return MatchCell{Kind: KindMasked, Expected: lo, Mask: 0x0F}, nil
	case isHexDigit(a) && b == '?':
		hi, _ := hexNibble(a)
		return MatchCell{Kind: KindMasked, Expected: hi << 4, Mask: 0xF0}, nil
	case a == '?' || b == '?' || a == '.' || b == '.':
		// Mixed '?'/'.' within a byte: undefined per §4.1, default to AnyByte.
		return MatchCell{Kind: KindAny}, nil
	case isHexDigit(a) && isHexDigit(b):
		hi, _ := hexNibble(a)
		lo, _ := hexNibble(b)
		return MatchCell{Kind: KindExact, Exact: hi<<4 | lo}, nil
	default:
		// Invalid hex nibble in an Exact context: defensive Exact(0), per §4.1.
		return MatchCell{Kind: KindExact, Exact: 0}, nil
	}
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func hexNibble(r rune) (byte, error) {
	v, err := strconv.ParseUint(string(r), 16, 8)
	if err != nil {
		return 0, err
	}
	return byte(v), nil
}

// CompilePatch parses a replacement payload (§4.2): either a hex string
// (optional "0x" prefix, whitespace-free pairs of hex digits) or -- via
// PatchFromInt -- the little-endian encoding of an integer.
func CompilePatch(text string) (Patch, error) {
	var out Patch

	text = strings.TrimPrefix(text, "0x")
	text = strings.TrimPrefix(text, "0X")

	raw, err := hexToBytes(text)
	if err != nil {
		return out, fmt.Errorf("compiling patch %q: %w", text, err)
	}
	if len(raw) > MaxPatchLen {
		return out, fmt.Errorf("patch exceeds max length %d", MaxPatchLen)
	}
	out.Len = copy(out.Bytes[:], raw)
	return out, nil
}

// hexToBytes decodes a whitespace-tolerant hex string into bytes, for the
// hex-string form of CompilePatch (§4.2).
func hexToBytes(hex string) ([]byte, error) {
	hex = strings.ReplaceAll(hex, " ", "")
	hex = strings.ReplaceAll(hex, "\n", "")
	hex = strings.ReplaceAll(hex, "\r", "")

	if len(hex)%2 != 0 {
		return nil, fmt.Errorf("hex string has odd length: %d", len(hex))
	}

	result := make([]byte, len(hex)/2)
	for i := range result {
		_, err := fmt.Sscanf(hex[i*2:i*2+2], "%02x", &result[i])
		if err != nil {
			return nil, fmt.Errorf("invalid hex at position %d: %w", i*2, err)
		}
	}
	return result, nil
}

// PatchFromInt encodes the low n bytes of v, little-endian, as a Patch.
func PatchFromInt(v uint64, n int) (Patch, error) {
	var out Patch
	if n <= 0 || n > MaxPatchLen || n > 8 {
		return out, fmt.Errorf("invalid patch width %d", n)
	}
	for i := 0; i < n; i++ {
		out.Bytes[i] = byte(v >> (8 * uint(i)))
	}
	out.Len = n
	return out, nil
}
