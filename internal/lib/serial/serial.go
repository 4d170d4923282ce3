package serial

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidSerial = errors.New("invalid serial number")

// Normalizer turns a scanned code into the canonical serial number.
// With Numeric set the code must be digits only and is left padded with
// zeros up to Length, the way short barcodes are widened to a fixed width.
// Length 0 disables the width check.
type Normalizer struct {
	Length  int
	Numeric bool
}

func (n Normalizer) Normalize(raw string) (string, error) {
	code := strings.TrimSpace(raw)
	if code == "" {
		return "", fmt.Errorf("%w: empty code", ErrInvalidSerial)
	}

	if !n.Numeric {
		return code, nil
	}

	code = strings.ReplaceAll(code, " ", "")
	for _, r := range code {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: %q is not numeric", ErrInvalidSerial, raw)
		}
	}

	if n.Length <= 0 {
		return code, nil
	}
	if len(code) > n.Length {
		return "", fmt.Errorf("%w: %q has more than %d digits", ErrInvalidSerial, raw, n.Length)
	}

	return strings.Repeat("0", n.Length-len(code)) + code, nil
}
