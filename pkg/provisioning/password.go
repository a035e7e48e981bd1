package provisioning

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	passwordLength = 16

	lowerChars   = "abcdefghijkmnopqrstuvwxyz"
	upperChars   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	digitChars   = "23456789"
	symbolChars  = "!#$%&*+-=?@_"
	allPassChars = lowerChars + upperChars + digitChars + symbolChars
)

// GeneratePassword returns a random initial credential with at least one
// character from each class. Ambiguous glyphs (l/1, O/0) are excluded from
// the alphabets.
func GeneratePassword() (string, error) {
	buf := make([]byte, passwordLength)

	// One guaranteed character per class, the rest from the full alphabet.
	classes := []string{lowerChars, upperChars, digitChars, symbolChars}
	for i := 0; i < passwordLength; i++ {
		alphabet := allPassChars
		if i < len(classes) {
			alphabet = classes[i]
		}
		c, err := randomChar(alphabet)
		if err != nil {
			return "", err
		}
		buf[i] = c
	}

	// Shuffle so the class-guaranteed characters are not positionally fixed.
	for i := len(buf) - 1; i > 0; i-- {
		j, err := randomIndex(i + 1)
		if err != nil {
			return "", err
		}
		buf[i], buf[j] = buf[j], buf[i]
	}

	return string(buf), nil
}

func randomChar(alphabet string) (byte, error) {
	idx, err := randomIndex(len(alphabet))
	if err != nil {
		return 0, err
	}
	return alphabet[idx], nil
}

func randomIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("failed to read random source: %w", err)
	}
	return int(v.Int64()), nil
}
