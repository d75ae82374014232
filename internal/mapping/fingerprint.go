package mapping

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
)

// Fingerprint identifies a header layout independent of column order, so a file
// exported again from the same system reuses its saved mappings.
func Fingerprint(columns []string) string {
	keys := make([]string, 0, len(columns))
	for _, col := range columns {
		if n := NormalizeHeader(col); n != "" {
			keys = append(keys, n)
		}
	}
	sort.Strings(keys)

	hash := sha256.New()
	hash.Write([]byte(strings.Join(keys, "|")))
	return fmt.Sprintf("%x", hash.Sum(nil))
}
