package stubapi

import (
	"strconv"
	"strings"
)

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
