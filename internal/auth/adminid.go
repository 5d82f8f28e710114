package auth

import (
	"fmt"
	"strconv"
	"strings"
)

const adminIDPrefix = "ADM"

// nextAdminID increments the numeric suffix of the highest existing
// admin id. An empty last id starts the sequence at ADM00001. Callers
// must serialize the read-then-write around it (see Service.CreateAdmin).
func nextAdminID(last string) (string, error) {
	if last == "" {
		return adminIDPrefix + "00001", nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix(last, adminIDPrefix))
	if err != nil {
		return "", fmt.Errorf("malformed admin id %q: %w", last, err)
	}
	return fmt.Sprintf("%s%05d", adminIDPrefix, n+1), nil
}
