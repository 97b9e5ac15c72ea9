//go:build !linux

package backend

import (
	"errors"
	"time"
)

func readUptime() (time.Duration, error) {
	return 0, errors.New("uptime is only available on linux")
}
