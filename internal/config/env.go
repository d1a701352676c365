package config

import (
	"os"
	"strconv"
	"strings"
)

// EnvString returns the trimmed value of key and whether it was set and non-empty.
func EnvString(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// EnvInt parses key as an int. ok is false when the variable is unset or empty.
func EnvInt(key string) (value int, ok bool, err error) {
	s, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	value, err = strconv.Atoi(s)
	if err != nil {
		return 0, false, err
	}
	return value, true, nil
}

// EnvInt64 is EnvInt for 64-bit values such as Telegram chat IDs.
func EnvInt64(key string) (value int64, ok bool, err error) {
	s, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	value, err = strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return value, true, nil
}
