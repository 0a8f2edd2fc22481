package main

import (
	"os"
	"strconv"
)

const envPrefix = "GEOCLUST_"

// envString returns the env var value or fallback when unset/empty.
func envString(key, fallback string) string {
	if val := os.Getenv(envPrefix + key); val != "" {
		return val
	}
	return fallback
}

// envInt returns the parsed integer env var or fallback on missing/invalid values.
func envInt(key string, fallback int) int {
	if val := os.Getenv(envPrefix + key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

// envBool parses bool values using strconv.ParseBool semantics.
func envBool(key string, fallback bool) bool {
	val := os.Getenv(envPrefix + key)
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}
