package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Addr           string
	DatabaseURL    string
	KafkaBrokers   []string
	KafkaTopic     string
	ArchiveBucket  string
	ArchivePrefix  string
	LookAheadWeeks int
}

const (
	defaultAddr           = ":8072"
	defaultKafkaTopic     = "scheduling.events"
	defaultLookAheadWeeks = 2
)

func Load() (Config, error) {
	cfg := Config{
		Addr:           getEnv("SCHEDULING_ADDR", defaultAddr),
		DatabaseURL:    firstNonEmpty(os.Getenv("SCHEDULING_DATABASE_URL"), os.Getenv("DATABASE_URL")),
		KafkaBrokers:   splitList(os.Getenv("SCHEDULING_KAFKA_BROKERS")),
		KafkaTopic:     getEnv("SCHEDULING_KAFKA_TOPIC", defaultKafkaTopic),
		ArchiveBucket:  os.Getenv("SCHEDULING_ARCHIVE_BUCKET"),
		ArchivePrefix:  os.Getenv("SCHEDULING_ARCHIVE_PREFIX"),
		LookAheadWeeks: getInt("SCHEDULING_LOOKAHEAD_WEEKS", defaultLookAheadWeeks),
	}
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL or SCHEDULING_DATABASE_URL required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(val string) []string {
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
