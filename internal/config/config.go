package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr string

	// DB
	Env         string // "dev" | "prod"
	DBDriver    string // "sqlite" | "postgres"
	DBPath      string // sqlite, e.g. "./data/horae.db"
	DatabaseURL string // postgres, shared multi-kiosk ledger

	KioskID  string
	Timezone string // IANA name; day boundaries are computed here

	// ExitAfterMatch ends the process after the first recorded
	// attendance (one-subject kiosk session).
	ExitAfterMatch bool

	// EnrollmentReloadMinutes is how often the enrollment snapshot is
	// reloaded. 0 = load once at startup.
	EnrollmentReloadMinutes int

	CaptureQueueSize int
}

func FromEnv() Config {
	addr := getenvDefault("HORAE_HTTP_ADDR", ":8080")

	env := strings.ToLower(getenvDefault("HORAE_ENV", "dev"))
	if env != "dev" && env != "prod" {
		// fail-soft: treat unknown as dev
		env = "dev"
	}

	driver := strings.ToLower(getenvDefault("HORAE_DB_DRIVER", "sqlite"))
	if driver != "sqlite" && driver != "postgres" {
		driver = "sqlite"
	}

	exitAfterMatch := strings.EqualFold(os.Getenv("HORAE_EXIT_AFTER_MATCH"), "true") ||
		os.Getenv("HORAE_EXIT_AFTER_MATCH") == "1"

	return Config{
		HTTPAddr: addr,
		Env:      env,

		DBDriver:    driver,
		DBPath:      getenvDefault("HORAE_DB_PATH", "./data/horae.db"),
		DatabaseURL: os.Getenv("HORAE_DATABASE_URL"),

		KioskID:  getenvDefault("HORAE_KIOSK_ID", "kiosk-001"),
		Timezone: getenvDefault("HORAE_TIMEZONE", ""),

		ExitAfterMatch:          exitAfterMatch,
		EnrollmentReloadMinutes: getenvInt("HORAE_ENROLLMENT_RELOAD_MINUTES", 0),
		CaptureQueueSize:        getenvInt("HORAE_CAPTURE_QUEUE_SIZE", 64),
	}
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
