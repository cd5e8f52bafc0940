package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything readaloud reads from the environment. A .env file
// in the working directory is loaded first when present; real environment
// variables win.
type Config struct {
	// SpeechKit credentials
	IamToken string
	FolderID string

	// synthesis
	Voice  string
	Rate   float64
	Pitch  float64
	Volume float64

	// playback
	WPM         float64
	Granularity string
	Policy      string

	// extraction
	Extractor    string
	FetchTimeout time.Duration

	// renderer
	ScrollTopMargin    int
	ScrollBottomMargin int

	LogLevel string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		IamToken:           os.Getenv("IAM_TOKEN"),
		FolderID:           os.Getenv("FOLDER_ID"),
		Voice:              getenv("READALOUD_VOICE", "marina"),
		Rate:               getfloat("READALOUD_RATE", 1.0),
		Pitch:              getfloat("READALOUD_PITCH", 0.0),
		Volume:             getfloat("READALOUD_VOLUME", 1.0),
		WPM:                getfloat("READALOUD_WPM", 150),
		Granularity:        getenv("READALOUD_GRANULARITY", "sentence"),
		Policy:             getenv("READALOUD_POLICY", "unit"),
		Extractor:          getenv("READALOUD_EXTRACTOR", "readability"),
		FetchTimeout:       getduration("READALOUD_FETCH_TIMEOUT", 15*time.Second),
		ScrollTopMargin:    getint("READALOUD_SCROLL_TOP_MARGIN", 3),
		ScrollBottomMargin: getint("READALOUD_SCROLL_BOTTOM_MARGIN", 4),
		LogLevel:           getenv("LOG_LEVEL", "info"),
	}
	return cfg, nil
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getfloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getint(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getduration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
