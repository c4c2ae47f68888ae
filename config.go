package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	Port           string
	ResumeSecret   string
	AnchorSpacing  float64
	HostMode       bool
	LogLevel       zerolog.Level
	AllowedOrigins []string
	RateLimit      int
}

func MustLoadConfig() *Config {
	godotenv.Load()
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	resumeSecret := os.Getenv("RESUME_SECRET")
	if resumeSecret == "" {
		panic("RESUME_SECRET is not provided!")
	}
	anchorSpacing := 10.0
	if v := os.Getenv("ANCHOR_SPACING"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			panic("ANCHOR_SPACING must be a positive number")
		}
		anchorSpacing = parsed
	}
	hostMode, _ := strconv.ParseBool(os.Getenv("HOST_MODE"))
	logLevel := zerolog.InfoLevel
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		parsed, err := zerolog.ParseLevel(v)
		if err != nil {
			panic("LOG_LEVEL is not a valid level: " + v)
		}
		logLevel = parsed
	}
	allowedOrigins := []string{"*"}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		allowedOrigins = strings.Split(v, ",")
	}
	rateLimit := 30
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			panic("RATE_LIMIT must be a positive integer")
		}
		rateLimit = parsed
	}
	return &Config{
		Port:           port,
		ResumeSecret:   resumeSecret,
		AnchorSpacing:  anchorSpacing,
		HostMode:       hostMode,
		LogLevel:       logLevel,
		AllowedOrigins: allowedOrigins,
		RateLimit:      rateLimit,
	}
}
