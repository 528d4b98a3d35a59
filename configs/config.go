package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

func Config(key string) string {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("Warning: .env file not found, reading from system environment variables")
	}

	return os.Getenv(key)
}

// ConfigFloat reads a numeric tunable, falling back when unset or malformed.
func ConfigFloat(key string, fallback float64) float64 {
	raw := Config(key)
	if raw == "" {
		return fallback
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("Warning: %s=%q is not a number, using default %v", key, raw, fallback)
		return fallback
	}
	return value
}

// BayesianAverageM is the prior sample-size weight used by rating-star
// sorting. Larger values pull tutors with few feedbacks harder towards the
// global average.
func BayesianAverageM() float64 {
	return ConfigFloat("BAYESIAN_AVERAGE_M", 10)
}
