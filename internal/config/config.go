package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the configuration shared by the cmd/ drivers: decoder
// selection, bucket sizing, and buffer thresholds. Adapted from the
// teacher's struct-of-structs Config/getenv(key, fallback) shape.
type Config struct {
	Decoder DecoderConfig
	Bucket  BucketConfig
	Buffer  BufferConfig
}

// DecoderConfig selects which record decoder a cmd/ driver wires up.
type DecoderConfig struct {
	// Format names the record family: "bhspc", "picoquant_t2",
	// "picoquant_t3", or "swabian".
	Format string
	// Variant further narrows Format (e.g. "hydraharp_v1",
	// "picoharp300", "generic", "600_4096", "600_256",
	// "fast_intensity"); empty means the family's baseline variant.
	Variant string
}

// BucketConfig sizes the recycling buckets backing bulk-span sources.
type BucketConfig struct {
	// Size is the number of elements held per bucket.
	Size int
}

// BufferConfig configures internal/pump's threshold/latency policy.
type BufferConfig struct {
	// Threshold is the queue depth that triggers an eager flush.
	Threshold int
	// Latency bounds how long a partially-filled queue is held before
	// flushing anyway; zero disables the latency policy.
	Latency time.Duration
}

// Load reads configuration from environment variables with sensible
// defaults.
func Load() Config {
	return Config{
		Decoder: DecoderConfig{
			Format:  getenv("TCSPC_DECODER_FORMAT", "swabian"),
			Variant: getenv("TCSPC_DECODER_VARIANT", ""),
		},
		Bucket: BucketConfig{
			Size: getenvInt("TCSPC_BUCKET_SIZE", 4096),
		},
		Buffer: BufferConfig{
			Threshold: getenvInt("TCSPC_BUFFER_THRESHOLD", 1000),
			Latency:   getenvDuration("TCSPC_BUFFER_LATENCY", 100*time.Millisecond),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
