package config_test

import (
	"fmt"
	"log"

	"github.com/ajitpratap0/lazperf/pkg/config"
)

// ExampleDefault demonstrates the default codec settings.
func ExampleDefault() {
	cfg := config.Default()

	fmt.Printf("Algorithm: %s\n", cfg.Codec.Algorithm)
	fmt.Printf("Level: %s\n", cfg.Codec.Level)
	fmt.Printf("Chunk Size: %d\n", cfg.Codec.ChunkSize)

	// Output:
	// Algorithm: zstd
	// Level: default
	// Chunk Size: 50000
}

// ExampleConfig_Validate shows how to validate a configuration
// before using it.
func ExampleConfig_Validate() {
	cfg := config.Default()
	cfg.Codec.Algorithm = "lz4"
	cfg.Codec.Level = "best"

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	fmt.Println("Configuration is valid!")

	cfg.Codec.ChunkSize = 0
	fmt.Println(cfg.Validate())

	// Output:
	// Configuration is valid!
	// chunk_size must be positive and fixed, got 0
}
