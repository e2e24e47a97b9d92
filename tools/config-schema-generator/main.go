// Generates the embedded JSON Schema for treescope.yml from the config
// structs. Run from the repository root:
//
//	go run ./tools/config-schema-generator/
package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/grovetools/treescope/config"
)

func main() {
	data, err := config.GenerateSchema()
	if err != nil {
		log.Fatalf("Error generating schema: %v", err)
	}

	out := filepath.Join("schema", "treescope.embedded.schema.json")
	if err := os.WriteFile(out, append(data, '\n'), 0644); err != nil {
		log.Fatalf("Error writing schema file: %v", err)
	}

	log.Printf("Successfully generated schema at %s", out)
}
