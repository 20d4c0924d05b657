// Command modelschema regenerates model/schema_r4.go from
// internal/generate/modelschema/r4_subset.json. Invoked via
// `go generate ./model/...`.
package main

import (
	"log"
	"os"

	"github.com/octofhir/fhirpath/internal/generate/modelschema"
)

func main() {
	if len(os.Args) != 3 {
		log.Fatalf("usage: modelschema <subset.json> <out.go>")
	}
	in, err := os.Open(os.Args[1])
	if err != nil {
		log.Fatalf("modelschema: %v", err)
	}
	defer in.Close()

	subset, err := modelschema.ParseSubset(in)
	if err != nil {
		log.Fatalf("modelschema: %v", err)
	}

	if err := modelschema.Generate(subset).Save(os.Args[2]); err != nil {
		log.Fatalf("modelschema: writing %s: %v", os.Args[2], err)
	}
}
