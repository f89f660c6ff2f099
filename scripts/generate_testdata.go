//go:build ignore

// generate_testdata.go creates sample clustering bundles for manual runs
// and benchmarking.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//
//	testdata/bundles/small.json      (100 songs, 4 clusters)
//	testdata/bundles/medium.json     (2000 songs, 6 clusters)
//	testdata/bundles/large.json      (20000 songs, 8 clusters)
//	testdata/bundles/small.sqlite3   (small, in the SQLite layout)
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/clusterboard/internal/datasource"
	"github.com/vanderheijden86/clusterboard/pkg/artifact"
	"github.com/vanderheijden86/clusterboard/pkg/testutil"
)

type datasetSpec struct {
	name   string
	sizes  []int
	sqlite bool
}

var datasets = []datasetSpec{
	{"small", []int{30, 20, 25, 25}, true},
	{"medium", []int{500, 300, 400, 250, 350, 200}, false},
	{"large", []int{4000, 2500, 3000, 1500, 2000, 3500, 2500, 1000}, false},
}

func main() {
	outputDir := filepath.Join("testdata", "bundles")
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		total := 0
		for _, n := range ds.sizes {
			total += n
		}
		fmt.Printf("Generating %s bundle (%d songs, %d clusters)...\n", ds.name, total, len(ds.sizes))

		cfg := testutil.DefaultConfig()
		cfg.Seed = int64(total) // reproducible per size
		cfg.Sizes = ds.sizes
		b := testutil.New(cfg).Bundle()

		jsonPath := filepath.Join(outputDir, ds.name+".json")
		if err := artifact.WriteJSON(jsonPath, b); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", jsonPath, err)
			os.Exit(1)
		}
		report(jsonPath)

		if ds.sqlite {
			dbPath := filepath.Join(outputDir, ds.name+".sqlite3")
			if err := datasource.WriteBundle(context.Background(), dbPath, b); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", dbPath, err)
				os.Exit(1)
			}
			report(dbPath)
		}
	}

	fmt.Println("\nDone! Sample bundles created in", outputDir)
	fmt.Println("Try: clusterboard -artifact", filepath.Join(outputDir, "small.json"))
}

func report(path string) {
	if fi, err := os.Stat(path); err == nil {
		fmt.Printf("  Written %s (%d bytes)\n", path, fi.Size())
	}
}
