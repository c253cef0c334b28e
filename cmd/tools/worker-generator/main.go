// cmd/tools/worker-generator/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"lead-magnet-workers/pkg/registry"
)

func main() {
	activity := flag.String("activity", "", "Activity ID from registry (e.g., generate-faq)")
	outputDir := flag.String("output", "./internal/workers/content/", "Output directory for the generated worker")
	registryPath := flag.String("registry", "configs/activity-registry.json", "Path to the activity registry JSON file")
	force := flag.Bool("force", false, "Overwrite an existing worker directory")
	flag.Parse()

	if *activity == "" {
		fmt.Println("Error: -activity is required")
		flag.Usage()
		os.Exit(1)
	}

	reg, err := registry.LoadRegistry(*registryPath)
	if err != nil {
		fmt.Printf("Error loading registry: %v\n", err)
		os.Exit(1)
	}

	var found *registry.Activity
	for i := range reg.Activities {
		if reg.Activities[i].ID == *activity {
			found = &reg.Activities[i]
			break
		}
	}
	if found == nil {
		fmt.Printf("Error: activity %s not found in registry\n", *activity)
		os.Exit(1)
	}

	written, err := generate(found, *outputDir, *force)
	if err != nil {
		fmt.Printf("Error generating worker: %v\n", err)
		os.Exit(1)
	}

	for _, path := range written {
		fmt.Printf("  wrote %s\n", path)
	}
	fmt.Printf("Generated worker %s. Register it in cmd/worker-manager/main.go.\n", found.TaskType)
}

// generate renders the worker package for activity under outputDir and
// returns the written paths.
func generate(activity *registry.Activity, outputDir string, force bool) ([]string, error) {
	schemaJSON, err := json.MarshalIndent(activity.InputSchema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal input schema: %w", err)
	}
	if strings.Contains(string(schemaJSON), "`") {
		return nil, fmt.Errorf("input schema for %s contains a backtick", activity.ID)
	}

	data, err := newWorkerData(activity, string(schemaJSON))
	if err != nil {
		return nil, err
	}

	files, err := render(data)
	if err != nil {
		return nil, err
	}

	workerDir := filepath.Join(outputDir, activity.TaskType)
	if _, err := os.Stat(workerDir); err == nil && !force {
		return nil, fmt.Errorf("%s already exists, use -force to overwrite", workerDir)
	}
	if err := os.MkdirAll(workerDir, 0o755); err != nil {
		return nil, fmt.Errorf("create worker directory: %w", err)
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	written := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(workerDir, name)
		if err := os.WriteFile(path, files[name], 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
