//go:build mage

// Package main contains Mage build targets for paper-agent developer tooling.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir  = "bin"
	binName = "paper-agent"
	cmdPkg  = "./cmd/paper-agent"
)

// sampleConfig is written by Init when no config file exists yet.
const sampleConfig = `generation:
  provider: openai
  model: deepseek-chat
  timeout: 120s
  requests_per_second: 0
search:
  backends: [arxiv, semantic_scholar]
  max_results: 5
pipeline:
  concurrency: 1
  style: IEEE
log:
  level: info
  format: console
`

// Init creates the secrets directory and a starter paper-agent.yaml.
func Init() error {
	if err := os.MkdirAll(".secrets", 0o700); err != nil {
		return fmt.Errorf("creating .secrets: %w", err)
	}
	fmt.Println("   .secrets/ (put deepseek-api-key or another provider key here)")

	const cfg = "paper-agent.yaml"
	if _, err := os.Stat(cfg); err == nil {
		fmt.Printf("   %s already exists, left unchanged\n", cfg)
		return nil
	}
	if err := os.WriteFile(cfg, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", cfg, err)
	}
	fmt.Println("  ", cfg)
	return nil
}

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || version == "" {
		version = "dev"
	}
	ldflags := "-X main.version=" + version
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s (%s)\n", out, version)
	return nil
}

// Vet runs go vet over every package.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Test runs the unit tests with the race detector after vetting.
func Test() error {
	mg.Deps(Vet)
	return sh.RunV("go", "test", "-race", "-count=1", "./...")
}

// Clean removes build output.
func Clean() error {
	return sh.Rm(binDir)
}
