//go:build stave

package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/yaklabco/stave/pkg/sh"
	"github.com/yaklabco/stave/pkg/st"
	"github.com/yaklabco/stave/pkg/target"
)

// Default target when running `stave` with no arguments.
var Default = All

// Aliases for common targets.
var Aliases = map[string]interface{}{
	"b": Build,
	"t": Test,
	"l": Lint,
	"c": Clean,
}

// All runs the complete build pipeline: lint, test, and build.
func All() error {
	st.Deps(Init)
	st.Deps(Lint, Test)
	st.Deps(Build)
	return nil
}

// Init ensures the module dependencies are up to date.
func Init() error {
	return sh.Run("go", "mod", "tidy")
}

// Build compiles the bookshard binary with version information.
func Build() error {
	st.Deps(Init)

	// Check if rebuild is needed
	rebuild, err := target.Glob("bin/bookshard", "**/*.go", "go.mod", "go.sum", "filter/noise.yaml")
	if err != nil {
		return fmt.Errorf("checking rebuild: %w", err)
	}
	if !rebuild {
		if st.Verbose() {
			fmt.Println("bookshard is up to date")
		}
		return nil
	}

	ldflags := buildLdflags()
	return sh.RunV("go", "build", "-ldflags", ldflags, "-o", "bin/bookshard", "./cmd/bookshard")
}

// buildLdflags returns ldflags for version injection.
func buildLdflags() string {
	version, _ := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if version == "" {
		version = "dev-" + time.Now().Format("20060102")
	}
	return fmt.Sprintf("-X main.version=%s", strings.TrimSpace(version))
}

// Test runs all tests with race detection and coverage.
func Test() error {
	st.Deps(Init)
	return sh.RunV("go", "test", "-race", "-cover", "./...")
}

// TestShort runs tests in short mode (skips long-running tests).
func TestShort() error {
	st.Deps(Init)
	return sh.RunV("go", "test", "-short", "-race", "./...")
}

// TestVerbose runs tests with verbose output.
func TestVerbose() error {
	st.Deps(Init)
	return sh.RunV("go", "test", "-race", "-cover", "-v", "./...")
}

// Lint runs golangci-lint on the codebase.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// LintFix runs golangci-lint with auto-fix enabled.
func LintFix() error {
	return sh.RunV("golangci-lint", "run", "--fix", "./...")
}

// Fmt formats all Go code using gofmt and goimports.
func Fmt() error {
	if err := sh.Run("gofmt", "-w", "."); err != nil {
		return fmt.Errorf("gofmt: %w", err)
	}
	if err := sh.Run("goimports", "-w", "."); err != nil {
		return fmt.Errorf("goimports: %w", err)
	}
	return nil
}

// Vet runs go vet on all packages.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	artifacts := []string{
		"bin/",
		"coverage.out",
		"coverage.html",
	}
	for _, a := range artifacts {
		if err := sh.Rm(a); err != nil {
			return fmt.Errorf("removing %s: %w", a, err)
		}
	}
	return nil
}

// Install builds and installs the binaries to GOBIN.
func Install() error {
	st.Deps(Build)

	gocmd := st.GoCmd()
	bin, err := sh.Output(gocmd, "env", "GOBIN")
	if err != nil {
		return fmt.Errorf("determining GOBIN: %w", err)
	}
	if bin == "" {
		gopath, err := sh.Output(gocmd, "env", "GOPATH")
		if err != nil {
			return fmt.Errorf("determining GOPATH: %w", err)
		}
		bin = gopath + "/bin"
	}

	dst := bin + "/bookshard"
	if runtime.GOOS == "windows" {
		dst += ".exe"
	}
	if err := sh.Copy(dst, "bin/bookshard"); err != nil {
		return fmt.Errorf("installing bookshard: %w", err)
	}
	if st.Verbose() {
		fmt.Printf("Installed bookshard to %s\n", dst)
	}
	return nil
}

// Corpus runs the full pipeline over $BOOKCORPUS_INPUT (default out_txts)
// into $BOOKCORPUS_OUTPUT (default out_shards).
func Corpus() error {
	st.Deps(Build)

	args := []string{"run",
		"--input", envOr("BOOKCORPUS_INPUT", "out_txts"),
		"--output", envOr("BOOKCORPUS_OUTPUT", "out_shards"),
	}
	if model := os.Getenv("BOOKCORPUS_SAT_MODEL"); model != "" {
		args = append(args,
			"--splitter", "sat",
			"--model", model,
			"--tokenizer", envOr("BOOKCORPUS_SAT_TOKENIZER", "testdata/sentencepiece.bpe.model"),
		)
	}
	return sh.RunV("./bin/bookshard", args...)
}

// Bench namespace for splitter evaluation targets.
type Bench st.Namespace

// Run scores every splitter against the gold corpus in testdata/gold. The
// SaT splitter is included when $BOOKCORPUS_SAT_MODEL is set.
func (Bench) Run() error {
	st.Deps(Build)
	return sh.RunV("./bin/bookshard", append([]string{"eval", "testdata/gold"}, satArgs()...)...)
}

// Sweep runs a SaT threshold sweep to find the best threshold for book text.
func (Bench) Sweep() error {
	st.Deps(Build)

	args := satArgs()
	if len(args) == 0 {
		return fmt.Errorf("BOOKCORPUS_SAT_MODEL is not set")
	}
	return sh.RunV("./bin/bookshard", append([]string{"eval", "testdata/gold", "--sweep"}, args...)...)
}

func satArgs() []string {
	model := os.Getenv("BOOKCORPUS_SAT_MODEL")
	if model == "" {
		return nil
	}
	return []string{
		"--model", model,
		"--tokenizer", envOr("BOOKCORPUS_SAT_TOKENIZER", "testdata/sentencepiece.bpe.model"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// CI runs the full CI pipeline (lint, test, build).
func CI() error {
	st.Deps(Init)
	st.SerialDeps(Lint, Test, Build)
	return nil
}

// Check runs quick validation (vet, lint, short tests).
func Check() error {
	st.Deps(Vet, Lint, TestShort)
	return nil
}

// Coverage generates a coverage report.
func Coverage() error {
	st.Deps(Init)
	if err := sh.RunV("go", "test", "-race", "-coverprofile=coverage.out", "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-html=coverage.out", "-o", "coverage.html")
}

// Tidy runs go mod tidy and verifies the go.sum is clean.
func Tidy() error {
	if err := sh.Run("go", "mod", "tidy"); err != nil {
		return err
	}
	// Verify no changes to go.sum (useful for CI)
	output, err := sh.Output("git", "diff", "--exit-code", "go.sum")
	if err != nil {
		if output != "" {
			return fmt.Errorf("go.sum is not clean:\n%s", output)
		}
	}
	return nil
}
