// Command staticlint runs the repository's lint rules: a set of analyzers from
// golang.org/x/tools, ineffassign, nilerr, the project's noosexit analyzer and
// staticcheck's SA analyzers.
//
// A staticlint.json file next to the binary narrows the staticcheck set:
//
//	{"staticcheck": ["SA1000", "SA4006"]}
//
// Without the file every SA analyzer is enabled.
package main

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gordonklaus/ineffassign/pkg/ineffassign"
	"github.com/gostaticanalysis/nilerr"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"honnef.co/go/tools/staticcheck"

	"github.com/patric-chuzhbe/instabackend/cmd/staticlint/noosexit"
)

const configFileName = "staticlint.json"

type configData struct {
	Staticcheck []string `json:"staticcheck"`
}

func loadConfig() (configData, error) {
	executable, err := os.Executable()
	if err != nil {
		return configData{}, err
	}

	data, err := os.ReadFile(filepath.Join(filepath.Dir(executable), configFileName))
	if errors.Is(err, os.ErrNotExist) {
		return configData{}, nil
	}
	if err != nil {
		return configData{}, err
	}

	var cfg configData
	if err := json.Unmarshal(data, &cfg); err != nil {
		return configData{}, err
	}

	return cfg, nil
}

func staticcheckAnalyzers(enabled []string) []*analysis.Analyzer {
	wanted := make(map[string]bool, len(enabled))
	for _, name := range enabled {
		wanted[name] = true
	}

	var result []*analysis.Analyzer
	for _, a := range staticcheck.Analyzers {
		name := a.Analyzer.Name
		if len(wanted) == 0 && strings.HasPrefix(name, "SA") || wanted[name] {
			result = append(result, a.Analyzer)
		}
	}

	return result
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("reading %s: %v", configFileName, err)
	}

	checks := []*analysis.Analyzer{
		copylock.Analyzer,
		errorsas.Analyzer,
		httpresponse.Analyzer,
		loopclosure.Analyzer,
		lostcancel.Analyzer,
		printf.Analyzer,
		structtag.Analyzer,
		unmarshal.Analyzer,
		unreachable.Analyzer,

		ineffassign.Analyzer,
		nilerr.Analyzer,

		noosexit.Analyzer,
	}
	checks = append(checks, staticcheckAnalyzers(cfg.Staticcheck)...)

	multichecker.Main(checks...)
}
