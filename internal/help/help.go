// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package help

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

// CheckInfo contains standardized information about a detector
type CheckInfo struct {
	Name                string   // Name of the detector (e.g., "email")
	ShortDescription    string   // Short description for the detectors list
	DetailedDescription string   // Detailed description of what the detector does
	Patterns            []string // Patterns the detector looks for
	Guards              []string // Conditions that keep the detector from firing
	Examples            []string // Usage examples
}

// Provider defines the interface for help content providers
type Provider interface {
	GetCheckInfo() CheckInfo
}

// System manages help content for the application
type System struct {
	providers map[string]Provider
	noColor   bool
	colors    map[string]*color.Color
}

// NewSystem creates a new help system
func NewSystem(noColor bool) *System {
	// Disable colors if requested
	if noColor {
		color.NoColor = true
	}

	return &System{
		providers: make(map[string]Provider),
		noColor:   noColor,
		colors: map[string]*color.Color{
			"title":    color.New(color.FgWhite, color.Bold),
			"subtitle": color.New(color.FgCyan, color.Bold),
			"header":   color.New(color.FgBlue, color.Bold),
			"item":     color.New(color.FgCyan),
			"emphasis": color.New(color.FgWhite, color.Bold),
			"positive": color.New(color.FgGreen),
			"negative": color.New(color.FgRed),
			"warning":  color.New(color.FgYellow),
			"example":  color.New(color.FgMagenta),
		},
	}
}

// RegisterProvider adds a help provider to the system
func (h *System) RegisterProvider(provider Provider) {
	info := provider.GetCheckInfo()
	h.providers[strings.ToLower(info.Name)] = provider
}

// ShowGeneralHelp displays general help information
func (h *System) ShowGeneralHelp() {
	h.colors["title"].Println("Crivo - Personal Data Screening for Information Access Requests")
	fmt.Println("===============================================================")
	fmt.Println()
	h.colors["header"].Println("USAGE:")
	fmt.Println("  crivo --input <path-to-file> [options]")
	fmt.Println()

	h.colors["header"].Println("OPTIONS:")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  --input\t<path>\tInput spreadsheet to screen, .csv or .xlsx (required)")
	fmt.Fprintln(w, "  --output\t<path>\tOutput file path, same extension as the input (default: <input>_classificado.<ext>)")
	fmt.Fprintln(w, "  --report\t<path>\tWrite the run report to a file instead of stdout")
	fmt.Fprintln(w, "  --format\t<format>\tReport format: text, json, csv, yaml (default: text)")
	fmt.Fprintln(w, "  --config\t<path>\tPath to configuration file (YAML)")
	fmt.Fprintln(w, "  --profile\t<name>\tProfile name to use from config file")
	fmt.Fprintln(w, "  --list-profiles\t\tList available profiles in config file")
	fmt.Fprintln(w, "  --max-rows\t<n>\tScreen only the first n rows; the rest pass through unflagged")
	fmt.Fprintln(w, "  --workers\t<n>\tScreening workers (default: one per CPU, capped at 8)")
	fmt.Fprintln(w, "  --oracle\t\tEnable the remote oracle for ambiguous rows (requires an API key in the environment)")
	fmt.Fprintln(w, "  --oracle-model\t<model>\tRemote model identifier (default: gpt-4o-mini)")
	fmt.Fprintln(w, "  --cache\t<path>\tOracle cache database path")
	fmt.Fprintln(w, "  --evidence\t<path>\tWrite a JSONL evidence log, one record per screened row")
	fmt.Fprintln(w, "  --suppression-file\t<path>\tPath to suppression configuration file")
	fmt.Fprintln(w, "  --lexicon\t<path>\tExtra name lexicon file, one token and weight per line")
	fmt.Fprintln(w, "  --show-match\t\tDisplay the actual evidence spans in the report (otherwise shows [REDACTED])")
	fmt.Fprintln(w, "  --fail-on-detect\t\tExit with code 3 when any row is flagged as not public")
	fmt.Fprintln(w, "  --verbose\t\tDisplay detailed information for each flagged row")
	fmt.Fprintln(w, "  --debug\t\tEnable debug logging of the screening flow")
	fmt.Fprintln(w, "  --quiet\t\tSuppress progress output (useful for scripts)")
	fmt.Fprintln(w, "  --no-color\t\tDisable colored output")
	fmt.Fprintln(w, "  --version\t\tShow version information")
	fmt.Fprintln(w, "  --help\t\tShow this help message")
	fmt.Fprintln(w, "  --help detectors\t\tList all available detectors")
	fmt.Fprintln(w, "  --help <detector>\t\tShow detailed help for a specific detector")
	w.Flush()

	fmt.Println()
	h.colors["header"].Println("EXAMPLES:")
	fmt.Println("  Basic Usage:")
	h.colors["example"].Println("    crivo --input pedidos.csv")
	h.colors["example"].Println("    crivo --input pedidos.xlsx --evidence evidencias.jsonl --verbose")
	fmt.Println("  Configuration and Profiles:")
	h.colors["example"].Println("    crivo --input pedidos.csv --config crivo.yaml --profile local")
	h.colors["example"].Println("    crivo --list-profiles --config crivo.yaml")
	fmt.Println("  Remote Oracle:")
	h.colors["example"].Println("    crivo --input pedidos.csv --oracle --cache cache.db")

	fmt.Println()
	h.colors["header"].Println("EXIT CODES:")
	fmt.Println("  0  screening finished")
	fmt.Println("  1  input or configuration error")
	fmt.Println("  2  usage error")
	fmt.Println("  3  personal data found (only with --fail-on-detect)")

	fmt.Println()
	h.colors["header"].Println("CONFIGURATION:")
	fmt.Println("  Default config: ~/.crivo/config.yaml")
	fmt.Println("  Project config: crivo.yaml or .crivo.yaml (in current directory)")
	fmt.Println("  Environment: CRIVO_CONFIG_DIR - Override config directory")
	fmt.Println("               CRIVO_OPENAI_KEY or OPENAI_API_KEY - Remote oracle credential")
	fmt.Println("               GENDERIZE_API_KEY - Name token lookup credential")
}

// ShowChecksHelp displays information about all available detectors
func (h *System) ShowChecksHelp() {
	h.colors["title"].Println("Available Detectors in Crivo")
	fmt.Println("============================")
	fmt.Println()
	fmt.Println("The following detectors are available for flagging personal data:")
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	h.colors["header"].Fprintln(w, "  DETECTOR\tDESCRIPTION")
	h.colors["header"].Fprintln(w, "  --------\t-----------")

	// Get all detector names and sort them alphabetically
	var checkNames []string
	for _, provider := range h.providers {
		info := provider.GetCheckInfo()
		checkNames = append(checkNames, info.Name)
	}

	// Sort alphabetically
	for i := 0; i < len(checkNames); i++ {
		for j := i + 1; j < len(checkNames); j++ {
			if checkNames[i] > checkNames[j] {
				checkNames[i], checkNames[j] = checkNames[j], checkNames[i]
			}
		}
	}

	// Display in alphabetical order
	for _, checkName := range checkNames {
		for _, provider := range h.providers {
			info := provider.GetCheckInfo()
			if info.Name == checkName {
				fmt.Fprintf(w, "  ")
				h.colors["emphasis"].Fprintf(w, "%s", info.Name)
				fmt.Fprintf(w, "\t%s\n", info.ShortDescription)
				break
			}
		}
	}
	w.Flush()

	fmt.Println()
	fmt.Println("For detailed information about a specific detector, use:")
	h.colors["example"].Println("  crivo --help <detector>")
	fmt.Println()

	// Get the first available detector name for the example
	var exampleCheck string
	if len(h.providers) > 0 {
		for _, provider := range h.providers {
			info := provider.GetCheckInfo()
			exampleCheck = info.Name
			break
		}
	} else {
		exampleCheck = "<detector>"
	}

	fmt.Println("Example:")
	h.colors["example"].Printf("  crivo --help %s\n", exampleCheck)
}

// ShowCheckHelp displays detailed help for a specific detector
func (h *System) ShowCheckHelp(checkName string) bool {
	provider, exists := h.providers[strings.ToLower(checkName)]
	if !exists {
		h.colors["negative"].Printf("Error: Detector '%s' not found.\n", checkName)
		fmt.Println("Use 'crivo --help detectors' to see a list of available detectors.")
		return false
	}

	info := provider.GetCheckInfo()

	h.colors["title"].Printf("%s Detector\n", info.Name)
	fmt.Println(strings.Repeat("=", len(info.Name)+9))
	fmt.Println()
	fmt.Println(info.DetailedDescription)
	fmt.Println()

	// Display patterns
	if len(info.Patterns) > 0 {
		h.colors["header"].Println("PATTERNS DETECTED:")
		for _, pattern := range info.Patterns {
			fmt.Print("  - ")
			h.colors["item"].Println(pattern)
		}
		fmt.Println()
	}

	// Display guards
	if len(info.Guards) > 0 {
		h.colors["header"].Println("GUARDS:")
		for _, guard := range info.Guards {
			fmt.Print("  - ")
			h.colors["warning"].Println(guard)
		}
		fmt.Println()
	}

	// Display examples
	if len(info.Examples) > 0 {
		h.colors["header"].Println("EXAMPLES:")
		for _, example := range info.Examples {
			fmt.Print("  ")
			h.colors["example"].Println(example)
		}
	}

	return true
}
