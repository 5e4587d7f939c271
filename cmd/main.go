// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"crivo/internal/cache"
	"crivo/internal/config"
	"crivo/internal/core"
	"crivo/internal/cost"
	"crivo/internal/detector"
	"crivo/internal/evidence"
	"crivo/internal/formatters"
	_ "crivo/internal/formatters/csv"
	_ "crivo/internal/formatters/json"
	_ "crivo/internal/formatters/text"
	_ "crivo/internal/formatters/yaml"
	"crivo/internal/fragment"
	"crivo/internal/help"
	"crivo/internal/lexicon"
	"crivo/internal/observability"
	"crivo/internal/oracle"
	"crivo/internal/parallel"
	"crivo/internal/rows"
	"crivo/internal/security"
	"crivo/internal/suppressions"
	"crivo/internal/validators/email"
	"crivo/internal/validators/endereco"
	"crivo/internal/validators/identificador"
	"crivo/internal/validators/nome"
	"crivo/internal/validators/rg"
	"crivo/internal/validators/telefone"
	"crivo/internal/version"

	"golang.org/x/term"
)

// Exit codes. The help text documents these; keep both in sync.
const (
	exitOK       = 0
	exitError    = 1
	exitUsage    = 2
	exitDetected = 3
)

// finalConfiguration is every option after the default -> config ->
// profile -> flag resolution. Screening code receives values from here
// only, never from the flag set or the environment.
type finalConfiguration struct {
	input           string
	output          string
	reportFile      string
	format          string
	maxRows         int
	workers         int
	showMatch       bool
	failOnDetect    bool
	verbose         bool
	debug           bool
	quiet           bool
	noColor         bool
	oracleEnabled   bool
	oracleModel     string
	nameTokenLookup bool
	cachePath       string
	evidencePath    string
	suppressionFile string
	lexiconPath     string

	screening struct {
		windowSize            int
		windowOverlap         int
		suppressionsEnabled   bool
		nameScoreMin          float64
		nameScoreMinSingle    float64
		nameMaxTokensSingle   int
		nameMaxTokensFallback int
	}
}

func main() {
	inputFile := flag.String("input", "", "Input spreadsheet to screen, .csv or .xlsx")
	outputFile := flag.String("output", "", "Output file path, same extension as the input (default: <input>_classificado.<ext>)")
	reportFile := flag.String("report", "", "Write the run report to a file instead of stdout")
	outputFormat := flag.String("format", "", "Report format: text, json, csv, yaml (default: text)")
	configFile := flag.String("config", "", "Path to configuration file (YAML)")
	profileName := flag.String("profile", "", "Profile name to use from config file")
	listProfiles := flag.Bool("list-profiles", false, "List available profiles in config file")
	maxRows := flag.Int("max-rows", -1, "Screen only the first n rows; the rest pass through unflagged")
	workers := flag.Int("workers", -1, "Screening workers (default: one per CPU, capped at 8)")
	oracleEnabled := flag.Bool("oracle", false, "Enable the remote oracle for ambiguous rows")
	oracleModel := flag.String("oracle-model", "", "Remote model identifier (default: gpt-4o-mini)")
	cachePath := flag.String("cache", "", "Oracle cache database path")
	evidencePath := flag.String("evidence", "", "Write a JSONL evidence log, one record per screened row")
	suppressionFile := flag.String("suppression-file", "", "Path to suppression configuration file")
	lexiconPath := flag.String("lexicon", "", "Extra name lexicon file, one token and weight per line")
	showMatch := flag.Bool("show-match", false, "Display the actual evidence spans in the report")
	failOnDetect := flag.Bool("fail-on-detect", false, "Exit with code 3 when any row is flagged as not public")
	verbose := flag.Bool("verbose", false, "Display detailed information for each flagged row")
	debug := flag.Bool("debug", false, "Enable debug logging of the screening flow")
	quiet := flag.Bool("quiet", false, "Suppress progress output")
	noColor := flag.Bool("no-color", false, "Disable colored output")
	showVersion := flag.Bool("version", false, "Show version information")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		os.Exit(exitOK)
	}

	if *showHelp {
		showHelpTopic(flag.Args(), *noColor)
		os.Exit(exitOK)
	}

	cfg, err := loadConfiguration(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}

	if *listProfiles {
		printProfiles(cfg)
		os.Exit(exitOK)
	}

	var profile *config.Profile
	if *profileName != "" {
		profile = cfg.GetProfile(*profileName)
		if profile == nil {
			fmt.Fprintf(os.Stderr, "Error: profile %q not found in configuration. Available profiles: %s\n",
				*profileName, strings.Join(cfg.ListProfiles(), ", "))
			os.Exit(exitError)
		}
	}

	final := resolveConfiguration(cfg, profile, flagValues{
		input:           *inputFile,
		output:          *outputFile,
		reportFile:      *reportFile,
		format:          *outputFormat,
		maxRows:         *maxRows,
		workers:         *workers,
		oracleEnabled:   *oracleEnabled,
		oracleModel:     *oracleModel,
		cachePath:       *cachePath,
		evidencePath:    *evidencePath,
		suppressionFile: *suppressionFile,
		lexiconPath:     *lexiconPath,
		showMatch:       *showMatch,
		failOnDetect:    *failOnDetect,
		verbose:         *verbose,
		debug:           *debug,
		quiet:           *quiet,
		noColor:         *noColor,
	})

	if final.input == "" {
		fmt.Fprintln(os.Stderr, "Error: --input is required")
		fmt.Fprintln(os.Stderr, "Use 'crivo --help' for usage information")
		os.Exit(exitUsage)
	}
	if _, ok := formatters.Get(final.format); !ok {
		fmt.Fprintf(os.Stderr, "Error: unsupported format %q. Available formats: %s\n",
			final.format, strings.Join(formatters.List(), ", "))
		os.Exit(exitUsage)
	}

	// Credentials are validated before the first row is read, so a batch
	// with a misconfigured oracle fails now instead of at the first
	// ambiguous observation.
	creds := config.LoadCredentials()
	defer creds.Clear()
	credCfg := *cfg
	credCfg.Oracle.Enabled = final.oracleEnabled
	credCfg.Oracle.NameTokenLookup = final.nameTokenLookup
	if err := config.ValidateCredentials(&credCfg, creds); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}

	os.Exit(run(final, creds))
}

// flagValues carries the raw flag values into the resolution step.
// resolveConfiguration needs them next to flag.Visit, which reports
// which of them the user actually set.
type flagValues struct {
	input           string
	output          string
	reportFile      string
	format          string
	maxRows         int
	workers         int
	oracleEnabled   bool
	oracleModel     string
	cachePath       string
	evidencePath    string
	suppressionFile string
	lexiconPath     string
	showMatch       bool
	failOnDetect    bool
	verbose         bool
	debug           bool
	quiet           bool
	noColor         bool
}

// loadConfiguration loads the explicit config file, or searches the
// standard locations when none was given. An explicit file that fails to
// load is an error; a missing implicit one falls back to defaults.
func loadConfiguration(configFile string) (*config.Config, error) {
	if configFile != "" {
		return config.LoadConfig(configFile)
	}
	return config.LoadConfig(config.FindConfigFile())
}

// resolveConfiguration applies the precedence chain: built-in defaults,
// then the config file, then the selected profile, then explicit flags.
func resolveConfiguration(cfg *config.Config, profile *config.Profile, flags flagValues) *finalConfiguration {
	final := &finalConfiguration{}

	// Config-file layer (which itself sits on the built-in defaults).
	final.format = cfg.Defaults.Format
	final.verbose = cfg.Defaults.Verbose
	final.debug = cfg.Defaults.Debug
	final.noColor = cfg.Defaults.NoColor
	final.showMatch = cfg.Defaults.ShowMatch
	final.workers = cfg.Defaults.Workers
	final.maxRows = cfg.Defaults.MaxRows
	final.oracleEnabled = cfg.Oracle.Enabled
	final.oracleModel = cfg.Oracle.Model
	final.nameTokenLookup = cfg.Oracle.NameTokenLookup
	final.cachePath = cfg.Paths.Cache
	final.evidencePath = cfg.Paths.Evidence
	final.lexiconPath = cfg.Paths.Lexicon
	final.suppressionFile = cfg.Paths.Suppressions

	final.screening.windowSize = cfg.Screening.WindowSize
	final.screening.windowOverlap = cfg.Screening.WindowOverlap
	final.screening.suppressionsEnabled = cfg.Screening.SuppressionsEnabled
	final.screening.nameScoreMin = cfg.Screening.NameScoreMin
	final.screening.nameScoreMinSingle = cfg.Screening.NameScoreMinSingle
	final.screening.nameMaxTokensSingle = cfg.Screening.NameMaxTokensSingle
	final.screening.nameMaxTokensFallback = cfg.Screening.NameMaxTokensFallback

	// Profile layer.
	if profile != nil {
		if profile.Format != "" {
			final.format = profile.Format
		}
		if profile.Workers > 0 {
			final.workers = profile.Workers
		}
		if profile.MaxRows > 0 {
			final.maxRows = profile.MaxRows
		}
		final.verbose = final.verbose || profile.Verbose
		final.debug = final.debug || profile.Debug
		final.noColor = final.noColor || profile.NoColor
		final.showMatch = final.showMatch || profile.ShowMatch
		final.oracleEnabled = profile.OracleEnabled
	}

	// Flag layer. Booleans only override when the user typed the flag;
	// otherwise --oracle=false from the zero value would undo the config.
	final.input = flags.input
	if flags.output != "" {
		final.output = flags.output
	}
	if flags.reportFile != "" {
		final.reportFile = flags.reportFile
	}
	if flags.format != "" {
		final.format = flags.format
	}
	if isFlagSet("max-rows") {
		final.maxRows = flags.maxRows
	}
	if isFlagSet("workers") {
		final.workers = flags.workers
	}
	if isFlagSet("oracle") {
		final.oracleEnabled = flags.oracleEnabled
	}
	if flags.oracleModel != "" {
		final.oracleModel = flags.oracleModel
	}
	if flags.cachePath != "" {
		final.cachePath = flags.cachePath
	}
	if flags.evidencePath != "" {
		final.evidencePath = flags.evidencePath
	}
	if flags.suppressionFile != "" {
		final.suppressionFile = flags.suppressionFile
	}
	if flags.lexiconPath != "" {
		final.lexiconPath = flags.lexiconPath
	}
	if isFlagSet("show-match") {
		final.showMatch = flags.showMatch
	}
	if isFlagSet("verbose") {
		final.verbose = flags.verbose
	}
	if isFlagSet("debug") {
		final.debug = flags.debug
	}
	if isFlagSet("no-color") {
		final.noColor = flags.noColor
	}
	final.failOnDetect = flags.failOnDetect
	final.quiet = flags.quiet

	if final.format == "" {
		final.format = "text"
	}
	if final.maxRows < 0 {
		final.maxRows = 0
	}
	if final.workers < 0 {
		final.workers = 0
	}
	return final
}

// isFlagSet checks if a flag was explicitly provided on the command line.
func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// run screens the input file end to end and returns the process exit
// code.
func run(final *finalConfiguration, creds config.Credentials) int {
	observer := buildObserver(final)

	splitter, err := fragment.NewSplitter(final.screening.windowSize, final.screening.windowOverlap)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	table, err := rows.Read(final.input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	defer table.Close()

	outputPath := final.output
	if outputPath == "" {
		outputPath = rows.DefaultOutputPath(final.input)
	} else if err := rows.CheckOutputPath(final.input, outputPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	observations := rows.Observations(table)

	// Rows that violate the input contract cannot be classified. They are
	// reported and copied through with empty verdict columns; zeroed flags
	// would silently assert "public", which is a verdict.
	invalid := findInvalidObservations(observations)
	for _, iv := range invalid {
		fmt.Fprintf(os.Stderr, "Warning: row %d: %s, row will not be classified\n", iv.row, iv.reason)
	}

	screener, cleanup, tracker, err := buildScreener(final, creds, splitter, observer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	defer cleanup()

	// Select what actually gets screened: valid rows inside the row
	// limit. Everything else passes through.
	limit := len(observations)
	if final.maxRows > 0 && final.maxRows < limit {
		limit = final.maxRows
	}
	var toScreen []detector.Observation
	var screenIdx []int
	for i := 0; i < limit; i++ {
		if _, bad := invalid[i]; bad {
			continue
		}
		toScreen = append(toScreen, observations[i])
		screenIdx = append(screenIdx, i)
	}

	pool := parallel.NewPool(final.workers, screener, observer)
	progress := progressCallback(final)

	start := time.Now()
	verdicts, _, err := pool.ScreenAllWithProgress(context.Background(), toScreen, progress)
	if progress != nil {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: screening interrupted: %v\n", err)
		return exitError
	}

	if final.evidencePath != "" {
		if err := writeEvidenceLog(final.evidencePath, verdicts); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: evidence log not written: %v\n", err)
		}
	}

	// Reassemble the output in input order: screened rows get their
	// verdict columns, pass-through rows get zeroed flags, invalid rows
	// stay untouched.
	verdictAt := make(map[int]detector.Verdict, len(verdicts))
	for i, idx := range screenIdx {
		verdictAt[idx] = verdicts[i]
	}
	outRows := make([]rows.Row, len(observations))
	passedThrough := 0
	for i, row := range table.Rows() {
		if _, bad := invalid[i]; bad {
			outRows[i] = row
			continue
		}
		if v, ok := verdictAt[i]; ok {
			outRows[i] = rows.ApplyVerdict(row, v)
			continue
		}
		outRows[i] = rows.ApplyVerdict(row, detector.Verdict{})
		passedThrough++
	}
	if err := table.Write(outputPath, outRows, rows.OutputColumns()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: writing %s: %v\n", outputPath, err)
		return exitError
	}

	report := formatters.Report{
		Input:         final.input,
		Output:        outputPath,
		EvidencePath:  final.evidencePath,
		Verdicts:      verdicts,
		PassedThrough: passedThrough,
		Workers:       pool.Workers(),
		Duration:      time.Since(start),
	}
	rendered, err := formatters.Export(final.format, report, formatters.Options{
		Verbose:   final.verbose,
		NoColor:   final.noColor,
		ShowMatch: final.showMatch,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	if final.reportFile != "" {
		if err := os.WriteFile(final.reportFile, []byte(rendered), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: writing report: %v\n", err)
			return exitError
		}
	} else {
		fmt.Println(rendered)
	}

	if final.oracleEnabled && !final.quiet && tracker != nil {
		fmt.Fprintln(os.Stderr, tracker.Summary().FormatCostSummary())
	}

	if final.failOnDetect {
		for _, v := range verdicts {
			if v.IsPersonal {
				return exitDetected
			}
		}
	}
	return exitOK
}

// buildObserver maps the verbosity flags onto an observability level.
func buildObserver(final *finalConfiguration) *observability.StandardObserver {
	switch {
	case final.debug:
		return observability.NewStandardObserver(observability.ObservabilityDebug, os.Stderr)
	case final.verbose:
		return observability.NewStandardObserver(observability.ObservabilityMetrics, os.Stderr)
	default:
		return observability.NewStandardObserver(observability.ObservabilityOff, nil)
	}
}

// buildScreener assembles the detection pipeline: lexicon, suppressions,
// the strong and weak sets, and the oracle when enabled. The returned
// cleanup closes whatever the pipeline opened.
func buildScreener(final *finalConfiguration, creds config.Credentials, splitter *fragment.Splitter, observer *observability.StandardObserver) (*core.Screener, func(), *cost.Tracker, error) {
	cleanup := func() {}

	lex := lexicon.New()
	if final.lexiconPath != "" {
		if err := lex.LoadFile(final.lexiconPath); err != nil {
			return nil, cleanup, nil, err
		}
	}

	suppress := suppressions.NewSuppressionManager(final.suppressionFile)
	suppress.SetEnabled(final.screening.suppressionsEnabled)

	nomeCfg := nome.Config{
		ScoreMin:          final.screening.nameScoreMin,
		ScoreMinSingle:    final.screening.nameScoreMinSingle,
		MaxTokensSingle:   final.screening.nameMaxTokensSingle,
		MaxTokensFallback: final.screening.nameMaxTokensFallback,
		RemoteLookup:      final.nameTokenLookup,
	}

	cfg := core.ScreenerConfig{
		Splitter:     splitter,
		Strong:       core.BuildStrongSet(),
		Suppressions: suppress,
		Observer:     observer,
	}

	var tracker *cost.Tracker
	if final.oracleEnabled || final.nameTokenLookup {
		tracker = cost.NewTracker(cost.DefaultPricing())

		store, err := cache.Open(final.cachePath)
		if err != nil {
			// A dead cache costs remote calls and learned weights, not
			// the run.
			fmt.Fprintf(os.Stderr, "Warning: oracle cache unavailable (%v), remote features disabled\n", err)
			cfg.Weak = core.BuildWeakSet(lex, nomeCfg, nil)
			return core.NewScreener(cfg), cleanup, tracker, nil
		}
		cleanup = func() { store.Close() }

		if err := lex.AttachStore(store); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: learned name weights unavailable: %v\n", err)
		}

		var resolver nome.TokenResolver
		if final.nameTokenLookup {
			resolver = oracle.NewNameLookup("", secret(creds.LookupKey), tracker)
		}
		cfg.Weak = core.BuildWeakSet(lex, nomeCfg, resolver)

		if final.oracleEnabled {
			classifier := oracle.NewLLMClassifier(secret(creds.OpenAIKey), final.oracleModel, splitter)
			cfg.Oracle = oracle.New(classifier, store, tracker, observer)
		}
	} else {
		cfg.Weak = core.BuildWeakSet(lex, nomeCfg, nil)
	}

	return core.NewScreener(cfg), cleanup, tracker, nil
}

// invalidObservation marks a row the screener must not classify.
type invalidObservation struct {
	row    int
	reason string
}

// findInvalidObservations checks the per-row input contract: every
// observation needs a unique, non-empty ID. The returned map is keyed by
// observation index.
func findInvalidObservations(observations []detector.Observation) map[int]invalidObservation {
	invalid := make(map[int]invalidObservation)
	seen := make(map[string]int, len(observations))
	for i, obs := range observations {
		if strings.TrimSpace(obs.ID) == "" {
			invalid[i] = invalidObservation{row: obs.Row, reason: "missing ID"}
			continue
		}
		if first, dup := seen[obs.ID]; dup {
			invalid[i] = invalidObservation{row: obs.Row, reason: fmt.Sprintf("duplicate ID %q (first seen at row %d)", obs.ID, first)}
			continue
		}
		seen[obs.ID] = obs.Row
	}
	return invalid
}

// progressCallback returns a terminal progress printer, or nil when the
// run is quiet or not interactive.
func progressCallback(final *finalConfiguration) parallel.ProgressCallback {
	if final.quiet || final.debug || !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}
	return func(completed, total int, _ string) {
		fmt.Fprintf(os.Stderr, "\rScreening rows: %d/%d", completed, total)
	}
}

// writeEvidenceLog writes one JSONL record per screened verdict.
func writeEvidenceLog(path string, verdicts []detector.Verdict) error {
	w, err := evidence.NewWriter(path)
	if err != nil {
		return err
	}
	defer w.Close()
	for _, v := range verdicts {
		if err := w.Append(v); err != nil {
			return err
		}
	}
	return nil
}

// secret unwraps an optional credential.
func secret(s *security.SecureString) string {
	if s == nil {
		return ""
	}
	return s.String()
}

// nomeHelpProvider adapts the nome package's function-style help to the
// provider interface the help system registers.
type nomeHelpProvider struct{}

func (nomeHelpProvider) GetCheckInfo() help.CheckInfo { return nome.GetCheckInfo() }

// showHelpTopic dispatches --help [topic]: no topic for general help,
// "detectors" for the list, or a detector name for its detail page.
func showHelpTopic(args []string, noColor bool) {
	system := help.NewSystem(noColor)
	system.RegisterProvider(identificador.NewValidator())
	system.RegisterProvider(email.NewValidator())
	system.RegisterProvider(telefone.NewValidator())
	system.RegisterProvider(endereco.NewValidator())
	system.RegisterProvider(rg.NewValidator())
	system.RegisterProvider(nomeHelpProvider{})

	if len(args) == 0 {
		system.ShowGeneralHelp()
		return
	}
	topic := strings.ToLower(args[0])
	if topic == "detectors" || topic == "detectores" {
		system.ShowChecksHelp()
		return
	}
	system.ShowCheckHelp(topic)
}

// printProfiles lists the configured profiles with their descriptions.
func printProfiles(cfg *config.Config) {
	names := cfg.ListProfiles()
	if len(names) == 0 {
		fmt.Println("No profiles configured.")
		return
	}
	fmt.Println("Available profiles:")
	for _, name := range names {
		profile := cfg.GetProfile(name)
		if profile.Description != "" {
			fmt.Printf("  %s - %s\n", name, profile.Description)
		} else {
			fmt.Printf("  %s\n", name)
		}
	}
}
