// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// crivo-suppress inspects the suppression allowlist without running a
// screening batch: list the rules, or check which rule (if any) would
// swallow a given evidence span.
package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"crivo/internal/suppressions"
)

func main() {
	var (
		suppressionFile = flag.String("suppression-file", "", "Path to suppression configuration file (default: .crivo-suppressions.yaml)")
		action          = flag.String("action", "", "Action to perform: list, check")
		value           = flag.String("value", "", "Evidence value to test (for check action)")
		detectorID      = flag.String("detector", "", "Detector ID the value was matched by (for check action)")
	)
	flag.Parse()

	if *action == "" {
		fmt.Println("Error: --action is required")
		fmt.Println("Usage: crivo-suppress --action <list|check> [options]")
		os.Exit(1)
	}

	manager := suppressions.NewSuppressionManager(*suppressionFile)

	switch *action {
	case "list":
		listRules(manager)
	case "check":
		if *value == "" || *detectorID == "" {
			fmt.Println("Error: --value and --detector are required for check action")
			os.Exit(1)
		}
		checkValue(manager, *detectorID, *value)
	default:
		fmt.Printf("Error: Unknown action '%s'\n", *action)
		fmt.Println("Valid actions: list, check")
		os.Exit(1)
	}
}

func listRules(manager *suppressions.SuppressionManager) {
	rules := manager.ListSuppressions()
	if len(rules) == 0 {
		fmt.Printf("No suppression rules found in %s.\n", manager.GetConfigPath())
		return
	}

	fmt.Printf("Suppression rules (%d total, %d active):\n\n", len(rules), manager.ActiveCount())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMATCH\tDETECTORS\tENABLED\tREASON")
	for _, rule := range rules {
		match := rule.Value
		if match == "" {
			match = "/" + rule.Pattern + "/"
		}
		detectors := "all"
		if len(rule.Detectors) > 0 {
			detectors = fmt.Sprintf("%v", rule.Detectors)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", rule.ID, match, detectors, rule.Enabled, rule.Reason)
	}
	w.Flush()
}

func checkValue(manager *suppressions.SuppressionManager, detectorID, value string) {
	suppressed, rule := manager.IsSuppressed(detectorID, value)
	if !suppressed {
		fmt.Printf("Not suppressed: a %s match on %q would be flagged.\n", detectorID, value)
		return
	}
	fmt.Printf("Suppressed by rule %s (%s).\n", rule.ID, rule.Reason)
}
