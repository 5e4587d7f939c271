// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package evidence writes the per-row audit log: one JSON record per
// classified observation, appended as JSONL. Reviewers use it to see
// which spans drove a verdict without rerunning the pipeline.
package evidence

import (
	"encoding/json"
	"os"

	"crivo/internal/detector"
)

// Record is one audit log entry. Flags always carries every category,
// and Evidence is never null, so downstream tooling can index both
// without guarding.
type Record struct {
	ID         string                  `json:"id"`
	NaoPublico int                     `json:"nao_publico"`
	Flags      map[string]int          `json:"flags"`
	Evidence   []detector.EvidenceItem `json:"evidence"`
}

// Writer emits verdict records to a JSONL file. The file is truncated
// when the writer opens; records are only ever appended after that.
type Writer struct {
	f   *os.File
	enc *json.Encoder
}

// NewWriter creates or truncates the log file at path.
func NewWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	return &Writer{f: f, enc: enc}, nil
}

// Append writes one record for a classified observation. Pass-through
// rows are the caller's concern; they never reach the log.
func (w *Writer) Append(v detector.Verdict) error {
	flags := detector.NewFlags()
	for id, val := range v.Flags {
		if _, ok := flags[id]; ok {
			flags[id] = val
		}
	}

	items := v.Evidence
	if items == nil {
		items = []detector.EvidenceItem{}
	}

	naoPublico := 0
	if v.IsPersonal {
		naoPublico = 1
	}

	return w.enc.Encode(Record{
		ID:         v.ObservationID,
		NaoPublico: naoPublico,
		Flags:      flags,
		Evidence:   items,
	})
}

// Close flushes and closes the log file.
func (w *Writer) Close() error {
	return w.f.Close()
}
