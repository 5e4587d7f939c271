// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package suppressions

import (
	"os"
	"path/filepath"
	"testing"

	"crivo/internal/detector"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suppressions.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	return path
}

func TestNewSuppressionManager_NoFile(t *testing.T) {
	sm := NewSuppressionManager("/nonexistent/path.yaml")
	if sm == nil {
		t.Fatal("expected non-nil manager")
	}
	if !sm.IsEnabled() {
		t.Error("suppression manager should be enabled by default")
	}
	if len(sm.ListSuppressions()) != 0 {
		t.Error("expected empty allowlist without a file")
	}
}

func TestIsSuppressedValue(t *testing.T) {
	path := writeRules(t, `version: "1.0"
rules:
  - id: SUP-00000001
    value: "0800 616161"
    detectors: [telefone]
    reason: "telefone institucional da ouvidoria"
    enabled: true
`)
	sm := NewSuppressionManager(path)

	suppressed, rule := sm.IsSuppressed(detector.Telefone, "0800 616161")
	if !suppressed {
		t.Fatal("institutional phone should be suppressed")
	}
	if rule == nil || rule.ID != "SUP-00000001" {
		t.Errorf("rule = %+v, want SUP-00000001", rule)
	}

	if suppressed, _ := sm.IsSuppressed(detector.Telefone, "0800 999999"); suppressed {
		t.Error("different value should not be suppressed")
	}
}

func TestIsSuppressedValueNormalized(t *testing.T) {
	// Rules may be written with accents and uppercase; evidence arrives
	// already normalized.
	path := writeRules(t, `version: "1.0"
rules:
  - id: SUP-00000001
    value: "Ouvidoria@Prefeitura.GOV.BR"
    detectors: [email]
    reason: "caixa de serviço"
    enabled: true
`)
	sm := NewSuppressionManager(path)

	suppressed, _ := sm.IsSuppressed(detector.Email, "ouvidoria@prefeitura.gov.br")
	if !suppressed {
		t.Error("value comparison should be case and accent insensitive")
	}
}

func TestIsSuppressedPattern(t *testing.T) {
	path := writeRules(t, `version: "1.0"
rules:
  - id: SUP-00000002
    pattern: "^0800[\\s-]?\\d{3}[\\s-]?\\d{4}$"
    detectors: [telefone]
    reason: "números de serviço 0800"
    enabled: true
`)
	sm := NewSuppressionManager(path)

	suppressed, rule := sm.IsSuppressed(detector.Telefone, "0800 123 4567")
	if !suppressed {
		t.Fatal("0800 number should match the pattern rule")
	}
	if rule.Reason != "números de serviço 0800" {
		t.Errorf("reason = %q", rule.Reason)
	}

	if suppressed, _ := sm.IsSuppressed(detector.Telefone, "(61) 99999-0000"); suppressed {
		t.Error("personal phone should not match the pattern rule")
	}
}

func TestIsSuppressedDetectorScope(t *testing.T) {
	path := writeRules(t, `version: "1.0"
rules:
  - id: SUP-00000003
    value: "12345678"
    detectors: [rg]
    reason: "número publicado em edital"
    enabled: true
`)
	sm := NewSuppressionManager(path)

	if suppressed, _ := sm.IsSuppressed(detector.RG, "12345678"); !suppressed {
		t.Error("scoped detector should be suppressed")
	}
	if suppressed, _ := sm.IsSuppressed(detector.Identificador, "12345678"); suppressed {
		t.Error("other detectors should not be affected by a scoped rule")
	}
}

func TestIsSuppressedUnscopedRuleAppliesToAll(t *testing.T) {
	path := writeRules(t, `version: "1.0"
rules:
  - id: SUP-00000004
    value: "sic@orgao.gov.br"
    reason: "endereço do serviço de informação"
    enabled: true
`)
	sm := NewSuppressionManager(path)

	for _, id := range []string{detector.Email, detector.Nome} {
		if suppressed, _ := sm.IsSuppressed(id, "sic@orgao.gov.br"); !suppressed {
			t.Errorf("unscoped rule should apply to %s", id)
		}
	}
}

func TestDisabledRuleIgnored(t *testing.T) {
	path := writeRules(t, `version: "1.0"
rules:
  - id: SUP-00000005
    value: "0800 616161"
    reason: "desativada"
    enabled: false
`)
	sm := NewSuppressionManager(path)

	if suppressed, _ := sm.IsSuppressed(detector.Telefone, "0800 616161"); suppressed {
		t.Error("disabled rule should not suppress")
	}
	if sm.ActiveCount() != 0 {
		t.Errorf("active count = %d, want 0", sm.ActiveCount())
	}
}

func TestExpiredRuleIgnored(t *testing.T) {
	path := writeRules(t, `version: "1.0"
rules:
  - id: SUP-00000006
    value: "0800 616161"
    reason: "expirada"
    enabled: true
    expires_at: 2020-01-01T00:00:00Z
`)
	sm := NewSuppressionManager(path)

	if suppressed, _ := sm.IsSuppressed(detector.Telefone, "0800 616161"); suppressed {
		t.Error("expired rule should not suppress")
	}
	if sm.ActiveCount() != 0 {
		t.Errorf("active count = %d, want 0", sm.ActiveCount())
	}
}

func TestInvalidPatternNeverMatches(t *testing.T) {
	path := writeRules(t, `version: "1.0"
rules:
  - id: SUP-00000007
    pattern: "([unclosed"
    reason: "padrão quebrado"
    enabled: true
  - id: SUP-00000008
    value: "0800 616161"
    reason: "válida"
    enabled: true
`)
	sm := NewSuppressionManager(path)

	if suppressed, _ := sm.IsSuppressed(detector.Telefone, "qualquer coisa"); suppressed {
		t.Error("broken pattern should never match")
	}
	if suppressed, _ := sm.IsSuppressed(detector.Telefone, "0800 616161"); !suppressed {
		t.Error("valid rule after a broken one should still work")
	}
}

func TestSetEnabled(t *testing.T) {
	path := writeRules(t, `version: "1.0"
rules:
  - id: SUP-00000009
    value: "0800 616161"
    reason: "institucional"
    enabled: true
`)
	sm := NewSuppressionManager(path)

	sm.SetEnabled(false)
	if sm.IsEnabled() {
		t.Error("expected manager to be disabled")
	}
	if suppressed, _ := sm.IsSuppressed(detector.Telefone, "0800 616161"); suppressed {
		t.Error("disabled manager should not suppress")
	}

	sm.SetEnabled(true)
	if suppressed, _ := sm.IsSuppressed(detector.Telefone, "0800 616161"); !suppressed {
		t.Error("re-enabled manager should suppress again")
	}
}

func TestGetConfigPath(t *testing.T) {
	path := "/some/path.yaml"
	sm := NewSuppressionManager(path)
	if sm.GetConfigPath() != path {
		t.Errorf("expected config path %q, got %q", path, sm.GetConfigPath())
	}
}
