// Copyright (C) 2025  Mufi-Lang
//
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/pmezard/go-difflib/difflib"
)

//nolint:gochecknoglobals // Would be 'const'.
var spewConfig = spew.ConfigState{
	Indent:                  "  ",
	DisableMethods:          true,
	DisableCapacities:       true,
	DisablePointerAddresses: true,
	SortKeys:                true,
}

// Dump renders a value for a test failure message.
func Dump(v interface{}) string {
	return spewConfig.Sdump(v)
}

func unifiedDiff(exp, act string) string {
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(exp),
		B:        difflib.SplitLines(act),
		FromFile: "Expected",
		FromDate: "",
		ToFile:   "Actual",
		ToDate:   "",
		Context:  1,
	})
	return diff
}

// AssertEqualText is like assert.Equal for strings, but reports a unified diff, which is much
// more readable for multi-line documents.
func AssertEqualText(t *testing.T, exp, act string) bool {
	t.Helper()
	if exp != act {
		t.Errorf("Text diff:\n%s", unifiedDiff(exp, act))
		return false
	}
	return true
}

// AssertEqualJSON compares two JSON documents, ignoring insignificant whitespace but NOT key
// order.
func AssertEqualJSON(t *testing.T, exp, act []byte) bool {
	t.Helper()
	var expBuf, actBuf bytes.Buffer
	if err := json.Indent(&expBuf, exp, "", "  "); err != nil {
		t.Errorf("expected value is not valid JSON: %v\n%s", err, Dump(exp))
		return false
	}
	if err := json.Indent(&actBuf, act, "", "  "); err != nil {
		t.Errorf("actual value is not valid JSON: %v\n%s", err, Dump(act))
		return false
	}
	if expBuf.String() != actBuf.String() {
		t.Errorf("JSON diff:\n%s", unifiedDiff(expBuf.String(), actBuf.String()))
		return false
	}
	return true
}
