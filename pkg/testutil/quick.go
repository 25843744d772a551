// Copyright (C) 2021  Ambassador Labs
// Copyright (C) 2025  Mufi-Lang
//
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
)

// QuickConfig is testing/quick.Config, re-exported so that callers of QuickCheck don't also
// need to import testing/quick.
type QuickConfig = quick.Config

// QuickCheck is testing/quick.Check, plus a list of fixed inputs that are always tried in
// addition to the random ones.  Each fixed input is the full argument list for fn.
func QuickCheck(t *testing.T, fn interface{}, cfg QuickConfig, fixed ...[]interface{}) {
	t.Helper()
	err := quick.Check(fn, &cfg)
	assert.NoError(t, err)
	var setupErr quick.SetupError
	if errors.As(err, &setupErr) {
		return
	}

	fnVal := reflect.ValueOf(fn)
	for i, input := range fixed {
		if len(input) != fnVal.Type().NumIn() {
			t.Errorf("fixed#%d has %d args, but the function takes %d args",
				i, len(input), fnVal.Type().NumIn())
			continue
		}
		args := make([]reflect.Value, len(input))
		for j := range args {
			args[j] = reflect.ValueOf(input[j])
		}
		if !fnVal.Call(args)[0].Bool() {
			assert.NoError(t, fmt.Errorf("fixed%w", &quick.CheckError{
				Count: i + 1,
				In:    input,
			}))
		}
	}
}
