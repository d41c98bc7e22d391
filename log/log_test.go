// SPDX-License-Identifier: MIT

package log

import (
	"errors"
	"testing"
)

func TestSetTraceHookInvoked(t *testing.T) {
	var gotOp, gotKey string
	var gotErr error

	SetTraceHook(func(op, key string, err error) {
		gotOp, gotKey, gotErr = op, key, err
	})
	defer SetTraceHook(nil)

	wantErr := errors.New("boom")
	Trace("put", "mykey", wantErr)

	if gotOp != "put" || gotKey != "mykey" || gotErr != wantErr {
		t.Errorf("hook got (%q, %q, %v); want (%q, %q, %v)",
			gotOp, gotKey, gotErr, "put", "mykey", wantErr)
	}
}

func TestSetLevelString(t *testing.T) {
	defer SetLevel(WarnLevel)

	SetLevelString("trace")
	if level != TraceLevel {
		t.Errorf("level = %v; want %v", level, TraceLevel)
	}

	SetLevelString("error")
	if level != ErrorLevel {
		t.Errorf("level = %v; want %v", level, ErrorLevel)
	}
}
