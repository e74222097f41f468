package log

import (
	"bytes"
	"strings"
	"testing"
)

// helper resets output and returns buffer and logger
func newTestLogger(t *testing.T, name string) (*Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	return ForComponent(name), buf
}

func TestPrefixInfo(t *testing.T) {
	SetGlobalDebug(false)

	const name = "prefix_component_test"
	l, buf := newTestLogger(t, name)

	l.Infof("hello world")
	out := buf.String()

	if !strings.Contains(out, "["+name+">]") {
		t.Fatalf("expected prefix [%s>] in output, got: %q", name, out)
	}
	if !strings.Contains(out, "hello world") {
		t.Fatalf("expected message in output, got: %q", out)
	}
}

func TestDebugPerComponent(t *testing.T) {
	SetGlobalDebug(false)

	const name = "debug_component_specific"
	DisableDebugFor(name) // ensure clean state
	l, buf := newTestLogger(t, name)

	l.Debugf("should not appear")
	if strings.Contains(buf.String(), "should not appear") {
		t.Fatalf("debug message appeared while debug disabled (per component & global)")
	}

	EnableDebugFor(name)
	l.Debugf("visible now")
	if !strings.Contains(buf.String(), "visible now") {
		t.Fatalf("expected debug message after enabling per-component debug; got: %q", buf.String())
	}

	DisableDebugFor(name)
	buf.Reset()
	l.Debugf("hidden again")
	if strings.Contains(buf.String(), "hidden again") {
		t.Fatalf("debug message appeared after disabling per-component debug")
	}
}

func TestGlobalDebug(t *testing.T) {
	const name = "debug_component_global"
	l, buf := newTestLogger(t, name)

	SetGlobalDebug(true)
	defer SetGlobalDebug(false)

	l.Debugf("global debug message")
	if !strings.Contains(buf.String(), "global debug message") {
		t.Fatalf("expected debug message with global debug enabled; got: %q", buf.String())
	}
}

func TestLevels(t *testing.T) {
	const name = "levels_component"
	l, buf := newTestLogger(t, name)

	l.Warnf("watch out")
	l.Errorf("it broke")

	out := buf.String()
	if !strings.Contains(out, LevelWarn) || !strings.Contains(out, "watch out") {
		t.Fatalf("expected warn line, got: %q", out)
	}
	if !strings.Contains(out, LevelError) || !strings.Contains(out, "it broke") {
		t.Fatalf("expected error line, got: %q", out)
	}
}
