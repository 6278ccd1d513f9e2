package main

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestListCmd(t *testing.T) {
	a, _ := newTestApp(t)

	for _, name := range []string{"alpha", "beta", "gamma"} {
		if _, err := runCmd(t, a, "add", name, "content of "+name); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}

	out, err := runCmd(t, a, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, name := range []string{"alpha", "beta", "gamma"} {
		if !strings.Contains(out, name) {
			t.Errorf("list output missing %q: %q", name, out)
		}
	}
}

func TestListCmdEmpty(t *testing.T) {
	a, _ := newTestApp(t)

	out, err := runCmd(t, a, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "No records") {
		t.Errorf("list output = %q", out)
	}
}

func TestListCmdJSON(t *testing.T) {
	a, _ := newTestApp(t)

	if _, err := runCmd(t, a, "add", "alpha", "a"); err != nil {
		t.Fatalf("add: %v", err)
	}

	out, err := runCmd(t, a, "list", "--json")
	if err != nil {
		t.Fatalf("list --json: %v", err)
	}

	var records []map[string]any
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("invalid json %q: %v", out, err)
	}
	if len(records) != 1 {
		t.Errorf("records = %v", records)
	}
}
