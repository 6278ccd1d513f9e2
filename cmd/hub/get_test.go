package main

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestGetCmd(t *testing.T) {
	a, _ := newTestApp(t)

	if _, err := runCmd(t, a, "add", "greeting", "hello world"); err != nil {
		t.Fatalf("add: %v", err)
	}

	out, err := runCmd(t, a, "get", "greeting")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if strings.TrimSpace(out) != "hello world" {
		t.Errorf("get output = %q", out)
	}
}

func TestGetCmdJSON(t *testing.T) {
	a, _ := newTestApp(t)

	if _, err := runCmd(t, a, "add", "greeting", "hello"); err != nil {
		t.Fatalf("add: %v", err)
	}

	out, err := runCmd(t, a, "get", "greeting", "--json")
	if err != nil {
		t.Fatalf("get --json: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("invalid json %q: %v", out, err)
	}
	if decoded["name"] != "greeting" {
		t.Errorf("name = %v", decoded["name"])
	}
}

func TestGetCmdByID(t *testing.T) {
	a, _ := newTestApp(t)

	if _, err := runCmd(t, a, "add", "greeting", "hi"); err != nil {
		t.Fatalf("add: %v", err)
	}
	rec, _ := a.store.GetByName("greeting")

	out, err := runCmd(t, a, "get", rec.ID, "--id")
	if err != nil {
		t.Fatalf("get --id: %v", err)
	}
	if strings.TrimSpace(out) != "hi" {
		t.Errorf("get output = %q", out)
	}
}

func TestGetCmdMissing(t *testing.T) {
	a, _ := newTestApp(t)

	if _, err := runCmd(t, a, "get", "nope"); err == nil {
		t.Error("get of missing record succeeded")
	}
}
