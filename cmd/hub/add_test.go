package main

import (
	"strings"
	"testing"
)

func TestAddCmd(t *testing.T) {
	a, _ := newTestApp(t)

	out, err := runCmd(t, a, "add", "greeting", "hello world")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "Added greeting") {
		t.Errorf("add output = %q", out)
	}

	rec, ok := a.store.GetByName("greeting")
	if !ok {
		t.Fatal("record not stored")
	}
	if rec.Content != "hello world" {
		t.Errorf("content = %q", rec.Content)
	}
	if rec.SourceDocument != "" {
		t.Errorf("store-only record has document %q", rec.SourceDocument)
	}
}

func TestAddCmdDuplicate(t *testing.T) {
	a, _ := newTestApp(t)

	if _, err := runCmd(t, a, "add", "greeting", "one"); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if _, err := runCmd(t, a, "add", "greeting", "two"); err == nil {
		t.Error("duplicate add succeeded")
	}
}

func TestAddCmdTags(t *testing.T) {
	a, _ := newTestApp(t)

	if _, err := runCmd(t, a, "add", "tagged", "x", "--tag", "shell", "--tag", "config"); err != nil {
		t.Fatalf("add: %v", err)
	}
	rec, _ := a.store.GetByName("tagged")
	if len(rec.Tags) != 2 {
		t.Errorf("tags = %v", rec.Tags)
	}
}
