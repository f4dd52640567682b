package cmd

import (
	"testing"
)

func TestCommandTreeRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, sub := range rootCmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"serve", "call"} {
		if !names[want] {
			t.Errorf("root command missing subcommand %q", want)
		}
	}
}

func TestBuildCommandInfo(t *testing.T) {
	info := buildCommandInfo(rootCmd)
	if info.Name != "openacr-mcp" {
		t.Errorf("root name = %q", info.Name)
	}
	if len(info.Subcommands) == 0 {
		t.Fatal("no subcommands collected")
	}

	var serve *CommandInfo
	for i := range info.Subcommands {
		if info.Subcommands[i].Name == "serve" {
			serve = &info.Subcommands[i]
		}
	}
	if serve == nil {
		t.Fatal("serve subcommand not collected")
	}
	flagNames := map[string]bool{}
	for _, f := range serve.Flags {
		flagNames[f.Name] = true
	}
	for _, want := range []string{"project", "timeout", "status", "stop", "list-tools"} {
		if !flagNames[want] {
			t.Errorf("serve flags missing %q", want)
		}
	}
	if len(serve.Examples) == 0 && serve.Usage == "" {
		t.Error("serve has neither usage nor examples")
	}
}

func TestParseDuration(t *testing.T) {
	if d, err := parseDuration(""); err != nil || d != 0 {
		t.Errorf("empty = %v, %v", d, err)
	}
	if d, err := parseDuration("0"); err != nil || d != 0 {
		t.Errorf("zero = %v, %v", d, err)
	}
	if _, err := parseDuration("30m"); err != nil {
		t.Errorf("30m: %v", err)
	}
	if _, err := parseDuration("bogus"); err == nil {
		t.Error("expected error for bogus duration")
	}
}
