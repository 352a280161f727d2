package cmd

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	cases := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "info", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "verbose", wantErr: true},
	}
	for _, tc := range cases {
		got, err := parseLogLevel(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseLogLevel(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseLogLevel(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestValidateAddr(t *testing.T) {
	valid := []string{"127.0.0.1:3400", ":8080", "localhost:9000", "0.0.0.0:80"}
	for _, addr := range valid {
		if err := validateAddr(addr); err != nil {
			t.Errorf("validateAddr(%q): unexpected error: %v", addr, err)
		}
	}

	invalid := []string{"no-port", "127.0.0.1:notaport", "host:0", "host:70000", "bad host:80"}
	for _, addr := range invalid {
		if err := validateAddr(addr); err == nil {
			t.Errorf("validateAddr(%q): expected error", addr)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)

	out := buf.String()
	if !strings.Contains(out, "chatbet") {
		t.Errorf("version output missing binary name: %q", out)
	}
	if !strings.Contains(out, Version) {
		t.Errorf("version output missing version string: %q", out)
	}
}
