package errors

import (
	"strings"
	"testing"
)

func TestValidateScript(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid python", "from manim import *\n\nclass MainScene(Scene):\n    pass\n", false},
		{"valid with tabs and CRLF", "a = 1\r\n\tb = 2\r\n", false},
		{"valid unicode", "t = Text(\"θ = π\")", false},

		{"empty", "", true},
		{"whitespace only", " \n\t ", true},
		{"null byte", "a = 1\x00", true},
		{"control char", "a = \x07", true},
		{"invalid utf8", "a = \xff\xfe", true},
		{"too large", strings.Repeat("a", MaxScriptBytes+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateScript(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateScript() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateScript() code = %v, want %v", GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateTarget(t *testing.T) {
	if err := ValidateTarget("manim", "manim", "p5"); err != nil {
		t.Errorf("manim should be valid: %v", err)
	}
	err := ValidateTarget("three", "manim", "p5")
	if !Is(err, ErrCodeInvalidTarget) {
		t.Errorf("ValidateTarget(three) = %v, want INVALID_TARGET", err)
	}
}

func TestValidateBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"localhost", "http://localhost:3000", false},
		{"https with path", "https://example.com/app", false},

		{"empty", "", true},
		{"no scheme", "localhost:3000", true},
		{"ftp", "ftp://example.com", true},
		{"no host", "http://", true},
		{"query", "http://example.com?a=1", true},
		{"fragment", "http://example.com#top", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBaseURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBaseURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRelativePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"video path", "animation_1/480p15/MainScene.mp4", false},
		{"dots in name", "a..b/file.mp4", false},

		{"empty", "", true},
		{"absolute", "/etc/passwd", true},
		{"traversal", "../secret", true},
		{"traversal middle", "a/../../b", true},
		{"backslash", "a\\b", true},
		{"null byte", "a\x00b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRelativePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRelativePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
