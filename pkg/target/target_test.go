package target

import (
	"testing"

	"github.com/cursor2d/cursor2d/pkg/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		want    Target
		wantErr bool
	}{
		{"manim", Manim, false},
		{"P5", P5, false},
		{"  p5 ", P5, false},
		{"", Default, false},
		{"three", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidTarget) {
					t.Errorf("Parse() error code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidTarget)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Parse() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtension(t *testing.T) {
	if Manim.Extension() != ".py" {
		t.Errorf("Manim.Extension() = %q", Manim.Extension())
	}
	if P5.Extension() != ".js" {
		t.Errorf("P5.Extension() = %q", P5.Extension())
	}
}
