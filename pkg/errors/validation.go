package errors

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxScriptBytes bounds the size of a generated script accepted by the pipeline.
const MaxScriptBytes = 512 * 1024

// ValidateScript validates generated script text before it enters the pipeline.
//
// Rejected input:
//   - Empty or whitespace-only text
//   - Invalid UTF-8
//   - Null bytes or control characters other than tab, newline and carriage return
//   - Text larger than MaxScriptBytes
func ValidateScript(script string) error {
	if strings.TrimSpace(script) == "" {
		return New(ErrCodeInvalidInput, "script cannot be empty")
	}

	if len(script) > MaxScriptBytes {
		return New(ErrCodeInvalidInput, "script too large (max %d bytes)", MaxScriptBytes)
	}

	if !utf8.ValidString(script) {
		return New(ErrCodeInvalidInput, "script is not valid UTF-8 text")
	}

	for _, r := range script {
		if r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "script contains control character %U", r)
		}
	}

	return nil
}

// ValidateTarget checks name against the supported render targets.
func ValidateTarget(name string, supported ...string) error {
	for _, s := range supported {
		if name == s {
			return nil
		}
	}
	return New(ErrCodeInvalidTarget, "invalid library: %q (must be one of: %s)", name, strings.Join(supported, ", "))
}

// ValidateBaseURL validates the public base address artifact URLs are built on.
// It must be an absolute http(s) URL without query or fragment.
func ValidateBaseURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidConfig, "base URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidConfig, err, "invalid base URL %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidConfig, "base URL must use http or https scheme")
	}
	if u.Host == "" {
		return New(ErrCodeInvalidConfig, "base URL must include a host")
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return New(ErrCodeInvalidConfig, "base URL cannot contain a query or fragment")
	}

	return nil
}

// ValidateRelativePath validates a path below a served directory.
//
// Validation rules:
//   - Path cannot be empty
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidateRelativePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
