package render

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/cursor2d/cursor2d/pkg/errors"
)

// ReadyMarker starts the engine's log record naming the finished video.
const ReadyMarker = "File ready at"

// MediaMarker precedes the part of an artifact path served under /videos/.
const MediaMarker = "media/videos/"

var (
	quotedVideoRe = regexp.MustCompile(`'([^']*\.mp4)'`)
	recordStartRe = regexp.MustCompile(`\b(?:DEBUG|INFO|WARNING|ERROR|CRITICAL)\b|Rendered`)
)

// ParseArtifactPath finds the video path announced in engine output.
//
// The engine wraps long records over several lines, so the ready line is
// joined with the trimmed lines after it up to the next log record, and the
// first single-quoted path ending in .mp4 is taken.
func ParseArtifactPath(output string) (string, bool) {
	lines := strings.Split(output, "\n")
	for i, line := range lines {
		if !strings.Contains(line, ReadyMarker) {
			continue
		}
		var b strings.Builder
		b.WriteString(strings.TrimSpace(line))
		for _, next := range lines[i+1:] {
			if recordStartRe.MatchString(next) {
				break
			}
			b.WriteString(strings.TrimSpace(next))
		}
		if m := quotedVideoRe.FindStringSubmatch(b.String()); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// TranslatePath maps an artifact path under the engine's media tree to its
// URL below baseURL + "/videos/".
func TranslatePath(baseURL, artifactPath string) (string, error) {
	p := strings.ReplaceAll(artifactPath, `\`, "/")
	i := strings.Index(p, MediaMarker)
	if i < 0 {
		return "", errors.New(errors.ErrCodePathTranslationFailure, "artifact path %q is not below %s", artifactPath, MediaMarker)
	}
	rel := p[i+len(MediaMarker):]
	if err := errors.ValidateRelativePath(rel); err != nil {
		return "", errors.Wrap(errors.ErrCodePathTranslationFailure, err, "artifact path %q", artifactPath)
	}

	segs := strings.Split(rel, "/")
	for j, s := range segs {
		segs[j] = url.PathEscape(s)
	}
	return strings.TrimRight(baseURL, "/") + "/videos/" + strings.Join(segs, "/"), nil
}
