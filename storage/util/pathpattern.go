package util

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// PathPattern represents a configurable pattern for generating storage keys.
// It supports placeholders that get replaced with actual values:
//   - {user}     - the upload session identifier (may be empty)
//   - {folder}   - the media folder an asset was filed under (may be empty)
//   - {kind}     - the asset kind ("image", "video", "location")
//   - {id}       - a token unique to one upload request
//   - {name}     - the base name of the object
//   - {ext}      - file extension (with leading dot, e.g., ".jpg")
//   - {filename} - {name}{ext}
//   - {year}    - 4-digit year (e.g., "2026")
//   - {month}   - 2-digit month (e.g., "01")
//   - {day}     - 2-digit day (e.g., "15")
//
// Example patterns:
//   - "{user}/{name}{ext}" → "3f2a9c1b7d4e/image.jpg"
//   - "{folder}/{year}/{month}/{filename}" → "captures/3f2a9c1b7d4e/2026/01/video.mp4"
type PathPattern struct {
	pattern string
}

// PathValues carries the values substituted into a PathPattern.
type PathValues struct {
	User      string
	Folder    string
	Kind      string
	ID        string
	Name      string
	Ext       string
	Timestamp time.Time
}

// NewPathPattern creates a new PathPattern from a template string.
func NewPathPattern(pattern string) *PathPattern {
	return &PathPattern{pattern: pattern}
}

func (p *PathPattern) String() string {
	return p.pattern
}

// PerRequest reports whether generated keys differ between upload requests,
// i.e. the pattern contains {id}. Keys from other patterns may be shared
// with earlier uploads.
func (p *PathPattern) PerRequest() bool {
	return strings.Contains(p.pattern, "{id}")
}

// Generate produces a slash-separated key by replacing placeholders with actual values.
// Name is required. A zero timestamp leaves date placeholders untouched, and an
// empty user collapses its path segment.
func (p *PathPattern) Generate(v PathValues) (string, error) {
	if v.Name == "" {
		return "", fmt.Errorf("name cannot be empty")
	}

	result := p.pattern

	if !v.Timestamp.IsZero() {
		result = strings.ReplaceAll(result, "{year}", fmt.Sprintf("%04d", v.Timestamp.Year()))
		result = strings.ReplaceAll(result, "{month}", fmt.Sprintf("%02d", v.Timestamp.Month()))
		result = strings.ReplaceAll(result, "{day}", fmt.Sprintf("%02d", v.Timestamp.Day()))
	}

	ext := v.Ext
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	result = strings.ReplaceAll(result, "{user}", v.User)
	result = strings.ReplaceAll(result, "{folder}", v.Folder)
	result = strings.ReplaceAll(result, "{kind}", v.Kind)
	result = strings.ReplaceAll(result, "{id}", v.ID)
	result = strings.ReplaceAll(result, "{filename}", v.Name+ext)
	result = strings.ReplaceAll(result, "{name}", v.Name)
	result = strings.ReplaceAll(result, "{ext}", ext)

	// Clean removes double slashes left behind by empty placeholders.
	result = strings.TrimPrefix(path.Clean("/"+result), "/")

	return result, nil
}

// DefaultMirrorPattern returns the default pattern for mirrored objects.
// Pattern: "{user}/{name}{ext}"
func DefaultMirrorPattern() *PathPattern {
	return NewPathPattern("{user}/{name}{ext}")
}

// DefaultMediaPattern returns the default pattern for media files kept on disk.
// Pattern: "{folder}/{year}/{month}/{filename}" (organized by folder, then date)
func DefaultMediaPattern() *PathPattern {
	return NewPathPattern("{folder}/{year}/{month}/{filename}")
}
