// Package core provides the shared types of mobile-qa: errors, statuses,
// artifacts and the remote session contract.
package core

import "path/filepath"

// Attachment represents a debug artifact captured while a test runs
type Attachment struct {
	Name        string `json:"name"`        // Descriptive name: screenshot, video
	ContentType string `json:"contentType"` // MIME type: image/png, video/mp4
	Path        string `json:"path"`        // File path on local disk
}

// Common attachment names
const (
	AttachmentScreenshot = "screenshot"
	AttachmentVideo      = "video"
)

// Common content types
const (
	ContentTypePNG  = "image/png"
	ContentTypeMP4  = "video/mp4"
	ContentTypeJSON = "application/json"
	ContentTypeText = "text/plain"
)

// NewScreenshotAttachment creates a screenshot attachment
func NewScreenshotAttachment(path string) Attachment {
	return Attachment{
		Name:        AttachmentScreenshot,
		ContentType: ContentTypePNG,
		Path:        path,
	}
}

// NewVideoAttachment creates a screen recording attachment named after its file.
func NewVideoAttachment(path string) Attachment {
	return Attachment{
		Name:        filepath.Base(path),
		ContentType: ContentTypeMP4,
		Path:        path,
	}
}

// Recorder receives report events for the test that is currently running.
type Recorder interface {
	// TestName returns the running test's name, or "" outside a test.
	TestName() string

	// Attach adds an artifact to the running test (or step).
	Attach(a Attachment)

	// Step runs fn as a named report step and returns its error.
	Step(name string, fn func() error) error
}

// NopRecorder is a Recorder that records nothing.
type NopRecorder struct{}

// TestName returns "".
func (NopRecorder) TestName() string { return "" }

// Attach discards the attachment.
func (NopRecorder) Attach(Attachment) {}

// Step runs fn.
func (NopRecorder) Step(_ string, fn func() error) error { return fn() }
