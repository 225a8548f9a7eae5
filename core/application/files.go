package application

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
)

// MaxFileSize is the upload limit (5MB).
const MaxFileSize = 5 * 1024 * 1024

var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrFileType        = errors.New("file type not allowed")
	ErrFileName        = errors.New("unsafe file name")
	invalidFileNameMsg = "Invalid filename. Please rename your file and try again."

	imageTypes     = []string{"image/jpeg", "image/png", "image/webp"}
	documentTypes  = []string{"image/jpeg", "image/png", "application/pdf"}
	unsafeChars    = regexp.MustCompile(`[<>:"|?*]`)
	onlyDots       = regexp.MustCompile(`^\.+$`)
	leadingDot     = regexp.MustCompile(`^\.`)
	pathSeparators = regexp.MustCompile(`[\\/]`)
)

// FileHeader describes a file selected for upload.
type FileHeader struct {
	Name        string
	Size        int64
	ContentType string
}

// AllowedContentTypes lists the MIME types accepted for dt.
func AllowedContentTypes(dt DocumentType) []string {
	if dt == DocPhoto {
		return imageTypes
	}
	return documentTypes
}

// ValidateFile checks size, then type, then name. The returned error is a
// *core.ValidationError holding the message to show the applicant.
func ValidateFile(fh FileHeader, dt DocumentType) error {
	fieldErr := func(err error, msg string) error {
		return core.NewValidationError(err, core.FieldError{Field: string(dt), Error: msg})
	}

	if fh.Size > MaxFileSize {
		return fieldErr(ErrFileTooLarge, fmt.Sprintf(
			"File size exceeds 5MB limit. Your file is %.2fMB.", float64(fh.Size)/(1024*1024),
		))
	}

	allowed := AllowedContentTypes(dt)
	var found bool
	for _, ct := range allowed {
		if fh.ContentType == ct {
			found = true
			break
		}
	}
	if !found {
		return fieldErr(ErrFileType, fmt.Sprintf(
			"Invalid file type. Allowed types for %s: %s", dt, strings.Join(allowed, ", "),
		))
	}

	if strings.Contains(fh.Name, "..") || unsafeChars.MatchString(fh.Name) || onlyDots.MatchString(fh.Name) {
		return fieldErr(ErrFileName, invalidFileNameMsg)
	}
	return nil
}

// SanitizeFileName keeps the base name of name without the characters
// (and dot sequences) that are unsafe in paths.
func SanitizeFileName(name string) string {
	parts := pathSeparators.Split(name, -1)
	name = ""
	for i := len(parts) - 1; i >= 0; i-- {
		if strings.TrimSpace(parts[i]) != "" {
			name = parts[i]
			break
		}
	}
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.ReplaceAll(name, "..", "")
	name = leadingDot.ReplaceAllString(name, "_")
	return strings.TrimSpace(name)
}

// DocumentPath is the object store key of a document uploaded at unixMillis.
func DocumentPath(userID, applicationID string, dt DocumentType, unixMillis int64) string {
	return fmt.Sprintf("%s/%s/%s_%d", userID, applicationID, dt, unixMillis)
}
