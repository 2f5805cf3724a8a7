// Package attachments checks media files referenced by notes.
package attachments

import (
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	apperrors "notepad/pkg/errors"
)

// Kind is the attachment slot on a note
type Kind string

const (
	Image Kind = "image"
	Audio Kind = "audio"
	Video Kind = "video"
)

// Voice recorders commonly write audio into these containers
var audioContainers = map[string]bool{
	"video/3gpp":      true,
	"video/mp4":       true,
	"application/ogg": true,
}

var (
	ErrAttachmentMissing = apperrors.New(apperrors.ErrTypeValidation, "ATTACHMENT_MISSING", "attachment file does not exist").
				WithUserMessage("The attached file could not be found")

	ErrAttachmentType = apperrors.New(apperrors.ErrTypeValidation, "ATTACHMENT_TYPE_MISMATCH", "attachment has the wrong media type").
				WithUserMessage("The attached file is not the expected kind of media")
)

// Detect returns the sniffed base MIME type of the file at path
func Detect(path string) (string, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}
	return strings.Split(mt.String(), ";")[0], nil
}

// Validate checks that path holds media of the given kind. An empty path
// means no attachment and always passes.
func Validate(kind Kind, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return ErrAttachmentMissing.WithContext("kind", string(kind)).WithContext("path", path)
	}

	detected, err := Detect(path)
	if err != nil {
		return ErrAttachmentMissing.WithCause(err).WithContext("kind", string(kind)).WithContext("path", path)
	}

	if !matches(kind, detected) {
		return ErrAttachmentType.
			WithContext("kind", string(kind)).
			WithContext("detected", detected).
			WithContext("path", path)
	}
	return nil
}

func matches(kind Kind, detected string) bool {
	top := strings.SplitN(detected, "/", 2)[0]
	switch kind {
	case Image:
		return top == "image"
	case Audio:
		return top == "audio" || audioContainers[detected]
	case Video:
		return top == "video"
	}
	return false
}
