package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrAcquisition    = errors.New("acquisition error")
	ErrItemProcessing = errors.New("item processing error")
	ErrExport         = errors.New("export error")
	ErrConfiguration  = errors.New("configuration error")
	ErrDelivery       = errors.New("delivery error")
)

// Kind classifies an error into one of the markers above.
type Kind string

const (
	KindInvalidInput   Kind = "invalid_input"
	KindAcquisition    Kind = "acquisition"
	KindItemProcessing Kind = "item_processing"
	KindExport         Kind = "export"
	KindConfiguration  Kind = "configuration"
	KindDelivery       Kind = "delivery"
	KindUnknown        Kind = "unknown"
)

var kindMarkers = []struct {
	marker error
	kind   Kind
}{
	{ErrInvalidInput, KindInvalidInput},
	{ErrAcquisition, KindAcquisition},
	{ErrItemProcessing, KindItemProcessing},
	{ErrExport, KindExport},
	{ErrConfiguration, KindConfiguration},
	{ErrDelivery, KindDelivery},
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// KindOf reports the marker kind carried by err.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, km := range kindMarkers {
		if errors.Is(err, km.marker) {
			return km.kind
		}
	}
	return KindUnknown
}

// IsFatal reports whether err must abort a pipeline run. Item processing
// failures are absorbed by the pipeline and never abort the batch.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrItemProcessing)
}

// Message strips the marker prefix so callers can show the human-readable
// portion of a wrapped error.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, km := range kindMarkers {
		prefix := km.marker.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			return strings.TrimPrefix(msg, prefix)
		}
	}
	return msg
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
