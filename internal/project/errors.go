package project

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Code is the stable identifier of a timeline failure.
type Code string

const (
	CodeTrackNotFound        Code = "track_not_found"
	CodeClipNotFound         Code = "clip_not_found"
	CodeTrackKindMismatch    Code = "track_kind_mismatch"
	CodeResourceKindMismatch Code = "resource_kind_mismatch"
	CodeInvalidTime          Code = "invalid_time"
	CodeClipOverlap          Code = "clip_overlap"
)

// Hint returns an actionable message for the code, suitable for the UI.
func (c Code) Hint() string {
	switch c {
	case CodeTrackNotFound:
		return "The track no longer exists. Refresh the timeline and try again."
	case CodeClipNotFound:
		return "The clip no longer exists. Refresh the timeline and try again."
	case CodeTrackKindMismatch:
		return "This clip type cannot be placed on that track. Use a track of the same kind."
	case CodeResourceKindMismatch:
		return "The media file is missing or has the wrong type for this clip."
	case CodeInvalidTime:
		return "The value is out of range. Use a non-negative time and a positive duration."
	case CodeClipOverlap:
		return "Another clip is already there. Move to an empty region."
	}
	return "The edit could not be applied."
}

// Error is the typed failure returned by every timeline operation.
type Error struct {
	Code    Code
	Message string
	Fields  map[string]any
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Fields[k])
		}
		b.WriteString(")")
	}
	return b.String()
}

// Is matches any *Error with the same code, so errors.Is(err, &Error{Code: c}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// CodeOf extracts the code from err, or "" when err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// NewError builds an *Error.
func NewError(code Code, msg string, fields map[string]any) *Error {
	return &Error{Code: code, Message: msg, Fields: fields}
}

func TrackNotFound(trackID string) *Error {
	return NewError(CodeTrackNotFound, "track not found", map[string]any{"track_id": trackID})
}

func TrackIndexNotFound(index, count int) *Error {
	return NewError(CodeTrackNotFound, "track index out of range", map[string]any{"index": index, "tracks": count})
}

func ClipNotFound(clipID string) *Error {
	return NewError(CodeClipNotFound, "clip not found", map[string]any{"clip_id": clipID})
}

func TrackKindMismatch(trackID string, track, clip Kind) *Error {
	return NewError(CodeTrackKindMismatch, "clip kind does not match track kind", map[string]any{
		"track_id":   trackID,
		"track_kind": track,
		"clip_kind":  clip,
	})
}

func ResourceMissing(resourceID string) *Error {
	return NewError(CodeResourceKindMismatch, "resource not found", map[string]any{"resource_id": resourceID})
}

func ResourceKindMismatch(resourceID string, resource, clip Kind) *Error {
	return NewError(CodeResourceKindMismatch, "resource kind does not match clip kind", map[string]any{
		"resource_id":   resourceID,
		"resource_kind": resource,
		"clip_kind":     clip,
	})
}

func InvalidTime(field string, value any) *Error {
	return NewError(CodeInvalidTime, "value out of range", map[string]any{"field": field, "value": value})
}

func ClipOverlap(clipID, otherID string) *Error {
	return NewError(CodeClipOverlap, "clip overlaps a sibling", map[string]any{"clip_id": clipID, "other_id": otherID})
}
