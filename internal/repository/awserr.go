package repository

import (
	"errors"

	"github.com/aws/smithy-go"
)

// errorKind classifies a provider error so orchestration code can branch
// without re-matching raw error codes.
type errorKind int

const (
	kindOther errorKind = iota
	kindConflict
	kindNotFound
)

// classify maps an API error onto {Conflict, NotFound, Other}. Anything
// that is not a smithy API error is Other.
func classify(err error) errorKind {
	if err == nil {
		return kindOther
	}
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return kindOther
	}
	switch apiErr.ErrorCode() {
	case "ConflictException", "ResourceConflictException", "ResourceAlreadyExistsException":
		return kindConflict
	case "NotFoundException", "ResourceNotFoundException":
		return kindNotFound
	}
	return kindOther
}

// IsConflict reports whether err means the target already exists.
func IsConflict(err error) bool {
	return classify(err) == kindConflict
}

// IsNotFound reports whether err means the target does not exist.
func IsNotFound(err error) bool {
	return classify(err) == kindNotFound
}
