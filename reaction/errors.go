package reaction

import (
	"errors"

	"github.com/Luismorlan/contentmux/model"
)

// Business rule failures, surfaced to the caller unchanged and never retried.
var (
	ErrReactionDuplicate         = errors.New("reaction duplicate")
	ErrReactionExceedLimit       = errors.New("reaction exceed limit")
	ErrReactionNotFound          = errors.New("reaction not found")
	ErrReactionTargetNotExisting = errors.New("reaction target not existing")
	ErrReactionNotAllowed        = errors.New("reactions are disabled for this content")
	ErrCommentNotFound           = model.ErrCommentNotFound
	ErrContentNotFound           = model.ErrContentNotFound
)

var (
	// ErrSerializationConflict is returned by a Repository when the database
	// aborted the transaction because of a concurrent conflicting one.
	ErrSerializationConflict = errors.New("serialization conflict")

	// ErrInternal is returned once the retry budget is exhausted.
	ErrInternal = errors.New("reaction internal error")
)

// IsBusinessError reports whether err is one of the typed business failures.
func IsBusinessError(err error) bool {
	for _, target := range []error{
		ErrReactionDuplicate,
		ErrReactionExceedLimit,
		ErrReactionNotFound,
		ErrReactionTargetNotExisting,
		ErrReactionNotAllowed,
		ErrCommentNotFound,
		ErrContentNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
