package review

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrInputNotFound is returned when the ingestion source is missing or unreadable.
// A run that sees it must stop without writing output.
var ErrInputNotFound = errors.New("input not found")

// WarningKind classifies an advisory threshold warning.
type WarningKind string

const (
	WarnLoss     WarningKind = "loss"
	WarnMinCount WarningKind = "min_count"
)

// Warning is a non-fatal advisory raised alongside a successful result.
type Warning struct {
	Kind    WarningKind
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}
