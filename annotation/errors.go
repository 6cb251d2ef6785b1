// SPDX-License-Identifier: EPL-2.0

package annotation

import "errors"

var (
	ErrEmptyLabelSet     = errors.New("label set is empty")
	ErrDuplicateLabel    = errors.New("duplicate label in label set")
	ErrBlankLabel        = errors.New("blank label in label set")
	ErrUnknownInLabelSet = errors.New("unknown label must not be part of the label set")
	ErrMissingColumn     = errors.New("selection table is missing a required column")
)
