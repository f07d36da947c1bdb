// SPDX-License-Identifier: GPL-3.0-or-later

package rawsock

import "github.com/bassosimone/errclass"

// ErrClassifier maps an error to a short label such as "ECONNREFUSED".
//
// The label is emitted as the errClass field of *Done events, which makes
// failures comparable across platforms whose error numbers differ.
type ErrClassifier interface {
	Classify(err error) string
}

// ErrClassifierFunc is a function implementing [ErrClassifier].
type ErrClassifierFunc func(error) string

var _ ErrClassifier = ErrClassifierFunc(nil)

// Classify calls f(err).
func (f ErrClassifierFunc) Classify(err error) string {
	return f(err)
}

// DefaultErrClassifier uses [errclass.New], mapping nil to "".
var DefaultErrClassifier = ErrClassifierFunc(errclass.New)
