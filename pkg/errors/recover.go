package errors

import (
	"github.com/cockroachdb/errors"
)

// Recover converts a panic in the calling function into an error stored in
// *err. It must be deferred directly:
//
//	func (m *QN) Fit(X, y mat.Matrix) (err error) {
//		defer errors.Recover(&err, "QN.Fit")
//		...
//	}
func Recover(err *error, op string) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(error); ok {
		*err = errors.Wrapf(e, "%s: recovered from panic", op)
		return
	}
	*err = errors.Newf("%s: recovered from panic: %v", op, r)
}
