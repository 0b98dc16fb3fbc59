package helpers

import (
	"strings"
	"sync"

	"github.com/juju/errors"
)

func FoldErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	ss := make([]string, 0, len(errs))
	for _, e := range errs {
		if e != nil {
			ss = append(ss, e.Error())
		}
	}
	if len(ss) == 0 {
		return nil
	}
	return errors.Errorf(strings.Join(ss, "\n"))
}

// WrapErrChan runs f, sends non-nil error to errch and marks wg done.
func WrapErrChan(wg *sync.WaitGroup, errch chan<- error, f func() error) {
	defer wg.Done()
	if err := f(); err != nil {
		errch <- err
	}
}

// FoldErrChan reads closed errch to the end.
func FoldErrChan(errch <-chan error) error {
	errs := make([]error, 0, len(errch))
	for e := range errch {
		errs = append(errs, e)
	}
	return FoldErrors(errs)
}
