package batch

import (
	"errors"
	"testing"
)

func TestResult(t *testing.T) {
	ok := NewOK(3)
	if ok.Index() != 3 || ok.Status() != StatusOK || ok.Err() != nil {
		t.Errorf("unexpected ok result: %+v", ok)
	}

	cause := errors.New("boom")
	failed := NewError(7, cause)
	if failed.Index() != 7 || failed.Status() != StatusError {
		t.Errorf("unexpected error result: %+v", failed)
	}
	if !errors.Is(failed.Err(), cause) {
		t.Errorf("unexpected error: %v", failed.Err())
	}
}
