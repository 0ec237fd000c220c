package client

import (
	"errors"
	"testing"
	"time"

	"github.com/formflow/go-formflow"
)

func TestWriteGateRejectsRapidWrites(t *testing.T) {
	gate := NewWriteGate(50 * time.Millisecond)

	if err := gate.Allow(); err != nil {
		t.Fatalf("Allow() = %v, want nil", err)
	}
	err := gate.Allow()
	if !errors.Is(err, formflow.ErrRateLimited) {
		t.Fatalf("Allow() = %v, want ErrRateLimited", err)
	}
}

func TestWriteGateAdmitsAfterInterval(t *testing.T) {
	gate := NewWriteGate(20 * time.Millisecond)

	if err := gate.Allow(); err != nil {
		t.Fatalf("Allow() = %v, want nil", err)
	}
	time.Sleep(30 * time.Millisecond)
	if err := gate.Allow(); err != nil {
		t.Fatalf("Allow() after interval = %v, want nil", err)
	}
}

func TestWriteGateNilAllowsEverything(t *testing.T) {
	var gate *WriteGate
	for i := 0; i < 3; i++ {
		if err := gate.Allow(); err != nil {
			t.Fatalf("Allow() = %v, want nil", err)
		}
	}
}
