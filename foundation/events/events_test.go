package events_test

import (
	"testing"

	"github.com/treeledger/blockchain/foundation/events"
)

func Test_Events(t *testing.T) {
	evts := events.New()

	a := evts.Acquire("a")
	b := evts.Acquire("b")
	if evts.Acquire("a") != a || evts.Count() != 2 {
		t.Fatal("Should return the same channel for the same id.")
	}

	if n := evts.Send("viewer: changed"); n != 2 {
		t.Fatalf("Should deliver to both listeners, got %d.", n)
	}

	if msg := <-a; msg != "viewer: changed" {
		t.Fatalf("Should receive the message, got %q.", msg)
	}

	if err := evts.Release("a"); err != nil {
		t.Fatalf("Should be able to release a: %v", err)
	}
	if err := evts.Release("a"); err == nil {
		t.Fatal("Should not release a twice.")
	}

	if _, open := <-a; open {
		t.Fatal("Should close a released channel.")
	}

	// Fill b's buffer; further messages are dropped instead of blocking.
	for i := 0; i < 200; i++ {
		evts.Send("viewer: changed")
	}
	if n := evts.Send("viewer: changed"); n != 0 {
		t.Fatalf("Should drop messages for a full listener, got %d.", n)
	}

	evts.Shutdown()
	if evts.Count() != 0 {
		t.Fatal("Should remove every listener on shutdown.")
	}

	for range b {
	}
}
