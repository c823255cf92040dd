package events_test

import (
	"testing"

	"github.com/ardanlabs/utxoledger/foundation/events"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Events(t *testing.T) {
	t.Log("Given the need to fan out events to receivers.")
	{
		evts := events.New()

		ch1 := evts.Acquire("one")
		ch2 := evts.Acquire("two")

		if evts.Acquire("one") != ch1 || evts.Count() != 2 {
			t.Fatalf("\t%s\tShould reuse the channel for a known id.", failed)
		}
		t.Logf("\t%s\tShould reuse the channel for a known id.", success)

		evts.Send("block")

		if msg := <-ch1; msg != "block" {
			t.Fatalf("\t%s\tShould receive the event on the first channel: %s", failed, msg)
		}
		if msg := <-ch2; msg != "block" {
			t.Fatalf("\t%s\tShould receive the event on the second channel: %s", failed, msg)
		}
		t.Logf("\t%s\tShould receive the event on every channel.", success)

		if err := evts.Release("one"); err != nil {
			t.Fatalf("\t%s\tShould be able to release a channel: %v", failed, err)
		}
		if _, open := <-ch1; open {
			t.Fatalf("\t%s\tShould close a released channel.", failed)
		}
		t.Logf("\t%s\tShould close a released channel.", success)

		if err := evts.Release("one"); err == nil {
			t.Fatalf("\t%s\tShould not release an unknown id.", failed)
		}
		t.Logf("\t%s\tShould not release an unknown id.", success)

		for range 200 {
			evts.Send("flood")
		}
		t.Logf("\t%s\tShould not block on a full receiver.", success)

		evts.Shutdown()
		if evts.Count() != 0 {
			t.Fatalf("\t%s\tShould remove every receiver on shutdown.", failed)
		}
		t.Logf("\t%s\tShould remove every receiver on shutdown.", success)
	}
}
