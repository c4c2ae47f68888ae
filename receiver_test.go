package main

import (
	"net/http/httptest"
	"testing"
)

func TestObserverStream(t *testing.T) {
	t.Run("forwards broadcasts then closes", func(t *testing.T) {
		res := httptest.NewRecorder()

		stream := NewObserverStream(res, res)
		stream.SendTable([]byte(`{"rooms":[]}`))
		stream.Forward([]byte(`{"type":"left","handle":1,"room":"Alpha"}`))
		stream.SendClosed()

		want := "data: {\"type\":\"roomSnapshot\",\"table\":{\"rooms\":[]}}\n\n" +
			"data: {\"type\":\"left\",\"handle\":1,\"room\":\"Alpha\"}\n\n" +
			"data: {\"type\":\"close\"}\n\n"
		if res.Body.String() != want {
			t.Errorf("wrong stream expected: %q got: %q", want, res.Body.String())
		}
		if !res.Flushed {
			t.Error("events should be flushed")
		}
	})
}
