package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"roomsync/client"
	"roomsync/protocol"
	"roomsync/room"
)

const waitFor = 2 * time.Second

func newTestApp(t *testing.T, hostMode bool) (*HTTPHandler, *httptest.Server) {
	t.Helper()
	config := &Config{
		ResumeSecret:   "test-secret",
		AnchorSpacing:  10,
		HostMode:       hostMode,
		AllowedOrigins: []string{"*"},
		RateLimit:      1000,
	}
	app := NewApp(config)
	srv := httptest.NewServer(NewHTTPServer(app, config))
	t.Cleanup(srv.Close)
	return app, srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, srv *httptest.Server, resumeKey string) *client.Client {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	c, err := client.Dial(ctx, wsURL(srv), resumeKey)
	if err != nil {
		cancel()
		t.Fatalf("dial failed: %v", err)
	}
	go c.Run(ctx)
	t.Cleanup(func() {
		cancel()
		c.Close()
	})
	select {
	case <-c.Ready():
	case <-time.After(waitFor):
		t.Fatal("no welcome from server")
	}
	return c
}

func self(c *client.Client) room.Handle {
	h, _ := c.Mirror().Self()
	return h
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(waitFor)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func inRoom(c *client.Client, name string) func() bool {
	return func() bool {
		r, ok := c.Mirror().CurrentRoom()
		return ok && r.Name == name
	}
}

func rejections(c *client.Client) <-chan client.Notice {
	ch := make(chan client.Notice, 8)
	c.Subscribe(func(n client.Notice) {
		if n.Type == protocol.TypeRejected {
			ch <- n
		}
	})
	return ch
}

func TestRoomScenarioOverWebsocket(t *testing.T) {
	_, srv := newTestApp(t, false)
	c1 := dial(t, srv, "")
	c2 := dial(t, srv, "")
	c3 := dial(t, srv, "")
	c3Rejections := rejections(c3)

	if err := c1.Gateway().CreateRoom("Alpha", 2); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	eventually(t, "c1 in Alpha", inRoom(c1, "Alpha"))
	if r, _ := c1.Mirror().CurrentRoom(); r.ID != 1 {
		t.Errorf("expected id 1, got %d", r.ID)
	}

	c2.Gateway().JoinRoom("Alpha")
	eventually(t, "c2 in Alpha", inRoom(c2, "Alpha"))
	eventually(t, "c1 sees two members", func() bool {
		r, _ := c1.Mirror().CurrentRoom()
		return len(r.Members) == 2 && r.Members[0] == self(c1) && r.Members[1] == self(c2)
	})

	c3.Gateway().JoinRoom("Alpha")
	select {
	case n := <-c3Rejections:
		if !errors.Is(n.Err, room.ErrRoomFull) || n.Room != "Alpha" {
			t.Errorf("expected roomFull for Alpha, got %+v", n)
		}
	case <-time.After(waitFor):
		t.Fatal("c3 was not told the room is full")
	}
	if _, ok := c3.Mirror().CurrentRoom(); ok {
		t.Error("c3 should not be in a room")
	}
	if got := c2.Mirror().MemberIndex("Alpha", self(c2)); got != 1 {
		t.Errorf("expected c2 at index 1, got %d", got)
	}
}

func TestRejectionsReachOnlyRequester(t *testing.T) {
	_, srv := newTestApp(t, false)
	c1 := dial(t, srv, "")
	c2 := dial(t, srv, "")
	c1Rejections := rejections(c1)
	c2Rejections := rejections(c2)

	c2.Gateway().JoinRoom("Zeta")
	select {
	case n := <-c2Rejections:
		if !errors.Is(n.Err, room.ErrRoomNotFound) {
			t.Errorf("expected roomNotFound, got %v", n.Err)
		}
	case <-time.After(waitFor):
		t.Fatal("c2 was not told Zeta is missing")
	}
	select {
	case n := <-c1Rejections:
		t.Errorf("c1 should not see c2's rejection, got %+v", n)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestJoinedNotificationReachesEveryone(t *testing.T) {
	_, srv := newTestApp(t, false)
	c1 := dial(t, srv, "")
	c2 := dial(t, srv, "")
	joined := make(chan client.Notice, 4)
	c2.Subscribe(func(n client.Notice) {
		if n.Type == protocol.TypeJoined {
			joined <- n
		}
	})

	c1.Gateway().CreateRoom("Alpha", 4)
	select {
	case n := <-joined:
		if n.Handle != self(c1) || n.Room != "Alpha" {
			t.Errorf("wrong notification %+v", n)
		}
	case <-time.After(waitFor):
		t.Fatal("c2 did not see c1 join")
	}
}

func TestDisconnectLeavesRoomAndFreesID(t *testing.T) {
	app, srv := newTestApp(t, false)
	c1 := dial(t, srv, "")
	c2 := dial(t, srv, "")

	c1.Gateway().CreateRoom("Alpha", 2)
	eventually(t, "c2 sees Alpha", func() bool {
		_, ok := c2.Mirror().ListRooms().Find("Alpha")
		return ok
	})

	c1.Close()
	eventually(t, "Alpha destroyed", func() bool {
		return len(c2.Mirror().ListRooms()) == 0
	})
	eventually(t, "c1 unregistered", func() bool { return app.Server.Count() == 1 })

	c2.Gateway().CreateRoom("Gamma", 2)
	eventually(t, "c2 in Gamma", inRoom(c2, "Gamma"))
	if r, _ := c2.Mirror().CurrentRoom(); r.ID != 1 {
		t.Errorf("expected reused id 1, got %d", r.ID)
	}
}

func TestLeaveRoomOverWebsocket(t *testing.T) {
	_, srv := newTestApp(t, false)
	c1 := dial(t, srv, "")
	c2 := dial(t, srv, "")
	left := make(chan client.Notice, 4)
	c2.Subscribe(func(n client.Notice) {
		if n.Type == protocol.TypeLeft {
			left <- n
		}
	})

	c1.Gateway().CreateRoom("Alpha", 2)
	eventually(t, "c1 in Alpha", inRoom(c1, "Alpha"))
	c1.Gateway().LeaveRoom()

	select {
	case n := <-left:
		if n.Handle != self(c1) || n.Room != "Alpha" {
			t.Errorf("wrong notification %+v", n)
		}
	case <-time.After(waitFor):
		t.Fatal("c2 did not see c1 leave")
	}
	eventually(t, "c1 out of rooms", func() bool {
		_, ok := c1.Mirror().CurrentRoom()
		return !ok
	})
}

func TestResumeKeepsHandle(t *testing.T) {
	app, srv := newTestApp(t, false)
	c1 := dial(t, srv, "")
	handle := self(c1)
	key := c1.ResumeKey()
	if key == "" {
		t.Fatal("welcome should carry a resume key")
	}

	c1.Close()
	eventually(t, "c1 unregistered", func() bool { return app.Server.Count() == 0 })

	again := dial(t, srv, key)
	if self(again) != handle {
		t.Errorf("expected resumed handle %d, got %d", handle, self(again))
	}
}

func TestNewPeerGetsCurrentTable(t *testing.T) {
	_, srv := newTestApp(t, false)
	c1 := dial(t, srv, "")
	c1.Gateway().CreateRoom("Alpha", 2)
	eventually(t, "c1 in Alpha", inRoom(c1, "Alpha"))

	late := dial(t, srv, "")
	eventually(t, "late peer sees Alpha", func() bool {
		_, ok := late.Mirror().ListRooms().Find("Alpha")
		return ok
	})
	if err := late.Gateway().RequestRoomList(); err != nil {
		t.Errorf("request room list failed: %v", err)
	}
}

func TestRoomsHTTP(t *testing.T) {
	_, srv := newTestApp(t, false)
	c1 := dial(t, srv, "")
	c1.Gateway().CreateRoom("Alpha", 3)
	eventually(t, "c1 in Alpha", inRoom(c1, "Alpha"))

	res, err := http.Get(srv.URL + "/rooms")
	if err != nil {
		t.Fatalf("get rooms: %v", err)
	}
	var listed struct {
		Rooms room.Table `json:"rooms"`
	}
	json.NewDecoder(res.Body).Decode(&listed)
	res.Body.Close()
	if len(listed.Rooms) != 1 || listed.Rooms[0].Name != "Alpha" {
		t.Errorf("unexpected rooms %v", listed.Rooms)
	}

	res, _ = http.Get(srv.URL + "/rooms/Alpha")
	var detail roomResponse
	json.NewDecoder(res.Body).Decode(&detail)
	res.Body.Close()
	if detail.Name != "Alpha" || detail.Anchor.Position.X != 10 || detail.Anchor.RoomID != 1 {
		t.Errorf("unexpected room detail %+v", detail)
	}

	res, _ = http.Get(srv.URL + "/rooms/Nope")
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", res.StatusCode)
	}
}

func TestRoomEventStream(t *testing.T) {
	_, srv := newTestApp(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/rooms/events", nil)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer res.Body.Close()

	events := make(chan string, 16)
	go func() {
		scanner := bufio.NewScanner(res.Body)
		for scanner.Scan() {
			if line := scanner.Text(); strings.HasPrefix(line, "data: ") {
				events <- strings.TrimPrefix(line, "data: ")
			}
		}
	}()

	next := func() map[string]any {
		t.Helper()
		select {
		case data := <-events:
			var parsed map[string]any
			json.Unmarshal([]byte(data), &parsed)
			return parsed
		case <-time.After(waitFor):
			t.Fatal("no event on stream")
			return nil
		}
	}

	if first := next(); first["type"] != protocol.TypeRoomSnapshot {
		t.Errorf("stream should open with a snapshot, got %v", first)
	}

	c1 := dial(t, srv, "")
	c1.Gateway().CreateRoom("Alpha", 2)
	if ev := next(); ev["type"] != protocol.TypeRoomSnapshot {
		t.Errorf("expected snapshot after create, got %v", ev)
	}
	if ev := next(); ev["type"] != protocol.TypeJoined || ev["room"] != "Alpha" {
		t.Errorf("expected joined notification, got %v", ev)
	}
}

func TestHostSeat(t *testing.T) {
	app, srv := newTestApp(t, true)

	res, err := http.Post(srv.URL+"/host/rooms", "application/json", bytes.NewBufferString(`{"name":"Alpha","capacity":2}`))
	if err != nil {
		t.Fatalf("host create: %v", err)
	}
	var created room.Room
	json.NewDecoder(res.Body).Decode(&created)
	res.Body.Close()
	if res.StatusCode != http.StatusCreated || created.Name != "Alpha" || !created.Has(hostHandle) {
		t.Fatalf("unexpected host create %d %+v", res.StatusCode, created)
	}

	c1 := dial(t, srv, "")
	c1.Gateway().JoinRoom("Alpha")
	eventually(t, "c1 in Alpha", inRoom(c1, "Alpha"))
	eventually(t, "host mirror sees c1", func() bool {
		r, _ := app.Host.Mirror().CurrentRoom()
		return len(r.Members) == 2
	})

	res, _ = http.Post(srv.URL+"/host/rooms", "application/json", bytes.NewBufferString(`{"name":"Beta","capacity":2}`))
	res.Body.Close()
	if res.StatusCode != http.StatusConflict {
		t.Errorf("host already in a room should get 409, got %d", res.StatusCode)
	}

	res, _ = http.Post(srv.URL+"/host/leave", "application/json", nil)
	res.Body.Close()
	if res.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204 after leaving, got %d", res.StatusCode)
	}
	res, _ = http.Get(srv.URL + "/host/room")
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("host should be in no room, got %d", res.StatusCode)
	}
	eventually(t, "c1 alone in Alpha", func() bool {
		r, _ := c1.Mirror().CurrentRoom()
		return len(r.Members) == 1 && r.Members[0] == self(c1)
	})

	res, _ = http.Post(srv.URL+"/host/rooms/Alpha/join", "application/json", nil)
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Errorf("host join should succeed, got %d", res.StatusCode)
	}
}
