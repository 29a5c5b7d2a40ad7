package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// publishUntil keeps publishing ev until done is closed; registration of a
// freshly dialled client is asynchronous.
func publishUntil(h *Hubs, ev AnswerEvent, done <-chan struct{}) {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		h.Publish(ev)
		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}

func TestActivityFeedReceivesEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hubs := NewHubs()
	hubs.Run()

	r := gin.New()
	r.GET("/ws/activity", ActivityHandler(hubs.Activity))
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/activity?carnet=123"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go publishUntil(hubs, AnswerEvent{Type: EventAnswerSaved, StudentCarnet: "999", QuestionID: "ignored"}, done)
	go publishUntil(hubs, AnswerEvent{Type: EventAnswerSaved, StudentCarnet: "123", QuestionID: "q1"}, done)

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for i := 0; i < 5; i++ {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var ev AnswerEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if ev.StudentCarnet != "123" || ev.QuestionID != "q1" {
			t.Fatalf("filtered feed leaked event %+v", ev)
		}
	}
}

func TestPublishOnNilHubs(t *testing.T) {
	var h *Hubs
	h.Publish(AnswerEvent{Type: EventAnswerDeleted})
}

func TestPublishDoesNotBlockWithoutRun(t *testing.T) {
	h := NewHubs()
	finished := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			h.Publish(AnswerEvent{Type: EventAnswerSaved, StudentCarnet: "1"})
		}
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked with no running hub")
	}
}
