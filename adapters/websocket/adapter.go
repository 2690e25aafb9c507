package websocket

import (
	"net/http"
	"strings"
	"time"

	"acrossfc/core"
	"acrossfc/realtime"
	gorillaws "github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// Handler returns an http.Handler that upgrades to WebSocket and streams
// points awards from the hub. Optional query parameters narrow the stream:
// member=<id> and category=<CAT>[,<CAT>...].
func Handler(hub *realtime.Hub) http.Handler {
	upgrader := gorillaws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		id, ch := hub.Subscribe(256, filter)
		defer hub.Unsubscribe(id)

		// reader goroutine notices client close
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-done:
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(gorillaws.TextMessage, realtime.MarshalJSON(ev)); err != nil {
					return
				}
			}
		}
	})
}

func parseFilter(r *http.Request) (realtime.Filter, error) {
	var f realtime.Filter
	q := r.URL.Query()
	if m := q.Get("member"); m != "" {
		id, err := core.ParseMemberID(m)
		if err != nil {
			return f, err
		}
		f.Member = id
	}
	if c := q.Get("category"); c != "" {
		for _, part := range strings.Split(c, ",") {
			cat := core.PointsCategory(strings.ToUpper(strings.TrimSpace(part)))
			if err := cat.Validate(); err != nil {
				return f, err
			}
			f.Categories = append(f.Categories, cat)
		}
	}
	return f, nil
}
