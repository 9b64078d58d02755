package web

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vbonduro/grocerysync/internal/docstore"
	"github.com/vbonduro/grocerysync/internal/domain"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

type listsFrame struct {
	Type  string               `json:"type"`
	Lists []domain.GroceryList `json:"lists"`
}

type itemsFrame struct {
	Type  string               `json:"type"`
	Items []domain.GroceryItem `json:"items"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// subscribeFunc starts a subscription that hands frames to deliver and its
// terminal error to fail.
type subscribeFunc func(ctx context.Context, deliver func(any), fail func(error)) (*docstore.Subscription, error)

func (s *Server) handleWatchLists(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	s.serveWatch(w, r, func(ctx context.Context, deliver func(any), fail func(error)) (*docstore.Subscription, error) {
		return s.service.WatchLists(ctx, user, func(lists []domain.GroceryList) {
			deliver(listsFrame{Type: "snapshot", Lists: lists})
		}, fail)
	})
}

func (s *Server) handleWatchItems(w http.ResponseWriter, r *http.Request) {
	user, listID := userID(r), r.PathValue("listID")
	s.serveWatch(w, r, func(ctx context.Context, deliver func(any), fail func(error)) (*docstore.Subscription, error) {
		return s.service.WatchItems(ctx, user, listID, func(items []domain.GroceryItem) {
			deliver(itemsFrame{Type: "snapshot", Items: items})
		}, fail)
	})
}

// serveWatch subscribes before upgrading so that a rejected subscription is
// reported as a plain HTTP error. Each snapshot becomes one text frame. A
// client slower than the snapshot rate only ever receives the newest one.
func (s *Server) serveWatch(w http.ResponseWriter, r *http.Request, subscribe subscribeFunc) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	frames := make(chan any, 1)
	failed := make(chan error, 1)
	deliver := func(v any) {
		select {
		case <-frames:
		default:
		}
		frames <- v
	}

	sub, err := subscribe(ctx, deliver, func(err error) { failed <- err })
	if err != nil {
		s.handleError(w, r, err, "failed to watch")
		return
	}
	defer sub.Close()

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log(r).Error("websocket accept failed", "error", err)
		return
	}
	defer func() { _ = conn.CloseNow() }()

	// Incoming messages are discarded; ctx ends when the client goes away.
	ctx = conn.CloseRead(ctx)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	log := s.log(r).With("path", sub.Path())
	log.Debug("watch started")
	for {
		select {
		case frame := <-frames:
			if err := writeFrame(ctx, conn, frame); err != nil {
				log.Debug("watch write failed", "error", err)
				return
			}
		case err := <-failed:
			log.Warn("watch subscription failed", "error", err)
			if werr := writeFrame(ctx, conn, errorFrame{Type: "error", Error: "subscription failed"}); werr != nil {
				return
			}
			_ = conn.Close(websocket.StatusInternalError, "subscription failed")
			return
		case <-ticker.C:
			if err := conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			log.Debug("watch ended")
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return
		}
	}
}

func writeFrame(ctx context.Context, conn *websocket.Conn, v any) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, v)
}
