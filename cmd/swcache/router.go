package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/unkn0wn-root/swcache"
)

const adminPrefix = "/__swcache"

type statusView struct {
	Active  *workerView `json:"active,omitempty"`
	Waiting *workerView `json:"waiting,omitempty"`
}

type workerView struct {
	Version string `json:"version"`
	State   string `json:"state"`
}

func viewOf(w *swcache.Worker) *workerView {
	if w == nil {
		return nil
	}
	return &workerView{Version: w.Version(), State: w.State().String()}
}

// newRouter mounts the admin routes and hands everything else to proxy.
func newRouter(reg *swcache.Registration, proxy http.Handler, metricsPath string, metrics http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route(adminPrefix, func(r chi.Router) {
		r.Post("/message", messageHandler(reg))
		r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, statusView{Active: viewOf(reg.Active()), Waiting: viewOf(reg.Waiting())})
		})
	})
	if metrics != nil && metricsPath != "" {
		r.Method(http.MethodGet, metricsPath, metrics)
	}
	r.NotFound(proxy.ServeHTTP)
	r.MethodNotAllowed(proxy.ServeHTTP)
	return r
}

type messageBody struct {
	Type swcache.MessageType `json:"type"`
}

func messageHandler(reg *swcache.Registration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body messageBody
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid message"})
			return
		}
		msg := swcache.Message{Type: body.Type}
		var reply chan swcache.VersionReply
		if body.Type == swcache.MsgGetVersion {
			reply = make(chan swcache.VersionReply, 1)
			msg.Reply = reply
		}

		if err := reg.Post(r.Context(), msg); err != nil {
			writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
			return
		}
		if reply != nil {
			writeJSON(w, http.StatusOK, <-reply)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, swcache.ErrUnknownMessage):
		return http.StatusBadRequest
	case errors.Is(err, swcache.ErrNoController):
		return http.StatusConflict
	case errors.Is(err, swcache.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
