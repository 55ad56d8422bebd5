package swcache

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Snapshot is the stored form of a 200 response. Entries are immutable once
// written; an update is a new Put under the same request identity.
type Snapshot struct {
	Status int         `json:"status" cbor:"status" msgpack:"status"`
	Header http.Header `json:"header" cbor:"header" msgpack:"header"`
	Body   []byte      `json:"body" cbor:"body" msgpack:"body"`
}

const (
	offlineBody     = "Offline - Please check your connection"
	unavailableBody = "Resource not available offline"
)

// snapshotOf buffers resp.Body and swaps in an identical reader, so the caller
// still receives the live response while a copy is persisted. A body larger
// than limit (when limit > 0) is not buffered whole: ok is false and resp.Body
// still yields every byte.
func snapshotOf(resp *http.Response, limit int64) (snap Snapshot, ok bool, err error) {
	if resp.Body == nil {
		resp.Body = http.NoBody
	}
	src := io.Reader(resp.Body)
	if limit > 0 {
		src = io.LimitReader(resp.Body, limit+1)
	}
	body, err := io.ReadAll(src)
	if err != nil {
		_ = resp.Body.Close()
		return Snapshot{}, false, err
	}
	if limit > 0 && int64(len(body)) > limit {
		resp.Body = struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(body), resp.Body), resp.Body}
		return Snapshot{}, false, nil
	}
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return Snapshot{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   body,
	}, true, nil
}

// teeBody copies a live body as the caller reads it. Reaching EOF hands the
// copy to done exactly once. A read error, a body over limit or a Close before
// the end drops the copy.
type teeBody struct {
	rc      io.ReadCloser
	buf     bytes.Buffer
	limit   int64 // <= 0: unlimited
	length  int64 // declared ContentLength; <= 0 is not trusted
	done    func([]byte)
	dropped bool
	once    sync.Once
}

// teeSnapshot replaces resp.Body with a teeBody. done receives the snapshot
// of the fully read body; headers are captured now, before callers mutate them.
func teeSnapshot(resp *http.Response, limit int64, done func(Snapshot)) {
	if resp.Body == nil {
		resp.Body = http.NoBody
	}
	status, header := resp.StatusCode, resp.Header.Clone()
	resp.Body = &teeBody{
		rc:     resp.Body,
		limit:  limit,
		length: resp.ContentLength,
		done: func(body []byte) {
			done(Snapshot{Status: status, Header: header, Body: body})
		},
	}
}

func (t *teeBody) Read(p []byte) (int, error) {
	n, err := t.rc.Read(p)
	if n > 0 && !t.dropped {
		if t.limit > 0 && int64(t.buf.Len()+n) > t.limit {
			t.drop()
		} else {
			t.buf.Write(p[:n])
		}
	}
	switch {
	case err == io.EOF:
		t.finish()
	case err != nil:
		t.drop()
	}
	return n, err
}

// Close completes the copy when the declared length was read in full.
func (t *teeBody) Close() error {
	if t.length > 0 && int64(t.buf.Len()) == t.length {
		t.finish()
	} else {
		t.drop()
	}
	return t.rc.Close()
}

func (t *teeBody) drop() {
	t.dropped = true
	t.buf = bytes.Buffer{}
}

func (t *teeBody) finish() {
	t.once.Do(func() {
		if !t.dropped {
			t.done(t.buf.Bytes())
		}
	})
}

// response rebuilds an *http.Response for req. Each call gets its own body reader.
func (s Snapshot) response(req *http.Request) *http.Response {
	h := s.Header.Clone()
	if h == nil {
		h = make(http.Header)
	}
	return &http.Response{
		Status:        strconv.Itoa(s.Status) + " " + http.StatusText(s.Status),
		StatusCode:    s.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        h,
		Body:          io.NopCloser(bytes.NewReader(s.Body)),
		ContentLength: int64(len(s.Body)),
		Request:       req,
	}
}

func textResponse(req *http.Request, status int, msg string) *http.Response {
	return Snapshot{
		Status: status,
		Header: http.Header{
			"Content-Type": {"text/plain; charset=utf-8"},
			"Date":         {time.Now().UTC().Format(http.TimeFormat)},
		},
		Body: []byte(msg),
	}.response(req)
}

// offlineResponse answers a network-first request when both network and cache failed.
func offlineResponse(req *http.Request) *http.Response {
	return textResponse(req, http.StatusServiceUnavailable, offlineBody)
}

// unavailableResponse answers a cache-first miss the network could not fill.
func unavailableResponse(req *http.Request) *http.Response {
	return textResponse(req, http.StatusNotFound, unavailableBody)
}
