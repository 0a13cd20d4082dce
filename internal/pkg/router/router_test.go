package router

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shandysiswandi/mailblast/internal/pkg/config"
	"github.com/shandysiswandi/mailblast/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedID string

func (f fixedID) Generate() string { return string(f) }

type createdResp struct {
	ID int64 `json:"id"`
}

func (createdResp) StatusCode() int { return http.StatusAccepted }

func (createdResp) Message() string { return "queued" }

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  maintenance:\n    endpoints: /down\n"))
	require.NoError(t, err)
	return NewRouter(Config{Config: cfg, UUID: fixedID("cid-1")})
}

func TestRouter_Endpoint(t *testing.T) {
	r := newTestRouter(t)
	r.POST("/items/:id", func(req *Request) (any, error) {
		id, err := req.GetParamInt64("id")
		if err != nil {
			return nil, err
		}
		return createdResp{ID: id}, nil
	})
	r.DELETE("/items/:id", func(*Request) (any, error) { return nil, nil })
	r.GET("/fail", func(*Request) (any, error) { return nil, errors.New("boom") })
	r.GET("/missing", func(*Request) (any, error) {
		return nil, goerror.NewBusiness("campaign not found", goerror.CodeNotFound)
	})
	r.GET("/down", func(*Request) (any, error) { return "ok", nil })

	tests := []struct {
		name     string
		method   string
		path     string
		wantCode int
		wantBody string
	}{
		{name: "success envelope", method: http.MethodPost, path: "/items/7", wantCode: http.StatusAccepted, wantBody: `{"message":"queued","data":{"id":7}}`},
		{name: "bad param", method: http.MethodPost, path: "/items/x", wantCode: http.StatusBadRequest, wantBody: `{"message":"param must integer value"}`},
		{name: "no content", method: http.MethodDelete, path: "/items/7", wantCode: http.StatusNoContent},
		{name: "unknown error", method: http.MethodGet, path: "/fail", wantCode: http.StatusInternalServerError, wantBody: `{"message":"Internal server error"}`},
		{name: "business error", method: http.MethodGet, path: "/missing", wantCode: http.StatusNotFound, wantBody: `{"message":"campaign not found"}`},
		{name: "maintenance", method: http.MethodGet, path: "/down", wantCode: http.StatusServiceUnavailable, wantBody: `{"message":"service is under maintenance"}`},
		{name: "not found", method: http.MethodGet, path: "/nope", wantCode: http.StatusNotFound, wantBody: `{"message":"endpoint not found"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestRouter_CorrelationID(t *testing.T) {
	r := newTestRouter(t)
	r.GET("/ping", func(*Request) (any, error) { return "pong", nil })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, "cid-1", rec.Header().Get(HeaderCorrelationID))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "from-proxy")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "from-proxy", rec.Header().Get(HeaderCorrelationID))
}

func TestRouter_RawStreamsAndFlushes(t *testing.T) {
	r := newTestRouter(t)
	r.POSTRaw("/stream", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		_, isFlusher := w.(http.Flusher)
		assert.True(t, isFlusher)
		_, _ = w.Write([]byte("{\"a\":1}\n"))
		w.(http.Flusher).Flush()
		_, _ = w.Write([]byte("{\"a\":2}\n"))
	}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/stream", strings.NewReader("{}")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "{\"a\":1}\n{\"a\":2}\n", rec.Body.String())
	assert.True(t, rec.Flushed)
}

func TestRouter_Recoverer(t *testing.T) {
	r := newTestRouter(t)
	r.GET("/panic", func(*Request) (any, error) { panic("oops") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequest_DecodeBody(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	req := &Request{Request: httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a"}`))}
	require.NoError(t, req.DecodeBody(&dst))
	assert.Equal(t, "a", dst.Name)

	for _, body := range []string{`{"name":"a","x":1}`, `{"name":"a"}{}`, `nope`} {
		req = &Request{Request: httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))}
		gerr, ok := goerror.As(req.DecodeBody(&dst))
		require.True(t, ok, body)
		assert.Equal(t, http.StatusBadRequest, gerr.StatusCode(), body)
	}

	raw := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"`+strings.Repeat("a", 64)+`"}`))
	raw.Body = http.MaxBytesReader(httptest.NewRecorder(), raw.Body, 16)
	gerr, ok := goerror.As((&Request{Request: raw}).DecodeBody(&dst))
	require.True(t, ok)
	assert.Equal(t, http.StatusRequestEntityTooLarge, gerr.StatusCode())
}

func TestRequest_StreamSingleFile(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "skip me"))
	fw, err := mw.CreateFormFile("file", "list.csv")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("name,email\n"))
	require.NoError(t, mw.Close())

	raw := httptest.NewRequest(http.MethodPost, "/", &buf)
	raw.Header.Set("Content-Type", mw.FormDataContentType())
	file, err := (&Request{Request: raw}).StreamSingleFile("file")
	require.NoError(t, err)
	data := new(bytes.Buffer)
	_, _ = data.ReadFrom(file)
	assert.Equal(t, "name,email\n", data.String())

	raw = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("x"))
	raw.Header.Set("Content-Type", "text/plain")
	_, err = (&Request{Request: raw}).StreamSingleFile("file")
	assert.Error(t, err)
}

func TestRouter_RecovererStreamFraming(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		wantBody    string
	}{
		{name: "ndjson", contentType: "application/x-ndjson", wantBody: "{\"a\":1}\n{\"error\":\"Internal server error\",\"status\":\"fatal\"}\n"},
		{name: "sse", contentType: "text/event-stream", wantBody: "{\"a\":1}\nevent: error\ndata: {\"message\":\"Internal server error\"}\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t)
			r.GETRaw("/stream", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				_, _ = w.Write([]byte("{\"a\":1}\n"))
				panic("oops")
			}))

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stream", nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		trusted []string
		want    string
	}{
		{name: "socket peer", want: "10.0.0.9"},
		{name: "forwarded for first hop", headers: map[string]string{"X-Forwarded-For": " 1.2.3.4 , 10.0.0.1"}, trusted: defaultIPHeaders, want: "1.2.3.4"},
		{name: "true client ip wins", headers: map[string]string{"True-Client-IP": "5.6.7.8", "X-Real-IP": "1.1.1.1"}, trusted: defaultIPHeaders, want: "5.6.7.8"},
		{name: "invalid header falls through", headers: map[string]string{"X-Real-IP": "nope", "X-Forwarded-For": "9.9.9.9"}, trusted: defaultIPHeaders, want: "9.9.9.9"},
		{name: "untrusted header ignored", headers: map[string]string{"X-Real-IP": "1.1.1.1"}, trusted: nil, want: "10.0.0.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "10.0.0.9:5555"
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(req, tt.trusted))
		})
	}
}

func TestIPHeaders(t *testing.T) {
	assert.Equal(t, defaultIPHeaders, ipHeaders(nil))

	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  server:\n    ip_headers:\n      - none\n"))
	require.NoError(t, err)
	assert.Empty(t, ipHeaders(cfg))

	cfg, err = config.NewViperFromBytes("yaml", []byte("app:\n  server:\n    ip_headers:\n      - CF-Connecting-IP\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"CF-Connecting-IP"}, ipHeaders(cfg))
}

func TestNormalizeCID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "  abc-123  ", want: "abc-123"},
		{in: "", want: ""},
		{in: "a\r\nInjected: 1", want: ""},
		{in: "has space", want: ""},
		{in: "é", want: ""},
		{in: strings.Repeat("x", 200), want: strings.Repeat("x", maxCIDLen)},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeCID(tt.in), tt.in)
	}
}
