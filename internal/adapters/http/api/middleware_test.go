package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/rally/internal/adapters/http/api"
	service "github.com/okian/rally/internal/app"
	"github.com/okian/rally/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// panickyStats blows up on every stats request.
type panickyStats struct {
	*service.Service
}

func (panickyStats) GetStats() map[string]interface{} {
	panic("stats exploded")
}

func newRequest(method, path string) (*http.Request, *httptest.ResponseRecorder) {
	return httptest.NewRequest(method, path, nil), httptest.NewRecorder()
}

func TestMiddleware(t *testing.T) {
	Convey("Given the API mux", t, func() {
		mux := newMux(newService())

		Convey("Every response should carry a request ID", func() {
			rec := do(mux, http.MethodGet, "/stats", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get(api.RequestIDHeader), ShouldNotBeEmpty)
		})

		Convey("A client request ID should be echoed back", func() {
			req, rec := newRequest(http.MethodGet, "/stats")
			req.Header.Set(api.RequestIDHeader, "abc-123")
			mux.ServeHTTP(rec, req)
			So(rec.Header().Get(api.RequestIDHeader), ShouldEqual, "abc-123")
		})
	})

	Convey("Given a handler that panics", t, func() {
		mux := newMux(panickyStats{newService()}, api.WithLogger(logger.Nop()))

		Convey("The panic should become a 500 response", func() {
			rec := do(mux, http.MethodGet, "/stats", "")
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)

			var body map[string]string
			decode(rec, &body)
			So(body["code"], ShouldEqual, "internal")
		})
	})
}
