package api_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/leadintake/internal/middleware"
	"github.com/persistorai/leadintake/internal/models"
)

const (
	testUserID  = "00000000-0000-0000-0000-000000000001"
	testEmail   = "agent@example.com"
	testBuyerID = "6f1c2b1e-0d8a-4c39-9a57-2d3f1e9b7c10"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)

	return l
}

// newTestRouter returns an engine on which every request is signed in as the
// test user.
func newTestRouter() *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		middleware.SetIdentity(c, models.Identity{UserID: testUserID, Email: testEmail, Name: "Test Agent"})
	})

	return r
}

// doRequest sends body as JSON; an empty body sends none.
func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	if body == "" {
		return doRaw(r, method, path, "", nil)
	}

	return doRaw(r, method, path, "application/json", strings.NewReader(body))
}

func doRaw(r http.Handler, method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	return send(r, method, path, func(h http.Header) {
		if contentType != "" {
			h.Set("Content-Type", contentType)
		}
	}, body)
}

// doAuthed sends a bodiless request carrying the token the router mocks accept.
func doAuthed(r http.Handler, method, path string) *httptest.ResponseRecorder {
	return send(r, method, path, func(h http.Header) { h.Set("Authorization", "Bearer good") }, nil)
}

func send(r http.Handler, method, path string, header func(http.Header), body io.Reader) *httptest.ResponseRecorder {
	if body == nil {
		body = http.NoBody
	}

	req := httptest.NewRequest(method, path, body)
	header(req.Header)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}
