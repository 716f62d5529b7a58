// Mock methods required in Codepad tests are all here.

package test

import (
	"errors"
	"sync"

	"Codepad/internal/entity"
	"Codepad/pkg/middlewares"

	"github.com/gin-gonic/gin"
)

// NewRouter returns a fresh gin engine in test mode for API testing.
func NewRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middlewares.CORSMiddleware("*")) // CORS middleware which allows request from all origin
	return router
}

// ErrMockClosed is returned by MockConn.Send after Close.
var ErrMockClosed = errors.New("mock connection closed")

// MockConn is an entity.Connection recording every frame sent to it.
type MockConn struct {
	ConnID  string
	SendErr error

	mu     sync.Mutex
	frames [][]byte
	closed int
}

func NewMockConn(id string) *MockConn {
	return &MockConn{ConnID: id}
}

func (m *MockConn) ID() string { return m.ConnID }

func (m *MockConn) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.frames = append(m.frames, data)
	return nil
}

func (m *MockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return nil
}

// Closed reports how many times Close was called.
func (m *MockConn) Closed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Frames returns the decoded envelopes received so far.
func (m *MockConn) Frames() []entity.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entity.Envelope, 0, len(m.frames))
	for _, frame := range m.frames {
		out = append(out, mustDecode(frame))
	}
	return out
}

// Reset forgets the frames received so far.
func (m *MockConn) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = nil
}
