package actions

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/devicelab-dev/mobile-qa/pkg/core"
)

// sessionMock is a testify mock of core.Session.
type sessionMock struct {
	mock.Mock
}

var _ core.Session = (*sessionMock)(nil)

func (m *sessionMock) FindElements(using, value string) ([]string, error) {
	args := m.Called(using, value)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *sessionMock) FindChildElements(parentID, using, value string) ([]string, error) {
	args := m.Called(parentID, using, value)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *sessionMock) ClickElement(id string) error { return m.Called(id).Error(0) }
func (m *sessionMock) ClearElement(id string) error { return m.Called(id).Error(0) }

func (m *sessionMock) SendElementKeys(id, text string) error {
	return m.Called(id, text).Error(0)
}

func (m *sessionMock) GetElementText(id string) (string, error) {
	args := m.Called(id)
	return args.String(0), args.Error(1)
}

func (m *sessionMock) GetElementAttribute(id, name string) (string, error) {
	args := m.Called(id, name)
	return args.String(0), args.Error(1)
}

func (m *sessionMock) IsElementDisplayed(id string) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

func (m *sessionMock) IsElementEnabled(id string) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

func (m *sessionMock) Swipe(sx, sy, ex, ey, ms int) error {
	return m.Called(sx, sy, ex, ey, ms).Error(0)
}

func (m *sessionMock) PressKeyCode(code int) error { return m.Called(code).Error(0) }

func (m *sessionMock) BackgroundApp(d time.Duration) error { return m.Called(d).Error(0) }

func (m *sessionMock) ExecuteMobile(command string, a map[string]interface{}) (interface{}, error) {
	args := m.Called(command, a)
	return args.Get(0), args.Error(1)
}

func (m *sessionMock) ScreenSize() (int, int) {
	args := m.Called()
	return args.Int(0), args.Int(1)
}

func (m *sessionMock) GetAlertText() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *sessionMock) Screenshot() ([]byte, error) {
	args := m.Called()
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *sessionMock) StartRecordingScreen(options map[string]interface{}) error {
	return m.Called(options).Error(0)
}

func (m *sessionMock) StopRecordingScreen() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *sessionMock) Disconnect() error { return m.Called().Error(0) }

// recorder collects attachments for assertions.
type recorder struct {
	name        string
	attachments []core.Attachment
	steps       []string
}

func (r *recorder) TestName() string { return r.name }
func (r *recorder) Attach(a core.Attachment) { r.attachments = append(r.attachments, a) }
func (r *recorder) Step(name string, fn func() error) error {
	r.steps = append(r.steps, name)
	return fn()
}
