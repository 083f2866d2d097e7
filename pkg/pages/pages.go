// Package pages holds the screen objects of the app under test. Each screen
// resolves its selector table for the session's platform once, at
// construction, and reports every public action as a step.
package pages

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/devicelab-dev/mobile-qa/pkg/actions"
	"github.com/devicelab-dev/mobile-qa/pkg/core"
	"github.com/devicelab-dev/mobile-qa/pkg/selector"
	"github.com/devicelab-dev/mobile-qa/pkg/wait"
)

// Catalog screen names.
const (
	SplashScreen      = "SPLASH_SCREEN"
	TermsPage         = "TERMS_AND_CONDITIONS_PAGE"
	LoginSignInPage   = "LOGIN_SIGNIN_PAGE"
	ResetPasswordPage = "RESET_PASSWORD_PAGE"
)

//go:embed selectors.yaml
var defaultSelectors []byte

var (
	defaultOnce    sync.Once
	defaultCatalog selector.Catalog
)

// DefaultCatalog returns the built-in selector tables.
func DefaultCatalog() selector.Catalog {
	defaultOnce.Do(func() {
		c, err := selector.ParseCatalog(defaultSelectors)
		if err != nil {
			panic(fmt.Sprintf("built-in selectors: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// LoadCatalog returns the built-in tables with the entries of the YAML file
// at path layered on top. An empty path returns the built-in tables.
func LoadCatalog(path string) (selector.Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read selectors: %w", err)
	}
	overrides, err := selector.ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return DefaultCatalog().Merge(overrides), nil
}

// Deps is what every screen needs.
type Deps struct {
	Commands *actions.Commands
	Wait     *wait.Waiter
	Platform selector.Platform
	Catalog  selector.Catalog // defaults to DefaultCatalog
}

// screen is the shared part of every screen object.
type screen struct {
	cmd  *actions.Commands
	wait *wait.Waiter
	rec  core.Recorder
	sel  selector.Table
}

func newScreen(d Deps, name string) screen {
	catalog := d.Catalog
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return screen{
		cmd:  d.Commands,
		wait: d.Wait,
		rec:  d.Commands.Recorder(),
		sel:  catalog[name].For(d.Platform),
	}
}

func (s screen) step(name string, fn func() error) error {
	return s.rec.Step(name, fn)
}

// clickWhenClickable waits for key to be clickable and clicks the handle it resolved.
func (s screen) clickWhenClickable(key string) error {
	btn, err := s.wait.Clickable(s.sel.Must(key))
	if err != nil {
		return err
	}
	return s.cmd.Click(btn)
}

// Screens bundles every screen object of the app for one session.
type Screens struct {
	Splash        *Splash
	Terms         *Terms
	Login         *Login
	SignUp        *SignUp
	ResetPassword *ResetPassword
}

// NewScreens builds all screens.
func NewScreens(d Deps) *Screens {
	login := NewLogin(d)
	return &Screens{
		Splash:        NewSplash(d),
		Terms:         NewTerms(d),
		Login:         login,
		SignUp:        NewSignUp(d, login),
		ResetPassword: NewResetPassword(d),
	}
}
