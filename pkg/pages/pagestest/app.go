// Package pagestest scripts the app under test on a mock session, using the
// same selector catalog the screen objects resolve.
package pagestest

import (
	"github.com/devicelab-dev/mobile-qa/pkg/driver/mock"
	"github.com/devicelab-dev/mobile-qa/pkg/pages"
	"github.com/devicelab-dev/mobile-qa/pkg/selector"
)

// Mock screen names.
const (
	Splash = "splash"
	Terms  = "terms"
	SignUp = "signup"
	Login  = "login"
	Reset  = "reset"
)

// NewApp returns a mock session showing the splash screen. Clicking through
// get started, agree and switch to log in reaches the login form; the forgot
// password link opens the reset page. The log in button never navigates.
func NewApp(p selector.Platform) *mock.Session {
	catalog := pages.DefaultCatalog()
	b := builder{catalog: catalog, platform: p}

	screens := map[string][]mock.Element{
		Splash: {b.el(Splash, pages.SplashScreen, "GET_STARTED_BTN", "", Terms)},
		Terms:  {b.el(Terms, pages.TermsPage, "AGREE_BTN", "", SignUp)},
		SignUp: b.form(SignUp, pages.SignUpTitle, map[string]string{
			"SWITCH_TO_LOG_IN_BTN": Login,
		}),
		Login: b.form(Login, pages.LoginTitle, map[string]string{
			"FORGOT_PASSWORD_BTN": Reset,
		}),
		Reset: {b.el(Reset, pages.ResetPasswordPage, "RESET_PASSWORD", "Reset password", "")},
	}

	return mock.New(mock.Config{
		Platform: p.String(),
		Screens:  screens,
		Start:    Splash,
	})
}

// ElementID is the mock element ID of key on screen.
func ElementID(screen, key string) string {
	return screen + "/" + key
}

type builder struct {
	catalog  selector.Catalog
	platform selector.Platform
}

func (b builder) el(screen, catalogScreen, key, text, navigate string) mock.Element {
	sel := b.catalog[catalogScreen].For(b.platform).Must(key)
	return mock.Element{
		ID:       ElementID(screen, key),
		Using:    string(sel.Strategy),
		Value:    sel.Value,
		Text:     text,
		Navigate: navigate,
	}
}

// form lays out the shared login and sign up form.
func (b builder) form(screen, title string, navigate map[string]string) []mock.Element {
	texts := map[string]string{
		"APP_NAME":   pages.AppName,
		"PAGE_TITLE": title,
	}
	keys := []string{"LOGO", "APP_NAME", "PAGE_TITLE", "LOGIN_INPUT", "PASSWORD_INPUT"}
	// SIGN_IN_BTN and LOGIN_BTN share a locator on Android; only one is on screen.
	if screen == SignUp {
		keys = append(keys, "SIGN_IN_BTN", "SWITCH_TO_LOG_IN_BTN")
	} else {
		keys = append(keys, "LOGIN_BTN", "FORGOT_PASSWORD_BTN")
	}
	elems := make([]mock.Element, 0, len(keys))
	for _, key := range keys {
		elems = append(elems, b.el(screen, pages.LoginSignInPage, key, texts[key], navigate[key]))
	}
	return elems
}
