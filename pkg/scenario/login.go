package scenario

import (
	"sort"
	"strings"

	"github.com/devicelab-dev/mobile-qa/pkg/pages"
)

// Credentials the login form must reject.
const (
	InvalidLogin    = "blah@blah.com"
	InvalidPassword = "aaaaaaaaaaa"
)

// Login walks from the splash screen to the log in form once, then checks
// the form.
func Login() Scenario {
	return Scenario{
		Name: "LoginScenario",
		Setup: func(env *Env) error {
			s := env.Screens
			if err := s.Splash.ClickGetStarted(); err != nil {
				return err
			}
			if err := s.Terms.ClickAgree(); err != nil {
				return err
			}
			return s.SignUp.SwitchToLogIn()
		},
		Cases: []Case{
			{
				Name:  "test_01_check_logo",
				Title: "Test 01 - Check if logo is visible on the login page",
				Run:   func(env *Env) error { return env.Screens.Login.IsLogoVisible() },
			},
			{
				Name:  "test_02_check_app_name",
				Title: "Test 02 - Check if app name is visible on the login page",
				Run:   func(env *Env) error { return env.Screens.Login.IsAppNameVisible() },
			},
			{
				Name:  "test_03_check_page_title",
				Title: "Test 03 - Check if login page title is visible",
				Run:   func(env *Env) error { return env.Screens.Login.CheckPageTitle() },
			},
			{
				Name:  "test_04_try_to_log_in_with_empty_data",
				Title: "Test 04 - Try to log in with empty data",
				Run: func(env *Env) error {
					login := env.Screens.Login
					if err := login.ClickLogin(); err != nil {
						return err
					}
					return login.CheckPageTitle()
				},
			},
			{
				Name:  "test_05_try_to_log_in_with_invalid_data",
				Title: "Test 05 - Try to log in with invalid data",
				Run:   func(env *Env) error { return logInWith(env.Screens.Login, InvalidLogin, InvalidPassword) },
			},
			{
				Name:  "test_06_check_reset_password_link",
				Title: "Test 06 - Check reset password link",
				Run: func(env *Env) error {
					if err := env.Screens.Login.ClickForgotPassword(); err != nil {
						return err
					}
					return env.Screens.ResetPassword.WaitForPageLoaded()
				},
			},
		},
	}
}

// logInWith submits the form and expects to stay on it.
func logInWith(login *pages.Login, user, password string) error {
	if err := login.TypeLogin(user); err != nil {
		return err
	}
	if err := login.TypePassword(password); err != nil {
		return err
	}
	if err := login.ClickLogin(); err != nil {
		return err
	}
	return login.CheckPageTitle()
}

var registry = map[string]func() Scenario{
	"login": Login,
}

// Names returns the registered scenario names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the named scenario. Names are case-insensitive.
func Lookup(name string) (Scenario, bool) {
	build, ok := registry[strings.ToLower(name)]
	if !ok {
		return Scenario{}, false
	}
	return build(), true
}
