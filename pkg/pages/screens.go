package pages

// Splash is the first screen after launch.
type Splash struct{ screen }

func NewSplash(d Deps) *Splash { return &Splash{newScreen(d, SplashScreen)} }

func (p *Splash) ClickGetStarted() error {
	return p.step("Click on the get started button", func() error {
		return p.clickWhenClickable("GET_STARTED_BTN")
	})
}

// Terms is the terms and conditions screen.
type Terms struct{ screen }

func NewTerms(d Deps) *Terms { return &Terms{newScreen(d, TermsPage)} }

func (p *Terms) ClickAgree() error {
	return p.step("Click on the agree button", func() error {
		return p.clickWhenClickable("AGREE_BTN")
	})
}

// Login is the log in form.
type Login struct{ screen }

// Texts the login screen is expected to show.
const (
	AppName     = "appiumqatest"
	LoginTitle  = "Log In"
	SignUpTitle = "Sign up"
)

func NewLogin(d Deps) *Login { return &Login{newScreen(d, LoginSignInPage)} }

func (p *Login) IsLogoVisible() error {
	return p.step("Check if logo is visible on the login page", func() error {
		_, err := p.wait.Visible(p.sel.Must("LOGO"))
		return err
	})
}

func (p *Login) IsAppNameVisible() error {
	return p.step("Check if app name is visible on the login page", func() error {
		return p.cmd.AssertText(p.sel.Must("APP_NAME"), AppName)
	})
}

func (p *Login) CheckPageTitle() error {
	return p.step("Check if login page title is visible", func() error {
		return p.cmd.AssertText(p.sel.Must("PAGE_TITLE"), LoginTitle)
	})
}

func (p *Login) TypeLogin(login string) error {
	return p.step("Fill in login field with text "+login, func() error {
		return p.cmd.TypeText(p.sel.Must("LOGIN_INPUT"), login)
	})
}

func (p *Login) TypePassword(password string) error {
	return p.step("Fill in password field with text "+password, func() error {
		return p.cmd.TypeText(p.sel.Must("PASSWORD_INPUT"), password)
	})
}

func (p *Login) ClickLogin() error {
	return p.step("Click on the log in button", func() error {
		return p.cmd.Click(p.sel.Must("LOGIN_BTN"))
	})
}

func (p *Login) ClickForgotPassword() error {
	return p.step("Click on the forgot password link", func() error {
		return p.cmd.Click(p.sel.Must("FORGOT_PASSWORD_BTN"))
	})
}

// SignUp is the sign up form. It shares its selector table with Login.
type SignUp struct {
	screen
	login *Login
}

// NewSignUp builds the sign up screen. login is used to confirm the switch
// to the log in form.
func NewSignUp(d Deps, login *Login) *SignUp {
	if login == nil {
		login = NewLogin(d)
	}
	return &SignUp{screen: newScreen(d, LoginSignInPage), login: login}
}

func (p *SignUp) CheckPageTitle() error {
	return p.step("Check if 'Sign up' page title is visible", func() error {
		return p.cmd.AssertText(p.sel.Must("PAGE_TITLE"), SignUpTitle)
	})
}

func (p *SignUp) ClickSignIn() error {
	return p.step("Click on the sign in button", func() error {
		return p.clickWhenClickable("SIGN_IN_BTN")
	})
}

// SwitchToLogIn opens the log in form and checks its title.
func (p *SignUp) SwitchToLogIn() error {
	return p.step("Switch to the log in page", func() error {
		if err := p.clickWhenClickable("SWITCH_TO_LOG_IN_BTN"); err != nil {
			return err
		}
		return p.login.CheckPageTitle()
	})
}

// ResetPassword is shown after the forgot password link.
type ResetPassword struct{ screen }

func NewResetPassword(d Deps) *ResetPassword {
	return &ResetPassword{newScreen(d, ResetPasswordPage)}
}

func (p *ResetPassword) WaitForPageLoaded() error {
	return p.step("Wait for reset password page is loaded", func() error {
		_, err := p.wait.Visible(p.sel.Must("RESET_PASSWORD"))
		return err
	})
}
