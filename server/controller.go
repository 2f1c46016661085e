package server

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"

	"github.com/martinmarchese/login-example/auth"
	"github.com/martinmarchese/login-example/social"
)

// Controller owns every auth route. HTML and JSON clients share the same
// handlers; negotiation happens at the response edge.
type Controller struct {
	Debug bool

	cfg    auth.Config
	logger auth.Logger
	repo   auth.RepositoryManager
	auther auth.Authenticator
	tokens auth.TokenService

	createAccount     *auth.CreateAccountHandler
	verifyAccount     *auth.VerifyAccountHandler
	resetInitialize   *auth.InitializePasswordResetHandler
	resetFinalize     *auth.FinalizePasswordResetHandler
	changePassword    *auth.ChangePasswordHandler
	changeLogin       *auth.ChangeLoginHandler
	verifyLoginChange *auth.VerifyLoginChangeHandler
	closeAccount      *auth.CloseAccountHandler

	provider    social.Provider
	states      social.StateManager
	provisioner *social.Provisioner

	useHashid              bool
	cookieDuration         time.Duration
	extendedCookieDuration time.Duration
}

// ControllerDeps carries everything a Controller needs. Provider may be nil,
// which disables the social login routes.
type ControllerDeps struct {
	Config      auth.Config
	Repo        auth.RepositoryManager
	Auther      auth.Authenticator
	Tokens      auth.TokenService
	Signer      *auth.KeySigner
	Notifier    *auth.Notifier
	Provider    social.Provider
	States      social.StateManager
	Provisioner *social.Provisioner
	Logger      auth.Logger
	UseHashid   bool
}

// NewController wires the command handlers behind the HTTP surface.
func NewController(deps ControllerDeps) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = auth.DefaultLogger()
	}

	cfg := deps.Config

	cookieDuration := 24 * time.Hour
	if cfg.GetTokenExpiration() > 0 {
		cookieDuration = time.Duration(cfg.GetTokenExpiration()) * time.Hour
	}
	extendedCookieDuration := cookieDuration
	if cfg.GetExtendedTokenDuration() > 0 {
		extendedCookieDuration = time.Duration(cfg.GetExtendedTokenDuration()) * time.Hour
	}

	return &Controller{
		cfg:    cfg,
		logger: logger,
		repo:   deps.Repo,
		auther: deps.Auther,
		tokens: deps.Tokens,

		createAccount:     auth.NewCreateAccountHandler(deps.Repo, deps.Signer, deps.Notifier).WithLogger(logger),
		verifyAccount:     auth.NewVerifyAccountHandler(deps.Repo, deps.Signer, cfg.GetVerifyKeyThreshold()),
		resetInitialize:   auth.NewInitializePasswordResetHandler(deps.Repo, deps.Signer, deps.Notifier).WithLogger(logger),
		resetFinalize:     auth.NewFinalizePasswordResetHandler(deps.Repo, deps.Signer, cfg.GetResetKeyThreshold()),
		changePassword:    auth.NewChangePasswordHandler(deps.Repo),
		changeLogin:       auth.NewChangeLoginHandler(deps.Repo, deps.Signer, deps.Notifier).WithLogger(logger),
		verifyLoginChange: auth.NewVerifyLoginChangeHandler(deps.Repo, deps.Signer, cfg.GetLoginChangeKeyThreshold()),
		closeAccount:      auth.NewCloseAccountHandler(deps.Repo),

		provider:    deps.Provider,
		states:      deps.States,
		provisioner: deps.Provisioner,

		useHashid:              deps.UseHashid,
		cookieDuration:         cookieDuration,
		extendedCookieDuration: extendedCookieDuration,
	}
}

// RegisterRoutes mounts every route on the app.
func (ctrl *Controller) RegisterRoutes(app *fiber.App) {
	protected := RequireAuth(ctrl.auther, ctrl.cfg, ctrl.logger)

	app.Get("/", ctrl.Home)
	app.Get("/login", ctrl.LoginForm)
	app.Get("/register", ctrl.RegisterForm)
	app.Get("/reset-password-request", ctrl.ResetRequestForm)
	app.Get("/reset-password", ctrl.ResetPasswordForm)

	grp := app.Group("/auth")
	grp.Post("/create-account", ctrl.CreateAccount)
	grp.Get("/verify-account", ctrl.VerifyAccount)
	grp.Post("/verify-account", ctrl.VerifyAccount)
	grp.Post("/login", ctrl.Login)
	grp.Post("/logout", ctrl.Logout)
	grp.Post("/reset-password-request", ctrl.ResetPasswordRequest)
	grp.Post("/reset-password", ctrl.ResetPassword)
	grp.Post("/change-password", protected, ctrl.ChangePassword)
	grp.Post("/change-login", protected, ctrl.ChangeLogin)
	grp.Get("/verify-login-change", ctrl.VerifyLoginChange)
	grp.Post("/verify-login-change", ctrl.VerifyLoginChange)
	grp.Post("/close-account", protected, ctrl.CloseAccount)
	grp.Get("/google", ctrl.GoogleInitiate)
	grp.Get("/google/callback", ctrl.GoogleCallback)

	app.Get("/dashboard", protected, ctrl.Dashboard)
}

// ---------------------------------------------------------------- HTML forms

func (ctrl *Controller) Home(c *fiber.Ctx) error {
	return ctrl.render(c, "home", fiber.Map{"title": "Home"})
}

func (ctrl *Controller) LoginForm(c *fiber.Ctx) error {
	return ctrl.render(c, "login", fiber.Map{"title": "Log in"})
}

func (ctrl *Controller) RegisterForm(c *fiber.Ctx) error {
	return ctrl.render(c, "register", fiber.Map{"title": "Create an account"})
}

func (ctrl *Controller) ResetRequestForm(c *fiber.Ctx) error {
	return ctrl.render(c, "reset_password_request", fiber.Map{"title": "Reset your password"})
}

func (ctrl *Controller) ResetPasswordForm(c *fiber.Ctx) error {
	return ctrl.render(c, "reset_password", fiber.Map{
		"title": "Choose a new password",
		"key":   c.Query("key"),
	})
}

// ------------------------------------------------------------- registration

func (ctrl *Controller) CreateAccount(c *fiber.Ctx) error {
	payload := &RegisterPayload{}
	if err := c.BodyParser(payload); err != nil {
		return ctrl.fail(c, auth.ValidationError(map[string]any{"base": "could not parse request body"}), "/register")
	}

	if err := payload.Validate(); err != nil {
		return ctrl.fail(c, auth.ValidationError(auth.FormatValidationErrors(err)), "/register")
	}

	var resp *auth.CreateAccountResponse
	err := ctrl.createAccount.Execute(c.Context(), auth.CreateAccountMessage{
		Name:      payload.Name,
		Email:     payload.Email,
		Password:  payload.Password,
		UseHashid: ctrl.useHashid,
		OnResponse: func(r *auth.CreateAccountResponse) {
			resp = r
		},
	})
	if err != nil {
		return ctrl.fail(c, err, "/register")
	}

	ctrl.debugDump(resp)
	return respondSuccess(c, resp.Message, "/login")
}

func (ctrl *Controller) VerifyAccount(c *fiber.Ctx) error {
	key := c.Query("key")
	if key == "" {
		key = c.FormValue("key")
	}

	var resp *auth.VerifyAccountResponse
	err := ctrl.verifyAccount.Execute(c.Context(), auth.VerifyAccountMessage{
		Key: key,
		OnResponse: func(r *auth.VerifyAccountResponse) {
			resp = r
		},
	})
	if err != nil {
		return ctrl.fail(c, err, "/login")
	}

	// a just-verified visitor is logged straight in
	token, err := ctrl.tokens.Generate(auth.NewIdentity(resp.Account), false)
	if err != nil {
		ctrl.logger.Error("autologin token generation failed", "error", err)
		return respondSuccess(c, resp.Message, "/login")
	}

	ctrl.setSessionCookie(c, token, ctrl.cookieDuration)
	return respondSuccess(c, resp.Message, "/dashboard")
}

// ------------------------------------------------------------------ session

func (ctrl *Controller) Login(c *fiber.Ctx) error {
	payload := &LoginPayload{}
	if err := c.BodyParser(payload); err != nil {
		return ctrl.fail(c, auth.ValidationError(map[string]any{"base": "could not parse request body"}), "/login")
	}

	if err := payload.Validate(); err != nil {
		return ctrl.fail(c, auth.ValidationError(auth.FormatValidationErrors(err)), "/login")
	}

	token, err := ctrl.auther.Login(c.Context(), payload.Email, payload.Password, payload.Remember)
	if err != nil {
		ctrl.logger.Info("login rejected", "email", auth.NormalizeEmail(payload.Email))
		return ctrl.fail(c, err, "/login")
	}

	duration := ctrl.cookieDuration
	if payload.Remember {
		duration = ctrl.extendedCookieDuration
	}
	ctrl.setSessionCookie(c, token, duration)

	if wantsJSON(c) {
		return c.JSON(fiber.Map{"success": "You have been logged in", "token": token})
	}
	return c.Redirect(ctrl.popRejectedRoute(c), http.StatusSeeOther)
}

func (ctrl *Controller) Logout(c *fiber.Ctx) error {
	ctrl.clearCookie(c, ctrl.cfg.GetContextKey())

	if wantsJSON(c) {
		return c.JSON(fiber.Map{"success": "You have been logged out"})
	}
	return c.Redirect("/", http.StatusSeeOther)
}

// ----------------------------------------------------------- password reset

func (ctrl *Controller) ResetPasswordRequest(c *fiber.Ctx) error {
	payload := &ResetRequestPayload{}
	if err := c.BodyParser(payload); err != nil {
		return ctrl.fail(c, auth.ValidationError(map[string]any{"base": "could not parse request body"}), "/reset-password-request")
	}

	if err := payload.Validate(); err != nil {
		return ctrl.fail(c, auth.ValidationError(auth.FormatValidationErrors(err)), "/reset-password-request")
	}

	var resp *auth.InitializePasswordResetResponse
	err := ctrl.resetInitialize.Execute(c.Context(), auth.InitializePasswordResetMessage{
		Email: payload.Email,
		OnResponse: func(r *auth.InitializePasswordResetResponse) {
			resp = r
		},
	})
	if err != nil {
		return ctrl.fail(c, err, "/reset-password-request")
	}

	return respondSuccess(c, resp.Message, "/login")
}

func (ctrl *Controller) ResetPassword(c *fiber.Ctx) error {
	payload := &ResetPasswordPayload{}
	if err := c.BodyParser(payload); err != nil {
		return ctrl.fail(c, auth.ValidationError(map[string]any{"base": "could not parse request body"}), "/reset-password")
	}

	if err := payload.Validate(); err != nil {
		return ctrl.fail(c, auth.ValidationError(auth.FormatValidationErrors(err)), "/reset-password")
	}

	var resp *auth.FinalizePasswordResetResponse
	err := ctrl.resetFinalize.Execute(c.Context(), auth.FinalizePasswordResetMessage{
		Key:      payload.Key,
		Password: payload.Password,
		OnResponse: func(r *auth.FinalizePasswordResetResponse) {
			resp = r
		},
	})
	if err != nil {
		return ctrl.fail(c, err, "/reset-password")
	}

	return respondSuccess(c, resp.Message, "/login")
}

// ------------------------------------------------------- account management

func (ctrl *Controller) ChangePassword(c *fiber.Ctx) error {
	session, ok := SessionFrom(c, ctrl.cfg.GetContextKey())
	if !ok {
		return ctrl.fail(c, auth.ErrAuthenticationRequired, "/login")
	}
	accountID, err := session.GetAccountUUID()
	if err != nil {
		return ctrl.fail(c, auth.ErrAuthenticationRequired, "/login")
	}

	payload := &ChangePasswordPayload{}
	if err := c.BodyParser(payload); err != nil {
		return ctrl.fail(c, auth.ValidationError(map[string]any{"base": "could not parse request body"}), "/dashboard")
	}

	if err := payload.Validate(); err != nil {
		return ctrl.fail(c, auth.ValidationError(auth.FormatValidationErrors(err)), "/dashboard")
	}

	var resp *auth.ChangePasswordResponse
	err = ctrl.changePassword.Execute(c.Context(), auth.ChangePasswordMessage{
		AccountID:   accountID,
		Password:    payload.Password,
		NewPassword: payload.NewPassword,
		OnResponse: func(r *auth.ChangePasswordResponse) {
			resp = r
		},
	})
	if err != nil {
		return ctrl.fail(c, err, "/dashboard")
	}

	return respondSuccess(c, resp.Message, "/dashboard")
}

func (ctrl *Controller) ChangeLogin(c *fiber.Ctx) error {
	session, ok := SessionFrom(c, ctrl.cfg.GetContextKey())
	if !ok {
		return ctrl.fail(c, auth.ErrAuthenticationRequired, "/login")
	}
	accountID, err := session.GetAccountUUID()
	if err != nil {
		return ctrl.fail(c, auth.ErrAuthenticationRequired, "/login")
	}

	payload := &ChangeLoginPayload{}
	if err := c.BodyParser(payload); err != nil {
		return ctrl.fail(c, auth.ValidationError(map[string]any{"base": "could not parse request body"}), "/dashboard")
	}

	if err := payload.Validate(); err != nil {
		return ctrl.fail(c, auth.ValidationError(auth.FormatValidationErrors(err)), "/dashboard")
	}

	var resp *auth.ChangeLoginResponse
	err = ctrl.changeLogin.Execute(c.Context(), auth.ChangeLoginMessage{
		AccountID: accountID,
		Password:  payload.Password,
		NewEmail:  payload.NewEmail,
		OnResponse: func(r *auth.ChangeLoginResponse) {
			resp = r
		},
	})
	if err != nil {
		return ctrl.fail(c, err, "/dashboard")
	}

	return respondSuccess(c, resp.Message, "/dashboard")
}

func (ctrl *Controller) VerifyLoginChange(c *fiber.Ctx) error {
	key := c.Query("key")
	if key == "" {
		key = c.FormValue("key")
	}

	var resp *auth.VerifyLoginChangeResponse
	err := ctrl.verifyLoginChange.Execute(c.Context(), auth.VerifyLoginChangeMessage{
		Key: key,
		OnResponse: func(r *auth.VerifyLoginChangeResponse) {
			resp = r
		},
	})
	if err != nil {
		return ctrl.fail(c, err, "/login")
	}

	// tokens minted for the old email keep working; the subject claim is the
	// account id, not the address
	return respondSuccess(c, resp.Message, "/dashboard")
}

func (ctrl *Controller) CloseAccount(c *fiber.Ctx) error {
	session, ok := SessionFrom(c, ctrl.cfg.GetContextKey())
	if !ok {
		return ctrl.fail(c, auth.ErrAuthenticationRequired, "/login")
	}
	accountID, err := session.GetAccountUUID()
	if err != nil {
		return ctrl.fail(c, auth.ErrAuthenticationRequired, "/login")
	}

	payload := &CloseAccountPayload{}
	if err := c.BodyParser(payload); err != nil {
		return ctrl.fail(c, auth.ValidationError(map[string]any{"base": "could not parse request body"}), "/dashboard")
	}

	if err := payload.Validate(); err != nil {
		return ctrl.fail(c, auth.ValidationError(auth.FormatValidationErrors(err)), "/dashboard")
	}

	var resp *auth.CloseAccountResponse
	err = ctrl.closeAccount.Execute(c.Context(), auth.CloseAccountMessage{
		AccountID: accountID,
		Password:  payload.Password,
		OnResponse: func(r *auth.CloseAccountResponse) {
			resp = r
		},
	})
	if err != nil {
		return ctrl.fail(c, err, "/dashboard")
	}

	ctrl.clearCookie(c, ctrl.cfg.GetContextKey())
	return respondSuccess(c, resp.Message, "/")
}

// -------------------------------------------------------------- social login

func (ctrl *Controller) GoogleInitiate(c *fiber.Ctx) error {
	if ctrl.provider == nil {
		return ctrl.oauthFail(c, "social login is not enabled")
	}

	state, err := ctrl.states.Encode(&social.OAuthState{
		Provider:    ctrl.provider.Name(),
		RedirectURL: c.Query("redirect"),
	})
	if err != nil {
		ctrl.logger.Error("failed to encode OAuth state", "error", err)
		return ctrl.oauthFail(c, "could not start social login")
	}

	return c.Redirect(ctrl.provider.AuthCodeURL(state), http.StatusSeeOther)
}

// GoogleCallback finishes the provider round trip. Every expected failure
// lands back on the login page with a flash message; the route never answers
// with a server error page.
func (ctrl *Controller) GoogleCallback(c *fiber.Ctx) error {
	if ctrl.provider == nil {
		return ctrl.oauthFail(c, "social login is not enabled")
	}

	if errParam := c.Query("error"); errParam != "" {
		ctrl.logger.Info("provider reported an error", "error", errParam)
		return ctrl.oauthFail(c, "social login was cancelled")
	}

	state, err := ctrl.states.Decode(c.Query("state"))
	if err != nil {
		ctrl.logger.Info("OAuth state rejected", "error", err)
		return ctrl.oauthFail(c, "social login failed, please try again")
	}
	if state.Provider != ctrl.provider.Name() {
		return ctrl.oauthFail(c, "social login failed, please try again")
	}

	code := c.Query("code")
	if code == "" {
		return ctrl.oauthFail(c, "social login failed, please try again")
	}

	token, err := ctrl.provider.Exchange(c.Context(), code)
	if err != nil {
		ctrl.logger.Error("OAuth code exchange failed", "error", err)
		return ctrl.oauthFail(c, "social login failed, please try again")
	}

	profile, err := ctrl.provider.UserInfo(c.Context(), token)
	if err != nil {
		ctrl.logger.Error("OAuth userinfo failed", "error", err)
		return ctrl.oauthFail(c, "social login failed, please try again")
	}

	account, err := ctrl.provisioner.Resolve(c.Context(), profile)
	if err != nil {
		return ctrl.oauthFail(c, errorMessage(err))
	}

	sessionToken, err := ctrl.tokens.Generate(auth.NewIdentity(account), false)
	if err != nil {
		ctrl.logger.Error("session token generation failed after social login", "error", err)
		return ctrl.oauthFail(c, "social login failed, please try again")
	}

	ctrl.setSessionCookie(c, sessionToken, ctrl.cookieDuration)

	redirectTo := "/dashboard"
	if state.RedirectURL != "" {
		redirectTo = state.RedirectURL
	}
	return c.Redirect(redirectTo, http.StatusSeeOther)
}

// ---------------------------------------------------------------- dashboard

func (ctrl *Controller) Dashboard(c *fiber.Ctx) error {
	session, ok := SessionFrom(c, ctrl.cfg.GetContextKey())
	if !ok {
		return ctrl.fail(c, auth.ErrAuthenticationRequired, "/login")
	}

	identity, err := ctrl.auther.IdentityFromSession(c.Context(), session)
	if err != nil {
		// the account may have been closed since the token was minted
		ctrl.clearCookie(c, ctrl.cfg.GetContextKey())
		return ctrl.fail(c, auth.ErrAuthenticationRequired, "/login")
	}

	if wantsJSON(c) {
		return c.JSON(fiber.Map{
			"account": fiber.Map{
				"id":     identity.ID(),
				"name":   identity.Name(),
				"email":  identity.Email(),
				"status": identity.Status().String(),
			},
		})
	}

	return ctrl.render(c, "dashboard", fiber.Map{
		"title":   "Dashboard",
		"account": identity,
	})
}

// ------------------------------------------------------------------ helpers

func (ctrl *Controller) render(c *fiber.Ctx, view string, data fiber.Map) error {
	if flash := popFlash(c); flash != nil {
		data["flash"] = flash
	}
	return c.Render(view, data)
}

// fail negotiates an error response: JSON clients get a status plus an error
// body, browsers get a flash and a redirect.
func (ctrl *Controller) fail(c *fiber.Ctx, err error, redirectTo string) error {
	status := errorStatus(err)

	if status >= http.StatusInternalServerError {
		ctrl.logger.Error("request failed", "path", c.OriginalURL(), "error", err)
	} else {
		ctrl.logger.Info("request rejected", "path", c.OriginalURL(), "error", err)
	}

	if wantsJSON(c) {
		return c.Status(status).JSON(fiber.Map{"error": errorBody(err)})
	}

	setFlash(c, "error", errorMessage(err))
	return c.Redirect(redirectTo, http.StatusSeeOther)
}

func (ctrl *Controller) oauthFail(c *fiber.Ctx, message string) error {
	setFlash(c, "error", message)
	return c.Redirect("/login", http.StatusSeeOther)
}

func (ctrl *Controller) setSessionCookie(c *fiber.Ctx, token string, duration time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     ctrl.cfg.GetContextKey(),
		Value:    token,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})
}

func (ctrl *Controller) clearCookie(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * 24 * 365),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})
}

// popRejectedRoute returns the route the guard bounced the visitor from, or
// the configured default.
func (ctrl *Controller) popRejectedRoute(c *fiber.Ctx) string {
	key := ctrl.cfg.GetRejectedRouteKey()
	route := c.Cookies(key)
	if route == "" {
		return ctrl.cfg.GetRejectedRouteDefault()
	}
	ctrl.clearCookie(c, key)
	return route
}

func (ctrl *Controller) debugDump(v any) {
	if ctrl.Debug {
		ctrl.logger.Debug(print.MaybePrettyJSON(v))
	}
}
