// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fedeportal Contributors

package web

import (
	"net"
	"net/http"

	"github.com/fedeportal/fedeportal/internal/auth"
	"github.com/fedeportal/fedeportal/pkg/errutil"
)

// loginView is the template data for the login page.
type loginView struct {
	Error  string
	Notice string
}

// registerView is the template data for the registration page.
type registerView struct {
	Error   string
	Cantons []string
	Input   auth.RegistrationInput
}

// portalView is the template data for the landing page.
type portalView struct {
	DisplayName string
}

// User-facing messages. Every failure kind maps to a distinct, specific
// message except invalid credentials, which stays deliberately generic so
// usernames cannot be probed from the login form.
var errorMessages = map[string]string{
	"AUTH_INVALID_CREDENTIALS":   "Usuario o contraseña incorrectos",
	"AUTH_ACCOUNT_LOCKED":        "La cuenta está temporalmente bloqueada, intente más tarde",
	"ADMIN_ALREADY_EXISTS":       "Ya existe una cuenta de administrador",
	"AUTH_PASSWORD_MISMATCH":     "Las contraseñas no coinciden",
	"AUTH_MISSING_FIELD":         "Complete todos los campos obligatorios",
	"AUTH_INVALID_CANTON":        "Seleccione un cantón válido",
	"AUTH_INVALID_USERNAME":      "El nombre de usuario no es válido",
	"AUTH_INVALID_NATIONAL_ID":   "El número de cédula debe tener 10 dígitos",
	"AUTH_DUPLICATE_USERNAME":    "El nombre de usuario ya está registrado",
	"AUTH_DUPLICATE_EMAIL":       "El correo electrónico ya está registrado",
	"AUTH_DUPLICATE_NATIONAL_ID": "El número de cédula ya está registrado",
}

const fallbackMessage = "No se pudo completar la operación, intente nuevamente"

// fieldLabels maps registration field names to their form labels, used to
// name the offending field in the missing-field message.
var fieldLabels = map[string]string{
	"first_names": "nombres",
	"last_names":  "apellidos",
	"national_id": "número de cédula",
	"institution": "institución deportiva",
	"canton":      "cantón",
	"email":       "correo electrónico",
	"username":    "nombre de usuario",
	"password":    "contraseña",
}

// userMessage translates a service error into its form message.
func userMessage(err error) string {
	code := errutil.Code(err)
	if code == "AUTH_MISSING_FIELD" {
		if label, ok := fieldLabels[errutil.ContextValue(err, "field")]; ok {
			return "Complete el campo " + label
		}
	}
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return fallbackMessage
}

// handleLoginPage renders the login form. An already-authenticated visitor
// goes straight to the portal.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if s.sessionFromRequest(r) != nil {
		http.Redirect(w, r, "/portal", http.StatusSeeOther)
		return
	}

	view := loginView{}
	if r.URL.Query().Get("registered") == "1" {
		view.Notice = "Registro exitoso, inicie sesión"
	}
	s.render(w, "login.html", view)
}

// handleLogin processes a login form submission.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	_, token, err := s.auth.Login(r.Context(), username, password, r.UserAgent(), remoteIP(r))
	if err != nil {
		s.recordLogin(errutil.Code(err))
		errutil.LogError(s.logger, "login failed", err)
		s.render(w, "login.html", loginView{Error: userMessage(err)})
		return
	}

	s.recordLogin("")
	s.setSessionCookie(w, token)
	http.Redirect(w, r, "/portal", http.StatusSeeOther)
}

// handleRegisterPage renders the registration form.
func (s *Server) handleRegisterPage(w http.ResponseWriter, _ *http.Request) {
	s.render(w, "register.html", registerView{Cantons: auth.Cantons()})
}

// handleRegister processes a registration form submission.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	input := auth.RegistrationInput{
		FirstNames:      r.PostFormValue("first_names"),
		LastNames:       r.PostFormValue("last_names"),
		NationalID:      r.PostFormValue("national_id"),
		Institution:     r.PostFormValue("institution"),
		Canton:          r.PostFormValue("canton"),
		Email:           r.PostFormValue("email"),
		RecoveryEmail:   r.PostFormValue("recovery_email"),
		Username:        r.PostFormValue("username"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
		Role:            auth.Role(r.PostFormValue("role")),
	}

	if _, err := s.registration.Register(r.Context(), input); err != nil {
		s.recordRegistration(errutil.Code(err))
		errutil.LogError(s.logger, "registration failed", err)

		// Never echo passwords back into the form
		input.Password = ""
		input.ConfirmPassword = ""
		s.render(w, "register.html", registerView{
			Error:   userMessage(err),
			Cantons: auth.Cantons(),
			Input:   input,
		})
		return
	}

	s.recordRegistration("")
	http.Redirect(w, r, "/?registered=1", http.StatusSeeOther)
}

// handlePortal renders the session-gated landing page.
func (s *Server) handlePortal(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	s.render(w, "portal.html", portalView{DisplayName: session.DisplayName})
}

// handleLogout invalidates the current session and clears the cookie.
// Logging out without a session is fine; the redirect is the same.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if session := s.sessionFromRequest(r); session != nil {
		if err := s.auth.Logout(r.Context(), session.ID); err != nil {
			errutil.LogError(s.logger, "logout failed", err)
		}
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// recordLogin bumps the login metric. code is empty on success.
func (s *Server) recordLogin(code string) {
	if s.metrics == nil {
		return
	}
	outcome := "success"
	switch code {
	case "":
	case "AUTH_INVALID_CREDENTIALS":
		outcome = "invalid"
	case "AUTH_ACCOUNT_LOCKED":
		outcome = "locked"
	default:
		outcome = "error"
	}
	s.metrics.LoginsTotal.WithLabelValues(outcome).Inc()
}

// recordRegistration bumps the registration metric. code is empty on success.
func (s *Server) recordRegistration(code string) {
	if s.metrics == nil {
		return
	}
	outcome := "success"
	switch code {
	case "":
	case "AUTH_REGISTER_FAILED":
		outcome = "error"
	default:
		outcome = "rejected"
	}
	s.metrics.RegistrationsTotal.WithLabelValues(outcome).Inc()
}

// remoteIP extracts the client address without the port.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
