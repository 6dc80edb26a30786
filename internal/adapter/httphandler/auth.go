package httphandler

import (
	"log/slog"
	"net/http"

	"github.com/niksmo/e-label/internal/core/domain"
	"github.com/niksmo/e-label/internal/core/port"
)

type AuthHandler struct {
	idp port.IdentityProvider
}

func RegisterAuth(mux *http.ServeMux, idp port.IdentityProvider) {
	h := AuthHandler{idp}

	mux.Handle("POST /v1/auth/register", chain(h.Register, AllowJSON))
	mux.Handle("POST /v1/auth/login", chain(h.Login, AllowJSON))
	mux.HandleFunc("POST /v1/auth/logout", h.Logout)
	mux.Handle("GET /v1/auth/me", chain(h.Me, RequireAuth(idp)))
}

func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	const op = "AuthHandler.Register"
	log := slog.With("op", op)

	var c Credentials
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, log, err)
		return
	}

	principal, err := h.idp.Register(r.Context(), c.Email, c.Password, c.Name)
	if err != nil {
		writeError(w, log, err)
		return
	}

	h.writeSession(w, log, http.StatusCreated, principal)
}

func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	const op = "AuthHandler.Login"
	log := slog.With("op", op)

	var c Credentials
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, log, err)
		return
	}

	principal, err := h.idp.VerifyCredentials(r.Context(), c.Email, c.Password)
	if err != nil {
		writeError(w, log, err)
		return
	}

	h.writeSession(w, log, http.StatusOK, principal)
}

// Logout is a no-op for stateless tokens; the client drops its token.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	const op = "AuthHandler.Logout"
	writeMessage(w, slog.With("op", op), "Logged out")
}

func (h AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	const op = "AuthHandler.Me"
	log := slog.With("op", op)

	principal, ok := PrincipalFrom(r.Context())
	if !ok {
		writeError(w, log, domain.ErrUnauthenticated)
		return
	}
	writeData(w, log, http.StatusOK, userFromPrincipal(principal))
}

func (h AuthHandler) writeSession(
	w http.ResponseWriter, log *slog.Logger, status int, p domain.Principal,
) {
	token, expiresAt, err := h.idp.IssueToken(p)
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeData(w, log, status, AuthResult{
		User: userFromPrincipal(p),
		Session: Session{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresAt:   expiresAt,
		},
	})
}
