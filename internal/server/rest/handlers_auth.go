package rest

import (
	"errors"
	"net/http"
	"strings"

	"github.com/totymark/totymark/internal/common"
	"github.com/totymark/totymark/internal/server/auth"
	"github.com/totymark/totymark/internal/server/services"
)

// handleToken is the OAuth2 password-grant style login: form fields
// username and password in, bearer token out.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid form body")
		return
	}
	userName := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")

	if ok, wait := s.ipLimiter.allow(clientIP(r, s.opts.TrustProxyHeaders)); !ok {
		s.metrics.login(loginThrottled)
		tooMany(w, retryAfterSeconds(wait))
		return
	}
	if userName != "" {
		if ok, wait := s.userLimiter.allow(strings.ToLower(userName)); !ok {
			s.metrics.login(loginThrottled)
			s.logger.Warn(r.Context(), "login throttled", "username", userName)
			tooMany(w, retryAfterSeconds(wait))
			return
		}
	}

	if userName == "" || password == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "username and password are required")
		return
	}

	tok, err := s.users.Login(r.Context(), userName, password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			s.metrics.login(loginRejected)
		} else {
			s.metrics.login(loginError)
		}
		s.writeError(w, r, err)
		return
	}
	s.metrics.login(loginSuccess)

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, tokenResponse{
		AccessToken: tok.Token,
		TokenType:   common.TokenType,
		ExpiresIn:   int64(tok.ExpiresIn.Seconds()),
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	u, err := s.users.Register(r.Context(), services.RegisterInput{
		UserName: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, toUserResponse(u))
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFromContext(r.Context())

	u, err := s.users.Profile(r.Context(), p.UserName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			unauthorized(w)
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, toUserResponse(u))
}
