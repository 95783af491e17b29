package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"DeliveryStore/pkg/kit"
)

const minPasswordLen = 8

type Server struct {
	Log   *zap.Logger
	Store CustomerStore
	JWT   *TokenMaker
}

type registerReq struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// validate trims the fields and reports the first problem in form order.
func (req *registerReq) validate() (string, any) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)

	switch {
	case req.Name == "":
		return "name required", nil
	case req.Email == "":
		return "email required", nil
	case req.Phone == "":
		return "phone required", nil
	case normalizePassword(req.Password) == "":
		return "password required", nil
	case req.Password != req.ConfirmPassword:
		return "passwords do not match", nil
	case len(normalizePassword(req.Password)) < minPasswordLen:
		return "password too short", map[string]any{"min_len": minPasswordLen}
	}
	return "", nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if msg, details := req.validate(); msg != "" {
		kit.WriteError(w, r, http.StatusBadRequest, msg, details)
		return
	}

	c := Customer{
		ID:    "u_" + uuid.NewString(),
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Role:  RoleCustomer,
	}
	if err := s.Store.Create(r.Context(), c, req.Password); err != nil {
		if errors.Is(err, ErrEmailExists) {
			kit.WriteError(w, r, http.StatusConflict, err.Error(), nil)
			return
		}
		s.Log.Error("create customer", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusCreated, map[string]any{"user_id": c.ID})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResp struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	if normalizeEmail(req.Email) == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "email required", nil)
		return
	}
	if normalizePassword(req.Password) == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "password required", nil)
		return
	}

	c, err := s.Store.Verify(r.Context(), req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			s.Log.Error("verify customer", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	tok, err := s.JWT.New(c, AccessTTL)
	if err != nil {
		s.Log.Error("token issue", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, loginResp{AccessToken: tok, ExpiresIn: int(AccessTTL.Seconds())})
}

func (s *Server) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	tok, ok := kit.BearerToken(r)
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
		return
	}

	claims, err := s.JWT.Parse(tok)
	if err != nil {
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, map[string]any{
		"user_id": claims.UserID,
		"email":   claims.Email,
		"role":    claims.Role,
	})
}
