package server

import "net/http"

type registerRequest struct {
	Name               string `json:"name"`
	Email              string `json:"email"`
	PasswordHashClient string `json:"password_hash_client"`
}

type loginRequest struct {
	Email              string `json:"email"`
	PasswordHashClient string `json:"password_hash_client"`
}

type authResponse struct {
	Token string `json:"token,omitempty"`
	User  struct {
		ID       string   `json:"id"`
		Name     string   `json:"name"`
		Email    string   `json:"email"`
		Role     string   `json:"role"`
		GroupIDs []string `json:"group_ids"`
	} `json:"user"`
}

func toAuthResponse(token string, id string, name, email, role string, groupIDs []string) authResponse {
	resp := authResponse{Token: token}
	resp.User.ID = id
	resp.User.Name = name
	resp.User.Email = email
	resp.User.Role = role
	resp.User.GroupIDs = groupIDs
	return resp
}

// register handles local-mode registration. Not behind authenticate:
// the caller has no Principal yet.
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	p, err := s.resolver.Register(r.Context(), req.Name, req.Email, req.PasswordHashClient)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAuthResponse("", p.ID, req.Name, req.Email, string(p.Role), p.GroupIDs))
}

// login handles local-mode login, issuing a bearer token.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	token, p, err := s.resolver.Login(r.Context(), req.Email, req.PasswordHashClient)
	if err != nil {
		writeErr(w, err)
		return
	}
	user, err := s.accounts.FindByID(r.Context(), p.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuthResponse(token, p.ID, user.Name, user.Email, string(p.Role), p.GroupIDs))
}

// ssoLogin resolves a principal from the trusted SSO headers and
// issues an internal token (see internal/principal.Resolver.ResolveSSO's
// doc comment on the §9 open question this resolves). Per spec.md §9,
// the source's own sso login returns no token; this deployment adds one.
func (s *Server) ssoLogin(w http.ResponseWriter, r *http.Request) {
	token, p, err := s.resolver.ResolveSSO(r.Context(),
		r.Header.Get(s.cfg.SSOTokenHeader),
		r.Header.Get(s.cfg.SSONameHeader),
		r.Header.Get(s.cfg.SSOEmailHeader))
	if err != nil {
		writeErr(w, err)
		return
	}
	user, err := s.accounts.FindByID(r.Context(), p.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuthResponse(token, p.ID, user.Name, user.Email, string(p.Role), p.GroupIDs))
}
