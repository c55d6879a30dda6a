package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/config"
	"github.com/sorriso/simplehybridchat/internal/maintenance"
	"github.com/sorriso/simplehybridchat/internal/model"
	"github.com/sorriso/simplehybridchat/internal/principal"
)

type contextKey string

const principalContextKey contextKey = "principal"

// authenticate resolves the caller's Principal from the Authorization
// header (local/sso bearer token) or, in sso mode, the three trusted
// SSO headers, and stores it in the request context. Unauthenticated
// routes (register, login) are mounted outside this middleware's
// subrouter.
func authenticate(cfg config.Config, resolver *principal.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := resolveRequestPrincipal(r, cfg, resolver)
			if err != nil {
				writeErr(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), principalContextKey, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveRequestPrincipal(r *http.Request, cfg config.Config, resolver *principal.Resolver) (model.Principal, error) {
	if cfg.AuthMode == config.AuthSSO {
		tokenHeader := r.Header.Get(cfg.SSOTokenHeader)
		nameHeader := r.Header.Get(cfg.SSONameHeader)
		emailHeader := r.Header.Get(cfg.SSOEmailHeader)
		_, p, err := resolver.ResolveSSO(r.Context(), tokenHeader, nameHeader, emailHeader)
		return p, err
	}

	bearer := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if bearer == "" || bearer == r.Header.Get("Authorization") {
		return model.Principal{}, apperr.New(apperr.Unauthorized, "missing bearer token")
	}
	return resolver.ResolveLocal(r.Context(), bearer)
}

// principalFrom extracts the Principal authenticate placed in context.
// Only ever called by handlers mounted behind authenticate, so it never
// sees the zero value in practice.
func principalFrom(r *http.Request) model.Principal {
	p, _ := r.Context().Value(principalContextKey).(model.Principal)
	return p
}

// checkMaintenance rejects every non-root request with ServiceUnavailable
// while maintenance mode is active, per spec.md §4.4. It runs after
// authenticate so the caller's role is already known.
func checkMaintenance(flag *maintenance.Flag) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if flag.Enabled() && principalFrom(r).Role != model.RoleRoot {
				writeErr(w, apperr.New(apperr.ServiceUnavailable, flag.Message()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
