package principal

import (
	"context"

	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/config"
	"github.com/sorriso/simplehybridchat/internal/model"
)

// UserRepo is the narrow slice of internal/account's repository that
// principal resolution needs. Kept as an interface here (rather than
// importing internal/account directly) so principal has no dependency
// on the account package's own docstore wiring.
type UserRepo interface {
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByID(ctx context.Context, id string) (model.User, error)
	CreateLocalUser(ctx context.Context, name, email, passwordHash string) (model.User, error)
	GetOrCreateSSOUser(ctx context.Context, name, email string) (model.User, error)
}

// Resolver resolves a request's Principal in exactly one configured
// auth mode; calling the inactive mode's method returns Forbidden per
// spec.md §4.4.
type Resolver struct {
	mode   config.AuthMode
	users  UserRepo
	tokens *TokenIssuer

	ssoTokenHeader string
	ssoNameHeader  string
	ssoEmailHeader string
}

// New returns a Resolver configured for exactly one auth mode.
func New(cfg config.Config, users UserRepo) *Resolver {
	return &Resolver{
		mode:           cfg.AuthMode,
		users:          users,
		tokens:         NewTokenIssuer(cfg.TokenSecret, cfg.TokenExpiry()),
		ssoTokenHeader: cfg.SSOTokenHeader,
		ssoNameHeader:  cfg.SSONameHeader,
		ssoEmailHeader: cfg.SSOEmailHeader,
	}
}

// Register provisions a new local-mode user and returns their
// Principal. Only valid when AuthMode is local.
func (r *Resolver) Register(ctx context.Context, name, email, clientDigest string) (model.Principal, error) {
	if r.mode != config.AuthLocal {
		return model.Principal{}, apperr.New(apperr.Forbidden, "registration is only available in local auth mode")
	}
	if err := ValidateClientDigest(clientDigest); err != nil {
		return model.Principal{}, err
	}
	hash, err := HashPassword(clientDigest)
	if err != nil {
		return model.Principal{}, err
	}
	user, err := r.users.CreateLocalUser(ctx, name, email, hash)
	if err != nil {
		return model.Principal{}, err
	}
	return toPrincipal(user), nil
}

// Login authenticates a local-mode user and issues a bearer token.
func (r *Resolver) Login(ctx context.Context, email, clientDigest string) (string, model.Principal, error) {
	if r.mode != config.AuthLocal {
		return "", model.Principal{}, apperr.New(apperr.Forbidden, "local login is only available in local auth mode")
	}
	user, err := r.users.FindByEmail(ctx, email)
	if err != nil {
		return "", model.Principal{}, apperr.New(apperr.Unauthorized, "invalid credentials")
	}
	if !VerifyPassword(user.PasswordHash, clientDigest) {
		return "", model.Principal{}, apperr.New(apperr.Unauthorized, "invalid credentials")
	}
	if user.Status == model.StatusDisabled {
		return "", model.Principal{}, apperr.New(apperr.Forbidden, "user is disabled")
	}

	token, err := r.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return "", model.Principal{}, err
	}
	return token, toPrincipal(user), nil
}

// ResolveLocal verifies a bearer token and looks up fresh group
// membership for the request.
func (r *Resolver) ResolveLocal(ctx context.Context, bearerToken string) (model.Principal, error) {
	if r.mode != config.AuthLocal && r.mode != config.AuthSSO {
		return model.Principal{}, apperr.New(apperr.Unauthorized, "authentication is disabled")
	}
	claims, err := r.tokens.Verify(bearerToken)
	if err != nil {
		return model.Principal{}, err
	}
	user, err := r.users.FindByID(ctx, claims.Subject)
	if err != nil {
		return model.Principal{}, apperr.New(apperr.Unauthorized, "principal no longer exists")
	}
	if user.Status == model.StatusDisabled {
		return model.Principal{}, apperr.New(apperr.Forbidden, "user is disabled")
	}
	return toPrincipal(user), nil
}

// ResolveSSO resolves a principal from the three configured trust
// headers, provisioning a new user on first contact for an unseen
// email. Per spec.md §4.4, this implementation additionally issues an
// internal bearer token so the HTTP boundary has one uniform
// Authorization contract regardless of auth mode; SSO headers remain
// authoritative and are re-validated on every request.
func (r *Resolver) ResolveSSO(ctx context.Context, tokenHeader, nameHeader, emailHeader string) (string, model.Principal, error) {
	if r.mode != config.AuthSSO {
		return "", model.Principal{}, apperr.New(apperr.Forbidden, "SSO is not the active auth mode")
	}
	if emailHeader == "" {
		return "", model.Principal{}, apperr.New(apperr.Unauthorized, "missing SSO email header")
	}
	// tokenHeader is logged but not validated — the trust boundary is
	// the upstream gateway (spec.md §4.4).

	user, err := r.users.GetOrCreateSSOUser(ctx, nameHeader, emailHeader)
	if err != nil {
		return "", model.Principal{}, err
	}
	if user.Status == model.StatusDisabled {
		return "", model.Principal{}, apperr.New(apperr.Forbidden, "user is disabled")
	}

	token, err := r.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return "", model.Principal{}, err
	}
	return token, toPrincipal(user), nil
}

func toPrincipal(u model.User) model.Principal {
	return model.Principal{ID: u.ID, Role: u.Role, GroupIDs: u.GroupIDs}
}
