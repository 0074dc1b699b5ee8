package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/kickfinderz-backend/api/responses"
	"github.com/angelmondragon/kickfinderz-backend/internal/identity"
	pkgAuth "github.com/angelmondragon/kickfinderz-backend/pkg/auth"
	"github.com/angelmondragon/kickfinderz-backend/pkg/auth/session"
	"github.com/angelmondragon/kickfinderz-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/kickfinderz-backend/pkg/errors"
	"github.com/angelmondragon/kickfinderz-backend/pkg/logger"
	"github.com/google/uuid"
)

// GuestTokenHeader carries the browser-held token that scopes a guest cart.
const GuestTokenHeader = "X-Guest-Token"

const maxGuestTokenLen = 128

// Auth validates a bearer token and seeds the request context with the
// signed-in identity. Requests without a token are rejected.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			ctx, err := authenticate(r.Context(), cfg, verifier, logg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth resolves whoever is shopping: a bearer token wins, then the
// guest token header. A request with neither is issued a fresh guest token,
// echoed in the GuestTokenHeader response header, so every browser owns its
// own cart. A bearer token that is present but invalid is still rejected.
func OptionalAuth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if token := bearerToken(r); token != "" {
				authed, err := authenticate(ctx, cfg, verifier, logg, token)
				if err != nil {
					responses.WriteError(ctx, logg, w, err)
					return
				}
				next.ServeHTTP(w, r.WithContext(authed))
				return
			}

			guest := strings.TrimSpace(r.Header.Get(GuestTokenHeader))
			if len(guest) > maxGuestTokenLen {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "guest token too long"))
				return
			}
			if guest == "" {
				guest = uuid.NewString()
			}
			w.Header().Set(GuestTokenHeader, guest)
			next.ServeHTTP(w, r.WithContext(identity.WithContext(ctx, identity.Guest(guest))))
		})
	}
}

func authenticate(ctx context.Context, cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger, token string) (context.Context, error) {
	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}
	if verifier != nil {
		ok, err := verifier.HasSession(ctx, claims.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable")
		}
	}

	ctx = WithUserID(ctx, claims.UserID.String())
	ctx = WithRole(ctx, claims.Role)
	ctx = context.WithValue(ctx, ctxToken, token)
	ctx = identity.WithContext(ctx, identity.User(claims.UserID, claims.Email))
	if logg != nil {
		ctx = logg.WithUserID(ctx, claims.UserID.String())
		ctx = logg.WithActorRole(ctx, string(claims.Role))
	}
	return ctx, nil
}

func bearerToken(r *http.Request) string {
	token := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
