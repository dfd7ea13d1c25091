package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/utafrali/StayGo/pkg/errors"
	"github.com/utafrali/StayGo/pkg/httputil"
	"github.com/utafrali/StayGo/pkg/middleware"
)

// Route is a method and chi path pattern, e.g. GET /api/v1/rooms/{id}.
type Route struct {
	Method  string
	Pattern string
}

// Gate authenticates every request that is not on the public route table.
// Requests with an expired access token are refreshed transparently from
// the refresh cookie while the backing session is alive.
type Gate struct {
	issuer    *TokenIssuer
	refresher *Refresher
	cookies   Cookies
	logger    *slog.Logger
	public    *chi.Mux
}

// NewGate builds a gate. public lists the routes reachable without
// authentication; OPTIONS requests are always public.
func NewGate(issuer *TokenIssuer, refresher *Refresher, cookies Cookies, public []Route, logger *slog.Logger) *Gate {
	mux := chi.NewRouter()
	noop := func(http.ResponseWriter, *http.Request) {}
	for _, rt := range public {
		mux.MethodFunc(rt.Method, rt.Pattern, noop)
	}
	return &Gate{
		issuer:    issuer,
		refresher: refresher,
		cookies:   cookies,
		logger:    logger,
		public:    mux,
	}
}

// IsPublic reports whether method and path match the public route table.
func (g *Gate) IsPublic(method, path string) bool {
	if method == http.MethodOptions {
		return true
	}
	return g.public.Match(chi.NewRouteContext(), method, path)
}

// Middleware is the chi middleware form of the gate.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.IsPublic(r.Method, r.URL.Path) {
			// Personalise public pages when a live access token is present,
			// but never refresh or reject here.
			if claims, err := g.issuer.ParseAccess(AccessToken(r)); err == nil {
				r = r.WithContext(middleware.WithClaims(r.Context(), claims.RequestClaims()))
			}
			next.ServeHTTP(w, r)
			return
		}

		claims, err := g.authenticate(w, r)
		if err != nil {
			g.reject(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(middleware.WithClaims(r.Context(), claims.RequestClaims())))
	})
}

func (g *Gate) authenticate(w http.ResponseWriter, r *http.Request) (*Claims, error) {
	access, refresh := AccessToken(r), RefreshToken(r)

	// Browsers drop the access cookie once its Max-Age passes, so a missing
	// access token next to a refresh cookie is treated like an expired one.
	if access != "" || refresh == "" {
		claims, err := g.issuer.ParseAccess(access)
		if err == nil {
			return claims, nil
		}
		if !errors.Is(err, ErrTokenExpired) {
			return nil, err
		}
	}

	refreshed, err := g.refresher.Refresh(r.Context(), refresh)
	if err != nil {
		return nil, err
	}
	g.cookies.Set(w, refreshed.Pair)
	return refreshed.Claims, nil
}

func (g *Gate) reject(w http.ResponseWriter, r *http.Request, err error) {
	level := slog.LevelDebug
	if !errors.Is(err, ErrTokenInvalid) && !errors.Is(err, ErrTokenExpired) && !errors.Is(err, ErrSessionRevoked) {
		level = slog.LevelWarn
	}
	g.logger.Log(r.Context(), level, "request rejected by auth gate",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), g.logger)
}
