// Package session attaches exactly one open database handle to each inbound
// request and guarantees its release exactly once, no matter how the request
// ends.
package session

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"vimusic-server/internal/contextutil"
	"vimusic-server/internal/httpx"
	"vimusic-server/internal/identity"
	"vimusic-server/internal/provision"
	"vimusic-server/internal/storage"
)

// ErrDatabaseUnavailable is returned when neither the requested identity's
// database nor the guest fallback could be opened.
var ErrDatabaseUnavailable = errors.New("database unavailable")

type contextKey string

const (
	dbKey       contextKey = "session.db"
	identityKey contextKey = "session.identity"
)

// DB returns the database handle the middleware attached to this request, or
// nil outside the middleware (lifecycle routes manage their own handles).
func DB(ctx context.Context) *sql.DB {
	db, _ := ctx.Value(dbKey).(*sql.DB)
	return db
}

// Identity returns the identity the request's handle was resolved for. This is
// the effective identity: a request degraded to the guest fallback reports
// guest, not the identity that failed.
func Identity(ctx context.Context) string {
	id, _ := ctx.Value(identityKey).(string)
	return id
}

// Middleware opens a per-request database handle resolved from the identity
// header.
type Middleware struct {
	prov *provision.Provisioner
}

// NewMiddleware creates the session middleware.
func NewMiddleware(prov *provision.Provisioner) *Middleware {
	return &Middleware{prov: prov}
}

// Attach is the chi middleware. Per request it derives the identity from the
// header, opens that identity's database read-write (must exist), and attaches
// the handle to the request context. The deferred close runs on every exit
// path, including panics and client disconnects, and close failures are logged
// rather than surfaced since the response is already determined.
//
// A non-guest identity whose file is missing or unopenable degrades to the
// guest database (one fallback hop); if the guest database itself cannot be
// opened the request fails with 500.
func (m *Middleware) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := contextutil.LoggerFromContext(ctx)

		id := identity.FromHeader(r.Header.Get(identity.Header))

		db, effective, err := m.open(id)
		if err != nil {
			logger.ErrorContext(ctx, "database connection failed", "identity", id, "error", err)
			httpx.Error(w, http.StatusInternalServerError, "database connection failed")
			return
		}
		defer func() {
			if cerr := db.Close(); cerr != nil {
				logger.ErrorContext(ctx, "failed to close database handle",
					"identity", effective, "error", cerr)
			}
		}()

		if effective != id {
			logger.WarnContext(ctx, "serving request against guest database",
				"identity", id)
		}

		ctx = context.WithValue(ctx, dbKey, db)
		ctx = context.WithValue(ctx, identityKey, effective)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// open resolves and opens the handle with a depth bound of one fallback hop.
func (m *Middleware) open(id string) (*sql.DB, string, error) {
	db, err := storage.Open(m.prov.ResolvePath(id))
	if err == nil {
		return db, id, nil
	}
	if identity.IsGuest(id) {
		return nil, "", errors.Join(ErrDatabaseUnavailable, err)
	}

	db, gerr := storage.Open(m.prov.GuestPath())
	if gerr != nil {
		return nil, "", errors.Join(ErrDatabaseUnavailable, err, gerr)
	}
	return db, identity.Guest, nil
}
