package graphql_api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/graphql-go/graphql"
	"github.com/pkg/errors"

	"shipdesk/internal/apperr"
	"shipdesk/internal/loader"
	"shipdesk/internal/models"
	authsvc "shipdesk/internal/services/auth"
)

type ShipmentService interface {
	Create(ctx context.Context, actor *models.User, in models.ShipmentCreateInput, loaders *loader.Loaders) (*models.Shipment, error)
	GetByID(ctx context.Context, actor *models.User, id uint64, loaders *loader.Loaders) (*models.Shipment, error)
	GetByTrackingNumber(ctx context.Context, trackingNumber string, loaders *loader.Loaders) (*models.Shipment, error)
	List(ctx context.Context, actor *models.User, filter models.ShipmentFilter, sort *models.ShipmentSort, page models.PageInput, loaders *loader.Loaders) (*models.ShipmentPage, error)
	Stats(ctx context.Context, actor *models.User) (*models.ShipmentStats, error)
	Update(ctx context.Context, actor *models.User, id uint64, in models.ShipmentUpdateInput, loaders *loader.Loaders) (*models.Shipment, error)
	UpdateStatus(ctx context.Context, actor *models.User, id uint64, status string, loaders *loader.Loaders) (*models.Shipment, error)
	Flag(ctx context.Context, actor *models.User, id uint64, reason string, loaders *loader.Loaders) (*models.Shipment, error)
	Unflag(ctx context.Context, actor *models.User, id uint64, loaders *loader.Loaders) (*models.Shipment, error)
	Delete(ctx context.Context, actor *models.User, id uint64) (bool, error)
}

type AuthService interface {
	Register(ctx context.Context, in models.UserCreateInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*authsvc.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*authsvc.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

type GraphQLAPI struct {
	shipments ShipmentService
	auth      AuthService
	loaderSrc loader.Source

	schema graphql.Schema
}

func New(shipments ShipmentService, auth AuthService, loaderSrc loader.Source) (*GraphQLAPI, error) {
	a := &GraphQLAPI{
		shipments: shipments,
		auth:      auth,
		loaderSrc: loaderSrc,
	}
	schema, err := newSchema(a)
	if err != nil {
		return nil, errors.Wrap(err, "build schema")
	}
	a.schema = schema
	return a, nil
}

func (a *GraphQLAPI) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(a.authMiddleware)
		r.Use(a.loadersMiddleware)
		r.Post("/graphql", a.handleGraphQL)
	})

	return r
}

type ctxKey int

const (
	actorKey ctxKey = iota
	authErrKey
	loadersKey
)

// authMiddleware resolves the bearer token into a user. A missing header is
// fine (public operations); a present but bad token is remembered and raised
// only when a resolver actually requires authentication.
func (a *GraphQLAPI) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			ctx = context.WithValue(ctx, authErrKey,
				apperr.New(apperr.KindUnauthenticated, "malformed authorization header"))
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		u, err := a.auth.Authenticate(ctx, token)
		if err != nil {
			ctx = context.WithValue(ctx, authErrKey, err)
		} else {
			ctx = context.WithValue(ctx, actorKey, u)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loadersMiddleware gives each request its own relation loaders, so batching
// and memoization never leak between requests.
func (a *GraphQLAPI) loadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), loadersKey, loader.NewLoaders(a.loaderSrc))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// actor returns the authenticated user, nil when no credentials were sent,
// or the middleware's authentication error.
func actor(ctx context.Context) (*models.User, error) {
	if err, ok := ctx.Value(authErrKey).(error); ok {
		return nil, err
	}
	u, _ := ctx.Value(actorKey).(*models.User)
	return u, nil
}

// requireActor is actor plus "credentials must be present".
func requireActor(ctx context.Context) (*models.User, error) {
	u, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.New(apperr.KindUnauthenticated, "authentication required")
	}
	return u, nil
}

func loadersFrom(ctx context.Context) *loader.Loaders {
	l, _ := ctx.Value(loadersKey).(*loader.Loaders)
	return l
}

type gqlRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

func (a *GraphQLAPI) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	var req gqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result := graphql.Do(graphql.Params{
		Schema:         a.schema,
		RequestString:  req.Query,
		OperationName:  req.OperationName,
		VariableValues: req.Variables,
		Context:        r.Context(),
	})

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		slog.Error("write graphql response", "err", err)
	}
}

// resolve hides non-application errors behind a generic message. apperr
// values pass through and surface their kind as extensions.code.
func resolve(fn func(p graphql.ResolveParams) (interface{}, error)) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		v, err := fn(p)
		if err == nil {
			return v, nil
		}
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, ae
		}
		slog.Error("resolver failed", "field", p.Info.FieldName, "err", err)
		return nil, apperr.New(apperr.KindInternal, "internal server error")
	}
}
