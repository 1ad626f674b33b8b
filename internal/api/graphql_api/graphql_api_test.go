package graphql_api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"shipdesk/internal/apperr"
	"shipdesk/internal/loader"
	"shipdesk/internal/models"
	authsvc "shipdesk/internal/services/auth"
)

type fakeShipments struct {
	listActor  *models.User
	listFilter models.ShipmentFilter
	listPage   models.PageInput

	created models.ShipmentCreateInput

	shipment *models.Shipment
	page     *models.ShipmentPage
	err      error
}

func (f *fakeShipments) Create(ctx context.Context, actor *models.User, in models.ShipmentCreateInput, _ *loader.Loaders) (*models.Shipment, error) {
	if actor == nil {
		return nil, apperr.New(apperr.KindUnauthenticated, "authentication required")
	}
	f.created = in
	return f.shipment, f.err
}

func (f *fakeShipments) GetByID(ctx context.Context, actor *models.User, id uint64, _ *loader.Loaders) (*models.Shipment, error) {
	return f.shipment, f.err
}

func (f *fakeShipments) GetByTrackingNumber(ctx context.Context, tn string, _ *loader.Loaders) (*models.Shipment, error) {
	return f.shipment, f.err
}

func (f *fakeShipments) List(ctx context.Context, actor *models.User, filter models.ShipmentFilter, sort *models.ShipmentSort, page models.PageInput, _ *loader.Loaders) (*models.ShipmentPage, error) {
	if actor == nil {
		return nil, apperr.New(apperr.KindUnauthenticated, "authentication required")
	}
	f.listActor = actor
	f.listFilter = filter
	f.listPage = page
	return f.page, f.err
}

func (f *fakeShipments) Stats(ctx context.Context, actor *models.User) (*models.ShipmentStats, error) {
	return &models.ShipmentStats{Total: 1}, f.err
}

func (f *fakeShipments) Update(ctx context.Context, actor *models.User, id uint64, in models.ShipmentUpdateInput, _ *loader.Loaders) (*models.Shipment, error) {
	return f.shipment, f.err
}

func (f *fakeShipments) UpdateStatus(ctx context.Context, actor *models.User, id uint64, status string, _ *loader.Loaders) (*models.Shipment, error) {
	return f.shipment, f.err
}

func (f *fakeShipments) Flag(ctx context.Context, actor *models.User, id uint64, reason string, _ *loader.Loaders) (*models.Shipment, error) {
	return f.shipment, f.err
}

func (f *fakeShipments) Unflag(ctx context.Context, actor *models.User, id uint64, _ *loader.Loaders) (*models.Shipment, error) {
	return f.shipment, f.err
}

func (f *fakeShipments) Delete(ctx context.Context, actor *models.User, id uint64) (bool, error) {
	return true, f.err
}

type fakeAuth struct {
	user *models.User
}

func (f *fakeAuth) Register(ctx context.Context, in models.UserCreateInput) (*models.User, error) {
	return f.user, nil
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (*authsvc.TokenPair, error) {
	if password != "correct" {
		return nil, apperr.New(apperr.KindUnauthenticated, "invalid email or password")
	}
	return &authsvc.TokenPair{AccessToken: "access", RefreshToken: "refresh", User: f.user}, nil
}

func (f *fakeAuth) Refresh(ctx context.Context, token string) (*authsvc.TokenPair, error) {
	return &authsvc.TokenPair{AccessToken: "access2", RefreshToken: "refresh2", User: f.user}, nil
}

func (f *fakeAuth) Logout(ctx context.Context, token string) error { return nil }

func (f *fakeAuth) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "good" {
		return f.user, nil
	}
	return nil, apperr.New(apperr.KindUnauthenticated, "invalid or expired token")
}

type fakeLoaderSource struct{}

func (fakeLoaderSource) GetLocationsByIDs(ctx context.Context, ids []uint64) ([]*models.Location, error) {
	return nil, nil
}

func (fakeLoaderSource) GetUsersByIDs(ctx context.Context, ids []uint64) ([]*models.User, error) {
	return nil, nil
}

func testShipment() *models.Shipment {
	return &models.Shipment{
		ID:             42,
		TrackingNumber: "TN-42",
		ShipperName:    "Acme",
		ConsigneeName:  "Globex",
		CarrierName:    "FastFreight",
		Currency:       "USD",
		Status:         models.StatusPending,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
}

func testUser() *models.User {
	return &models.User{
		ID: 1, Email: "u@example.com", FirstName: "Ada", LastName: "Lovelace",
		Role: models.RoleAdmin, IsActive: true,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
}

type gqlResponse struct {
	Data   map[string]interface{} `json:"data"`
	Errors []struct {
		Message    string                 `json:"message"`
		Extensions map[string]interface{} `json:"extensions"`
	} `json:"errors"`
}

func newTestServer(t *testing.T, sh *fakeShipments) *httptest.Server {
	t.Helper()
	api, err := New(sh, &fakeAuth{user: testUser()}, fakeLoaderSource{})
	require.NoError(t, err)
	srv := httptest.NewServer(api.Router())
	t.Cleanup(srv.Close)
	return srv
}

func doGQL(t *testing.T, srv *httptest.Server, token, query string, vars map[string]interface{}) gqlResponse {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{"query": query, "variables": vars})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/graphql", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out gqlResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &fakeShipments{})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestShipments_RequiresAuth(t *testing.T) {
	srv := newTestServer(t, &fakeShipments{})

	out := doGQL(t, srv, "", `{ shipments { pageInfo { totalCount } } }`, nil)
	require.Len(t, out.Errors, 1)
	require.Equal(t, "UNAUTHENTICATED", out.Errors[0].Extensions["code"])
}

func TestShipments_BadTokenSurfacesAuthError(t *testing.T) {
	srv := newTestServer(t, &fakeShipments{})

	out := doGQL(t, srv, "expired", `{ shipments { pageInfo { totalCount } } }`, nil)
	require.Len(t, out.Errors, 1)
	require.Equal(t, "UNAUTHENTICATED", out.Errors[0].Extensions["code"])
}

func TestShipments_ListWithFilterAndPage(t *testing.T) {
	sh := &fakeShipments{
		page: &models.ShipmentPage{
			Items: []*models.Shipment{testShipment()},
			PageInfo: models.PageInfo{
				CurrentPage: 2, TotalPages: 3, TotalCount: 25,
				HasNextPage: true, HasPreviousPage: true,
			},
		},
	}
	srv := newTestServer(t, sh)

	out := doGQL(t, srv, "good", `
		query($filter: ShipmentFilterInput, $page: PageInput) {
			shipments(filter: $filter, page: $page) {
				items { id trackingNumber status }
				edges { cursor node { id } }
				pageInfo { currentPage totalPages totalCount hasNextPage hasPreviousPage }
			}
		}`,
		map[string]interface{}{
			"filter": map[string]interface{}{
				"status":     []interface{}{"PENDING", "IN_TRANSIT"},
				"searchTerm": "acme",
			},
			"page": map[string]interface{}{"page": 2, "limit": 10},
		})
	require.Empty(t, out.Errors)

	require.Equal(t, []string{"PENDING", "IN_TRANSIT"}, sh.listFilter.Status)
	require.Equal(t, "acme", *sh.listFilter.SearchTerm)
	require.Equal(t, 2, sh.listPage.Page)
	require.Equal(t, 10, sh.listPage.Limit)
	require.Equal(t, uint64(1), sh.listActor.ID)

	conn := out.Data["shipments"].(map[string]interface{})
	items := conn["items"].([]interface{})
	require.Len(t, items, 1)
	first := items[0].(map[string]interface{})
	require.Equal(t, "42", first["id"])
	require.Equal(t, "TN-42", first["trackingNumber"])
	require.Equal(t, "PENDING", first["status"])

	edges := conn["edges"].([]interface{})
	require.Len(t, edges, 1)
	require.Equal(t, shipmentCursor(42), edges[0].(map[string]interface{})["cursor"])

	pi := conn["pageInfo"].(map[string]interface{})
	require.Equal(t, float64(25), pi["totalCount"])
	require.Equal(t, true, pi["hasNextPage"])
}

func TestShipmentByTrackingNumber_Public(t *testing.T) {
	sh := &fakeShipments{shipment: testShipment()}
	srv := newTestServer(t, sh)

	out := doGQL(t, srv, "", `{ shipmentByTrackingNumber(trackingNumber: "TN-42") { trackingNumber } }`, nil)
	require.Empty(t, out.Errors)
	got := out.Data["shipmentByTrackingNumber"].(map[string]interface{})
	require.Equal(t, "TN-42", got["trackingNumber"])
}

func TestShipment_UnknownIDIsNull(t *testing.T) {
	srv := newTestServer(t, &fakeShipments{shipment: nil})

	out := doGQL(t, srv, "good", `{ shipment(id: "404") { id } }`, nil)
	require.Empty(t, out.Errors)
	require.Nil(t, out.Data["shipment"])
}

func TestCreateShipment_DecodesInput(t *testing.T) {
	sh := &fakeShipments{shipment: testShipment()}
	srv := newTestServer(t, sh)

	out := doGQL(t, srv, "good", `
		mutation($input: CreateShipmentInput!) {
			createShipment(input: $input) { id trackingNumber }
		}`,
		map[string]interface{}{
			"input": map[string]interface{}{
				"trackingNumber": "TN-42",
				"shipperName":    "Acme",
				"consigneeName":  "Globex",
				"carrierName":    "FastFreight",
				"rate":           120.5,
				"pickupLocation": map[string]interface{}{
					"address": "1 Dock Rd", "city": "Rotterdam", "country": "NL",
				},
				"deliveryLocation": map[string]interface{}{
					"address": "9 Market St", "city": "Hamburg", "country": "DE",
				},
				"dimensions": map[string]interface{}{"length": 1.0, "width": 2.0, "height": 3.0},
			},
		})
	require.Empty(t, out.Errors)

	require.Equal(t, "TN-42", sh.created.TrackingNumber)
	require.Equal(t, "Rotterdam", sh.created.PickupLocation.City)
	require.Equal(t, "Hamburg", sh.created.DeliveryLocation.City)
	require.NotNil(t, sh.created.Rate)
	require.Equal(t, 120.5, *sh.created.Rate)
	require.NotNil(t, sh.created.Dimensions)
	require.Equal(t, 2.0, sh.created.Dimensions.Width)
}

func TestCreateShipment_WithoutAuthFails(t *testing.T) {
	srv := newTestServer(t, &fakeShipments{shipment: testShipment()})

	out := doGQL(t, srv, "", `
		mutation {
			createShipment(input: {
				trackingNumber: "TN-1", shipperName: "A", consigneeName: "B", carrierName: "C",
				pickupLocation: {address: "a", city: "b", country: "c"},
				deliveryLocation: {address: "a", city: "b", country: "c"}
			}) { id }
		}`, nil)
	require.Len(t, out.Errors, 1)
	require.Equal(t, "UNAUTHENTICATED", out.Errors[0].Extensions["code"])
}

func TestLoginAndRefresh(t *testing.T) {
	srv := newTestServer(t, &fakeShipments{})

	out := doGQL(t, srv, "", `mutation { login(email: "u@example.com", password: "correct") { accessToken refreshToken user { email } } }`, nil)
	require.Empty(t, out.Errors)
	payload := out.Data["login"].(map[string]interface{})
	require.Equal(t, "access", payload["accessToken"])
	require.Equal(t, "refresh", payload["refreshToken"])
	require.Equal(t, "u@example.com", payload["user"].(map[string]interface{})["email"])

	out = doGQL(t, srv, "", `mutation { login(email: "u@example.com", password: "wrong") { accessToken } }`, nil)
	require.Len(t, out.Errors, 1)
	require.Equal(t, "UNAUTHENTICATED", out.Errors[0].Extensions["code"])

	out = doGQL(t, srv, "", `mutation { refreshToken(refreshToken: "refresh") { accessToken } }`, nil)
	require.Empty(t, out.Errors)
	require.Equal(t, "access2", out.Data["refreshToken"].(map[string]interface{})["accessToken"])

	out = doGQL(t, srv, "", `mutation { logout(refreshToken: "refresh2") }`, nil)
	require.Empty(t, out.Errors)
	require.Equal(t, true, out.Data["logout"])
}

func TestMe(t *testing.T) {
	srv := newTestServer(t, &fakeShipments{})

	out := doGQL(t, srv, "good", `{ me { email role } }`, nil)
	require.Empty(t, out.Errors)
	me := out.Data["me"].(map[string]interface{})
	require.Equal(t, "u@example.com", me["email"])
	require.Equal(t, "ADMIN", me["role"])

	out = doGQL(t, srv, "", `{ me { email } }`, nil)
	require.Len(t, out.Errors, 1)
	require.Equal(t, "UNAUTHENTICATED", out.Errors[0].Extensions["code"])
}

func TestUnknownErrorsAreMasked(t *testing.T) {
	sh := &fakeShipments{err: errors.New("pq: connection refused")}
	srv := newTestServer(t, sh)

	out := doGQL(t, srv, "good", `{ shipmentStats { total } }`, nil)
	require.Len(t, out.Errors, 1)
	require.Equal(t, "internal server error", out.Errors[0].Message)
	require.Equal(t, "INTERNAL", out.Errors[0].Extensions["code"])
}

func TestDeleteShipment(t *testing.T) {
	srv := newTestServer(t, &fakeShipments{})

	out := doGQL(t, srv, "good", `mutation { deleteShipment(id: "42") }`, nil)
	require.Empty(t, out.Errors)
	require.Equal(t, true, out.Data["deleteShipment"])
}
