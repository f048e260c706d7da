package transit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yourorg/subwaymap/internal/cache"
	"github.com/yourorg/subwaymap/internal/mbta"
)

// Payloads mínimos con la forma JSON:API del API v3 de la MBTA

const linesBody = `{
  "data": [
    {"id": "line-Red", "type": "line", "attributes": {"color": "DA291C"}},
    {"id": "line-Mattapan", "type": "line", "attributes": {"color": "DA291C"}},
    {"id": "line-Orange", "type": "line", "attributes": {"color": "ED8B00"}},
    {"id": "line-CR-Fairmount", "type": "line", "attributes": {"color": "80276C"}},
    {"id": "line-Green", "type": "line", "attributes": {"color": "00843D"}},
    {"id": "line-Blue", "type": "line", "attributes": {"color": "003DA5"}}
  ]
}`

const routesBody = `{
  "data": [
    {"id": "Red", "type": "route", "attributes": {"long_name": "Red Line"}, "relationships": {"line": {"data": {"id": "line-Red", "type": "line"}}}},
    {"id": "Mattapan", "type": "route", "attributes": {"long_name": "Mattapan Trolley"}, "relationships": {"line": {"data": {"id": "line-Mattapan", "type": "line"}}}},
    {"id": "Orange", "type": "route", "attributes": {"long_name": "Orange Line"}, "relationships": {"line": {"data": {"id": "line-Orange", "type": "line"}}}}
  ],
  "included": [
    {"id": "line-Red", "type": "line"},
    {"id": "line-Mattapan", "type": "line"},
    {"id": "line-Orange", "type": "line"}
  ]
}`

const stopsBody = `{
  "data": [
    {"id": "place-alfcl", "type": "stop", "attributes": {"name": "Alewife"}},
    {"id": "place-davis", "type": "stop", "attributes": {"name": "Davis"}}
  ]
}`

const alertsBody = `{
  "data": [
    {"id": "a-minor", "type": "alert", "attributes": {"severity": 3}},
    {"id": "a-major", "type": "alert", "attributes": {"severity": 7}},
    {"id": "a-mid", "type": "alert", "attributes": {"severity": 5}},
    {"id": "a-mid-later", "type": "alert", "attributes": {"severity": 5}}
  ]
}`

// newTestService levanta un API MBTA falso y arma el servicio contra él
func newTestService(t *testing.T, handler http.Handler) (*Service, *cache.SnapshotStore) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("MBTA_BASE_URL", srv.URL)
	t.Setenv("MBTA_API_KEY", "")

	store, err := cache.NewSnapshotStore(t.TempDir(), time.Hour, nil)
	if err != nil {
		t.Fatalf("NewSnapshotStore: %v", err)
	}
	return NewService(mbta.NewClient(nil), store), store
}

func TestGetSubwayLinesFiltersAndCaches(t *testing.T) {
	var calls int32
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lines" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, linesBody)
	}))

	lines, err := svc.GetSubwayLines(context.Background())
	if err != nil {
		t.Fatalf("GetSubwayLines: %v", err)
	}

	// Solo las 4 líneas de metro, en el orden del API
	want := []string{"line-Red", "line-Orange", "line-Green", "line-Blue"}
	if len(lines) != len(want) {
		t.Fatalf("Expected %d lines, got %d", len(want), len(lines))
	}
	for i, id := range want {
		if lines[i].ID != id {
			t.Errorf("Expected %s at position %d, got %s", id, i, lines[i].ID)
		}
	}

	// Segunda llamada servida por el caché
	if _, err := svc.GetSubwayLines(context.Background()); err != nil {
		t.Fatalf("GetSubwayLines cached: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Expected 1 upstream call, got %d", got)
	}
}

func TestGetAllSubwayRoutesFoldsMattapan(t *testing.T) {
	var calls int32
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/routes" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("filter[type]"); got != "0,1" {
			t.Errorf("Expected filter[type]=0,1, got %q", got)
		}
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, routesBody)
	}))

	env, err := svc.GetAllSubwayRoutes(context.Background())
	if err != nil {
		t.Fatalf("GetAllSubwayRoutes: %v", err)
	}

	// Mattapan va al final, reasignada a la Red Line
	wantOrder := []string{"Red", "Orange", "Mattapan"}
	if len(env.Data) != len(wantOrder) {
		t.Fatalf("Expected %d routes, got %d", len(wantOrder), len(env.Data))
	}
	for i, id := range wantOrder {
		if env.Data[i].ID != id {
			t.Errorf("Expected %s at position %d, got %s", id, i, env.Data[i].ID)
		}
	}
	if got := env.Data[2].LineID(); got != "line-Red" {
		t.Errorf("Expected Mattapan under line-Red, got %q", got)
	}

	// La línea Mattapan desaparece del included
	for _, line := range env.Included {
		if line.ID == "line-Mattapan" {
			t.Error("Expected line-Mattapan to be dropped from included")
		}
	}
	if len(env.Included) != 2 {
		t.Errorf("Expected 2 included lines, got %d", len(env.Included))
	}

	// Segunda llamada servida por el caché
	if _, err := svc.GetAllSubwayRoutes(context.Background()); err != nil {
		t.Fatalf("GetAllSubwayRoutes cached: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Expected 1 upstream call, got %d", got)
	}
}

func TestGetRoutesForLine(t *testing.T) {
	var calls int32
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, routesBody)
	}))

	red, err := svc.GetRoutesForLine(context.Background(), "line-Red")
	if err != nil {
		t.Fatalf("GetRoutesForLine: %v", err)
	}
	if len(red.Data) != 2 || red.Data[0].ID != "Red" || red.Data[1].ID != "Mattapan" {
		t.Fatalf("Expected [Red Mattapan], got %v", routeIDsOf(red.Data))
	}
	if got := red.Data[1].LineID(); got != "line-Red" {
		t.Errorf("Expected Mattapan re-pointed to line-Red, got %q", got)
	}

	orange, err := svc.GetRoutesForLine(context.Background(), "line-Orange")
	if err != nil {
		t.Fatalf("GetRoutesForLine: %v", err)
	}
	if len(orange.Data) != 1 || orange.Data[0].ID != "Orange" {
		t.Errorf("Expected [Orange], got %v", routeIDsOf(orange.Data))
	}

	unknown, err := svc.GetRoutesForLine(context.Background(), "line-Nope")
	if err != nil {
		t.Fatalf("GetRoutesForLine: %v", err)
	}
	if len(unknown.Data) != 0 {
		t.Errorf("Expected no routes, got %v", routeIDsOf(unknown.Data))
	}

	// Sin caché: cada llamada va upstream
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("Expected 3 upstream calls, got %d", got)
	}
}

func routeIDsOf(routes []mbta.Resource) []string {
	ids := make([]string, 0, len(routes))
	for _, r := range routes {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestGetStopsForRoute(t *testing.T) {
	var calls int32
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("filter[route]"); got != "Red" {
			t.Errorf("Expected filter[route]=Red, got %q", got)
		}
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, stopsBody)
	}))

	stops, err := svc.GetStopsForRoute(context.Background(), "Red")
	if err != nil {
		t.Fatalf("GetStopsForRoute: %v", err)
	}
	if len(stops) != 2 || stops[0].ID != "place-alfcl" {
		t.Errorf("Expected [place-alfcl place-davis], got %v", routeIDsOf(stops))
	}

	// Las paradas de una sola ruta no se cachean
	if _, err := svc.GetStopsForRoute(context.Background(), "Red"); err != nil {
		t.Fatalf("GetStopsForRoute: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("Expected 2 upstream calls, got %d", got)
	}
}

func TestGetAllStopsForRoutesCanonicalKey(t *testing.T) {
	var calls int32
	svc, store := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		// Upstream recibe los IDs en el orden pedido; la key se ordena
		if got := r.URL.Query().Get("filter[route]"); got != "Red,Orange" {
			t.Errorf("Expected filter[route]=Red,Orange, got %q", got)
		}
		fmt.Fprint(w, stopsBody)
	}))

	stops, err := svc.GetAllStopsForRoutes(context.Background(), []string{"Red", "Orange"})
	if err != nil {
		t.Fatalf("GetAllStopsForRoutes: %v", err)
	}
	if len(stops) != 2 {
		t.Fatalf("Expected 2 stops, got %d", len(stops))
	}
	if !store.Valid("stops_Orange_Red") {
		t.Error("Expected snapshot under canonical key stops_Orange_Red")
	}

	// El mismo set en otro orden comparte el snapshot
	again, err := svc.GetAllStopsForRoutes(context.Background(), []string{"Orange", "Red"})
	if err != nil {
		t.Fatalf("GetAllStopsForRoutes: %v", err)
	}
	if len(again) != 2 {
		t.Errorf("Expected 2 cached stops, got %d", len(again))
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Expected 1 upstream call, got %d", got)
	}
}

func TestGetAllStopsForRoutesEmpty(t *testing.T) {
	var calls int32
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))

	stops, err := svc.GetAllStopsForRoutes(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetAllStopsForRoutes: %v", err)
	}
	if stops == nil || len(stops) != 0 {
		t.Errorf("Expected empty slice, got %v", stops)
	}
	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Errorf("Expected no upstream calls, got %d", got)
	}
}

func TestPredictionsNeverCached(t *testing.T) {
	var calls int32
	svc, store := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predictions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, `{"data": [{"id": "pred-1", "type": "prediction"}], "included": []}`)
	}))

	for i := 0; i < 2; i++ {
		env, err := svc.GetPredictionsForRoute(context.Background(), "Red")
		if err != nil {
			t.Fatalf("GetPredictionsForRoute: %v", err)
		}
		if len(env.Data) != 1 {
			t.Errorf("Expected 1 prediction, got %d", len(env.Data))
		}
	}
	if _, err := svc.GetPredictionsForStop(context.Background(), "place-davis"); err != nil {
		t.Fatalf("GetPredictionsForStop: %v", err)
	}

	// Cada llamada fue upstream y nada quedó en disco
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("Expected 3 upstream calls, got %d", got)
	}
	if stats := store.Stats(); stats.TotalFiles != 0 {
		t.Errorf("Expected no snapshots, got %d", stats.TotalFiles)
	}
}

func TestGetAlertsForLineSortsBySeverity(t *testing.T) {
	var alertCalls int32
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/routes":
			fmt.Fprint(w, routesBody)
		case "/alerts":
			atomic.AddInt32(&alertCalls, 1)
			q := r.URL.Query()
			if got := q.Get("filter[route]"); got != "Red,Mattapan" {
				t.Errorf("Expected filter[route]=Red,Mattapan, got %q", got)
			}
			if got := q.Get("filter[datetime]"); got != "NOW" {
				t.Errorf("Expected filter[datetime]=NOW, got %q", got)
			}
			if got := q.Get("sort"); got != "-severity" {
				t.Errorf("Expected sort=-severity, got %q", got)
			}
			fmt.Fprint(w, alertsBody)
		default:
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
	}))

	alerts, err := svc.GetAlertsForLine(context.Background(), "line-Red")
	if err != nil {
		t.Fatalf("GetAlertsForLine: %v", err)
	}

	// Orden por severidad descendente; el empate de severidad 5 conserva
	// el orden de llegada
	want := []string{"a-major", "a-mid", "a-mid-later", "a-minor"}
	if len(alerts) != len(want) {
		t.Fatalf("Expected %d alerts, got %d", len(want), len(alerts))
	}
	for i, id := range want {
		if alerts[i].ID != id {
			t.Errorf("Expected %s at position %d, got %s", id, i, alerts[i].ID)
		}
	}
	if got := atomic.LoadInt32(&alertCalls); got != 1 {
		t.Errorf("Expected 1 alert call, got %d", got)
	}
}

func TestGetAlertsForLineWithoutRoutes(t *testing.T) {
	var alertCalls int32
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/routes":
			fmt.Fprint(w, routesBody)
		case "/alerts":
			atomic.AddInt32(&alertCalls, 1)
			fmt.Fprint(w, alertsBody)
		}
	}))

	alerts, err := svc.GetAlertsForLine(context.Background(), "line-Nope")
	if err != nil {
		t.Fatalf("GetAlertsForLine: %v", err)
	}
	if len(alerts) != 0 {
		t.Errorf("Expected no alerts, got %d", len(alerts))
	}
	// Sin rutas no se consulta /alerts
	if got := atomic.LoadInt32(&alertCalls); got != 0 {
		t.Errorf("Expected no alert calls, got %d", got)
	}
}

func TestGetFacilitiesForStop(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/facilities" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("filter[stop]"); got != "place-davis" {
			t.Errorf("Expected filter[stop]=place-davis, got %q", got)
		}
		fmt.Fprint(w, `{"data": [{"id": "fac-1", "type": "facility"}, {"id": "fac-2", "type": "facility"}]}`)
	}))

	facilities, err := svc.GetFacilitiesForStop(context.Background(), "place-davis")
	if err != nil {
		t.Fatalf("GetFacilitiesForStop: %v", err)
	}
	if len(facilities) != 2 {
		t.Errorf("Expected 2 facilities, got %d", len(facilities))
	}
}

func TestAggregateKeyCanonical(t *testing.T) {
	a := stopsCacheKey([]string{"Red", "Orange", "Blue"})
	b := stopsCacheKey([]string{"Blue", "Red", "Orange"})
	if a != b {
		t.Errorf("Expected same key for same set, got %q and %q", a, b)
	}
	if a != "stops_Blue_Orange_Red" {
		t.Errorf("Expected stops_Blue_Orange_Red, got %q", a)
	}

	if got := shapesCacheKey([]string{"Green-C", "Green-B"}); got != "shapes_Green-B_Green-C" {
		t.Errorf("Expected shapes_Green-B_Green-C, got %q", got)
	}
}
