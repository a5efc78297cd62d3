package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/chamberdesk/chamberdesk/internal/platform/kvstore"
)

func newTestHandler(t *testing.T) (*Handler, *Store) {
	t.Helper()
	store := NewStore(kvstore.NewMemory(), zerolog.Nop())
	return NewHandler(store), store
}

func getRequest(e *echo.Echo, target string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

type listResponse struct {
	Data  []Entry `json:"data"`
	Total int     `json:"total"`
}

func seedPatients(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()
	store.Resolve(ctx, "Abdul Karim", "01711111111")
	store.Resolve(ctx, "Fatema Begum", "01822222222")
	store.Resolve(ctx, "Karim Uddin", "+8801933333333")
}

func TestPatientList(t *testing.T) {
	h, store := newTestHandler(t)
	e := echo.New()
	seedPatients(t, store)

	c, rec := getRequest(e, "/api/v1/patients")
	if err := h.List(c); err != nil {
		t.Fatal(err)
	}
	var resp listResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 3 || len(resp.Data) != 3 {
		t.Fatalf("expected 3 patients, got total=%d len=%d", resp.Total, len(resp.Data))
	}
}

func TestPatientList_Search(t *testing.T) {
	h, store := newTestHandler(t)
	e := echo.New()
	seedPatients(t, store)

	cases := []struct {
		q    string
		want int
	}{
		{"karim", 2},
		{"fatema", 1},
		{"017-1111", 1},
		{"nobody", 0},
	}
	for _, tc := range cases {
		c, rec := getRequest(e, "/api/v1/patients?q="+tc.q)
		if err := h.List(c); err != nil {
			t.Fatal(err)
		}
		var resp listResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Total != tc.want {
			t.Errorf("q=%q: expected %d matches, got %d", tc.q, tc.want, resp.Total)
		}
	}
}

func TestPatientGet(t *testing.T) {
	h, store := newTestHandler(t)
	e := echo.New()
	seedPatients(t, store)

	c, rec := getRequest(e, "/")
	c.SetParamNames("puid")
	c.SetParamValues("2")
	if err := h.Get(c); err != nil {
		t.Fatal(err)
	}
	var got Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.PUID != 2 || got.Name != "Fatema Begum" {
		t.Errorf("unexpected entry %+v", got)
	}

	c, _ = getRequest(e, "/")
	c.SetParamNames("puid")
	c.SetParamValues("9")
	err := h.Get(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}
