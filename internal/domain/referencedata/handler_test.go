package referencedata

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/openchs/openchs-server/internal/reconcile"
)

func newTestHandler() (*Handler, *fixture, *echo.Echo) {
	f := newFixture()
	return NewHandler(f.svc), f, echo.New()
}

func TestSaveConcepts_Handler(t *testing.T) {
	h, f, e := newTestHandler()
	body := `[{"uuid":"c-1","name":"Weight","dataType":"Numeric","unit":"kg"},
		{"uuid":"c-2","name":"Blood group","dataType":"Coded","answers":[{"uuid":"a-1","name":"A+"},{"uuid":"a-2","name":"B+"}]}]`
	req := httptest.NewRequest(http.MethodPost, "/concepts", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.SaveConcepts(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if f.concepts.byUUID["c-1"].Unit != "kg" {
		t.Error("expected concept c-1 to be saved")
	}
	if len(f.concepts.byUUID["c-2"].Answers) != 2 {
		t.Error("expected two answers on c-2")
	}
}

func TestSaveConcepts_InvalidDataType(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/concepts", strings.NewReader(`[{"uuid":"c-1","name":"X","dataType":"Blob"}]`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	err := h.SaveConcepts(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestGetConcept_Handler(t *testing.T) {
	h, f, e := newTestHandler()
	f.concepts.seed(&Concept{Entity: reconcile.Entity{UUID: "c-1"}, Name: "Weight", DataType: DataTypeNumeric})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("uuid")
	c.SetParamValues("c-1")
	if err := h.GetConcept(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["name"] != "Weight" || body["dataType"] != "Numeric" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestGetConcept_NotFound(t *testing.T) {
	h, _, e := newTestHandler()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("uuid")
	c.SetParamValues("missing")

	err := h.GetConcept(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestFacilitiesLastModified_Handler(t *testing.T) {
	h, f, e := newTestHandler()
	f.facilities.items = []*Facility{
		{Entity: reconcile.Entity{ID: 1, UUID: "f-1", LastModified: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}, Name: "PHC"},
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet,
		"/facility/search/lastModified?lastModifiedDateTime=2024-01-01T00:00:00.000Z&now=2024-02-01T00:00:00.000Z&page=0&size=10", nil), rec)

	if err := h.FacilitiesLastModified(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var page struct {
		Content       []map[string]interface{} `json:"content"`
		TotalElements int                      `json:"totalElements"`
	}
	json.Unmarshal(rec.Body.Bytes(), &page)
	if page.TotalElements != 1 || page.Content[0]["name"] != "PHC" {
		t.Errorf("unexpected page: %s", rec.Body.String())
	}
}

func TestFacilitiesLastModified_MissingWindow(t *testing.T) {
	h, _, e := newTestHandler()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/facility/search/lastModified", nil), httptest.NewRecorder())
	if _, ok := h.FacilitiesLastModified(c).(*echo.HTTPError); !ok {
		t.Fatal("expected 400 without lastModifiedDateTime")
	}
}

func TestFacilitiesByID_Handler(t *testing.T) {
	h, f, e := newTestHandler()
	for i := int64(1); i <= 3; i++ {
		f.facilities.items = append(f.facilities.items, &Facility{Entity: reconcile.Entity{ID: i}})
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/facility/search/findAllById?ids=1,3", nil), rec)
	if err := h.FacilitiesByID(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var items []map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &items)
	if len(items) != 2 {
		t.Errorf("expected 2 facilities, got %d", len(items))
	}

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/facility/search/findAllById?ids=x", nil), httptest.NewRecorder())
	if _, ok := h.FacilitiesByID(c).(*echo.HTTPError); !ok {
		t.Error("expected 400 for non-numeric id")
	}
}
