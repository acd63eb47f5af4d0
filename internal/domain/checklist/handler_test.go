package checklist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestSave_Handler(t *testing.T) {
	fx := newFixture()
	h, e := NewHandler(fx.svc), echo.New()
	body := `{"uuid":"cd-1","name":"Vaccination","items":[
		{"uuid":"i-1","formUUID":"form-vaccination","concept":{"uuid":"c-opv-0"},
			"status":[{"state":"Due","from":{"day":0},"to":{"day":15},"displayOrder":1}]},
		{"uuid":"i-2","formUUID":"form-vaccination","concept":{"uuid":"c-opv-1"},"dependentOn":"i-1","minDaysFromDependent":28}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/checklistDetail", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.Save(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got ChecklistDetailContract
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Items) != 2 || got.Items[1].DependentOn != "i-1" {
		t.Errorf("unexpected response: %s", rec.Body.String())
	}
	if got.Items[1].MinDaysFromDependent == nil || *got.Items[1].MinDaysFromDependent != 28 {
		t.Error("expected minDaysFromDependent to round trip")
	}
	if got.Items[0].Status[0].To.Day != 15 {
		t.Error("expected status to round trip")
	}
}

func TestSave_MissingFormUUID(t *testing.T) {
	h, e := NewHandler(newFixture().svc), echo.New()
	req := httptest.NewRequest(http.MethodPost, "/checklistDetail",
		strings.NewReader(`{"uuid":"cd-1","name":"V","items":[{"uuid":"i-1","concept":{"uuid":"c-bcg"}}]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	httpErr, ok := h.Save(e.NewContext(req, httptest.NewRecorder())).(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", httpErr)
	}
}

func TestGet_Handler(t *testing.T) {
	fx := newFixture()
	if _, err := fx.svc.SaveChecklistDetail(context.Background(), vaccination()); err != nil {
		t.Fatal(err)
	}
	h, e := NewHandler(fx.svc), echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("uuid")
	c.SetParamValues("cd-1")
	if err := h.Get(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"name":"Vaccination"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("uuid")
	c.SetParamValues("nope")
	httpErr, ok := h.Get(c).(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", httpErr)
	}
}

func TestList_Handler(t *testing.T) {
	fx := newFixture()
	if _, err := fx.svc.SaveChecklistDetail(context.Background(), vaccination()); err != nil {
		t.Fatal(err)
	}
	h, e := NewHandler(fx.svc), echo.New()
	rec := httptest.NewRecorder()
	if err := h.List(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []ChecklistDetailContract
	json.Unmarshal(rec.Body.Bytes(), &got)
	if len(got) != 1 || len(got[0].Items) != 3 {
		t.Errorf("unexpected list: %s", rec.Body.String())
	}
}
