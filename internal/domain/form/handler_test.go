package form

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

const registrationJSON = `{
	"uuid": "form-1", "name": "Registration", "formType": "IndividualProfile",
	"formElementGroups": [{
		"uuid": "g-1", "name": "Vitals", "displayOrder": 1,
		"formElements": [
			{"uuid": "e-1", "name": "Weight", "displayOrder": 1, "mandatory": true, "concept": {"uuid": "c-weight"}},
			{"uuid": "e-2", "name": "Pulse", "displayOrder": 2,
				"concept": {"uuid": "c-pulse", "name": "Pulse", "dataType": "Numeric"}}
		]
	}]
}`

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestSaveForm_Handler(t *testing.T) {
	fx := newFixture()
	h, e := NewHandler(fx.svc), echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/forms", registrationJSON), rec)

	if err := h.SaveForm(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	f := fx.forms.byUUID["form-1"]
	if f == nil || len(f.Elements()) != 2 {
		t.Fatal("expected form with two elements to be saved")
	}
	if fx.concepts.byUUID["c-pulse"] == nil {
		t.Error("expected inline concept to be created")
	}
}

func TestSaveForm_Invalid(t *testing.T) {
	fx := newFixture()
	h, e := NewHandler(fx.svc), echo.New()
	c := e.NewContext(jsonRequest(http.MethodPost, "/forms", `{"uuid":"f","name":"X","formType":"Nope"}`), httptest.NewRecorder())

	httpErr, ok := h.SaveForm(c).(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", httpErr)
	}
}

func TestSaveForm_UnknownConceptIsBadRequest(t *testing.T) {
	fx := newFixture()
	h, e := NewHandler(fx.svc), echo.New()
	body := strings.Replace(registrationJSON, "c-weight", "c-missing", 1)
	c := e.NewContext(jsonRequest(http.MethodPost, "/forms", body), httptest.NewRecorder())

	httpErr, ok := h.SaveForm(c).(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", httpErr)
	}
	if httpErr.Message != "no concept found for UUID c-missing" {
		t.Errorf("unexpected message: %v", httpErr.Message)
	}
}

func TestExportForm_Handler(t *testing.T) {
	fx := newFixture()
	if _, err := fx.svc.SaveForm(context.Background(), registrationForm()); err != nil {
		t.Fatal(err)
	}
	h, e := NewHandler(fx.svc), echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/forms/export?formUUID=form-1", nil), rec)

	if err := h.ExportForm(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body FormContract
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Name != "Registration" || len(body.FormElementGroups) != 2 {
		t.Errorf("unexpected export: %s", rec.Body.String())
	}
}

func TestExportForm_NotFound(t *testing.T) {
	h, e := NewHandler(newFixture().svc), echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/forms/export?formUUID=nope", nil), httptest.NewRecorder())

	httpErr, ok := h.ExportForm(c).(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", httpErr)
	}
}

func TestDeleteForm_Handler(t *testing.T) {
	fx := newFixture()
	if _, err := fx.svc.SaveForm(context.Background(), registrationForm()); err != nil {
		t.Fatal(err)
	}
	h, e := NewHandler(fx.svc), echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
	c.SetParamNames("uuid")
	c.SetParamValues("form-1")

	if err := h.DeleteForm(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if !fx.forms.byUUID["form-1"].Voided {
		t.Error("expected form to be voided")
	}
}
