package main

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/openchs/openchs-server/internal/platform/db"
)

func TestRegisterRoutes(t *testing.T) {
	e := echo.New()
	registerRoutes(e.Group(""), nil, db.NoTx{})

	registered := make(map[string]bool)
	for _, r := range e.Routes() {
		registered[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		http.MethodPost + " /concepts",
		http.MethodGet + " /concept/:uuid",
		http.MethodPost + " /forms",
		http.MethodPatch + " /forms",
		http.MethodDelete + " /forms/:uuid",
		http.MethodGet + " /forms/export",
		http.MethodPost + " /checklistDetail",
		http.MethodPost + " /groupSubjects",
		http.MethodGet + " /groupSubject",
		http.MethodPut + " /api/programEncounter/:id",
		http.MethodPost + " /api/rules/programEnrolment",
		http.MethodPost + " /web/news",
		http.MethodDelete + " /web/news/:id",
		http.MethodGet + " /operationalEncounterType/search/lastModified",
	} {
		if !registered[want] {
			t.Errorf("route %s not registered", want)
		}
	}
}

func TestRootCommands(t *testing.T) {
	for _, cmd := range []interface{ Name() string }{serveCmd(), migrateCmd(), organisationCmd()} {
		if cmd.Name() == "" {
			t.Error("command without a name")
		}
	}
	if len(migrateCmd().Commands()) != 2 {
		t.Error("expected migrate up and status")
	}
}
