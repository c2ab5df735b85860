package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stride-app/stride-backend/internal/domain"
)

func challengeSetup(t *testing.T) (*env, *ChallengeHandler, *domain.User, *domain.Workspace) {
	t.Helper()

	env := newEnv()
	owner := env.addUser("Alice", "alice@example.com")
	handler := NewChallengeHandler(env.challengeService, env.imageService)

	workspace := env.createWorkspace(t, owner, "Runners")
	return env, handler, owner, workspace
}

func TestCreateChallenge(t *testing.T) {
	e := echo.New()
	env, handler, owner, workspace := challengeSetup(t)

	start := time.Now()
	end := start.AddDate(0, 1, 0)
	c, rec := newJSONContext(t, e, http.MethodPost, "/api/v1/workspaces/"+workspace.ID.String()+"/challenges", CreateChallengeRequest{
		Name:        "30 Day Streak",
		Description: "One run every day",
		StartDate:   &start,
		EndDate:     &end,
	})
	c.SetParamNames("id")
	c.SetParamValues(workspace.ID.String())
	setupAuthContext(c, owner)

	if err := handler.CreateChallenge(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response ChallengeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Name != "30 Day Streak" {
		t.Errorf("Expected name '30 Day Streak', got %s", response.Name)
	}
	if response.WorkspaceID != workspace.ID {
		t.Errorf("Expected workspace %s, got %s", workspace.ID, response.WorkspaceID)
	}

	// A creation event is broadcast to the enclosing workspace
	events := env.publisher.Published()
	if len(events) != 1 || events[0].Event.Type != "challenge.created" {
		t.Fatalf("Expected a challenge.created event, got %+v", events)
	}
	if events[0].WorkspaceID != workspace.ID {
		t.Errorf("Expected event routed to workspace %s, got %s", workspace.ID, events[0].WorkspaceID)
	}
}

func TestCreateChallenge_WorkspaceNotFound(t *testing.T) {
	e := echo.New()
	_, handler, owner, _ := challengeSetup(t)

	start := time.Now()
	end := start.AddDate(0, 1, 0)
	c, rec := newJSONContext(t, e, http.MethodPost, "/api/v1/workspaces/missing/challenges", CreateChallengeRequest{
		Name:        "Orphan",
		Description: "No home",
		StartDate:   &start,
		EndDate:     &end,
	})
	c.SetParamNames("id")
	c.SetParamValues("11111111-2222-3333-4444-555555555555")
	setupAuthContext(c, owner)

	if err := handler.CreateChallenge(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestCreateChallenge_InvalidDateRange(t *testing.T) {
	e := echo.New()
	_, handler, owner, workspace := challengeSetup(t)

	start := time.Now()
	end := start.Add(-time.Hour)
	c, rec := newJSONContext(t, e, http.MethodPost, "/api/v1/workspaces/"+workspace.ID.String()+"/challenges", CreateChallengeRequest{
		Name:        "Backwards",
		Description: "Ends before it starts",
		StartDate:   &start,
		EndDate:     &end,
	})
	c.SetParamNames("id")
	c.SetParamValues(workspace.ID.String())
	setupAuthContext(c, owner)

	if err := handler.CreateChallenge(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d", rec.Code)
	}
	p := decodeProblem(t, rec)
	if len(p.Errors) != 1 || p.Errors[0].Field != "endDate" {
		t.Errorf("Expected an endDate validation error, got %+v", p.Errors)
	}
}

func TestCreateChallenge_ReportsAllMissingFields(t *testing.T) {
	e := echo.New()
	env, handler, owner, workspace := challengeSetup(t)

	// An empty body fails every required field in one response
	c, rec := newJSONContext(t, e, http.MethodPost, "/api/v1/workspaces/"+workspace.ID.String()+"/challenges", CreateChallengeRequest{})
	c.SetParamNames("id")
	c.SetParamValues(workspace.ID.String())
	setupAuthContext(c, owner)

	if err := handler.CreateChallenge(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected status 422, got %d: %s", rec.Code, rec.Body.String())
	}
	p := decodeProblem(t, rec)
	got := make(map[string]bool, len(p.Errors))
	for _, fe := range p.Errors {
		got[fe.Field] = true
	}
	for _, want := range []string{"name", "description", "startDate", "endDate"} {
		if !got[want] {
			t.Errorf("Expected a %s validation error, got %+v", want, p.Errors)
		}
	}
	if len(p.Errors) != 4 {
		t.Errorf("Expected 4 validation errors, got %+v", p.Errors)
	}

	// Nothing was persisted and nothing was announced
	list, err := env.challenges.ListByWorkspace(c.Request().Context(), workspace.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("Expected no challenges persisted, got %d", len(list))
	}
	if len(env.publisher.Published()) != 0 {
		t.Errorf("Expected no events, got %+v", env.publisher.Published())
	}
}

func TestGetChallenges(t *testing.T) {
	e := echo.New()
	env, handler, owner, workspace := challengeSetup(t)

	for _, name := range []string{"One", "Two"} {
		env.createChallenge(t, owner, workspace.ID, name)
	}

	c, rec := newJSONContext(t, e, http.MethodGet, "/api/v1/workspaces/"+workspace.ID.String()+"/challenges", nil)
	c.SetParamNames("id")
	c.SetParamValues(workspace.ID.String())

	if err := handler.GetChallenges(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response []ChallengeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(response) != 2 {
		t.Errorf("Expected 2 challenges, got %d", len(response))
	}
}

func TestUpdateChallenge(t *testing.T) {
	e := echo.New()
	env, handler, owner, workspace := challengeSetup(t)

	challenge := env.createChallenge(t, owner, workspace.ID, "Before")

	newName := "After"
	c, rec := newJSONContext(t, e, http.MethodPut, "/api/v1/challenges/"+challenge.ID.String(), UpdateChallengeRequest{Name: &newName})
	setupAuthContext(c, owner)
	setupChallengeContext(c, challenge)

	if err := handler.UpdateChallenge(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response ChallengeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Name != "After" {
		t.Errorf("Expected name 'After', got %s", response.Name)
	}
}

func TestDeleteChallenge(t *testing.T) {
	e := echo.New()
	env, handler, owner, workspace := challengeSetup(t)

	challenge := env.createChallenge(t, owner, workspace.ID, "Doomed")

	c, rec := newJSONContext(t, e, http.MethodDelete, "/api/v1/challenges/"+challenge.ID.String(), nil)
	setupAuthContext(c, owner)
	setupChallengeContext(c, challenge)

	if err := handler.DeleteChallenge(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rec.Code)
	}

	events := env.publisher.Published()
	if len(events) != 2 || events[1].Event.Type != "challenge.deleted" {
		t.Errorf("Expected a challenge.deleted event, got %+v", events)
	}
}
