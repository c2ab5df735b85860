package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRegister_Success(t *testing.T) {
	e := echo.New()
	env := newEnv()
	handler := NewAuthHandler(env.authService, env.userService)

	c, rec := newJSONContext(t, e, http.MethodPost, "/api/v1/users/register", RegisterRequest{
		Name:            "Alice",
		Email:           "alice@example.com",
		Password:        "password123",
		ConfirmPassword: "password123",
	})

	if err := handler.Register(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response AuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.Token == "" {
		t.Error("Expected a token in the response")
	}
	if response.User.Email != "alice@example.com" {
		t.Errorf("Expected email 'alice@example.com', got %s", response.User.Email)
	}
	if response.User.Verified {
		t.Error("Expected a freshly registered user to be unverified")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	e := echo.New()
	env := newEnv()
	env.addUser("Alice", "alice@example.com")
	handler := NewAuthHandler(env.authService, env.userService)

	c, rec := newJSONContext(t, e, http.MethodPost, "/api/v1/users/register", RegisterRequest{
		Name:            "Alice Again",
		Email:           "alice@example.com",
		Password:        "password123",
		ConfirmPassword: "password123",
	})

	if err := handler.Register(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", rec.Code)
	}
	if p := decodeProblem(t, rec); p.Type != ErrorTypeConflict {
		t.Errorf("Expected conflict problem type, got %s", p.Type)
	}
}

func TestRegister_ValidationFailure(t *testing.T) {
	e := echo.New()
	env := newEnv()
	handler := NewAuthHandler(env.authService, env.userService)

	c, rec := newJSONContext(t, e, http.MethodPost, "/api/v1/users/register", RegisterRequest{
		Name:            "Alice",
		Email:           "alice@example.com",
		Password:        "password123",
		ConfirmPassword: "different456",
	})

	if err := handler.Register(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d", rec.Code)
	}

	p := decodeProblem(t, rec)
	if len(p.Errors) != 1 || p.Errors[0].Field != "confirmPassword" {
		t.Errorf("Expected a confirmPassword validation error, got %+v", p.Errors)
	}
}

func TestLogin_Success(t *testing.T) {
	e := echo.New()
	env := newEnv()
	handler := NewAuthHandler(env.authService, env.userService)

	// Register through the service so the password hash is real
	c, rec := newJSONContext(t, e, http.MethodPost, "/api/v1/users/register", RegisterRequest{
		Name:            "Alice",
		Email:           "alice@example.com",
		Password:        "password123",
		ConfirmPassword: "password123",
	})
	if err := handler.Register(c); err != nil || rec.Code != http.StatusCreated {
		t.Fatalf("Registration setup failed: err=%v code=%d", err, rec.Code)
	}

	c, rec = newJSONContext(t, e, http.MethodPost, "/api/v1/users/login", LoginRequest{
		Email:    "alice@example.com",
		Password: "password123",
	})

	if err := handler.Login(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response AuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Token == "" {
		t.Error("Expected a token in the response")
	}
}

func TestLogin_WrongCredentials(t *testing.T) {
	e := echo.New()
	env := newEnv()
	handler := NewAuthHandler(env.authService, env.userService)

	c, rec := newJSONContext(t, e, http.MethodPost, "/api/v1/users/login", LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever1",
	})

	if err := handler.Login(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestCheckUser_ValidSession(t *testing.T) {
	e := echo.New()
	env := newEnv()
	alice := env.addUser("Alice", "alice@example.com")
	handler := NewAuthHandler(env.authService, env.userService)

	tok, err := env.tokens.Create(alice.ID, alice.Email)
	if err != nil {
		t.Fatalf("Token creation failed: %v", err)
	}

	c, rec := newJSONContext(t, e, http.MethodGet, "/api/v1/users/checkuser", nil)
	c.Request().Header.Set(echo.HeaderAuthorization, "Bearer "+tok)

	if err := handler.CheckUser(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response struct {
		User *UserResponse `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.User == nil || response.User.ID != alice.ID {
		t.Errorf("Expected the session's user, got %+v", response.User)
	}
}

func TestCheckUser_NoSession(t *testing.T) {
	e := echo.New()
	env := newEnv()
	handler := NewAuthHandler(env.authService, env.userService)

	// Missing and invalid headers both answer 200 with user null
	for _, header := range []string{"", "Bearer garbage", "Basic xyz"} {
		c, rec := newJSONContext(t, e, http.MethodGet, "/api/v1/users/checkuser", nil)
		if header != "" {
			c.Request().Header.Set(echo.HeaderAuthorization, header)
		}

		if err := handler.CheckUser(c); err != nil {
			t.Fatalf("Expected no error for header %q, got %v", header, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected status 200 for header %q, got %d", header, rec.Code)
		}

		var response struct {
			User *UserResponse `json:"user"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if response.User != nil {
			t.Errorf("Expected user null for header %q, got %+v", header, response.User)
		}
	}
}

func TestVerifyEmail_BadToken(t *testing.T) {
	e := echo.New()
	env := newEnv()
	handler := NewAuthHandler(env.authService, env.userService)

	c, rec := newJSONContext(t, e, http.MethodGet, "/api/v1/users/verify-email?token=bogus", nil)
	c.QueryParams().Set("token", "bogus")

	if err := handler.VerifyEmail(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}
