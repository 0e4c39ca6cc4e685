package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"knot-art-api/internal/domain"
	tokenrepo "knot-art-api/internal/repository/token"
)

func signupAndLogin(t *testing.T, env *testEnv, username string) string {
	t.Helper()
	body := `{"username":"` + username + `","email":"` + username + `@example.com","password":"longenough1"}`
	rec := doJSON(env, http.MethodPost, "/signup", body, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(env, http.MethodPost, "/login", `{"username":"`+username+`","password":"longenough1"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil || out.Token == "" {
		t.Fatalf("expected token in login response, got %s", rec.Body.String())
	}
	return out.Token
}

// mintAdmin creates an admin profile and a valid token for it without
// going through the signup flow.
func mintAdmin(t *testing.T, env *testEnv) string {
	t.Helper()
	admin, err := env.profiles.Create(context.Background(), domain.Profile{
		Username: "admin",
		Email:    "admin@example.com",
		IsAdmin:  true,
	})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	token := "admin-token"
	err = env.tokens.Create(context.Background(), tokenrepo.Token{
		Token:     token,
		ProfileID: admin.ID,
		Kind:      "access",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestProfile_SignupLoginShow(t *testing.T) {
	env := newTestEnv()
	token := signupAndLogin(t, env, "jan")

	rec := doJSON(env, http.MethodGet, "/profile", "", bearer(token))
	if rec.Code != http.StatusOK {
		t.Fatalf("profile: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"username":"jan"`) {
		t.Fatalf("unexpected profile body %s", rec.Body.String())
	}
}

func TestProfile_DuplicateSignup(t *testing.T) {
	env := newTestEnv()
	signupAndLogin(t, env, "jan")

	body := `{"username":"jan","email":"jan@example.com","password":"longenough1"}`
	rec := doJSON(env, http.MethodPost, "/signup", body, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestProfile_ShortPasswordRejected(t *testing.T) {
	env := newTestEnv()

	body := `{"username":"jan","email":"jan@example.com","password":"short"}`
	rec := doJSON(env, http.MethodPost, "/signup", body, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestProfile_WrongPassword(t *testing.T) {
	env := newTestEnv()
	signupAndLogin(t, env, "jan")

	rec := doJSON(env, http.MethodPost, "/login", `{"username":"jan","password":"wrongpassword"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestProfile_RequiresAuth(t *testing.T) {
	env := newTestEnv()

	rec := doJSON(env, http.MethodGet, "/profile", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = doJSON(env, http.MethodGet, "/profile", "", bearer("stale-token"))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for stale token, got %d", rec.Code)
	}
}

func TestProfile_LogoutRevokesToken(t *testing.T) {
	env := newTestEnv()
	token := signupAndLogin(t, env, "jan")

	rec := doJSON(env, http.MethodPost, "/logout", "", bearer(token))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", rec.Code)
	}

	rec = doJSON(env, http.MethodGet, "/profile", "", bearer(token))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected revoked token rejected, got %d", rec.Code)
	}
}

func TestProfile_SaveDefaultsAndPrefill(t *testing.T) {
	env := newTestEnv()
	seedHanging(env)
	token := signupAndLogin(t, env, "jan")

	body := `{"townOrCity":"Bristol","country":"GB","phoneNumber":"+44123"}`
	rec := doJSON(env, http.MethodPut, "/profile/defaults", body, bearer(token))
	if rec.Code != http.StatusOK {
		t.Fatalf("save defaults: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	// Defaults come back as checkout prefill.
	doJSON(env, http.MethodPost, "/cart/add/prod-a", `{"quantity":1}`, nil)
	rec = doJSON(env, http.MethodGet, "/checkout", "", bearer(token))
	if rec.Code != http.StatusOK {
		t.Fatalf("begin: %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"townOrCity":"Bristol"`) {
		t.Fatalf("expected prefill in checkout, got %s", rec.Body.String())
	}
}

func TestProfile_OrderHistory(t *testing.T) {
	env := newTestEnv()
	seedHanging(env)
	token := signupAndLogin(t, env, "jan")

	doJSON(env, http.MethodPost, "/cart/add/prod-a", `{"quantity":1}`, nil)
	rec := doJSON(env, http.MethodPost, "/checkout", submitBody, bearer(token))
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: %d body=%s", rec.Code, rec.Body.String())
	}
	var submit struct {
		OrderNumber string `json:"orderNumber"`
	}
	json.Unmarshal(rec.Body.Bytes(), &submit)

	rec = doJSON(env, http.MethodGet, "/checkout/success/"+submit.OrderNumber, "", bearer(token))
	if rec.Code != http.StatusOK {
		t.Fatalf("success: %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(env, http.MethodGet, "/profile/orders", "", bearer(token))
	if rec.Code != http.StatusOK {
		t.Fatalf("orders: %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), submit.OrderNumber) {
		t.Fatalf("expected order %s in history, got %s", submit.OrderNumber, rec.Body.String())
	}
}
