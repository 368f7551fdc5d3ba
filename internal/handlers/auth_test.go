package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/go-pos/auth"
	"github.com/diewo77/go-pos/internal/models"
	"github.com/diewo77/go-pos/internal/services"
	"golang.org/x/crypto/bcrypt"
)

func TestLoginIssuesToken(t *testing.T) {
	db := setupTestDB(t)
	users := services.NewUserService(db).WithCost(bcrypt.MinCost)
	if _, err := users.CreateUser(t.Context(), "cashier", "secret1", models.RoleEmployee); err != nil {
		t.Fatalf("create user: %v", err)
	}
	issuer := auth.NewIssuer("test-secret", time.Hour)
	h := NewAuthHandler(users, issuer)

	w := httptest.NewRecorder()
	h.Login(w, newRequest(http.MethodPost, "/auth/login", `{"username":"cashier","password":"secret1"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var resp loginResponse
	decodeBody(t, w, &resp)
	uid, role, err := issuer.Parse(resp.Token)
	if err != nil || uid != resp.User.ID || role != string(models.RoleEmployee) {
		t.Fatalf("token: uid=%d role=%s err=%v", uid, role, err)
	}
	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" {
			session = c
		}
	}
	if session == nil || session.Value != resp.Token {
		t.Fatalf("session cookie not set")
	}

	for _, body := range []string{
		`{"username":"cashier","password":"wrong"}`,
		`{"username":"ghost","password":"secret1"}`,
	} {
		w = httptest.NewRecorder()
		h.Login(w, newRequest(http.MethodPost, "/auth/login", body))
		if w.Code != http.StatusUnauthorized || errorCode(t, w) != "invalid_credentials" {
			t.Fatalf("%s: got %d %s", body, w.Code, w.Body.String())
		}
	}
}

func TestChangePassword(t *testing.T) {
	db := setupTestDB(t)
	users := services.NewUserService(db).WithCost(bcrypt.MinCost)
	u, err := users.CreateUser(t.Context(), "manager", "secret1", models.RoleAdmin)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	h := NewAuthHandler(users, auth.NewIssuer("test-secret", time.Hour))

	w := httptest.NewRecorder()
	h.ChangePassword(w, newRequest(http.MethodPost, "/me/password", `{"current_password":"secret1","new_password":"secret2"}`))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401 got %d", w.Code)
	}

	req := newRequest(http.MethodPost, "/me/password", `{"current_password":"secret1","new_password":"secret2"}`)
	req = req.WithContext(auth.WithUserID(req.Context(), u.ID))
	w = httptest.NewRecorder()
	h.ChangePassword(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("change: expected 204 got %d body=%s", w.Code, w.Body.String())
	}
	if _, err := users.Authenticate(t.Context(), "manager", "secret2"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestUserAdminNotifiesChanges(t *testing.T) {
	db := setupTestDB(t)
	users := services.NewUserService(db).WithCost(bcrypt.MinCost)
	var changed []uint
	h := NewUserHandler(users, func(id uint) { changed = append(changed, id) })

	w := httptest.NewRecorder()
	h.Create(w, newRequest(http.MethodPost, "/users", `{"username":"clerk","password":"secret1"}`))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var u models.User
	decodeBody(t, w, &u)
	if u.Role != models.RoleEmployee {
		t.Fatalf("default role: %s", u.Role)
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Fatalf("password hash leaked: %s", w.Body.String())
	}

	id := strconv.Itoa(int(u.ID))
	w = httptest.NewRecorder()
	h.Update(w, newRequest(http.MethodPost, "/users/"+id, `{"role":"ADMIN"}`, "id", id))
	decodeBody(t, w, &u)
	if w.Code != http.StatusOK || u.Role != models.RoleAdmin {
		t.Fatalf("update: got %d %+v", w.Code, u)
	}

	w = httptest.NewRecorder()
	h.Delete(w, newRequest(http.MethodPost, "/users/"+id+"/delete", "", "id", id))
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204 got %d", w.Code)
	}
	if fmt.Sprint(changed) != fmt.Sprintf("[%d %d]", u.ID, u.ID) {
		t.Fatalf("onChange calls: %v", changed)
	}

	w = httptest.NewRecorder()
	h.List(w, newRequest(http.MethodGet, "/users", ""))
	var page struct {
		Total int64 `json:"total"`
	}
	decodeBody(t, w, &page)
	if page.Total != 0 {
		t.Fatalf("expected empty user list, got %d", page.Total)
	}
}
