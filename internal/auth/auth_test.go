package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-test-secret-test-secret"

func newTestHandler(t *testing.T) (http.Handler, *TokenMaker) {
	t.Helper()

	store := NewMemStore()
	store.cost = bcrypt.MinCost
	jwt := NewTokenMaker(testSecret)

	return NewHandler(&Server{Store: store, JWT: jwt}, HTTPDeps{Service: "auth"}), jwt
}

func post(t *testing.T, h http.Handler, path string, body any, remote string) *httptest.ResponseRecorder {
	t.Helper()

	b, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if remote != "" {
		req.RemoteAddr = remote
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func validRegistration() map[string]any {
	return map[string]any{
		"name":             "Fatima",
		"email":            " Fatima@Example.com ",
		"phone":            "+973 3300 0000",
		"password":         "password123",
		"confirm_password": "password123",
	}
}

func TestRegister_Validation(t *testing.T) {
	cases := []struct {
		field string
		value string
		want  string
	}{
		{"name", " ", "name required"},
		{"email", "", "email required"},
		{"phone", "", "phone required"},
		{"password", "", "password required"},
		{"confirm_password", "different1", "passwords do not match"},
	}

	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			h, _ := newTestHandler(t)
			body := validRegistration()
			body[tc.field] = tc.value

			rec := post(t, h, "/auth/register", body, "")
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			var er struct {
				Error string `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &er))
			assert.Equal(t, tc.want, er.Error)
		})
	}
}

func TestRegister_ShortPassword(t *testing.T) {
	h, _ := newTestHandler(t)
	body := validRegistration()
	body["password"] = "short"
	body["confirm_password"] = "short"

	rec := post(t, h, "/auth/register", body, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "password too short")
}

func TestRegisterLoginWhoAmI(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := post(t, h, "/auth/register", validRegistration(), "10.1.0.1:1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = post(t, h, "/auth/register", validRegistration(), "10.1.0.2:1")
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = post(t, h, "/auth/login", map[string]any{"email": "fatima@example.com", "password": "wrong-password"}, "10.1.0.3:1")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(t, h, "/auth/login", map[string]any{"email": "FATIMA@example.com", "password": "password123"}, "10.1.0.4:1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var lr loginResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lr))
	require.NotEmpty(t, lr.AccessToken)
	assert.Equal(t, int(AccessTTL.Seconds()), lr.ExpiresIn)

	req := httptest.NewRequest(http.MethodGet, "/auth/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+lr.AccessToken)
	who := httptest.NewRecorder()
	h.ServeHTTP(who, req)
	require.Equal(t, http.StatusOK, who.Code)

	var me map[string]string
	require.NoError(t, json.Unmarshal(who.Body.Bytes(), &me))
	assert.Equal(t, "fatima@example.com", me["email"])
	assert.Equal(t, RoleCustomer, me["role"])
	assert.Contains(t, me["user_id"], "u_")
}

func TestLogin_RequiredFields(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := post(t, h, "/auth/login", map[string]any{"email": "", "password": "x"}, "10.2.0.1:1")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email required")

	rec = post(t, h, "/auth/login", map[string]any{"email": "a@b.c", "password": " "}, "10.2.0.2:1")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "password required")
}

func TestLogin_RateLimited(t *testing.T) {
	h, _ := newTestHandler(t)

	for i := 0; i < loginLimitPerMin; i++ {
		rec := post(t, h, "/auth/login", map[string]any{"email": "a@b.c", "password": "nope-nope"}, "10.3.0.1:1")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := post(t, h, "/auth/login", map[string]any{"email": "a@b.c", "password": "nope-nope"}, "10.3.0.1:1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestTokenMaker(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tm := NewTokenMaker(testSecret)
	tm.now = func() time.Time { return now }

	c := Customer{ID: "u_1", Email: "a@b.c", Role: RoleCustomer}
	tok, err := tm.New(c, time.Minute)
	require.NoError(t, err)

	claims, err := tm.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u_1", claims.UserID)
	assert.Equal(t, tokenIssuer, claims.Issuer)

	_, err = NewTokenMaker("another-secret-another-secret-123").Parse(tok)
	require.ErrorIs(t, err, ErrInvalidToken)

	now = now.Add(2 * time.Minute)
	_, err = tm.Parse(tok)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = tm.Parse("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
