package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ejcasil/dualledger/internal/attachment"
	"github.com/ejcasil/dualledger/internal/ledger"
	"github.com/ejcasil/dualledger/internal/storage"
)

const testPassword = "test-password"

func setupTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tmpDir := t.TempDir()
	store, err := storage.NewSQLiteStorage(filepath.Join(tmpDir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if closeErr := store.Close(); closeErr != nil {
			t.Logf("Failed to close storage: %v", closeErr)
		}
	})
	require.NoError(t, store.Migrate(context.Background()))

	attachments, err := attachment.NewFilesystemStore(filepath.Join(tmpDir, "receipts"), "/receipts")
	require.NoError(t, err)

	srv, err := New(ledger.New(store, attachments), attachments, Config{
		AdminPassword: testPassword,
		SessionSecret: "test-secret",
	})
	require.NoError(t, err)
	return srv
}

// login performs the password exchange and returns the session cookie.
func login(t *testing.T, srv *Server) *http.Cookie {
	t.Helper()

	w := httptest.NewRecorder()
	body := fmt.Sprintf(`{"password":%q}`, testPassword)
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatal("login response carried no session cookie")
	return nil
}

func doJSON(srv *Server, cookie *http.Cookie, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestNew_RequiresCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)

	_, err := New(nil, nil, Config{SessionSecret: "s"})
	assert.Error(t, err)

	_, err = New(nil, nil, Config{AdminPassword: "p"})
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	srv := setupTestServer(t)

	t.Run("wrong password", func(t *testing.T) {
		w := doJSON(srv, nil, http.MethodPost, "/login", `{"password":"nope"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing password", func(t *testing.T) {
		w := doJSON(srv, nil, http.MethodPost, "/login", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("correct password issues a session", func(t *testing.T) {
		cookie := login(t, srv)
		assert.NotEmpty(t, cookie.Value)
		assert.True(t, cookie.HttpOnly)
	})
}

func TestAPIRequiresSession(t *testing.T) {
	srv := setupTestServer(t)

	w := doJSON(srv, nil, http.MethodGet, "/api/transactions", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	bad := &http.Cookie{Name: sessionCookie, Value: "not-a-token"}
	w = doJSON(srv, bad, http.MethodGet, "/api/transactions", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTransactionCRUD(t *testing.T) {
	srv := setupTestServer(t)
	cookie := login(t, srv)

	var createdID int64

	t.Run("create", func(t *testing.T) {
		w := doJSON(srv, cookie, http.MethodPost, "/api/transactions",
			`{"date":"2026-01-10","category":"Income","description":"Salary","incoming_ej":3000}`)
		require.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			Transaction struct {
				ID        int64   `json:"id"`
				EJBalance float64 `json:"ej_balance"`
				Total     float64 `json:"total"`
			} `json:"transaction"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Positive(t, resp.Transaction.ID)
		assert.InDelta(t, 3000, resp.Transaction.EJBalance, 0.001)
		assert.InDelta(t, 3000, resp.Transaction.Total, 0.001)
		createdID = resp.Transaction.ID
	})

	t.Run("negative amount is rejected", func(t *testing.T) {
		w := doJSON(srv, cookie, http.MethodPost, "/api/transactions",
			`{"date":"2026-01-10","incoming_ej":-5}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("blank description gets a placeholder", func(t *testing.T) {
		w := doJSON(srv, cookie, http.MethodPost, "/api/transactions",
			`{"date":"2026-01-11","outgoing_ej":50}`)
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), "No Description")
	})

	t.Run("get", func(t *testing.T) {
		w := doJSON(srv, cookie, http.MethodGet, fmt.Sprintf("/api/transactions/%d", createdID), "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Salary")
	})

	t.Run("update ripples to later rows", func(t *testing.T) {
		w := doJSON(srv, cookie, http.MethodPut, fmt.Sprintf("/api/transactions/%d", createdID),
			`{"incoming_ej":4000}`)
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(srv, cookie, http.MethodGet, "/api/transactions", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Transactions []struct {
				Total float64 `json:"total"`
			} `json:"transactions"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Transactions, 2)
		assert.InDelta(t, 3950, resp.Transactions[1].Total, 0.001)
	})

	t.Run("empty update is rejected", func(t *testing.T) {
		w := doJSON(srv, cookie, http.MethodPut, fmt.Sprintf("/api/transactions/%d", createdID), `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := doJSON(srv, cookie, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", createdID), "")
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(srv, cookie, http.MethodGet, fmt.Sprintf("/api/transactions/%d", createdID), "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("bad id in path", func(t *testing.T) {
		w := doJSON(srv, cookie, http.MethodGet, "/api/transactions/abc", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestInitialize(t *testing.T) {
	srv := setupTestServer(t)
	cookie := login(t, srv)

	w := doJSON(srv, cookie, http.MethodPost, "/api/initialize",
		`{"ej_start":1000,"shared_start":500}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	t.Run("second initialize conflicts", func(t *testing.T) {
		w := doJSON(srv, cookie, http.MethodPost, "/api/initialize",
			`{"ej_start":1,"shared_start":1}`)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("negative start is rejected on an empty ledger", func(t *testing.T) {
		other := setupTestServer(t)
		otherCookie := login(t, other)
		w := doJSON(other, otherCookie, http.MethodPost, "/api/initialize",
			`{"ej_start":-5,"shared_start":0}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSummary(t *testing.T) {
	srv := setupTestServer(t)
	cookie := login(t, srv)

	t.Run("empty ledger", func(t *testing.T) {
		w := doJSON(srv, cookie, http.MethodGet, "/api/summary", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Initialized bool    `json:"initialized"`
			Total       float64 `json:"total"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Initialized)
		assert.Zero(t, resp.Total)
	})

	t.Run("reports balances and recent rows newest first", func(t *testing.T) {
		for i := 1; i <= 3; i++ {
			w := doJSON(srv, cookie, http.MethodPost, "/api/transactions",
				fmt.Sprintf(`{"date":"2026-01-0%d","description":"row %d","incoming_ej":10}`, i, i))
			require.Equal(t, http.StatusCreated, w.Code)
		}

		w := doJSON(srv, cookie, http.MethodGet, "/api/summary", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Initialized bool    `json:"initialized"`
			EJBalance   float64 `json:"ej_balance"`
			Recent      []struct {
				Description string `json:"description"`
			} `json:"recent"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Initialized)
		assert.InDelta(t, 30, resp.EJBalance, 0.001)
		require.NotEmpty(t, resp.Recent)
		assert.Equal(t, "row 3", resp.Recent[0].Description)
	})
}

func TestReceiptUpload(t *testing.T) {
	srv := setupTestServer(t)
	cookie := login(t, srv)

	w := doJSON(srv, cookie, http.MethodPost, "/api/transactions",
		`{"date":"2026-01-10","description":"Dinner","outgoing_ej":80}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Transaction struct {
			ID int64 `json:"id"`
		} `json:"transaction"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created.Transaction.ID

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("receipt", "dinner.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/transactions/%d/receipt", id), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cookie)
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var uploaded struct {
		Receipt    string `json:"receipt"`
		ReceiptURL string `json:"receipt_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploaded))
	assert.True(t, strings.HasSuffix(uploaded.Receipt, ".png"))
	assert.Equal(t, "/receipts/"+uploaded.Receipt, uploaded.ReceiptURL)

	t.Run("clear receipt", func(t *testing.T) {
		w := doJSON(srv, cookie, http.MethodDelete, fmt.Sprintf("/api/transactions/%d/receipt", id), "")
		assert.Equal(t, http.StatusOK, w.Code)

		w = doJSON(srv, cookie, http.MethodDelete, fmt.Sprintf("/api/transactions/%d/receipt", id), "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing file", func(t *testing.T) {
		w := doJSON(srv, cookie, http.MethodPost, fmt.Sprintf("/api/transactions/%d/receipt", id), "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestExportCSV(t *testing.T) {
	srv := setupTestServer(t)
	cookie := login(t, srv)

	w := doJSON(srv, cookie, http.MethodPost, "/api/transactions",
		`{"date":"2026-01-10","description":"Salary","incoming_ej":3000}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(srv, cookie, http.MethodGet, "/api/export.csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "ledger.csv")
	assert.Contains(t, w.Body.String(), "Salary")
	assert.Contains(t, w.Body.String(), "EJ Balance")
}

func TestAccrueEndpoint(t *testing.T) {
	srv := setupTestServer(t)
	cookie := login(t, srv)

	w := doJSON(srv, cookie, http.MethodPost, "/api/accrue", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "added")
}

func TestChat(t *testing.T) {
	srv := setupTestServer(t)
	cookie := login(t, srv)

	t.Run("post and read back", func(t *testing.T) {
		w := doJSON(srv, cookie, http.MethodPost, "/api/chat",
			`{"nickname":"EJ","message":"hello"}`)
		require.Equal(t, http.StatusCreated, w.Code)

		w = doJSON(srv, cookie, http.MethodGet, "/api/chat", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "hello")
	})

	t.Run("missing nickname", func(t *testing.T) {
		w := doJSON(srv, cookie, http.MethodPost, "/api/chat", `{"message":"hi"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("oversized message", func(t *testing.T) {
		long := strings.Repeat("x", 501)
		w := doJSON(srv, cookie, http.MethodPost, "/api/chat",
			fmt.Sprintf(`{"nickname":"EJ","message":%q}`, long))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
