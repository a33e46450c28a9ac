package handlers

import (
	"net/http"
	"testing"

	"urldash/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serverView struct {
	PublicID string `json:"publicId"`
	Name     string `json:"name"`
	BaseURL  string `json:"baseUrl"`
	APIKey   string `json:"apiKey"`
	Users    []struct {
		Username string `json:"username"`
	} `json:"users"`
}

func (e *testEnv) createServer(t *testing.T, cookies []*http.Cookie, name string) serverView {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/servers", map[string]string{
		"name":    name,
		"baseUrl": "https://" + name + ".example.com/",
		"apiKey":  "key-" + name,
	}, cookies)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[serverView](t, w)
}

func TestServerHandlers(t *testing.T) {
	env := setupTestHandler(t, testConfig())
	env.createUser(t, "alice", "password-123", models.RoleManagedUser, false)
	env.createUser(t, "mallory", "password-123", models.RoleManagedUser, false)
	alice := env.login(t, "alice", "password-123")
	mallory := env.login(t, "mallory", "password-123")

	server := env.createServer(t, alice, "prod")
	assert.Equal(t, "https://prod.example.com", server.BaseURL)
	assert.NotEmpty(t, server.PublicID)

	t.Run("Create validation", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/servers", map[string]string{
			"name": "bad", "baseUrl": "ftp://example.com", "apiKey": "k",
		}, alice)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = env.do(t, http.MethodPost, "/api/servers", map[string]string{
			"name": "   ", "baseUrl": "https://example.com", "apiKey": "k",
		}, alice)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = env.do(t, http.MethodPost, "/api/servers", map[string]string{"name": "x"}, alice)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("List is scoped to the owner", func(t *testing.T) {
		env.createServer(t, alice, "staging")

		w := env.do(t, http.MethodGet, "/api/servers?searchTerm=stag", nil, alice)
		require.Equal(t, http.StatusOK, w.Code)
		list := decode[struct {
			Data []serverView `json:"data"`
		}](t, w)
		require.Len(t, list.Data, 1)
		assert.Equal(t, "staging", list.Data[0].Name)

		w = env.do(t, http.MethodGet, "/api/servers?populateUsers=true", nil, alice)
		require.Equal(t, http.StatusOK, w.Code)
		list = decode[struct {
			Data []serverView `json:"data"`
		}](t, w)
		require.Len(t, list.Data, 2)
		require.Len(t, list.Data[0].Users, 1)
		assert.Equal(t, "alice", list.Data[0].Users[0].Username)

		w = env.do(t, http.MethodGet, "/api/servers", nil, mallory)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decode[struct {
			Data []serverView `json:"data"`
		}](t, w).Data)
	})

	t.Run("Get", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/servers/"+server.PublicID, nil, alice)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "prod", decode[serverView](t, w).Name)

		w = env.do(t, http.MethodGet, "/api/servers/"+server.PublicID, nil, mallory)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Patch", func(t *testing.T) {
		w := env.do(t, http.MethodPatch, "/api/servers/"+server.PublicID, map[string]string{"name": "production"}, alice)
		require.Equal(t, http.StatusOK, w.Code)
		updated := decode[serverView](t, w)
		assert.Equal(t, "production", updated.Name)
		assert.Equal(t, "key-prod", updated.APIKey)

		w = env.do(t, http.MethodPatch, "/api/servers/"+server.PublicID, map[string]string{"apiKey": ""}, alice)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = env.do(t, http.MethodPatch, "/api/servers/"+server.PublicID, map[string]string{"baseUrl": "nope"}, alice)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = env.do(t, http.MethodPatch, "/api/servers/"+server.PublicID, map[string]string{"name": "stolen"}, mallory)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Delete", func(t *testing.T) {
		doomed := env.createServer(t, alice, "doomed")

		w := env.do(t, http.MethodDelete, "/api/servers/"+doomed.PublicID, nil, mallory)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = env.do(t, http.MethodDelete, "/api/servers/"+doomed.PublicID, nil, alice)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = env.do(t, http.MethodGet, "/api/servers/"+doomed.PublicID, nil, alice)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestFavoriteHandlers(t *testing.T) {
	env := setupTestHandler(t, testConfig())
	env.createUser(t, "alice", "password-123", models.RoleManagedUser, false)
	env.createUser(t, "mallory", "password-123", models.RoleManagedUser, false)
	alice := env.login(t, "alice", "password-123")
	mallory := env.login(t, "mallory", "password-123")
	server := env.createServer(t, alice, "prod")
	base := "/api/servers/" + server.PublicID + "/favorites"

	fav := map[string]string{"shortUrlId": "abc123", "shortUrl": "https://s.example.com/abc123", "longUrl": "https://example.com/long"}

	w := env.do(t, http.MethodPost, base, fav, alice)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, base, fav, alice)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, base, nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Data []struct {
			ShortURLID string `json:"shortUrlId"`
		} `json:"data"`
	}](t, w)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "abc123", list.Data[0].ShortURLID)

	t.Run("Foreign server", func(t *testing.T) {
		w := env.do(t, http.MethodGet, base, nil, mallory)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = env.do(t, http.MethodPost, base, fav, mallory)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("QR PNG", func(t *testing.T) {
		w := env.do(t, http.MethodGet, base+"/abc123/qr?size=128", nil, alice)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.Equal(t, []byte("\x89PNG"), w.Body.Bytes()[:4])
	})

	t.Run("QR SVG", func(t *testing.T) {
		w := env.do(t, http.MethodGet, base+"/abc123/qr?format=svg&fg=%23ff0000", nil, alice)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Body.String(), "<svg")
		assert.Contains(t, w.Body.String(), "#ff0000")
	})

	t.Run("QR unknown favorite", func(t *testing.T) {
		w := env.do(t, http.MethodGet, base+"/missing/qr", nil, alice)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Remove", func(t *testing.T) {
		w := env.do(t, http.MethodDelete, base+"/abc123", nil, alice)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = env.do(t, http.MethodDelete, base+"/abc123", nil, alice)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestFolderHandlers(t *testing.T) {
	env := setupTestHandler(t, testConfig())
	env.createUser(t, "alice", "password-123", models.RoleManagedUser, false)
	alice := env.login(t, "alice", "password-123")
	server := env.createServer(t, alice, "prod")
	base := "/api/servers/" + server.PublicID + "/folders"

	type folderView struct {
		PublicID string `json:"publicId"`
		Name     string `json:"name"`
		Items    []struct {
			ShortURLID string `json:"shortUrlId"`
		} `json:"items"`
	}

	w := env.do(t, http.MethodPost, base, map[string]string{"name": " Campaigns "}, alice)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	folder := decode[folderView](t, w)
	assert.Equal(t, "Campaigns", folder.Name)

	w = env.do(t, http.MethodPost, base, map[string]string{"name": "Campaigns"}, alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, base+"/"+folder.PublicID+"/items", map[string]string{"shortUrlId": "abc123"}, alice)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPatch, base+"/"+folder.PublicID, map[string]string{"name": "Launch"}, alice)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Launch", decode[folderView](t, w).Name)

	w = env.do(t, http.MethodGet, base, nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Data []folderView `json:"data"`
	}](t, w)
	require.Len(t, list.Data, 1)
	require.Len(t, list.Data[0].Items, 1)
	assert.Equal(t, "abc123", list.Data[0].Items[0].ShortURLID)

	w = env.do(t, http.MethodDelete, base+"/"+folder.PublicID+"/items/abc123", nil, alice)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, http.MethodDelete, base+"/"+folder.PublicID+"/items/abc123", nil, alice)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodDelete, base+"/"+folder.PublicID, nil, alice)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, http.MethodPatch, base+"/"+folder.PublicID, map[string]string{"name": "Gone"}, alice)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApiKeyHandlers(t *testing.T) {
	env := setupTestHandler(t, testConfig())
	env.createUser(t, "alice", "password-123", models.RoleManagedUser, false)
	alice := env.login(t, "alice", "password-123")
	server := env.createServer(t, alice, "prod")
	base := "/api/servers/" + server.PublicID + "/api-keys"

	type keyView struct {
		PublicID   string   `json:"publicId"`
		KeyHint    string   `json:"keyHint"`
		Tags       []string `json:"tags"`
		UsageCount int      `json:"usageCount"`
	}

	w := env.do(t, http.MethodPost, base, map[string]any{
		"name": "ci", "key": "secret-value-9876", "tags": []string{"deploy"},
	}, alice)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	key := decode[keyView](t, w)
	assert.Equal(t, "****9876", key.KeyHint)
	assert.Equal(t, []string{"deploy"}, key.Tags)
	assert.NotContains(t, w.Body.String(), "secret-value-9876")

	w = env.do(t, http.MethodPost, base+"/"+key.PublicID+"/usage", nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[keyView](t, w).UsageCount)

	w = env.do(t, http.MethodGet, base, nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[struct {
		Data []keyView `json:"data"`
	}](t, w).Data, 1)

	w = env.do(t, http.MethodDelete, base+"/"+key.PublicID, nil, alice)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, http.MethodPost, base+"/"+key.PublicID+"/usage", nil, alice)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
