package studentdata

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"acadassist-backend/lib/transcript"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHttpSurface(t *testing.T) {
	service, cleanup := setupService(t)
	defer cleanup()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	seedCatalog(t, service, ctx)
	hash, err := bcrypt.GenerateFromPassword([]byte("sisma123"), bcrypt.MinCost)
	require.NoError(t, err)
	_, err = service.saveStudent(ctx, "Israel.Israeli", string(hash), "מדעי המחשב", transcript.Summary{})
	require.NoError(t, err)

	mux := http.NewServeMux()
	service.RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	t.Run("guest", func(t *testing.T) {
		res, err := http.Get(server.URL + "/auth/guest")
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)

		var body userResponse
		require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
		require.Equal(t, "success", body.Status)
		require.True(t, body.User.IsGuest)
	})

	t.Run("login", func(t *testing.T) {
		payload := []byte(`{"username":"Israel.Israeli","password":"sisma123"}`)
		res, err := http.Post(server.URL+"/auth/login", "application/json", bytes.NewReader(payload))
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)

		var body userResponse
		require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
		require.Equal(t, "Israel", body.User.Name)
	})

	t.Run("login rejected", func(t *testing.T) {
		payload := []byte(`{"username":"Israel.Israeli","password":"wrong"}`)
		res, err := http.Post(server.URL+"/auth/login", "application/json", bytes.NewReader(payload))
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	})

	t.Run("courses", func(t *testing.T) {
		res, err := http.Get(server.URL + "/courses?department=" + url.QueryEscape("מדעי המחשב") + "&generalcourses=false")
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)

		var courses []map[string]any
		require.NoError(t, json.NewDecoder(res.Body).Decode(&courses))
		require.Len(t, courses, 2)
	})

	t.Run("catalog ingest", func(t *testing.T) {
		payload := []byte(`{
			"department": "הנדסת תוכנה",
			"courses": [{"courseCode": "SE101.1", "realCourseCode": "20101", "courseName": "מבוא להנדסת תוכנה", "courseType": "חובה", "courseCredit": "4"}]
		}`)
		req, err := http.NewRequest(http.MethodPut, server.URL+"/courses", bytes.NewReader(payload))
		require.NoError(t, err)
		res, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)

		get, err := http.Get(server.URL + "/courses?department=" + url.QueryEscape("הנדסת תוכנה") + "&generalcourses=false")
		require.NoError(t, err)
		defer get.Body.Close()
		require.Equal(t, http.StatusOK, get.StatusCode)

		var courses []map[string]any
		require.NoError(t, json.NewDecoder(get.Body).Decode(&courses))
		require.Len(t, courses, 1)
	})

	t.Run("catalog ingest unknown department", func(t *testing.T) {
		payload := []byte(`{"department": "לימודי חלל", "courses": []}`)
		req, err := http.NewRequest(http.MethodPut, server.URL+"/courses", bytes.NewReader(payload))
		require.NoError(t, err)
		res, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusNotFound, res.StatusCode)
	})

	t.Run("schedule not found", func(t *testing.T) {
		res, err := http.Get(server.URL + "/schedule/nope1234")
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusNotFound, res.StatusCode)
	})
}
