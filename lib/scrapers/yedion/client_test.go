package yedion

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"acadassist-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const testUsername = "israel.israeli"
const testPassword = "sisma123"

type portalStub struct {
	mux *http.ServeMux
	// set to break the report half of the flow
	omitReportForm bool
}

func newPortalStub() *portalStub {
	p := &portalStub{mux: http.NewServeMux()}

	p.mux.HandleFunc("GET /my.policy", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<form action="/my.policy" method="post">
				<input type="hidden" name="vhost" value="standard">
				<input type="text" name="username">
				<input type="password" name="password">
				<input type="submit" value="כניסה">
			</form>
		</body></html>`)
	})
	p.mux.HandleFunc("POST /my.policy", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("username") != testUsername || r.FormValue("password") != testPassword {
			fmt.Fprint(w, `<html><body><div class="error">פרטי ההתחברות שגויים</div></body></html>`)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "MRHSession", Value: "stub-session", Path: "/"})
		fmt.Fprint(w, `<html><body>
			<span id="/Common/Yedion" href="/yedion/main">תחנת מידע</span>
		</body></html>`)
	})

	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("MRHSession")
			if err != nil || cookie.Value != "stub-session" {
				w.WriteHeader(http.StatusForbidden)
				fmt.Fprint(w, `<html><body>session expired</body></html>`)
				return
			}
			next(w, r)
		}
	}

	p.mux.HandleFunc("GET /yedion/main", authed(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><nav>
			<a href="/yedion/schedule"><div><div>מערכת שעות</div></div></a>
			<a href="/yedion/grades"><div><div>רשימת ציונים</div></div></a>
		</nav></body></html>`)
	}))
	p.mux.HandleFunc("GET /yedion/grades", authed(func(w http.ResponseWriter, r *http.Request) {
		if p.omitReportForm {
			fmt.Fprint(w, `<html><body>השירות אינו זמין כעת</body></html>`)
			return
		}
		fmt.Fprint(w, `<html><body>
			<form action="/yedion/grades/run" method="post">
				<input type="hidden" name="PRGNAME" value="Grades">
				<select id="R1C1" name="R1C1">
					<option value="2024" selected>תשפ"ד</option>
					<option value="-1">כל השנים</option>
				</select>
				<select id="R1C2" name="R1C2">
					<option value="1" selected>סמסטריאלי</option>
					<option value="0">שנתי</option>
				</select>
				<a onclick="SubmitForm()">הצג</a>
			</form>
		</body></html>`)
	}))
	p.mux.HandleFunc("POST /yedion/grades/run", authed(func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("R1C1") != "-1" || r.FormValue("R1C2") != "0" {
			fmt.Fprint(w, `<html><body>בחירה לא חוקית</body></html>`)
			return
		}
		w.Write(gradesReportFixture)
	}))

	return p
}

func newTestClient(t *testing.T, serverUrl string) *Client {
	client, err := NewClient(ClientOptions{
		BaseUrl:      serverUrl + "/my.policy",
		StepTimeout:  time.Second,
		PollInterval: time.Millisecond * 50,
	})
	require.NoError(t, err)
	return client
}

func TestScrapeFlow(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrapers/yedion")
	defer cleanup()

	server := httptest.NewServer(newPortalStub().mux)
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	session, err := client.OpenSession(ctx)
	require.NoError(t, err)
	defer session.Close()

	err = session.Login(ctx, testUsername, testPassword)
	require.NoError(t, err)

	doc, err := session.OpenGradesReport(ctx)
	require.NoError(t, err)

	attempts, err := Harvest(ctx, NewReportSource(doc))
	require.NoError(t, err)
	require.Len(t, attempts, 4)
}

func TestLoginRejected(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrapers/yedion")
	defer cleanup()

	server := httptest.NewServer(newPortalStub().mux)
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	session, err := client.OpenSession(ctx)
	require.NoError(t, err)
	defer session.Close()

	err = session.Login(ctx, testUsername, "wrong-password")
	require.ErrorIs(t, err, ErrAuthenticationFailed)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	require.Equal(t, StepOpenRecordsApp, stepErr.Step)
}

func TestReportUnavailable(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrapers/yedion")
	defer cleanup()

	stub := newPortalStub()
	stub.omitReportForm = true
	server := httptest.NewServer(stub.mux)
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	session, err := client.OpenSession(ctx)
	require.NoError(t, err)
	defer session.Close()

	err = session.Login(ctx, testUsername, testPassword)
	require.NoError(t, err)

	_, err = session.OpenGradesReport(ctx)
	require.ErrorIs(t, err, ErrReportUnreachable)
	require.NotErrorIs(t, err, ErrAuthenticationFailed)
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	server := httptest.NewServer(newPortalStub().mux)
	defer server.Close()

	client := newTestClient(t, server.URL)
	session, err := client.OpenSession(context.Background())
	require.NoError(t, err)

	session.Close()
	session.Close()
}
