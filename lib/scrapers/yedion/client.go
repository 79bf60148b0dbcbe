// Package yedion drives the academic records portal through login and
// report navigation and harvests raw grade records from the report
// markup. One Session is one scrape: the portal serves a stateful,
// cookie-bound UI flow, so every step must happen in order inside a
// single session and a failed scrape is retried from the top.
package yedion

import (
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"acadassist-backend/lib/htmlutil"
	"acadassist-backend/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// portal element selectors, version-dependent and brittle. everything
// that knows about them lives in this package.
const (
	selectorLoginForm      = "form:has(input[name=username])"
	selectorRecordsApp     = `[id="/Common/Yedion"]`
	selectorGradesMenu     = `a:contains('רשימת ציונים')`
	selectorYearSelect     = "select#R1C1"
	selectorScopeSelect    = "select#R1C2"
	selectorReportForm     = "form:has(select#R1C1)"
	selectorReportRoot     = "div.col-md-12.row.NoPadding.NoMarging"
	allYearsOptionValue    = "-1"
	annualScopeOptionValue = "0"
)

type ClientOptions struct {
	// portal entry url, e.g. https://sso.example.ac.il/my.policy
	BaseUrl string
	// bounded wait per ui step, defaults to 10s
	StepTimeout time.Duration
	// interval between element polls within a step, defaults to 500ms
	PollInterval time.Duration
}

type Client struct {
	baseUrl      *url.URL
	stepTimeout  time.Duration
	pollInterval time.Duration
}

func NewClient(opts ClientOptions) (*Client, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}
	if opts.StepTimeout == 0 {
		opts.StepTimeout = time.Second * 10
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = time.Millisecond * 500
	}
	return &Client{
		baseUrl:      baseUrl,
		stepTimeout:  opts.StepTimeout,
		pollInterval: opts.PollInterval,
	}, nil
}

// Session is one authenticated scrape attempt with its own cookie
// jar. Sessions are not shared between scrapes: concurrent scrapes
// for different students each open their own.
type Session struct {
	http         *resty.Client
	currentUrl   *url.URL
	stepTimeout  time.Duration
	pollInterval time.Duration
	closed       bool
}

// OpenSession acquires the session resource. The caller must Close it
// on every exit path.
func (c *Client) OpenSession(ctx context.Context) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", userAgent)
	client.SetTimeout(time.Second * 30)
	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	return &Session{
		http:         client,
		currentUrl:   c.baseUrl,
		stepTimeout:  c.stepTimeout,
		pollInterval: c.pollInterval,
	}, nil
}

// Close releases the session: cookies are dropped and kept-alive
// connections to the portal are torn down. Safe to call twice.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.http.SetCookieJar(nil)
	s.http.GetClient().CloseIdleConnections()
}

func (s *Session) resolve(href string) (*url.URL, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return nil, err
	}
	return s.currentUrl.ResolveReference(ref), nil
}

func (s *Session) fetch(ctx context.Context, target *url.URL) (*goquery.Document, error) {
	res, err := s.http.R().
		SetContext(ctx).
		Get(target.String())
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, err
	}
	s.currentUrl = target
	return doc, nil
}

func (s *Session) submit(ctx context.Context, action *url.URL, form url.Values) (*goquery.Document, error) {
	res, err := s.http.R().
		SetContext(ctx).
		SetFormDataFromValues(form).
		Post(action.String())
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, err
	}
	s.currentUrl = action
	return doc, nil
}

// waitOn repeatedly refetches the current page until the required
// element renders or the step deadline passes. The portal builds
// pages server-side after login/report actions complete, so "element
// not there yet" and "action still pending" look identical.
func (s *Session) waitOn(
	ctx context.Context,
	target *url.URL,
	selector string,
) (*goquery.Document, *goquery.Selection, error) {
	deadline := time.Now().Add(s.stepTimeout)
	for {
		doc, err := s.fetch(ctx, target)
		if err == nil {
			sel := doc.Find(selector)
			if len(sel.Nodes) > 0 {
				return doc, sel, nil
			}
		}

		if time.Now().After(deadline) {
			if err == nil {
				err = fmt.Errorf("element %q never appeared", selector)
			}
			return nil, nil, err
		}
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
}

// formValues collects the hidden/default inputs of a form so a
// submission carries whatever state tokens the portal planted in it.
func formValues(form *goquery.Selection) url.Values {
	values := url.Values{}
	form.Find("input").Each(func(_ int, input *goquery.Selection) {
		name := input.AttrOr("name", "")
		if name == "" {
			return
		}
		values.Set(name, input.AttrOr("value", ""))
	})
	form.Find("select").Each(func(_ int, sel *goquery.Selection) {
		name := sel.AttrOr("name", "")
		if name == "" {
			name = sel.AttrOr("id", "")
		}
		if name == "" {
			return
		}
		selected := sel.Find("option[selected]")
		values.Set(name, selected.AttrOr("value", ""))
	})
	return values
}

// Login performs the authentication half of the scrape: open the
// portal, submit credentials, and enter the records application. The
// portal does not report bad credentials, the next step's element
// just never appears, so every failure here maps to
// ErrAuthenticationFailed.
func (s *Session) Login(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "session:Login")
	defer span.End()

	// step 1: the login page
	_, loginForm, err := s.waitOn(ctx, s.currentUrl, selectorLoginForm)
	if err != nil {
		span.SetStatus(codes.Error, "login page did not render")
		return authStepError(StepOpenPortal, err)
	}

	// step 2: credentials
	form := formValues(loginForm)
	form.Set("username", username)
	form.Set("password", password)
	action, err := s.resolve(loginForm.AttrOr("action", ""))
	if err != nil {
		span.SetStatus(codes.Error, "bad login form action")
		return authStepError(StepSubmitCredentials, err)
	}
	landing, err := s.submit(ctx, action, form)
	if err != nil {
		span.SetStatus(codes.Error, "credential submission failed")
		return authStepError(StepSubmitCredentials, err)
	}

	// step 3: the records application launcher only renders for an
	// authenticated session
	launcher := landing.Find(selectorRecordsApp)
	if len(launcher.Nodes) == 0 {
		_, launcher, err = s.waitOn(ctx, s.currentUrl, selectorRecordsApp)
		if err != nil {
			span.SetStatus(codes.Error, "records app launcher never appeared")
			return authStepError(StepOpenRecordsApp, err)
		}
	}

	// activating the launcher opens a new browsing context; the
	// session follows its target url and that becomes the current view
	href := launcher.AttrOr("href", "")
	if href == "" {
		href = launcher.AttrOr("data-url", "")
	}
	appUrl, err := s.resolve(href)
	if err != nil {
		span.SetStatus(codes.Error, "bad records app url")
		return authStepError(StepOpenRecordsApp, err)
	}
	_, err = s.fetch(ctx, appUrl)
	if err != nil {
		span.SetStatus(codes.Error, "failed to open records app")
		return authStepError(StepOpenRecordsApp, err)
	}

	return nil
}

// OpenGradesReport drives the records application to the grades
// report and waits for its root container. Must be called after a
// successful Login on the same session.
func (s *Session) OpenGradesReport(ctx context.Context) (*goquery.Document, error) {
	ctx, span := tracer.Start(ctx, "session:OpenGradesReport")
	defer span.End()

	// step 4: grades report menu entry. still part of authentication
	// as far as the caller can tell, a rejected login sometimes only
	// shows up here.
	doc, menu, err := s.waitOn(ctx, s.currentUrl, selectorGradesMenu)
	if err != nil {
		span.SetStatus(codes.Error, "grades menu never appeared")
		return nil, authStepError(StepOpenGradesMenu, err)
	}
	menuUrl, err := s.resolve(menu.First().AttrOr("href", ""))
	if err != nil {
		span.SetStatus(codes.Error, "bad grades menu url")
		return nil, authStepError(StepOpenGradesMenu, err)
	}

	// step 5: the report scope form with its two selectors
	doc, _, err = s.waitOn(ctx, menuUrl, selectorYearSelect)
	if err != nil {
		span.SetStatus(codes.Error, "report scope form never appeared")
		return nil, reportStepError(StepConfigureScope, err)
	}
	reportForm := doc.Find(selectorReportForm)
	if len(reportForm.Nodes) == 0 {
		span.SetStatus(codes.Error, "report form missing")
		return nil, reportStepError(StepConfigureScope, fmt.Errorf("report form not found"))
	}
	if len(doc.Find(selectorScopeSelect).Nodes) == 0 {
		span.SetStatus(codes.Error, "scope selector missing")
		return nil, reportStepError(StepConfigureScope, fmt.Errorf("scope selector not found"))
	}

	form := formValues(reportForm)
	form.Set(selectName(doc, selectorYearSelect), allYearsOptionValue)
	form.Set(selectName(doc, selectorScopeSelect), annualScopeOptionValue)

	// step 6: submit the configured report
	action, err := s.resolve(reportForm.AttrOr("action", ""))
	if err != nil {
		span.SetStatus(codes.Error, "bad report form action")
		return nil, reportStepError(StepSubmitReport, err)
	}
	resultDoc, err := s.submit(ctx, action, form)
	if err != nil {
		span.SetStatus(codes.Error, "report submission failed")
		return nil, reportStepError(StepSubmitReport, err)
	}

	// step 7: the report root container marks ReportReady
	if len(resultDoc.Find(selectorReportRoot).Nodes) > 0 {
		return resultDoc, nil
	}
	resultDoc, _, err = s.waitOn(ctx, s.currentUrl, selectorReportRoot)
	if err != nil {
		span.SetStatus(codes.Error, "report container never appeared")
		return nil, reportStepError(StepAwaitReport, err)
	}

	return resultDoc, nil
}

func selectName(doc *goquery.Document, selector string) string {
	sel := doc.Find(selector)
	name := sel.AttrOr("name", "")
	if name == "" {
		name = sel.AttrOr("id", "")
	}
	return name
}

// cleanLabel strips the rendering noise portal labels carry.
func cleanLabel(sel *goquery.Selection) string {
	var parts []string
	for _, node := range sel.Nodes {
		parts = append(parts, htmlutil.GetText(node))
	}
	return htmlutil.CleanText(strings.Join(parts, " "))
}
