package httpapi

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medchat/internal/llm"
)

func postForm(r http.Handler, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func getPage(r http.Handler, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIndex_SetsCookieAndHidesSystemTurn(t *testing.T) {
	r := NewMux(newMockService("hi"))
	w := getPage(r, nil)
	require.Equal(t, http.StatusOK, w.Code)
	c := sessionCookieFrom(t, w)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)

	body := w.Body.String()
	assert.NotContains(t, body, testSystem, "system prompt leaked into page")
	assert.Contains(t, body, `action="/chat"`)
	assert.Contains(t, body, "Clear Chat")
}

func TestChatPost_RedirectsAndRenders(t *testing.T) {
	svc := newMockService("**Rest** and drink water.")
	r := NewMux(svc)
	c := sessionCookieFrom(t, getPage(r, nil))

	w := postForm(r, "/chat", url.Values{"message": {"I feel <dizzy>"}}, c)
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))

	body := getPage(r, c).Body.String()
	assert.Contains(t, body, "I feel &lt;dizzy&gt;")
	assert.Contains(t, body, "<strong>Rest</strong>")
	assert.Contains(t, body, "You:")
	assert.Contains(t, body, "Doctor:")
	require.Len(t, svc.prompts, 1)
	assert.True(t, strings.HasPrefix(svc.prompts[0], testSystem), "prompt=%q", svc.prompts[0])
}

func TestChatPost_EmptyIsNoop(t *testing.T) {
	svc := newMockService("x")
	r := NewMux(svc)
	c := sessionCookieFrom(t, getPage(r, nil))
	w := postForm(r, "/chat", url.Values{"message": {"   "}}, c)
	require.Equal(t, http.StatusSeeOther, w.Code)
	turns, err := svc.Transcript(c.Value)
	require.NoError(t, err)
	assert.Len(t, turns, 1)
	assert.Empty(t, svc.prompts)
}

func TestChatPost_ErrorShownOnce(t *testing.T) {
	svc := newMockService("x")
	svc.submitErr = llm.ErrDependencyUnavailable("llama server unavailable")
	r := NewMux(svc)
	c := sessionCookieFrom(t, getPage(r, nil))
	postForm(r, "/chat", url.Values{"message": {"hi"}}, c)
	assert.Contains(t, getPage(r, c).Body.String(), "llama server unavailable")
	assert.NotContains(t, getPage(r, c).Body.String(), "llama server unavailable", "banner shown twice")
}

func TestClearPost(t *testing.T) {
	svc := newMockService("ok")
	r := NewMux(svc)
	c := sessionCookieFrom(t, getPage(r, nil))
	postForm(r, "/chat", url.Values{"message": {"hi"}}, c)
	w := postForm(r, "/clear", nil, c)
	require.Equal(t, http.StatusSeeOther, w.Code)
	turns, err := svc.Transcript(c.Value)
	require.NoError(t, err)
	assert.Len(t, turns, 1, "expected only the system turn")
}

func TestChatPost_RateLimited(t *testing.T) {
	SetRateLimit(1)
	defer SetRateLimit(0)
	svc := newMockService("ok")
	r := NewMux(svc)
	c := sessionCookieFrom(t, getPage(r, nil))
	postForm(r, "/chat", url.Values{"message": {"one"}}, c)
	postForm(r, "/chat", url.Values{"message": {"two"}}, c)
	assert.Len(t, svc.prompts, 1, "second submit should be limited")
	assert.Contains(t, getPage(r, c).Body.String(), "Too many messages")
}

func TestChatPost_RateLimitedAnonymousGetsNoSession(t *testing.T) {
	SetRateLimit(1)
	defer SetRateLimit(0)
	svc := newMockService("ok")
	r := NewMux(svc)
	postForm(r, "/chat", url.Values{"message": {"one"}}, nil)
	require.Equal(t, 1, svc.Sessions())

	w := postForm(r, "/chat", url.Values{"message": {"two"}}, nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Empty(t, w.Result().Cookies(), "limited request set a cookie")
	assert.Equal(t, 1, svc.Sessions(), "limited request created a session")
}

func TestIndex_NotReadyBanner(t *testing.T) {
	svc := newMockService("")
	svc.ready = false
	svc.status.State = "loading"
	assert.Contains(t, getPage(NewMux(svc), nil).Body.String(), "The model is loading")
}
