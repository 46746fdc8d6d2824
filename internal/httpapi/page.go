package httpapi

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"medchat/internal/chat"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type pageTurn struct {
	Role    string
	Speaker string
	HTML    template.HTML
}

type pageData struct {
	Title   string
	Tagline string
	Ready   bool
	State   string
	Error   string
	Turns   []pageTurn
}

func pageTurns(turns []chat.Turn) []pageTurn {
	out := make([]pageTurn, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case chat.RoleUser:
			out = append(out, pageTurn{Role: string(t.Role), Speaker: page.UserLabel, HTML: template.HTML(template.HTMLEscapeString(t.Content))})
		case chat.RoleAssistant:
			out = append(out, pageTurn{Role: string(t.Role), Speaker: page.AssistantLabel, HTML: renderMarkdown(t.Content)})
		}
	}
	return out
}

type pageHandlers struct {
	svc     Service
	flashes *flashes
	limiter *rateLimiter
}

func (h *pageHandlers) index(w http.ResponseWriter, r *http.Request) {
	sess := openSession(w, r, h.svc)
	st := h.svc.Status()
	data := pageData{
		Title:   page.Title,
		Tagline: page.Tagline,
		Ready:   h.svc.Ready(),
		State:   st.State,
		Error:   h.flashes.take(sess.ID),
		Turns:   pageTurns(sess.Turns()),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := indexTmpl.Execute(w, data); err != nil {
		pageRenderErrorsTotal.Inc()
		zlog.Error().Err(err).Msg("render page")
	}
}

// chat handles the form post and redirects back to the page.
func (h *pageHandlers) chat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if h.limiter != nil && !h.limiter.allow(clientKey(r)) {
		countRejection("rate_limit")
		// only an existing session gets the notice; no session is created
		if id := requestSessionID(r); id != "" {
			h.flashes.set(id, "Too many messages. Please wait a moment and try again.")
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	sess := openSession(w, r, h.svc)
	if err := r.ParseForm(); err != nil {
		h.flashes.set(sess.ID, "invalid form body")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	start := time.Now()
	lvl := requestLogLevel(r)
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	_, err := h.svc.Submit(ctx, sess.ID, r.PostFormValue("message"))
	status := http.StatusSeeOther
	switch {
	case err == nil, errors.Is(err, chat.ErrEmptyInput):
		err = nil
	default:
		status = statusFor(err)
		if status == http.StatusTooManyRequests {
			countRejection("queue")
		}
		h.flashes.set(sess.ID, err.Error())
	}
	logSubmit(r, lvl, sess.ID, status, start, err)
	if r.Context().Err() != nil {
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *pageHandlers) clear(w http.ResponseWriter, r *http.Request) {
	sess := openSession(w, r, h.svc)
	if err := h.svc.Clear(sess.ID); err != nil {
		h.flashes.set(sess.ID, err.Error())
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
