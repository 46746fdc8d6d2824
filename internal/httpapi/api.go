package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"medchat/internal/chat"
	"medchat/pkg/types"
)

func turnView(t chat.Turn) types.TurnView {
	return types.TurnView{Role: string(t.Role), Content: t.Content, AtUnix: t.At.Unix()}
}

func turnViews(turns []chat.Turn) []types.TurnView {
	out := make([]types.TurnView, len(turns))
	for i, t := range turns {
		out[i] = turnView(t)
	}
	return out
}

type apiHandlers struct {
	svc     Service
	limiter *rateLimiter
}

// session resolves the caller's session. A named but unknown session is an
// error; no name at all opens a new one.
func (h *apiHandlers) session(w http.ResponseWriter, r *http.Request) (*chat.Session, bool) {
	id := requestSessionID(r)
	if id == "" {
		return openSession(w, r, h.svc), true
	}
	sess, err := h.svc.Session(id)
	if err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return nil, false
	}
	return sess, true
}

func (h *apiHandlers) turns(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, types.TranscriptResponse{SessionID: sess.ID, Turns: turnViews(sess.Turns()), LastError: sess.LastError()})
}

func (h *apiHandlers) submit(w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req types.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// size overruns also land here; report 400 without detail
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	// limited callers get no session or cookie
	if h.limiter != nil && !h.limiter.allow(clientKey(r)) {
		countRejection("rate_limit")
		writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	start := time.Now()
	lvl := requestLogLevel(r)
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	reply, err := h.svc.Submit(ctx, sess.ID, req.Message)
	if err != nil && !errors.Is(err, chat.ErrEmptyInput) {
		// client gone or shutting down: nothing to write
		if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
			return
		}
		status := statusFor(err)
		if status == http.StatusTooManyRequests {
			countRejection("queue")
		}
		logSubmit(r, lvl, sess.ID, status, start, err)
		writeJSONError(w, status, err.Error())
		return
	}
	resp := types.SubmitResponse{SessionID: sess.ID, Turns: turnViews(sess.Turns())}
	if err == nil {
		v := turnView(reply)
		resp.Reply = &v
	}
	logSubmit(r, lvl, sess.ID, http.StatusOK, start, nil)
	writeJSON(w, resp)
}

func (h *apiHandlers) clear(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := h.svc.Clear(sess.ID); err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, types.TranscriptResponse{SessionID: sess.ID, Turns: turnViews(sess.Turns())})
}
