package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/DeusData/cypher-builder/internal/builder"
	"github.com/DeusData/cypher-builder/internal/cypher"
	"github.com/DeusData/cypher-builder/internal/schema"
	"github.com/DeusData/cypher-builder/internal/session"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("http.encode", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// sessionFrom resolves the {id} path parameter, writing a 404 when the
// session does not exist.
func (rt *Router) sessionFrom(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := rt.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return sess, true
}

func (rt *Router) createSession(w http.ResponseWriter, _ *http.Request) {
	sess := rt.sessions.Create()
	writeJSON(w, http.StatusCreated, sess.View())
}

func (rt *Router) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := rt.sessionFrom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

func (rt *Router) closeSession(w http.ResponseWriter, r *http.Request) {
	if err := rt.sessions.Close(chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type eventResponse struct {
	builder.Result
	Session session.View `json:"session"`
}

func (rt *Router) applyEvent(w http.ResponseWriter, r *http.Request) {
	sess, ok := rt.sessionFrom(w, r)
	if !ok {
		return
	}
	var ev builder.Event
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode event: %v", err))
		return
	}
	res, err := sess.Apply(ev)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, eventResponse{Result: res, Session: sess.View()})
}

// setSchema accepts a JSON or YAML schema document as the request body.
func (rt *Router) setSchema(w http.ResponseWriter, r *http.Request) {
	sess, ok := rt.sessionFrom(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sc, err := schema.Parse(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("parse schema: %v", err))
		return
	}
	sess.SetSchema(sc)
	writeJSON(w, http.StatusOK, sess.View())
}

type templateEntry struct {
	Index       int    `json:"index"`
	Description string `json:"description"`
	Cypher      string `json:"cypher"`
}

func (rt *Router) listTemplates(w http.ResponseWriter, r *http.Request) {
	sess, ok := rt.sessionFrom(w, r)
	if !ok {
		return
	}
	tpls := sess.Templates()
	out := make([]templateEntry, 0, len(tpls))
	for i, t := range tpls {
		out = append(out, templateEntry{Index: i, Description: t.Description, Cypher: t.Cypher})
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": out, "total": len(out)})
}

func (rt *Router) applyTemplate(w http.ResponseWriter, r *http.Request) {
	sess, ok := rt.sessionFrom(w, r)
	if !ok {
		return
	}
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "template index must be an integer")
		return
	}
	if _, err := sess.ApplyTemplate(idx); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, session.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

func (rt *Router) cypher(w http.ResponseWriter, r *http.Request) {
	sess, ok := rt.sessionFrom(w, r)
	if !ok {
		return
	}
	text := sess.Cypher()
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, text)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cypher": text,
		"spans":  cypher.Tokenize(text),
	})
}
