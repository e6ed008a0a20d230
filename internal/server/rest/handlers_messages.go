package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/totymark/totymark/internal/common"
	"github.com/totymark/totymark/internal/server/auth"
	"github.com/totymark/totymark/internal/server/services"
)

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFromContext(r.Context())

	var req sendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.messages.Send(r.Context(), services.SendInput{
		ChatID:                mux.Vars(r)["chatID"],
		Sender:                p.UserName,
		Body:                  req.Body,
		AttachmentContentType: req.AttachmentContentType,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := toMessageResponse(res.Message)
	out.UploadURL = res.UploadURL
	writeJSONStatus(w, http.StatusCreated, out)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var since time.Time
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			s.writeError(w, r, &common.ValidationError{Reason: "since must be an RFC 3339 timestamp"})
			return
		}
		since = t
	}

	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, r, &common.ValidationError{Reason: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	msgs, err := s.messages.List(r.Context(), mux.Vars(r)["chatID"], since, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := listMessagesResponse{Messages: make([]messageResponse, 0, len(msgs))}
	for _, m := range msgs {
		out.Messages = append(out.Messages, toMessageResponse(m))
	}
	writeJSON(w, out)
}

func (s *Server) handleAttachmentUploaded(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFromContext(r.Context())

	if err := s.messages.MarkUploaded(r.Context(), p.UserName, mux.Vars(r)["messageID"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAttachmentURL(w http.ResponseWriter, r *http.Request) {
	url, err := s.messages.AttachmentURL(r.Context(), mux.Vars(r)["messageID"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, downloadResponse{DownloadURL: url})
}
