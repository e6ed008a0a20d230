package rest

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.metrics.instrument)

	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/token", s.handleToken).Methods(http.MethodPost)
	r.HandleFunc("/users", s.handleRegister).Methods(http.MethodPost)

	api := r.NewRoute().Subrouter()
	api.Use(s.requireAuth)
	api.HandleFunc("/users/me", s.handleMe).Methods(http.MethodGet)
	api.HandleFunc("/chats/{chatID}/messages", s.handleSendMessage).Methods(http.MethodPost)
	api.HandleFunc("/chats/{chatID}/messages", s.handleListMessages).Methods(http.MethodGet)
	api.HandleFunc("/messages/{messageID}/attachment/uploaded", s.handleAttachmentUploaded).Methods(http.MethodPost)
	api.HandleFunc("/messages/{messageID}/attachment", s.handleAttachmentURL).Methods(http.MethodGet)
	api.HandleFunc("/notifications/payment", s.handlePaymentNotification).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, detailNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return Chain(
		Recovery(s.logger),
		RequestLogger(s.logger),
		CORS(s.opts.AllowedOrigins),
	)(r)
}
