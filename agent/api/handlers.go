package api

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
	"github.com/tanpawarit/merchant-sales-agent/agent/incident"
	"github.com/tanpawarit/merchant-sales-agent/agent/usage"
	"github.com/tanpawarit/merchant-sales-agent/pkg/qstash"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}

// writeDomainError maps sentinel errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, contractx.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, contractx.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		log.Error().Err(err).Str("request_id", RequestIDFromContext(r.Context())).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	})
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageRequest struct {
	Messages       []chatMessage `json:"messages"`
	ConversationID string        `json:"conversationId,omitempty"`
	UserID         string        `json:"userId,omitempty"`
	Channel        string        `json:"channel,omitempty"`
	Confidence     *float64      `json:"confidence,omitempty"`
	Sentiment      *float64      `json:"sentiment,omitempty"`
}

func toHistory(msgs []chatMessage) ([]*schema.Message, error) {
	history := make([]*schema.Message, 0, len(msgs))
	for _, m := range msgs {
		switch strings.ToLower(strings.TrimSpace(m.Role)) {
		case "user":
			history = append(history, schema.UserMessage(m.Content))
		case "assistant":
			history = append(history, schema.AssistantMessage(m.Content, nil))
		default:
			return nil, errors.New("unsupported message role " + m.Role)
		}
	}
	return history, nil
}

func toChannel(raw string) (contractx.Channel, error) {
	switch ch := contractx.Channel(strings.ToLower(strings.TrimSpace(raw))); ch {
	case "":
		return contractx.ChannelMerchant, nil
	case contractx.ChannelMerchant, contractx.ChannelSupport:
		return ch, nil
	default:
		return "", errors.New("unsupported channel " + raw)
	}
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON: "+err.Error())
		return
	}
	history, err := toHistory(req.Messages)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	channel, err := toChannel(req.Channel)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	resp, err := s.agent.HandleMessage(r.Context(), chi.URLParam(r, "storeID"), history, contractx.Options{
		ConversationID: req.ConversationID,
		RequestID:      RequestIDFromContext(r.Context()),
		UserID:         req.UserID,
		Channel:        channel,
		Confidence:     req.Confidence,
		Sentiment:      req.Sentiment,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	decision, err := s.usage.CheckLimits(r.Context(), chi.URLParam(r, "storeID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

type addonRequest struct {
	PackKey           string `json:"packKey"`
	MessagesAdded     int    `json:"messagesAdded"`
	ImagesAdded       int    `json:"imagesAdded"`
	DeviceFingerprint string `json:"deviceFingerprint,omitempty"`
}

func (s *Server) handlePurchaseAddon(w http.ResponseWriter, r *http.Request) {
	var req addonRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON: "+err.Error())
		return
	}

	purchase, err := s.usage.PurchaseAddon(r.Context(), usage.AddonRequest{
		StoreID:           chi.URLParam(r, "storeID"),
		PackKey:           req.PackKey,
		MessagesAdded:     req.MessagesAdded,
		ImagesAdded:       req.ImagesAdded,
		IPAddress:         clientIP(r),
		DeviceFingerprint: req.DeviceFingerprint,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, purchase)
}

// clientIP relies on middleware.RealIP having rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) handleReportIncident(w http.ResponseWriter, r *http.Request) {
	var req incident.Report
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON: "+err.Error())
		return
	}
	inc, err := s.incidents.ReportIncident(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, inc)
}

func (s *Server) handleClassifyIncident(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "read body: "+err.Error())
		return
	}
	if s.verifier != nil {
		if err := s.verifier.Verify(r.Header.Get(qstash.SignatureHeader), body, s.callbackURL); err != nil {
			log.Warn().Err(err).Str("request_id", RequestIDFromContext(r.Context())).Msg("rejected classification callback")
			writeError(w, http.StatusUnauthorized, "invalid_signature", "signature verification failed")
			return
		}
	}

	var req incident.ClassifyRequest
	if err := json.Unmarshal(body, &req); err != nil || strings.TrimSpace(req.IncidentID) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "incidentId is required")
		return
	}
	inc, err := s.incidents.Classify(r.Context(), req.IncidentID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inc)
}
