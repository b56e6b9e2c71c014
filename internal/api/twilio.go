// ABOUTME: Twilio SMS and voice webhooks with optional request signature validation
// ABOUTME: Replies are TwiML documents built with encoding/xml so caller text is always escaped
package api

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // Twilio signs webhooks with HMAC-SHA1.
	"encoding/base64"
	"encoding/xml"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/harper/frontdesk/internal/core"
	"github.com/harper/frontdesk/internal/models"
)

const (
	headerTwilioSignature = "X-Twilio-Signature"
	defaultClinicName     = "our clinic"
	defaultFrontDeskPhone = "(864) 770-8822"
	afterHoursVoice       = "We are currently outside business hours. " +
		"Please leave a detailed voicemail, or use our website chat to request a callback."
)

type twiml struct {
	XMLName xml.Name  `xml:"Response"`
	Message string    `xml:"Message,omitempty"`
	Say     string    `xml:"Say,omitempty"`
	Hangup  *struct{} `xml:"Hangup"`
}

func writeTwiML(w http.ResponseWriter, doc twiml) {
	out, err := xml.Marshal(doc)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(xml.Header))
	_, _ = w.Write(out)
}

// SMSWebhook answers an inbound text message
func (h *Handler) SMSWebhook(w http.ResponseWriter, r *http.Request) {
	if !h.parseTwilio(w, r) {
		return
	}
	from := strings.TrimSpace(r.PostForm.Get("From"))
	body := r.PostForm.Get("Body")
	if from == "" || strings.TrimSpace(body) == "" {
		Error(w, http.StatusUnprocessableEntity, "From and Body are required")
		return
	}

	sess, err := h.Sessions.GetOrCreateByPhone(r.Context(), models.HashPhone(from), models.ChannelSMS)
	if err != nil {
		h.internalError(w, r, "sms session lookup failed", err)
		return
	}
	reply, err := h.Conversations.Handle(r.Context(), core.Inbound{
		SessionID: sess.ID,
		Channel:   models.ChannelSMS,
		Text:      body,
	})
	if err != nil {
		h.internalError(w, r, "handle sms failed", err)
		return
	}
	writeTwiML(w, twiml{Message: reply.ResponseText})
}

// VoiceWebhook greets a caller and hangs up
func (h *Handler) VoiceWebhook(w http.ResponseWriter, r *http.Request) {
	if !h.parseTwilio(w, r) {
		return
	}

	text := afterHoursVoice
	if h.Hours == nil || h.Hours.IsOpenNow(h.Now()) {
		policies, err := h.Policies.ActivePolicies(r.Context())
		if err != nil {
			h.logger.Warn("policy lookup failed for voice greeting", "error", err)
		}
		phone := policies[models.PolicyPhone]
		if phone == "" {
			phone = defaultFrontDeskPhone
		}
		clinic := h.Config.ClinicName
		if clinic == "" {
			clinic = defaultClinicName
		}
		text = "Thanks for calling " + clinic + ". Please call our front desk at " + phone +
			" for immediate assistance."
	}
	writeTwiML(w, twiml{Say: text, Hangup: &struct{}{}})
}

// parseTwilio parses the form and, when enabled, checks the request signature
func (h *Handler) parseTwilio(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		Error(w, http.StatusBadRequest, "invalid form body")
		return false
	}
	if !h.Config.TwilioValidateSignatures {
		return true
	}
	if h.Config.TwilioAuthToken == "" {
		Error(w, http.StatusInternalServerError, "Twilio signature validation enabled without auth token")
		return false
	}
	sig := r.Header.Get(headerTwilioSignature)
	if sig == "" {
		Error(w, http.StatusUnauthorized, "missing Twilio signature")
		return false
	}
	expected := TwilioSignature(requestURL(r), r.PostForm, h.Config.TwilioAuthToken)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		Error(w, http.StatusUnauthorized, "invalid Twilio signature")
		return false
	}
	return true
}

// TwilioSignature computes base64(HMAC-SHA1(token, url + sorted key/value pairs))
func TwilioSignature(fullURL string, params url.Values, token string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		for _, v := range params[k] {
			b.WriteString(k)
			b.WriteString(v)
		}
	}
	mac := hmac.New(sha1.New, []byte(token))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// requestURL rebuilds the public URL Twilio signed, dropping default ports
func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}

	host := r.Host
	if h, port, err := net.SplitHostPort(r.Host); err == nil {
		if (scheme == "https" && port == "443") || (scheme == "http" && port == "80") {
			host = h
		}
	}
	return scheme + "://" + host + r.URL.RequestURI()
}
