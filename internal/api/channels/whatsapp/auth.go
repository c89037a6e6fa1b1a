package whatsapp

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	twclient "github.com/twilio/twilio-go/client"
	"go.uber.org/zap"

	"github.com/Conversly/lightning-whatsapp/internal/response"
	"github.com/Conversly/lightning-whatsapp/internal/utils"
)

const (
	SignatureHeader = "X-Twilio-Signature"
	channelPrefix   = "whatsapp:"
)

// SignatureVerifier checks Twilio's X-Twilio-Signature over the public
// request URL and the POSTed form parameters.
type SignatureVerifier struct {
	validator     twclient.RequestValidator
	enabled       bool
	publicBaseURL string
}

func NewSignatureVerifier(authToken string, enabled bool, publicBaseURL string) *SignatureVerifier {
	return &SignatureVerifier{
		validator:     twclient.NewRequestValidator(authToken),
		enabled:       enabled,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// RequestURL rebuilds the URL Twilio signed. Behind a proxy the configured
// public base URL wins over what the server sees.
func (v *SignatureVerifier) RequestURL(r *http.Request) string {
	if v.publicBaseURL != "" {
		return v.publicBaseURL + r.URL.RequestURI()
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

func (v *SignatureVerifier) Valid(r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		return false
	}

	params := make(map[string]string, len(r.PostForm))
	for k, vals := range r.PostForm {
		if len(vals) > 0 {
			params[k] = vals[0]
		}
	}
	return v.validator.Validate(v.RequestURL(r), params, r.Header.Get(SignatureHeader))
}

// Middleware rejects unsigned or mis-signed callbacks with 403 before any
// other work happens.
func (v *SignatureVerifier) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !v.enabled {
			c.Next()
			return
		}
		if c.GetHeader(SignatureHeader) == "" || !v.Valid(c.Request) {
			utils.Zlog.Warn("Invalid Twilio signature",
				zap.String("url", v.RequestURL(c.Request)),
				zap.String("client_ip", c.ClientIP()))
			response.AbortWithError(c, http.StatusForbidden, "invalid_signature")
			return
		}
		c.Next()
	}
}

// StripChannelPrefix turns "whatsapp:+15551234567" into "+15551234567".
func StripChannelPrefix(from string) string {
	return strings.TrimPrefix(strings.TrimSpace(from), channelPrefix)
}

// WithChannelPrefix is the inverse of StripChannelPrefix.
func WithChannelPrefix(number string) string {
	return channelPrefix + StripChannelPrefix(number)
}
