package gateway

import "net/url"

// Query parameters Stripe-hosted checkout appends to the return URL.
const (
	querySessionID = "session_id"
	queryCanceled  = "canceled"
	queryCancel    = "cancel"
)

// ExtractStripeSessionID pulls the checkout session id out of a redirect
// URL. Returns "" when the URL is unparseable or carries no session id.
func ExtractStripeSessionID(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Query().Get(querySessionID)
}

// IsStripeSuccessRedirect reports whether the URL looks like a completed
// checkout return: it carries a session id and no cancel marker.
func IsStripeSuccessRedirect(rawURL string) bool {
	if IsStripeCancelRedirect(rawURL) {
		return false
	}
	return ExtractStripeSessionID(rawURL) != ""
}

// IsStripeCancelRedirect reports whether the URL carries a cancel marker.
func IsStripeCancelRedirect(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	query := parsed.Query()
	return query.Get(queryCanceled) == "true" || query.Get(queryCancel) == "true"
}
