package httpapi

// maxBodyBytes controls the maximum allowed request body size for JSON and
// form endpoints.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}

// submitsPerMinute limits submits per client address; zero disables.
var submitsPerMinute = 0

// SetRateLimit sets the per-client submit limit. Negative values disable it.
func SetRateLimit(perMinute int) {
	if perMinute < 0 {
		perMinute = 0
	}
	submitsPerMinute = perMinute
}

// PageOptions carries the text shown on the chat page.
type PageOptions struct {
	Title          string
	Tagline        string
	UserLabel      string
	AssistantLabel string
}

var page = PageOptions{
	Title:          "Medical Chatbot",
	Tagline:        "Consult with the doctor.",
	UserLabel:      "You",
	AssistantLabel: "Doctor",
}

// SetPageOptions replaces the page text. Empty fields keep their defaults.
func SetPageOptions(o PageOptions) {
	if o.Title != "" {
		page.Title = o.Title
	}
	if o.Tagline != "" {
		page.Tagline = o.Tagline
	}
	if o.UserLabel != "" {
		page.UserLabel = o.UserLabel
	}
	if o.AssistantLabel != "" {
		page.AssistantLabel = o.AssistantLabel
	}
}
