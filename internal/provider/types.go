package provider

// AuthType selects how a session is obtained for a provider
type AuthType string

const (
	// AuthNone means the provider's files are public
	AuthNone AuthType = "none"
	// AuthCookieSession means a form login yields session cookies
	AuthCookieSession AuthType = "cookie-session"
	// AuthUnimplemented marks a provider whose portal has no supported
	// auth scheme yet
	AuthUnimplemented AuthType = "unimplemented"
)

// ListingStrategy selects how candidate price files are discovered
type ListingStrategy string

const (
	// StrategyAPIDirectory calls an authenticated JSON listing endpoint
	StrategyAPIDirectory ListingStrategy = "api-directory"
	// StrategyAnchorScan scans an index page for file anchors
	StrategyAnchorScan ListingStrategy = "html-anchor-scan"
	// StrategyUnimplemented marks a provider with no supported listing
	// mechanism; such providers are registered but never crawled
	StrategyUnimplemented ListingStrategy = "unimplemented"
)

// Identity is a fixed login identity for cookie-session providers.
// The published-prices portal hands out per-chain usernames with empty
// passwords.
type Identity struct {
	Username string
	Password string
}

// Config describes one price provider. The set of providers is fixed
// at process start.
type Config struct {
	ID       string
	Name     string
	BaseURL  string
	Auth     AuthType
	Strategy ListingStrategy
	Identity *Identity
	Enabled  bool
}

// Session is a provider-scoped authenticated session. It is threaded
// explicitly through discovery and download calls and never shared
// between providers.
type Session struct {
	Cookie string
}
