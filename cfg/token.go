package cfg

// Token holds the key for token validation. An empty key disables validation.
type Token struct {
	PublicKey string
}

// Enabled reports whether requests must carry a token.
func (t Token) Enabled() bool {
	return t.PublicKey != ""
}
