package core

// Credentials holds the API keys per provider name
type Credentials struct {
	Keys map[string]string
	// Fallback names the provider whose key is used when one is missing
	Fallback string
}

// Resolve returns the key for provider, or the fallback provider's key
func (c *Credentials) Resolve(provider string) (string, bool) {
	if c == nil {
		return "", false
	}
	if key := c.Keys[provider]; key != "" {
		return key, true
	}
	if key := c.Keys[c.Fallback]; key != "" {
		return key, true
	}
	return "", false
}
