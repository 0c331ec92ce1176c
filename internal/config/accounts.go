package config

import (
	"fmt"
	"strings"
)

// Credential is one identifier:secret pair. String never prints the secret.
type Credential struct {
	Identifier string
	Secret     string
}

func (c Credential) String() string {
	return c.Identifier + ":***"
}

// ParseAccounts splits "id1:secret1,id2:secret2" into credentials, keeping
// input order. Each pair splits on its first colon, so secrets may contain
// colons. Blank segments are skipped; anything else malformed is an error.
func ParseAccounts(raw string) ([]Credential, error) {
	var creds []Credential

	for i, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		id, secret, ok := strings.Cut(item, ":")
		if !ok {
			return nil, fmt.Errorf("account #%d: missing ':' between identifier and secret", i+1)
		}

		id = strings.TrimSpace(id)
		secret = strings.TrimSpace(secret)
		if id == "" {
			return nil, fmt.Errorf("account #%d: empty identifier", i+1)
		}
		if secret == "" {
			return nil, fmt.Errorf("account #%d (%s): empty secret", i+1, id)
		}

		creds = append(creds, Credential{Identifier: id, Secret: secret})
	}

	if len(creds) == 0 {
		return nil, fmt.Errorf("no accounts configured")
	}

	return creds, nil
}

// Credentials parses the configured accounts string.
func (c *Config) Credentials() ([]Credential, error) {
	return ParseAccounts(c.Accounts)
}
