// Package indicators matches extracted links against a list of known
// malicious domains.
package indicators

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Indicators holds a set of lowercase domains to match against.
type Indicators struct {
	domains map[string]struct{}
}

// NewFromDomains builds an indicator set from a list of domains. Entries are
// lowercased; empty entries are dropped.
func NewFromDomains(domains []string) *Indicators {
	ind := &Indicators{domains: make(map[string]struct{}, len(domains))}
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		ind.domains[d] = struct{}{}
	}
	return ind
}

// LoadDomains reads a newline-delimited domain list. Blank lines and lines
// starting with # are skipped.
func LoadDomains(path string) (*Indicators, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening indicator file: %w", err)
	}
	defer f.Close()

	ind := &Indicators{domains: make(map[string]struct{})}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ind.domains[strings.ToLower(line)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading indicator file: %w", err)
	}
	return ind, nil
}

// Len returns the number of loaded domains.
func (i *Indicators) Len() int {
	return len(i.domains)
}

// MatchesAnyDomain reports whether any link resolves to a listed domain or a
// subdomain of one.
func (i *Indicators) MatchesAnyDomain(links []string) bool {
	for _, link := range links {
		host := hostFromLink(link)
		if host == "" {
			continue
		}
		if _, ok := i.domains[host]; ok {
			return true
		}
		for domain := range i.domains {
			if strings.HasSuffix(host, "."+domain) {
				return true
			}
		}
	}
	return false
}

// hostFromLink extracts the lowercase hostname from a link as found in
// message text, tolerating missing schemes and trailing punctuation.
func hostFromLink(link string) string {
	link = strings.TrimRight(link, ".,;:!?)'\"")
	if !strings.Contains(link, "://") {
		link = "http://" + link
	}
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
