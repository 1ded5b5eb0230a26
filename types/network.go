// Package types defines core domain types for the gridsync runtime.
//
//nolint:revive // types is a common Go package naming convention
package types

import "fmt"

// NetworkKind identifies a social network whose analytics land in one
// destination tab per group. The set is closed: adding a network is a
// compile-time change (new constant, new formatter, registry entry).
type NetworkKind string

const (
	NetworkInstagram NetworkKind = "instagram"
	NetworkYouTube   NetworkKind = "youtube"
	NetworkLinkedIn  NetworkKind = "linkedin"
	NetworkFacebook  NetworkKind = "facebook"
	NetworkTwitter   NetworkKind = "twitter"
)

// AllNetworks returns every supported network in stable order.
// Orchestration iterates this slice; ordering determines tab order
// within a group spreadsheet.
func AllNetworks() []NetworkKind {
	return []NetworkKind{
		NetworkInstagram,
		NetworkYouTube,
		NetworkLinkedIn,
		NetworkFacebook,
		NetworkTwitter,
	}
}

// ParseNetwork parses a network identifier string.
// Returns an error for unknown networks.
func ParseNetwork(s string) (NetworkKind, error) {
	switch NetworkKind(s) {
	case NetworkInstagram, NetworkYouTube, NetworkLinkedIn, NetworkFacebook, NetworkTwitter:
		return NetworkKind(s), nil
	default:
		return "", fmt.Errorf("unknown network: %q", s)
	}
}

// TabTitle returns the destination tab title for this network.
func (n NetworkKind) TabTitle() string {
	switch n {
	case NetworkInstagram:
		return "Instagram"
	case NetworkYouTube:
		return "YouTube"
	case NetworkLinkedIn:
		return "LinkedIn"
	case NetworkFacebook:
		return "Facebook"
	case NetworkTwitter:
		return "Twitter"
	default:
		return string(n)
	}
}
