package k8s

import "strings"

// GossipDomain is the suffix that makes kops use gossip instead of Route 53 for cluster DNS.
const GossipDomain = "k8s.local"

// maxDNSLabel is the DNS-1123 label length limit.
const maxDNSLabel = 63

// SanitizeToDNSLabel converts an arbitrary string to a lowercase alphanumeric
// string with hyphens as the only separator. Consecutive hyphens are collapsed
// and leading/trailing hyphens are trimmed.
func SanitizeToDNSLabel(value string) string {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return ""
	}

	var builder strings.Builder

	prevHyphen := false

	for _, char := range trimmed {
		switch {
		case (char >= 'a' && char <= 'z') || (char >= '0' && char <= '9'):
			builder.WriteRune(char)

			prevHyphen = false
		default:
			if !prevHyphen {
				builder.WriteRune('-')

				prevHyphen = true
			}
		}
	}

	label := strings.Trim(builder.String(), "-")
	if len(label) > maxDNSLabel {
		label = strings.TrimRight(label[:maxDNSLabel], "-")
	}

	return label
}

// GossipClusterName joins the sanitized parts into a single label under GossipDomain,
// e.g. ("kci", "feature/x", "a1b2c3") becomes "kci-feature-x-a1b2c3.k8s.local".
func GossipClusterName(parts ...string) string {
	labels := make([]string, 0, len(parts))

	for _, part := range parts {
		if label := SanitizeToDNSLabel(part); label != "" {
			labels = append(labels, label)
		}
	}

	return SanitizeToDNSLabel(strings.Join(labels, "-")) + "." + GossipDomain
}
