package util

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"strings"
)

// RedactEmail keeps enough of the local part to correlate log lines without
// storing the full address.
func RedactEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "[EMAIL-REDACTED]"
	}
	local, dom := email[:at], email[at+1:]
	if len(local) <= 2 {
		return "**@" + dom
	}
	return local[:2] + "***@" + dom
}

func RedactToken(token string) string {
	if len(token) == 0 {
		return ""
	}
	if len(token) <= 8 {
		return "[TOKEN-REDACTED]"
	}
	return token[:4] + "..." + token[len(token)-4:] + "[REDACTED]"
}

func RedactIP(ip string) string {
	host, _, err := net.SplitHostPort(ip)
	if err == nil {
		ip = host
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		hash := sha256.Sum256([]byte(ip))
		return "hash:" + hex.EncodeToString(hash[:8])
	}
	if ipv4 := parsed.To4(); ipv4 != nil {
		ipv4[3] = 0
		return ipv4.String()
	}
	if ipv6 := parsed.To16(); ipv6 != nil {
		for i := 4; i < 16; i++ {
			ipv6[i] = 0
		}
		return ipv6.String()
	}
	hash := sha256.Sum256([]byte(ip))
	return "hash:" + hex.EncodeToString(hash[:8])
}
