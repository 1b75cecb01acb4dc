package utils

import (
	"strings"

	"go.mau.fi/whatsmeow/types"
)

// OnlyDigits strips everything that is not 0-9.
func OnlyDigits(v string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, v)
}

// NormalizeJID drops the device part of a JID and returns its string form.
// Unparseable input is returned trimmed.
func NormalizeJID(jid string) string {
	jid = strings.TrimSpace(jid)
	if jid == "" {
		return ""
	}
	parsed, err := types.ParseJID(jid)
	if err != nil {
		return jid
	}
	return parsed.ToNonAD().String()
}

// UserFromJID returns the user part ("628123") of "628123:4@s.whatsapp.net".
func UserFromJID(jid string) string {
	user, _, _ := strings.Cut(jid, "@")
	user, _, _ = strings.Cut(user, ":")
	return user
}

func IsGroupJID(jid string) bool {
	return strings.HasSuffix(jid, "@"+types.GroupServer)
}

// FormatPairingCode groups a pairing code in blocks of four ("ABCD-EFGH").
func FormatPairingCode(code string) string {
	code = strings.ReplaceAll(strings.TrimSpace(code), "-", "")
	if len(code) <= 4 {
		return code
	}
	var b strings.Builder
	for i := 0; i < len(code); i += 4 {
		if i > 0 {
			b.WriteByte('-')
		}
		end := i + 4
		if end > len(code) {
			end = len(code)
		}
		b.WriteString(code[i:end])
	}
	return b.String()
}
