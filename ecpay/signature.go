package ecpay

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/url"
	"sort"
	"strings"
)

var ErrSignatureMismatch = errors.New("ecpay: CheckMacValue mismatch")

// Characters the gateway leaves unescaped after lowercasing. "~" is escaped
// on the gateway side, unlike url.QueryEscape.
var macReplacer = strings.NewReplacer(
	"%2d", "-",
	"%5f", "_",
	"%2e", ".",
	"%21", "!",
	"%2a", "*",
	"%28", "(",
	"%29", ")",
	"%20", "+",
	"~", "%7e",
)

// CheckMacValue returns the uppercase SHA256 signature of params. Any
// CheckMacValue entry in params is ignored.
func CheckMacValue(params map[string]string, hashKey, hashIV string) string {
	sum := sha256.Sum256([]byte(canonicalize(params, hashKey, hashIV)))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

func canonicalize(params map[string]string, hashKey, hashIV string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == FieldCheckMacValue {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("HashKey=")
	b.WriteString(hashKey)
	for _, k := range keys {
		b.WriteByte('&')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	b.WriteString("&HashIV=")
	b.WriteString(hashIV)

	return macReplacer.Replace(strings.ToLower(url.QueryEscape(b.String())))
}

// VerifyCheckMacValue recomputes the signature of params and compares it with
// the CheckMacValue they carry in constant time.
func VerifyCheckMacValue(params map[string]string, hashKey, hashIV string) error {
	given := strings.ToUpper(params[FieldCheckMacValue])
	if given == "" {
		return ErrSignatureMismatch
	}
	expected := CheckMacValue(params, hashKey, hashIV)
	if subtle.ConstantTimeCompare([]byte(given), []byte(expected)) != 1 {
		return ErrSignatureMismatch
	}
	return nil
}

// FlattenForm keeps the first value of every form key.
func FlattenForm(form url.Values) map[string]string {
	params := make(map[string]string, len(form))
	for k, v := range form {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	return params
}
