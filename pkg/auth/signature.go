package auth

import "fmt"

// SignatureType identifies the class of token a signing secret belongs to
type SignatureType string

const (
	SignatureUser    SignatureType = "user"
	SignatureService SignatureType = "service"
)

// ValidSignatureTypes lists all valid token classes
var ValidSignatureTypes = []SignatureType{SignatureUser, SignatureService}

// IsValid checks if a signature type is valid
func (t SignatureType) IsValid() bool {
	for _, valid := range ValidSignatureTypes {
		if t == valid {
			return true
		}
	}
	return false
}

// ParseSignatureType parses a string into a SignatureType, returning an error if invalid
func ParseSignatureType(s string) (SignatureType, error) {
	st := SignatureType(s)
	if !st.IsValid() {
		return "", fmt.Errorf("invalid signature type %q, valid types: %v", s, ValidSignatureTypes)
	}
	return st, nil
}
