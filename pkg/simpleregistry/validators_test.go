package simpleregistry_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tendant/simple-registry/pkg/simpleregistry"
)

func TestAcceptNonEmpty(t *testing.T) {
	v := simpleregistry.AcceptNonEmpty()

	tests := []struct {
		name      string
		hash      string
		reference string
		want      bool
	}{
		{name: "non-empty hash accepted", hash: "hashX", reference: "oracle-v1", want: true},
		{name: "reference is ignored", hash: "hashX", reference: "", want: true},
		{name: "empty hash rejected", hash: "", reference: "oracle-v1", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.ValidateContent(tt.hash, tt.reference))
		})
	}
}

func TestPrefixAllowlist(t *testing.T) {
	v := simpleregistry.PrefixAllowlist()

	tests := []struct {
		name      string
		hash      string
		reference string
		want      bool
	}{
		{name: "matching prefix", hash: "sha256:abc", reference: "sha256:", want: true},
		{name: "second prefix matches", hash: "sha512:abc", reference: "sha256:,sha512:", want: true},
		{name: "whitespace around prefixes", hash: "sha512:abc", reference: "sha256: , sha512:", want: true},
		{name: "unknown scheme", hash: "md5:abc", reference: "sha256:,sha512:", want: false},
		{name: "bare hash", hash: "badhash", reference: "sha256:", want: false},
		{name: "empty reference rejects everything", hash: "sha256:abc", reference: "", want: false},
		{name: "empty hash", hash: "", reference: "sha256:", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.ValidateContent(tt.hash, tt.reference))
		})
	}
}

func TestExactAllowlist(t *testing.T) {
	v := simpleregistry.ExactAllowlist()

	tests := []struct {
		name      string
		hash      string
		reference string
		want      bool
	}{
		{name: "listed hash", hash: "h1", reference: "h1,h2", want: true},
		{name: "second listed hash", hash: "h2", reference: "h1,h2", want: true},
		{name: "unlisted hash", hash: "h3", reference: "h1,h2", want: false},
		{name: "prefix match is not enough", hash: "h1-extra", reference: "h1,h2", want: false},
		{name: "empty reference rejects everything", hash: "h1", reference: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.ValidateContent(tt.hash, tt.reference))
		})
	}
}

func TestValidatorFunc(t *testing.T) {
	// Any function with the right shape can serve as a validator
	v := simpleregistry.ValidatorFunc(func(hash, reference string) bool {
		return strings.HasSuffix(hash, reference)
	})

	assert.True(t, v.ValidateContent("content.json", ".json"))
	assert.False(t, v.ValidateContent("content.xml", ".json"))
}
