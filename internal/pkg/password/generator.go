// Package password generates temporary passwords for provisioned accounts.
package password

import (
	"crypto/rand"
	"io"
	"math/big"
	"strings"
)

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Generator produces one temporary password per call.
type Generator interface {
	Generate() (string, error)
}

// Temporary generates passwords formatted as XXXX-XXXX-XXXX, each X drawn
// uniformly from alphabet, with at least one digit, one upper and one lower
// case letter.
type Temporary struct {
	random io.Reader
}

func NewTemporary() *Temporary {
	return &Temporary{random: rand.Reader}
}

func (g *Temporary) Generate() (string, error) {
	for {
		raw, err := g.randomString(12)
		if err != nil {
			return "", err
		}
		if !mixed(raw) {
			continue
		}
		return raw[0:4] + "-" + raw[4:8] + "-" + raw[8:12], nil
	}
}

func (g *Temporary) randomString(n int) (string, error) {
	var sb strings.Builder
	sb.Grow(n)

	limit := big.NewInt(int64(len(alphabet)))
	for range n {
		idx, err := rand.Int(g.random, limit)
		if err != nil {
			return "", err
		}
		sb.WriteByte(alphabet[idx.Int64()])
	}

	return sb.String(), nil
}

func mixed(s string) bool {
	return strings.ContainsAny(s, alphabet[:10]) &&
		strings.ContainsAny(s, alphabet[10:36]) &&
		strings.ContainsAny(s, alphabet[36:])
}
