package application

import (
	"crypto/rand"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
)

const (
	applicationPrefix = "APP"
	admitCardPrefix   = "ADM"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

func newNumber(prefix string) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return prefix + ulid.MustNew(ulid.Timestamp(core.NowFunc()), entropy).String()
}

// NewApplicationNumber returns a unique, sortable application number.
func NewApplicationNumber() string { return newNumber(applicationPrefix) }

// NewAdmitCardNumber returns a unique, sortable admit card number.
func NewAdmitCardNumber() string { return newNumber(admitCardPrefix) }
