package registration

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"citizen-registry/internal/domain"
)

// CodeGenerator issues registration codes of the form <prefix>-<ULID>. Codes
// generated within the same millisecond stay distinct and ordered because the
// entropy source is monotonic.
type CodeGenerator struct {
	mu      sync.Mutex
	now     func() time.Time
	entropy *ulid.MonotonicEntropy
}

func NewCodeGenerator(now func() time.Time) *CodeGenerator {
	return newCodeGenerator(now, rand.Reader)
}

func newCodeGenerator(now func() time.Time, r io.Reader) *CodeGenerator {
	if now == nil {
		now = time.Now
	}
	return &CodeGenerator{now: now, entropy: ulid.Monotonic(r, 0)}
}

func (g *CodeGenerator) Next(kind domain.RegistrationKind) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(g.now()), g.entropy)
	if err != nil {
		return "", err
	}
	return kind.CodePrefix() + "-" + id.String(), nil
}
