package service

import (
	"math"
	"time"

	"golang.org/x/time/rate"

	"github.com/aussiebroadwan/kagan/internal/kagan/domain"
)

// LoginThrottle limits failed logins per account with a token bucket: a full
// bucket holds Attempts tokens and refills over Window. The bucket is rebuilt
// from the failure state stored on the user row, so the limit holds across
// separate runs of the program. Only failures consume tokens. A nil
// *LoginThrottle allows everything.
type LoginThrottle struct {
	limit rate.Limit
	burst int
	now   func() time.Time
}

// NewLoginThrottle returns nil when attempts or window is not positive.
func NewLoginThrottle(attempts int, window time.Duration) *LoginThrottle {
	if attempts <= 0 || window <= 0 {
		return nil
	}
	return &LoginThrottle{
		limit: rate.Limit(float64(attempts) / window.Seconds()),
		burst: attempts,
		now:   time.Now,
	}
}

// bucket rebuilds u's limiter as it stood right after the last failure.
func (t *LoginThrottle) bucket(u domain.User) *rate.Limiter {
	l := rate.NewLimiter(t.limit, t.burst)
	if u.FailedLogins > 0 {
		l.AllowN(u.LastFailedLogin, min(u.FailedLogins, t.burst))
	}
	return l
}

// Allowed reports whether another attempt for u may proceed.
func (t *LoginThrottle) Allowed(u domain.User) bool {
	if t == nil {
		return true
	}
	return t.bucket(u).TokensAt(t.now()) >= 1-1e-9
}

// Failed charges one attempt to u and returns the state to persist: the
// number of spent tokens (rounded up to whole attempts) and the time of the
// failure.
func (t *LoginThrottle) Failed(u domain.User) (int, time.Time) {
	now := t.now()
	l := t.bucket(u)
	l.AllowN(now, 1)

	spent := math.Ceil(float64(t.burst) - l.TokensAt(now) - 1e-9)
	return int(max(0, min(spent, float64(t.burst)))), now
}
