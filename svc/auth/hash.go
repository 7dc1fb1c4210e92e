package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"snipbin/svc/util"
)

const (
	maxPasswordLength = 512
	saltLength        = 16
	hashTimeout       = 10 * time.Second
)

// dummyHash is a bcrypt digest of an unknowable password. Verification
// against it burns the same CPU as a real mismatch so that lookups on
// unknown emails are not distinguishable by timing.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// Hasher derives and verifies salted bcrypt password hashes. The actual
// bcrypt work runs on a bounded worker pool so a burst of registrations
// cannot monopolize the scheduler.
type Hasher struct {
	cost     int
	jobQueue chan hashJob
	quit     chan struct{}
	wg       sync.WaitGroup
	started  bool
	startMu  sync.Mutex
	stopOnce sync.Once
}

type hashJob struct {
	input []byte
	resp  chan hashResult
}
type hashResult struct {
	hash string
	err  error
}

func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, errors.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Hasher{
		cost:     cost,
		jobQueue: make(chan hashJob, 1024),
		quit:     make(chan struct{}),
	}, nil
}

func (h *Hasher) Start(workers int) error {
	h.startMu.Lock()
	defer h.startMu.Unlock()
	if h.started {
		return errors.New("hasher already started")
	}
	if workers <= 0 {
		workers = 1
	}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go h.worker()
	}
	h.started = true
	return nil
}

func (h *Hasher) Stop() {
	h.stopOnce.Do(func() {
		close(h.quit)
		close(h.jobQueue)
		h.wg.Wait()
	})
}

func (h *Hasher) worker() {
	defer h.wg.Done()
	for {
		select {
		case job, ok := <-h.jobQueue:
			if !ok {
				return
			}
			digest, err := bcrypt.GenerateFromPassword(job.input, h.cost)
			util.Wipe(job.input)
			select {
			case job.resp <- hashResult{hash: string(digest), err: err}:
			case <-h.quit:
				return
			}
		case <-h.quit:
			return
		}
	}
}

// GenerateSalt returns a fresh random per-user salt. Never reused.
func GenerateSalt() (string, error) {
	buf := make([]byte, saltLength)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "salt generation")
	}
	return base64.RawStdEncoding.EncodeToString(buf), nil
}

// compress folds password and salt into a fixed 32-byte HMAC digest.
// bcrypt truncates past 72 bytes, so feeding it the raw concatenation
// would silently cap usable passphrase length; the digest keeps every
// byte of a long passphrase significant.
func compress(password, salt string) []byte {
	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write([]byte(password))
	return mac.Sum(nil)
}

// Hash derives bcrypt(HMAC-SHA256(salt, password)) on the worker pool.
func (h *Hasher) Hash(password, salt string) (string, error) {
	h.startMu.Lock()
	started := h.started
	h.startMu.Unlock()
	if !started {
		return "", errors.New("hasher not started - call Start() first")
	}
	if len(password) == 0 {
		return "", errors.New("empty password")
	}
	if len(password) > maxPasswordLength {
		return "", errors.New("password too long")
	}
	respChan := make(chan hashResult, 1)
	ctx, cancel := context.WithTimeout(context.Background(), hashTimeout)
	defer cancel()
	select {
	case h.jobQueue <- hashJob{input: compress(password, salt), resp: respChan}:
		select {
		case res := <-respChan:
			return res.hash, res.err
		case <-ctx.Done():
			return "", errors.New("hash timeout")
		}
	case <-ctx.Done():
		return "", errors.New("hash queue full")
	case <-h.quit:
		return "", errors.New("hasher is shutting down")
	}
}

// Verify reports whether password + salt matches the stored digest.
// bcrypt's comparison is constant-time on the digest itself.
func (h *Hasher) Verify(password, salt, encoded string) bool {
	if len(password) > maxPasswordLength {
		// Equalize timing before rejecting.
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte("x"))
		return false
	}
	input := compress(password, salt)
	defer util.Wipe(input)
	return bcrypt.CompareHashAndPassword([]byte(encoded), input) == nil
}

// VerifyDummy burns a bcrypt comparison for requests naming an unknown
// user so the response time matches a wrong-password attempt.
func (h *Hasher) VerifyDummy() {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte("x"))
}
