package services

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"
)

// CaptchaService produces the small arithmetic question asked on signup.
type CaptchaService struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCaptchaService() *CaptchaService {
	return NewCaptchaServiceWithSeed(time.Now().UnixNano())
}

func NewCaptchaServiceWithSeed(seed int64) *CaptchaService {
	return &CaptchaService{rnd: rand.New(rand.NewSource(seed))}
}

// GenerateMathProblem returns a display string (e.g. "3 + 5") and its answer.
// The answer is kept in the session; the question is shown to the user.
func (s *CaptchaService) GenerateMathProblem() (string, int) {
	s.mu.Lock()
	a := s.rnd.Intn(10)
	b := s.rnd.Intn(10)
	op := s.rnd.Intn(2)
	s.mu.Unlock()

	if op == 0 {
		return fmt.Sprintf("%d + %d", a, b), a + b
	}
	// keep the result non-negative
	if a < b {
		a, b = b, a
	}
	return fmt.Sprintf("%d - %d", a, b), a - b
}

// Verify compares the submitted answer with the expected one.
func (s *CaptchaService) Verify(submitted string, expected int) bool {
	n, err := strconv.Atoi(strings.TrimSpace(submitted))
	return err == nil && n == expected
}
