package admin

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// UseFastHashing lowers the bcrypt cost so tests stay quick.
func (s *Service) UseFastHashing() { s.hashCost = bcrypt.MinCost }

// SetClock pins the service clock.
func (s *Service) SetClock(now func() time.Time) { s.now = now }
