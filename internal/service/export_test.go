package service

import (
	"time"

	"finguard/internal/config"
)

// NewTokenServiceWithClock lets tests pin token issue and expiry times.
func NewTokenServiceWithClock(cfg config.JWTConfig, now func() time.Time) TokenService {
	return &tokenService{cfg: cfg, now: now}
}
