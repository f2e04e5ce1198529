package goArgon2

import "time"

// SecurityReport summarizes the effective settings of an Engine.
type SecurityReport struct {
	Hash               HashParamsReport
	PowWorkers         int
	PowBusyPolicy      string
	PowHashRateCap     int
	ChallengesEnabled  bool
	ChallengeParams    HashParamsReport
	ChallengeBits      uint32
	ChallengeTTL       time.Duration
	SigningAlgorithm   string
	ClearanceTTL       time.Duration
	RateLimitingActive bool
	AuditEnabled       bool
	MetricsEnabled     bool
}

// HashParamsReport lists Argon2 cost parameters.
type HashParamsReport struct {
	Mode        string
	Time        uint32
	Memory      uint32
	Parallelism uint32
	KeyLength   uint32
}

// SecurityReport returns the effective settings of e.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	busy := "reject"
	if e.config.Pow.BusyPolicy == PowBusyCancelPrevious {
		busy = "cancel_previous"
	}

	r := SecurityReport{
		Hash: HashParamsReport{
			Mode:        string(e.config.Hash.Mode),
			Time:        e.config.Hash.Time,
			Memory:      e.config.Hash.Memory,
			Parallelism: e.config.Hash.Parallelism,
			KeyLength:   e.config.Hash.KeyLength,
		},
		PowWorkers:        e.coordinator.Workers(),
		PowBusyPolicy:     busy,
		PowHashRateCap:    e.config.Pow.MaxHashesPerSecond,
		ChallengesEnabled: e.issuer != nil,
		AuditEnabled:      e.audit != nil,
		MetricsEnabled:    e.metrics.Enabled(),
	}
	if e.issuer != nil {
		r.ChallengeParams = HashParamsReport{
			Mode:        string(ModeArgon2id),
			Time:        e.config.Challenge.Time,
			Memory:      e.config.Challenge.Memory,
			Parallelism: e.config.Challenge.Parallelism,
			KeyLength:   e.config.Challenge.HashLength,
		}
		r.ChallengeBits = e.config.Challenge.Difficulty
		r.ChallengeTTL = e.config.Challenge.TTL
		r.SigningAlgorithm = e.config.Clearance.SigningMethod
		r.ClearanceTTL = e.config.Clearance.TTL
		r.RateLimitingActive = e.rateLimiter != nil
	}
	return r
}
