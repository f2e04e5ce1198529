package pow

import (
	"fmt"
	"time"

	"github.com/MrEthical07/goArgon2/kdf"
	"go.uber.org/zap"
)

type stopReason int

const (
	stopFound stopReason = iota
	stopCancelled
	stopDeadline
	stopBudget
	stopFailed
)

type workerResult struct {
	workerID int
	reason   stopReason
	nonce    uint32
	digest   []byte
	attempts uint32
	err      error
}

// runWorker searches a's range sequentially until it finds a match, sees the
// cancel flag, passes the deadline or spends its budget.
func (c *Coordinator) runWorker(s *searchState, a Assignment, req *Request, h Hasher) (res workerResult) {
	res.workerID = a.WorkerID

	var local uint32
	defer func() {
		if r := recover(); r != nil {
			res = workerResult{
				workerID: a.WorkerID,
				reason:   stopFailed,
				attempts: local,
				err:      fmt.Errorf("%w: panic: %v", ErrWorkerFailure, r),
			}
			c.logger.Error("pow worker panicked",
				zap.String("search", s.id),
				zap.Int("worker", a.WorkerID),
				zap.Error(res.err),
			)
		}
	}()

	counter := &s.attempts[a.WorkerID].value
	candidate := make([]byte, 0, len(req.Base)+1+MaxNonceLen)
	nonce := a.Start

	for {
		if s.cancelled.Load() {
			res.reason, res.attempts = stopCancelled, local
			return res
		}
		if !time.Now().Before(s.deadline) {
			res.reason, res.attempts = stopDeadline, local
			return res
		}
		if local >= a.Budget {
			res.reason, res.attempts = stopBudget, local
			return res
		}

		candidate = AppendCandidate(candidate[:0], req.Base, nonce)

		if c.throttle != nil {
			c.throttle.Take()
			if s.cancelled.Load() {
				res.reason, res.attempts = stopCancelled, local
				return res
			}
			if !time.Now().Before(s.deadline) {
				res.reason, res.attempts = stopDeadline, local
				return res
			}
		}

		digest, err := h.Digest(candidate, req.Salt, req.Params, kdf.ModeArgon2id)
		if err != nil {
			res.reason, res.attempts = stopFailed, local
			res.err = fmt.Errorf("%w: %v", ErrWorkerFailure, err)
			c.logger.Error("pow worker hash failed",
				zap.String("search", s.id),
				zap.Int("worker", a.WorkerID),
				zap.Error(err),
			)
			return res
		}

		local++
		counter.Add(1)

		if MeetsDifficulty(digest, req.RequiredBits) {
			res.reason = stopFound
			res.nonce = nonce
			res.digest = digest
			res.attempts = local
			return res
		}

		nonce++
	}
}
