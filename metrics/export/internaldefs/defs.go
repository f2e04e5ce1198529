package internaldefs

import (
	goArgon2 "github.com/MrEthical07/goArgon2"
)

// CounterDef names one counter of [goArgon2.MetricsSnapshot].
type CounterDef struct {
	ID   goArgon2.MetricID
	Name string
	Help string
}

// HistogramDef names one latency histogram of [goArgon2.MetricsSnapshot].
type HistogramDef struct {
	ID   goArgon2.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: goArgon2.MetricHashSuccess, Name: "goargon2_hash_success_total", Help: "Successful hash operations."},
	{ID: goArgon2.MetricHashFailure, Name: "goargon2_hash_failure_total", Help: "Hash operations rejected for invalid input."},
	{ID: goArgon2.MetricVerifySuccess, Name: "goargon2_verify_success_total", Help: "Password verifications that matched."},
	{ID: goArgon2.MetricVerifyMismatch, Name: "goargon2_verify_mismatch_total", Help: "Password verifications that did not match."},
	{ID: goArgon2.MetricVerifyFailure, Name: "goargon2_verify_failure_total", Help: "Verifications of malformed encoded hashes."},
	{ID: goArgon2.MetricPowFound, Name: "goargon2_pow_found_total", Help: "Proof-of-work searches that found a nonce."},
	{ID: goArgon2.MetricPowExhausted, Name: "goargon2_pow_exhausted_total", Help: "Proof-of-work searches that ran out of attempts."},
	{ID: goArgon2.MetricPowTimedOut, Name: "goargon2_pow_timed_out_total", Help: "Proof-of-work searches stopped by their timeout."},
	{ID: goArgon2.MetricPowCancelled, Name: "goargon2_pow_cancelled_total", Help: "Proof-of-work searches cancelled by the caller."},
	{ID: goArgon2.MetricPowBusy, Name: "goargon2_pow_busy_total", Help: "Proof-of-work requests rejected while a search was running."},
	{ID: goArgon2.MetricPowAttempts, Name: "goargon2_pow_attempts_total", Help: "Argon2 evaluations performed by proof-of-work searches."},
	{ID: goArgon2.MetricChallengeIssued, Name: "goargon2_challenge_issued_total", Help: "Issued challenges."},
	{ID: goArgon2.MetricChallengeRateLimited, Name: "goargon2_challenge_rate_limited_total", Help: "Challenge issuances denied by rate limits."},
	{ID: goArgon2.MetricChallengeRedeemed, Name: "goargon2_challenge_redeemed_total", Help: "Challenges redeemed for a clearance token."},
	{ID: goArgon2.MetricChallengeRejected, Name: "goargon2_challenge_rejected_total", Help: "Challenge redemptions that failed."},
	{ID: goArgon2.MetricClearanceValid, Name: "goargon2_clearance_valid_total", Help: "Clearance tokens that validated."},
	{ID: goArgon2.MetricClearanceInvalid, Name: "goargon2_clearance_invalid_total", Help: "Clearance tokens that failed validation."},
}

// HistogramDefs lists every exported latency histogram.
var HistogramDefs = []HistogramDef{
	{ID: goArgon2.MetricHashLatency, Name: "goargon2_hash_latency_seconds", Help: "Hash latency histogram."},
	{ID: goArgon2.MetricPowLatency, Name: "goargon2_pow_latency_seconds", Help: "Proof-of-work search latency histogram."},
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "goargon2_audit_dropped_total"

// AuditDroppedHelp describes [AuditDroppedName].
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

// HistogramBounds are the upper bounds of the snapshot buckets in seconds.
// The last bucket is +Inf.
var HistogramBounds = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 5}

// NormalizeBuckets copies raw into a fixed-size array, zero-padding or
// truncating as needed.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
