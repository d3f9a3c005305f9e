// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package metrics exposes Prometheus metrics for vote casting.

	civic_ballot_casts_total{kind, outcome}       counter
	civic_ballot_cast_duration_seconds{kind}      histogram

Outcomes are the ballot outcome labels (accepted, already_voted,
poll_expired, unknown_domain, invalid_choice, storage_failure). Fingerprints
and scope ids are never used as labels.

The registry also carries the process and Go runtime collectors and is
served at GET /metrics.
*/
package metrics
