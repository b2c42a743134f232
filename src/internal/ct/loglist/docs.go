// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package loglist acquires, authenticates and parses the list of trusted
// Certificate Transparency logs published by a log list distributor.
//
// The raw list is a JSON document plus a detached SHA256withRSA signature,
// fetched either as two files or as one zip archive. Every download is
// capped in size. The signature is checked against the distributor's public
// key before the JSON is parsed. Two schemas are understood: the flat v1
// layout and the operator-grouped v2/v3 layout with per-log lifecycle state.
//
// Outcomes are reported as a closed set of [Result] values. Failures are
// [Invalid] results that also implement error, and [IsRetryable] separates
// transient network failures from terminal ones such as a bad signature.
//
// [NewDataSource] wires the default cache chain: memory, an optional disk
// cache, the zip source and the json+sig source, composed as a fallback
// chain, deduplicated with datasource.ReuseInflight and transformed into
// parsed [Result] values.
package loglist
