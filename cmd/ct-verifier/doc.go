// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// ct-verifier checks that TLS servers present certificates logged in
// Certificate Transparency, and talks to CT logs directly.
//
// # Installation
//
// Install with Go 1.25.5 or later:
//
//	go install github.com/H0llyW00dzZ/tls-ct-verifier/cmd/ct-verifier@latest
//
// # Usage
//
//	ct-verifier [GLOBAL FLAGS] COMMAND [FLAGS]
//
// # Commands
//
//	verify   HOST[:PORT] or --file; checks SCTs against the trusted log list
//	loglist  Print the trusted CT logs
//	sth      Fetch and verify a log's signed tree head
//	submit   Submit a chain to a log and print the SCT
//	entries  List a range of log entries
//	roots    List the roots a log accepts
//
// # Global flags
//
//	-c, --config           YAML or JSON config file (or CT_VERIFIER_CONFIG_FILE)
//	    --distributor-key  PEM key that signs the log list (or CT_VERIFIER_DISTRIBUTOR_KEY)
//	    --loglist-url      Base URL of the log list distribution
//	    --cache-dir        Directory for the on-disk log list cache
//	    --anchors          Extra trust anchors for chain cleaning
//	    --metrics          Print Prometheus metrics when the command ends
//	    --log-level        trace, debug, info, warn or error
//	    --log-format       json or text
//	    --log-file         Rotate structured logs into this file
//
// # Exit status
//
// 0 when the command succeeded, 2 when verify rejected the host, 1 for any
// other error and 130 when interrupted.
//
// # Examples
//
// Check a live server:
//
//	ct-verifier --distributor-key log_list_pubkey.pem verify example.com
//
// Check a saved bundle with CRL and OCSP revocation, as JSON:
//
//	ct-verifier verify -f chain.pem --host example.com --crl --ocsp --json
//
// Prove a submitted chain is included in a log:
//
//	ct-verifier submit chain.pem --log "Example Log" --prove
package main
