// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package cli provides the command-line interface for the TLS CT verifier.
// It implements a Cobra-based CLI that checks hosts or certificate files for
// Certificate Transparency, inspects the trusted log list, and talks to CT
// logs directly (tree heads, submissions, entries and accepted roots).
// Settings come from a JSON or YAML file, overridden by flags, and every
// verification outcome is recorded through the structured logger.
package cli
