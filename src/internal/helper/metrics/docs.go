// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package metrics holds the [Prometheus] collectors of the verifier.
//
// Every collector is registered on a private registry so that embedding the
// verifier never collides with the host application's default registry.
// Applications that export metrics can add [Registry] to their own gatherers.
//
// [Prometheus]: https://prometheus.io
package metrics
