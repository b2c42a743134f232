// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package datasource provides a small generic cache abstraction and the
// combinators used to chain caches and fetchers together.
//
// A [DataSource] is anything that can produce a value and optionally store
// one. [Compose] forms a fallback chain that writes values found further down
// back into the layers above, [ReuseInflight] collapses concurrent fetches
// into one, and [OneWayTransform] maps the values of a source into another
// type. The log list pipeline is assembled from these:
//
//	memory := datasource.NewMemory[Raw](ttl)
//	chain := datasource.Compose(memory, datasource.Compose(zip, network))
//	list := datasource.OneWayTransform(datasource.ReuseInflight(chain), parse)
package datasource
