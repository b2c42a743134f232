// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package posix holds small helpers that behave the same on [POSIX] systems
// and Windows, such as naming the running executable in CLI usage lines.
//
// [POSIX]: https://grokipedia.com/page/POSIX
package posix
