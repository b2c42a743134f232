// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package policy

import (
	"crypto/x509"
	"time"
)

// Bounds of the SCT count policy.
const (
	MinSCTs = 2
	MaxSCTs = 5
)

// Months returns the whole calendar months from start to end and whether
// any time remains after them. An end before start is zero months.
func Months(start, end time.Time) (months int, partial bool) {
	if !end.After(start) {
		return 0, false
	}
	start, end = start.UTC(), end.UTC()
	months = (end.Year()-start.Year())*12 + int(end.Month()-start.Month())
	if start.AddDate(0, months, 0).After(end) {
		months--
	}
	return months, end.After(start.AddDate(0, months, 0))
}

// MinimumSCTs returns how many valid SCTs from distinct logs a certificate
// valid from notBefore to notAfter needs.
//
//	less than 15 months          2
//	15 months up to 27 months    3
//	exactly 27 months            4
//	more than 27 months          5
func MinimumSCTs(notBefore, notAfter time.Time) int {
	months, partial := Months(notBefore, notAfter)
	switch {
	case months > 27 || months == 27 && partial:
		return MaxSCTs
	case months == 27:
		return 4
	case months >= 15:
		return 3
	}
	return MinSCTs
}

// Required is MinimumSCTs for cert's validity period.
func Required(cert *x509.Certificate) int {
	return MinimumSCTs(cert.NotBefore, cert.NotAfter)
}
