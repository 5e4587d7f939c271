// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package security holds the remote-service credentials in scrubbing
// wrappers so a finished run leaves as little key material in the heap
// as Go allows.
package security

// SecureString holds a secret in a byte slice that Clear can zero.
//
// The guarantee is best effort only: the runtime may have copied the
// backing array during garbage collection, and every String call makes
// an immutable copy for the API client. Clear shrinks the exposure
// window; it cannot empty the heap of all copies.
type SecureString struct {
	data []byte
}

// NewSecureString copies s into a clearable buffer.
func NewSecureString(s string) *SecureString {
	buf := append([]byte(nil), s...)
	return &SecureString{data: buf}
}

// String returns the secret. Call it at the point of use, not earlier;
// the returned copy cannot be scrubbed.
func (ss *SecureString) String() string {
	return string(ss.data)
}

// Clear zeroes and drops the buffer. Safe to call repeatedly; a cleared
// secret reads as the empty string.
func (ss *SecureString) Clear() {
	for i := range ss.data {
		ss.data[i] = 0
	}
	ss.data = nil
}
