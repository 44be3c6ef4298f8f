// Package digest verifies pulled container images against digests pinned
// into the polis binary.
//
// The manifest is embedded from images.json at build time and cannot be
// changed at runtime. Verification has three outcomes: Verified, Skipped
// (empty manifest, with a warning) or an integrity error naming the image,
// both digests and [RecoveryCommand].
package digest
