// Package encryption implements the kirmah transform pipeline.
//
// Encryption runs, in order: encode (optional gzip, then base64), the
// stream cipher (optionally split across workers), randomize (keyed block
// permutation), mix (keyed partition scatter with noise) and seal (optional
// gzip, then the header). Decryption runs the mirror image. Optional stages
// are recorded in the header, so decoding needs nothing but the key.
//
// Every stage reads the previous stage's artifact from a per-invocation
// workspace; the workspace is removed on success and on failure.
package encryption
